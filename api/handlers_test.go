/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Position search (matches, filters, splits, validation errors)
- Grade value CRUD with conflict and in-use protection
- Position listing, import and deletion
- Scenarios, health and metrics routes
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffplan/api"
	"github.com/warp/staffplan/position/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testServer struct {
	store  *store.Memory
	router http.Handler
}

func newTestServer(t *testing.T, scenarioID string) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	mem := store.NewMemory()
	if scenarioID != "" {
		require.NoError(t, api.ApplyScenario(context.Background(), mem, scenarioID, log))
	}
	h := api.NewHandler(mem, log)
	return &testServer{
		store:  mem,
		router: api.NewRouter(h, api.RouterOptions{MetricsPath: "/metrics"}),
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func positionIDs(matches []api.MatchDTO) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.PositionID
	}
	return ids
}

const fullYear2025 = `"start_date": "2025-01-01", "end_date": "2025-12-31"`

// =============================================================================
// POSITION FINDER
// =============================================================================

func TestSearchPositions_RanksFreePositions(t *testing.T) {
	// GIVEN: The research-group scenario
	s := newTestServer(t, "research-group")

	// WHEN: Searching a full-time E13 for 2025
	rec := s.do(t, http.MethodPost, "/api/position-finder/search",
		`{`+fullYear2025+`, "employee_grade": "E 13 TV-L"}`)

	// THEN: Only positions with 100% free capacity are ranked, best first
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.SearchResponse](t, rec)

	assert.Equal(t, "E13", resp.EmployeeGrade)
	assert.Equal(t, 100, resp.FillPercentage)
	assert.Equal(t, "5600.00", resp.EmployeeMonthlyCost.String())
	assert.Equal(t, []string{"50000001", "50000005"}, positionIDs(resp.Matches))
	assert.Equal(t, 2, resp.TotalMatchesFound)
	assert.Empty(t, resp.SplitSuggestions)

	best := resp.Matches[0]
	assert.Equal(t, "EXCELLENT", best.MatchQuality)
	assert.Equal(t, 100.0, best.OverallScore)
	assert.Equal(t, "0.00", best.WasteAmount.String())
	assert.Equal(t, "100", best.AvailablePercentage.String())
	assert.Equal(t, []string{}, best.Warnings)

	assert.Equal(t, "950.00", resp.Matches[1].WasteAmount.String())
	assert.Equal(t, 4, resp.Diagnostics.UniquePositions)
}

func TestSearchPositions_RelevanceFilter(t *testing.T) {
	s := newTestServer(t, "research-group")

	rec := s.do(t, http.MethodPost, "/api/position-finder/search",
		`{`+fullYear2025+`, "employee_grade": "E13", "relevance_categories": ["2"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.SearchResponse](t, rec)
	assert.Equal(t, []string{"50000005"}, positionIDs(resp.Matches))
}

func TestSearchPositions_HalfTimeFindsSharedCapacity(t *testing.T) {
	s := newTestServer(t, "research-group")

	rec := s.do(t, http.MethodPost, "/api/position-finder/search",
		`{`+fullYear2025+`, "employee_grade": "E13", "fill_percentage": 50, "organization_scope": "chair-informatics"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.SearchResponse](t, rec)
	assert.Equal(t, "2800.00", resp.EmployeeMonthlyCost.String())
	assert.Contains(t, positionIDs(resp.Matches), "50000002")
	assert.NotContains(t, positionIDs(resp.Matches), "50000003", "fully shared position has no capacity")
}

func TestSearchPositions_SplitSuggestions(t *testing.T) {
	// GIVEN: Only partially free positions
	s := newTestServer(t, "split-needed")

	// WHEN: Searching a full-time E13
	rec := s.do(t, http.MethodPost, "/api/position-finder/search",
		`{`+fullYear2025+`, "employee_grade": "E13"}`)

	// THEN: No single match, but combinations covering 100%
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.SearchResponse](t, rec)
	assert.Empty(t, resp.Matches)
	require.Len(t, resp.SplitSuggestions, 2)

	pair := resp.SplitSuggestions[0]
	assert.Equal(t, 2, pair.SplitCount)
	assert.Equal(t, "100", pair.TotalAvailablePercentage.String())
	assert.Equal(t, "200.00", pair.TotalWasteAmount.String())
	assert.Equal(t, []string{"50001001", "50001003"}, positionIDs(pair.Positions))
	assert.Equal(t, "FAIR", pair.Positions[0].MatchQuality)

	assert.Equal(t, 3, resp.SplitSuggestions[1].SplitCount)
}

func TestSearchPositions_InvalidRequests(t *testing.T) {
	s := newTestServer(t, "grade-table")

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing dates", `{"employee_grade": "E13"}`, "start date and end date are required"},
		{"inverted range", `{"start_date": "2025-12-31", "end_date": "2025-01-01", "employee_grade": "E13"}`, "start date must not be after end date"},
		{"missing grade", `{` + fullYear2025 + `}`, "employee grade is required"},
		{"percentage", `{` + fullYear2025 + `, "employee_grade": "E13", "fill_percentage": 0}`, "fill percentage must be between 1 and 100"},
		{"unknown grade", `{` + fullYear2025 + `, "employee_grade": "X 99"}`, "unknown employee grade: X 99 (normalized: X99)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/position-finder/search", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[api.ErrorResponse](t, rec)
			assert.Equal(t, "invalid_request", resp.Code)
			assert.Contains(t, resp.Error, tt.msg)
		})
	}
}

func TestSearchPositions_MalformedBody(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodPost, "/api/position-finder/search", `{"start_date": "01.01.2025"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_body", decode[api.ErrorResponse](t, rec).Code)
}

// =============================================================================
// GRADE VALUES
// =============================================================================

func TestGradeValues_Lifecycle(t *testing.T) {
	s := newTestServer(t, "")

	// Create normalizes the code
	rec := s.do(t, http.MethodPost, "/api/grade-values",
		`{"grade_code": "e 16", "grade_type": "E", "monthly_value": 7000, "sort_order": 95}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[api.GradeValueDTO](t, rec)
	assert.Equal(t, "E16", created.GradeCode)
	assert.Equal(t, "7000.00", created.MonthlyValue.String())
	assert.Nil(t, created.MinSalary)
	assert.True(t, created.Active)
	assert.Equal(t, "/api/grade-values/"+created.ID, rec.Header().Get("Location"))

	// Duplicate after normalization
	rec = s.do(t, http.MethodPost, "/api/grade-values", `{"grade_code": "E16"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Get
	rec = s.do(t, http.MethodGet, "/api/grade-values/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Update
	rec = s.do(t, http.MethodPut, "/api/grade-values/"+created.ID,
		`{"grade_code": "E16", "monthly_value": "7100.50", "active": false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[api.GradeValueDTO](t, rec)
	assert.Equal(t, "7100.50", updated.MonthlyValue.String())
	assert.False(t, updated.Active)

	// Active-only listing hides it
	rec = s.do(t, http.MethodGet, "/api/grade-values?active_only=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]api.GradeValueDTO](t, rec))

	// Delete, then gone
	rec = s.do(t, http.MethodDelete, "/api/grade-values/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/grade-values/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/grade-values/"+created.ID, `{"grade_code": "E16"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGradeValues_Validation(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name string
		body string
	}{
		{"missing code", `{"monthly_value": 100}`},
		{"negative money", `{"grade_code": "E1", "monthly_value": -1}`},
		{"inverted range", `{"grade_code": "E1", "min_salary": 5000, "max_salary": 4000}`},
		{"negative sort", `{"grade_code": "E1", "sort_order": -5}`},
		{"not json", `grade=E1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/grade-values", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGradeValues_InUseProtection(t *testing.T) {
	// GIVEN: Positions referencing E13
	s := newTestServer(t, "research-group")

	rec := s.do(t, http.MethodGet, "/api/grade-values", "")
	require.Equal(t, http.StatusOK, rec.Code)
	grades := decode[[]api.GradeValueDTO](t, rec)
	require.Len(t, grades, 16)

	var e13, w3 api.GradeValueDTO
	for _, g := range grades {
		switch g.GradeCode {
		case "E13":
			e13 = g
		case "W3":
			w3 = g
		}
	}
	assert.True(t, e13.InUse)
	assert.False(t, w3.InUse)

	rec = s.do(t, http.MethodGet, "/api/grade-values/in-use", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"E12", "E13", "E14", "E15"}, decode[[]string](t, rec))

	// WHEN: Deleting an in-use grade
	rec = s.do(t, http.MethodDelete, "/api/grade-values/"+e13.ID, "")

	// THEN: Conflict
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "grade_in_use", decode[api.ErrorResponse](t, rec).Code)

	// Renaming onto an existing code conflicts too
	rec = s.do(t, http.MethodPut, "/api/grade-values/"+w3.ID, `{"grade_code": "E13"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// POSITIONS
// =============================================================================

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

const importCSV = "Objekt ID;Objektbezeichnung;Trfgr;Prozt;Beginn;Ende;PersNr;Stellenplanrelevanz\n" +
	"60000001;Imported associate;E13;100;01.01.2025;31.12.2025;;3\n" +
	"60000002;Imported postdoc;E14;50;01.01.2025;31.12.2025;00099999;3\n" +
	";broken row;E13;100;;;;\n"

func TestImportPositions_ReplacesOrgUnit(t *testing.T) {
	// GIVEN: The research-group scenario
	s := newTestServer(t, "research-group")

	// WHEN: Importing a file for the same unit
	rec := s.upload(t, "/api/positions/import?org_unit=chair-informatics", "plan.csv", importCSV)

	// THEN: The unit's rows are replaced
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.ImportResultDTO](t, rec)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 6, res.Replaced)
	assert.Contains(t, res.Columns, "position_id")

	rec = s.do(t, http.MethodGet, "/api/positions?org_unit=chair-informatics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]api.PositionDTO](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "chair-informatics", rows[0].OrgUnitID)

	rec = s.do(t, http.MethodGet, "/api/positions/relevance-types", "")
	assert.Equal(t, []string{"3"}, decode[[]string](t, rec))

	// AND: Imported rows are searchable right away
	rec = s.do(t, http.MethodPost, "/api/position-finder/search",
		`{`+fullYear2025+`, "employee_grade": "E13"}`)
	resp := decode[api.SearchResponse](t, rec)
	assert.Equal(t, []string{"60000001"}, positionIDs(resp.Matches))
}

func TestImportPositions_Rejections(t *testing.T) {
	s := newTestServer(t, "research-group")

	rec := s.upload(t, "/api/positions/import", "plan.pdf", importCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unsupported_format", decode[api.ErrorResponse](t, rec).Code)

	rec = s.upload(t, "/api/positions/import", "plan.csv", "Objekt ID;Trfgr\n;E13\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no_rows", decode[api.ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/positions/import", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing was replaced
	rec = s.do(t, http.MethodGet, "/api/positions", "")
	assert.Len(t, decode[[]api.PositionDTO](t, rec), 6)
}

func TestDeletePositions(t *testing.T) {
	s := newTestServer(t, "research-group")

	rec := s.do(t, http.MethodDelete, "/api/positions?org_unit=other-unit", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/positions", "")
	assert.Len(t, decode[[]api.PositionDTO](t, rec), 6)

	rec = s.do(t, http.MethodDelete, "/api/positions", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/positions", "")
	assert.Empty(t, decode[[]api.PositionDTO](t, rec))
}

// =============================================================================
// SCENARIOS & OPS
// =============================================================================

func TestScenarios_LoadAndTrack(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.ScenarioDTO](t, rec), 3)

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "split-needed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/scenarios/current", "")
	assert.Equal(t, map[string]string{"scenario_id": "split-needed"}, decode[map[string]string](t, rec))

	rec = s.do(t, http.MethodGet, "/api/positions", "")
	assert.Len(t, decode[[]api.PositionDTO](t, rec), 3)

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, "research-group")

	rec := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(t, http.MethodPost, "/api/position-finder/search", `{`+fullYear2025+`, "employee_grade": "E13"}`)

	rec = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "staffplan_finder_search_total")
}
