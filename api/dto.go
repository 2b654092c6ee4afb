/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model (position, matching) from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Money and percentages are rendered as JSON numbers via json.Number so
  clients never see float rounding artifacts. Money always carries two
  decimals.

VALIDATION:
  Request bodies for grade values and scenarios carry `validate` tags checked
  with go-playground/validator. Search requests are validated by the finder
  itself so its messages reach the client unchanged.

SEE ALSO:
  - handlers.go: Uses these types
  - ../matching/types.go: Domain request/response
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/staffplan/importer"
	"github.com/warp/staffplan/matching"
	"github.com/warp/staffplan/position"
)

// =============================================================================
// POSITION FINDER
// =============================================================================

// SearchRequest is the body of POST /api/position-finder/search.
type SearchRequest struct {
	StartDate           *position.Date `json:"start_date"`
	EndDate             *position.Date `json:"end_date"`
	EmployeeGrade       string         `json:"employee_grade"`
	FillPercentage      *int           `json:"fill_percentage,omitempty"`
	OrganizationScope   string         `json:"organization_scope,omitempty"`
	RelevanceCategories []string       `json:"relevance_categories,omitempty"`
}

func (r SearchRequest) toDomain() matching.Request {
	return matching.Request{
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		EmployeeGrade:       r.EmployeeGrade,
		FillPercentage:      r.FillPercentage,
		OrganizationScope:   r.OrganizationScope,
		RelevanceCategories: r.RelevanceCategories,
	}
}

// MatchDTO is one ranked position.
type MatchDTO struct {
	PositionID             string         `json:"position_id"`
	ObjectCode             string         `json:"object_code"`
	ObjectDescription      string         `json:"object_description"`
	PositionGrade          string         `json:"position_grade"`
	RelevanceCategory      string         `json:"relevance_category,omitempty"`
	PositionPercentage     json.Number    `json:"position_percentage"`
	AvailablePercentage    json.Number    `json:"available_percentage"`
	StartDate              *position.Date `json:"start_date"`
	EndDate                *position.Date `json:"end_date"`
	OverallScore           float64        `json:"overall_score"`
	MatchQuality           string         `json:"match_quality"`
	WasteAmount            json.Number    `json:"waste_amount"`
	WastePercentage        float64        `json:"waste_percentage"`
	CurrentAssignmentCount int            `json:"current_assignment_count"`
	Warnings               []string       `json:"warnings"`
}

// SplitSuggestionDTO is a group of positions covering the request together.
type SplitSuggestionDTO struct {
	Positions                []MatchDTO  `json:"positions"`
	TotalAvailablePercentage json.Number `json:"total_available_percentage"`
	TotalWasteAmount         json.Number `json:"total_waste_amount"`
	SplitCount               int         `json:"split_count"`
}

// DiagnosticsDTO reports why candidates were dropped.
type DiagnosticsDTO struct {
	Candidates               int `json:"candidates"`
	UniquePositions          int `json:"unique_positions"`
	SkippedUnknownGrade      int `json:"skipped_unknown_grade"`
	SkippedInsufficientAvail int `json:"skipped_insufficient_availability"`
	SkippedByRules           int `json:"skipped_by_rules"`
}

// SearchResponse is the body returned by the finder endpoint.
type SearchResponse struct {
	EmployeeMonthlyCost json.Number          `json:"employee_monthly_cost"`
	EmployeeGrade       string               `json:"employee_grade"`
	FillPercentage      int                  `json:"fill_percentage"`
	TotalMatchesFound   int                  `json:"total_matches_found"`
	Matches             []MatchDTO           `json:"matches"`
	SplitSuggestions    []SplitSuggestionDTO `json:"split_suggestions"`
	Diagnostics         DiagnosticsDTO       `json:"diagnostics"`
}

// NewSearchResponse converts a finder result to its JSON form.
func NewSearchResponse(r *matching.Response) SearchResponse {
	resp := SearchResponse{
		EmployeeMonthlyCost: money(r.EmployeeMonthlyCost),
		EmployeeGrade:       r.EmployeeGrade,
		FillPercentage:      r.FillPercentage,
		TotalMatchesFound:   r.TotalMatchesFound,
		Matches:             toMatchDTOs(r.Matches),
		SplitSuggestions:    make([]SplitSuggestionDTO, len(r.SplitSuggestions)),
		Diagnostics: DiagnosticsDTO{
			Candidates:               r.Diagnostics.Candidates,
			UniquePositions:          r.Diagnostics.UniquePositions,
			SkippedUnknownGrade:      r.Diagnostics.SkippedUnknownGrade,
			SkippedInsufficientAvail: r.Diagnostics.SkippedInsufficientAvail,
			SkippedByRules:           r.Diagnostics.SkippedByRules,
		},
	}
	for i, s := range r.SplitSuggestions {
		resp.SplitSuggestions[i] = SplitSuggestionDTO{
			Positions:                toMatchDTOs(s.Positions),
			TotalAvailablePercentage: number(s.TotalAvailablePercentage),
			TotalWasteAmount:         money(s.TotalWasteAmount),
			SplitCount:               s.SplitCount,
		}
	}
	return resp
}

func toMatchDTOs(matches []matching.MatchResult) []MatchDTO {
	dtos := make([]MatchDTO, len(matches))
	for i, m := range matches {
		warnings := m.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		dtos[i] = MatchDTO{
			PositionID:             m.PositionID,
			ObjectCode:             m.ObjectCode,
			ObjectDescription:      m.ObjectDescription,
			PositionGrade:          m.PositionGrade,
			RelevanceCategory:      m.RelevanceCategory,
			PositionPercentage:     number(m.PositionPercentage),
			AvailablePercentage:    number(m.AvailablePercentage),
			StartDate:              m.StartDate,
			EndDate:                m.EndDate,
			OverallScore:           m.OverallScore,
			MatchQuality:           string(m.MatchQuality),
			WasteAmount:            money(m.WasteAmount),
			WastePercentage:        m.WastePercentage,
			CurrentAssignmentCount: m.CurrentAssignmentCount,
			Warnings:               warnings,
		}
	}
	return dtos
}

// =============================================================================
// GRADE VALUES
// =============================================================================

// GradeValueDTO represents a grade value in API responses.
type GradeValueDTO struct {
	ID           string       `json:"id"`
	GradeCode    string       `json:"grade_code"`
	GradeType    string       `json:"grade_type,omitempty"`
	DisplayName  string       `json:"display_name,omitempty"`
	MonthlyValue *json.Number `json:"monthly_value"`
	MinSalary    *json.Number `json:"min_salary"`
	MaxSalary    *json.Number `json:"max_salary"`
	SortOrder    int          `json:"sort_order"`
	Active       bool         `json:"active"`
	InUse        bool         `json:"in_use"`
}

func toGradeValueDTO(g position.GradeValue, inUse bool) GradeValueDTO {
	return GradeValueDTO{
		ID:           g.ID,
		GradeCode:    g.GradeCode,
		GradeType:    g.GradeType,
		DisplayName:  g.DisplayName,
		MonthlyValue: nullMoney(g.MonthlyValue),
		MinSalary:    nullMoney(g.MinSalary),
		MaxSalary:    nullMoney(g.MaxSalary),
		SortOrder:    g.SortOrder,
		Active:       g.Active,
		InUse:        inUse,
	}
}

// GradeValueRequest is the body of create and update calls.
type GradeValueRequest struct {
	GradeCode    string           `json:"grade_code" validate:"required,max=20"`
	GradeType    string           `json:"grade_type" validate:"omitempty,max=10"`
	DisplayName  string           `json:"display_name" validate:"omitempty,max=100"`
	MonthlyValue *decimal.Decimal `json:"monthly_value"`
	MinSalary    *decimal.Decimal `json:"min_salary"`
	MaxSalary    *decimal.Decimal `json:"max_salary"`
	SortOrder    int              `json:"sort_order" validate:"gte=0"`
	Active       *bool            `json:"active"`
}

// checkAmounts rejects negative money and an inverted salary range.
func (r GradeValueRequest) checkAmounts() error {
	for name, d := range map[string]*decimal.Decimal{
		"monthly_value": r.MonthlyValue,
		"min_salary":    r.MinSalary,
		"max_salary":    r.MaxSalary,
	} {
		if d != nil && d.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if r.MinSalary != nil && r.MaxSalary != nil && r.MinSalary.GreaterThan(*r.MaxSalary) {
		return errors.New("min_salary must not exceed max_salary")
	}
	return nil
}

func (r GradeValueRequest) toDomain(id string) position.GradeValue {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return position.GradeValue{
		ID:           id,
		GradeCode:    r.GradeCode,
		GradeType:    r.GradeType,
		DisplayName:  r.DisplayName,
		MonthlyValue: nullDecimal(r.MonthlyValue),
		MinSalary:    nullDecimal(r.MinSalary),
		MaxSalary:    nullDecimal(r.MaxSalary),
		SortOrder:    r.SortOrder,
		Active:       active,
	}
}

// =============================================================================
// POSITIONS
// =============================================================================

// PositionDTO represents one position row.
type PositionDTO struct {
	ID                string         `json:"id"`
	PositionID        string         `json:"position_id"`
	Status            string         `json:"status,omitempty"`
	ObjectCode        string         `json:"object_code"`
	ObjectDescription string         `json:"object_description"`
	RelevanceCategory string         `json:"relevance_category,omitempty"`
	OrganizationUnit  string         `json:"organization_unit,omitempty"`
	GradeCode         string         `json:"grade_code"`
	BaseGrade         string         `json:"base_grade,omitempty"`
	PositionValue     *json.Number   `json:"position_value"`
	Percentage        json.Number    `json:"percentage"`
	StartDate         *position.Date `json:"start_date"`
	EndDate           *position.Date `json:"end_date"`
	Fund              string         `json:"fund,omitempty"`
	PersonnelNumber   string         `json:"personnel_number,omitempty"`
	EmployeeGroup     string         `json:"employee_group,omitempty"`
	OrgUnitID         string         `json:"org_unit_id,omitempty"`
}

func toPositionDTO(p position.Position) PositionDTO {
	return PositionDTO{
		ID:                p.ID,
		PositionID:        p.PositionID,
		Status:            p.Status,
		ObjectCode:        p.ObjectCode,
		ObjectDescription: p.ObjectDescription,
		RelevanceCategory: p.RelevanceCategory,
		OrganizationUnit:  p.OrganizationUnit,
		GradeCode:         p.GradeCode,
		BaseGrade:         p.BaseGrade,
		PositionValue:     nullMoney(p.PositionValue),
		Percentage:        number(p.Percentage),
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		Fund:              p.Fund,
		PersonnelNumber:   p.PersonnelNumber,
		EmployeeGroup:     p.EmployeeGroup,
		OrgUnitID:         p.OrgUnitID,
	}
}

// ImportResultDTO summarizes a file import.
type ImportResultDTO struct {
	Message  string   `json:"message"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Replaced int      `json:"replaced"`
	Columns  []string `json:"columns"`
}

func toImportResultDTO(res *importer.Result, replaced int) ImportResultDTO {
	columns := make([]string, 0, len(res.Columns))
	for f := importer.FieldRelevanceCategory; f <= importer.FieldEmployeeGroup; f++ {
		if _, ok := res.Columns[f]; ok {
			columns = append(columns, f.String())
		}
	}
	return ImportResultDTO{
		Message:  "Successfully imported positions",
		Imported: res.Imported,
		Skipped:  res.Skipped,
		Replaced: replaced,
		Columns:  columns,
	}
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// NUMBER HELPERS
// =============================================================================

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func nullMoney(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := money(d.Decimal)
	return &n
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
