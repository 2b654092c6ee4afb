/*
handlers.go - HTTP API handlers for the staff-plan service

PURPOSE:
  Exposes the position finder, the grade table, the position catalog and the
  demo scenarios via REST API. Handles HTTP request/response and JSON
  serialization, and delegates to the domain packages.

ENDPOINTS:
  Position finder:
    POST   /api/position-finder/search     Rank positions for an employee

  Grade values:
    GET    /api/grade-values               List (?active_only=true)
    GET    /api/grade-values/in-use        Grade codes referenced by positions
    GET    /api/grade-values/{id}          Get one
    POST   /api/grade-values               Create
    PUT    /api/grade-values/{id}          Update
    DELETE /api/grade-values/{id}          Delete (409 while in use)

  Positions:
    GET    /api/positions                  List (?org_unit=)
    GET    /api/positions/relevance-types  Distinct relevance categories
    POST   /api/positions/import           Multipart CSV/XLSX upload (?org_unit=)
    DELETE /api/positions                  Delete (?org_unit=, empty = all)

ERROR HANDLING:
  Errors are returned as JSON {error, code, details}:
  - 400: Invalid search request, validation errors, unreadable uploads
  - 404: Unknown grade value
  - 409: Duplicate or in-use grade code
  - 500: Store failures

SECURITY NOTE:
  No authentication or authorization. Callers are expected to sit behind
  an authenticating gateway.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/staffplan/importer"
	"github.com/warp/staffplan/matching"
	"github.com/warp/staffplan/position"
)

// maxUploadSize bounds multipart import bodies.
const maxUploadSize = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API needs. Both the SQLite store and the
// in-memory store satisfy it.
type Store interface {
	position.PositionStore
	position.GradeStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store    Store
	finder   *matching.Finder
	importer *importer.Importer
	validate *validator.Validate
	log      logrus.FieldLogger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler backed by store.
func NewHandler(store Store, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		store:    store,
		finder:   matching.NewFinder(store, store, matching.WithLogger(log)),
		importer: importer.New(log),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// =============================================================================
// POSITION FINDER
// =============================================================================

// SearchPositions ranks positions for the employee in the request body.
func (h *Handler) SearchPositions(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body", err)
		return
	}

	resp, err := h.finder.FindPositions(r.Context(), req.toDomain())
	if err != nil {
		h.writeDomainError(w, "Position search failed", err)
		return
	}

	writeJSON(w, http.StatusOK, NewSearchResponse(resp))
}

// =============================================================================
// GRADE VALUE HANDLERS
// =============================================================================

// ListGradeValues returns the grade table, each entry flagged when in use.
func (h *Handler) ListGradeValues(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active_only"))

	grades, err := h.store.ListGradeValues(r.Context(), activeOnly)
	if err != nil {
		h.writeDomainError(w, "Failed to list grade values", err)
		return
	}
	inUse, err := h.gradesInUseSet(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list grade values", err)
		return
	}

	dtos := make([]GradeValueDTO, len(grades))
	for i, g := range grades {
		dtos[i] = toGradeValueDTO(g, inUse[g.GradeCode])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetGradeValue returns one grade value.
func (h *Handler) GetGradeValue(w http.ResponseWriter, r *http.Request) {
	g, err := h.store.GetGradeValue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get grade value", err)
		return
	}
	inUse, err := h.gradesInUseSet(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to get grade value", err)
		return
	}
	writeJSON(w, http.StatusOK, toGradeValueDTO(*g, inUse[g.GradeCode]))
}

// GradesInUse returns the normalized grade codes referenced by positions.
func (h *Handler) GradesInUse(w http.ResponseWriter, r *http.Request) {
	codes, err := h.store.GradesInUse(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list grades in use", err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	writeJSON(w, http.StatusOK, codes)
}

// CreateGradeValue adds a grade to the table.
func (h *Handler) CreateGradeValue(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGradeValue(w, r)
	if !ok {
		return
	}

	created, err := h.store.CreateGradeValue(r.Context(), req.toDomain(""))
	if err != nil {
		h.writeDomainError(w, "Failed to create grade value", err)
		return
	}

	h.log.WithField("grade_code", created.GradeCode).Info("grade value created")
	w.Header().Set("Location", "/api/grade-values/"+created.ID)
	writeJSON(w, http.StatusCreated, toGradeValueDTO(*created, false))
}

// UpdateGradeValue replaces a grade value.
func (h *Handler) UpdateGradeValue(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGradeValue(w, r)
	if !ok {
		return
	}

	updated, err := h.store.UpdateGradeValue(r.Context(), req.toDomain(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to update grade value", err)
		return
	}
	inUse, err := h.gradesInUseSet(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to update grade value", err)
		return
	}

	h.log.WithField("grade_code", updated.GradeCode).Info("grade value updated")
	writeJSON(w, http.StatusOK, toGradeValueDTO(*updated, inUse[updated.GradeCode]))
}

// DeleteGradeValue removes a grade that no position references.
func (h *Handler) DeleteGradeValue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteGradeValue(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete grade value", err)
		return
	}
	h.log.WithField("id", id).Info("grade value deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeGradeValue(w http.ResponseWriter, r *http.Request) (GradeValueRequest, bool) {
	var req GradeValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body", err)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "Invalid grade value", err)
		return req, false
	}
	if err := req.checkAmounts(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "Invalid grade value", err)
		return req, false
	}
	return req, true
}

func (h *Handler) gradesInUseSet(ctx context.Context) (map[string]bool, error) {
	codes, err := h.store.GradesInUse(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set, nil
}

// =============================================================================
// POSITION HANDLERS
// =============================================================================

// ListPositions returns the rows of one org unit, or all rows.
func (h *Handler) ListPositions(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListPositions(r.Context(), r.URL.Query().Get("org_unit"))
	if err != nil {
		h.writeDomainError(w, "Failed to list positions", err)
		return
	}

	dtos := make([]PositionDTO, len(rows))
	for i, p := range rows {
		dtos[i] = toPositionDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RelevanceTypes returns the distinct relevance categories.
func (h *Handler) RelevanceTypes(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.RelevanceCategories(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list relevance types", err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// ImportPositions replaces the rows of an org unit with an uploaded file.
func (h *Handler) ImportPositions(w http.ResponseWriter, r *http.Request) {
	orgUnit := r.URL.Query().Get("org_unit")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "Please upload a CSV or XLSX file", err)
		return
	}
	defer file.Close()

	format, err := importer.FormatFromFilename(header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported_format", "Unsupported file format", err)
		return
	}

	res, err := h.importer.Read(file, format, orgUnit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable_file", "Failed to read import file", err)
		return
	}
	if res.Imported == 0 {
		writeError(w, http.StatusBadRequest, "no_rows", "The file contains no importable rows",
			fmt.Errorf("%d rows skipped", res.Skipped))
		return
	}

	replaced, err := h.store.ReplacePositions(r.Context(), orgUnit, res.Positions)
	if err != nil {
		h.writeDomainError(w, "Failed to store positions", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"file":     header.Filename,
		"org_unit": orgUnit,
		"imported": res.Imported,
		"skipped":  res.Skipped,
		"replaced": replaced,
	}).Info("positions imported")
	writeJSON(w, http.StatusOK, toImportResultDTO(res, replaced))
}

// DeletePositions removes the rows of one org unit, or all rows.
func (h *Handler) DeletePositions(w http.ResponseWriter, r *http.Request) {
	orgUnit := r.URL.Query().Get("org_unit")
	n, err := h.store.DeletePositions(r.Context(), orgUnit)
	if err != nil {
		h.writeDomainError(w, "Failed to delete positions", err)
		return
	}
	h.log.WithFields(logrus.Fields{"org_unit": orgUnit, "deleted": n}).Info("positions deleted")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP statuses. Invalid search
// requests carry their own user-facing message.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case matching.IsInvalidRequest(err):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case position.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", message, err)
	case errors.Is(err, position.ErrGradeInUse):
		writeError(w, http.StatusConflict, "grade_in_use", message, err)
	case position.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", message, err)
	case position.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid_request", message, err)
	default:
		h.log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, "internal", message, err)
	}
}
