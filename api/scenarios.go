/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built data sets that populate the store with a realistic
	grade table and position catalog. Each scenario shows a specific finder
	behavior.

AVAILABLE SCENARIOS:

	grade-table:    Reference grade table only, no positions
	research-group: Free, half-occupied, fully shared and placeholder rows
	split-needed:   Only partially free positions; a full-time request
	                yields split suggestions instead of matches

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Seed the embedded grade table
 3. Save the scenario's position rows

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "research-group"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Other handlers
  - ../gradeseed: Embedded grade table
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/staffplan/gradeseed"
	"github.com/warp/staffplan/position"
)

// ErrUnknownScenario is returned for scenario ids not in Scenarios.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	positions func() []position.Position
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "grade-table",
			Name:        "Grade Table",
			Description: "Reference TV-L, A and W grade table without positions",
		},
		positions: func() []position.Position { return nil },
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "research-group",
			Name:        "Research Group",
			Description: "One chair with free, half-occupied, fully shared and placeholder positions",
		},
		positions: researchGroupPositions,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "split-needed",
			Name:        "Split Needed",
			Description: "Only partially free positions; full-time requests need a split",
		},
		positions: splitNeededPositions,
	},
}

// Scenarios lists the available demo scenarios.
func Scenarios() []ScenarioDTO {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ScenarioDTO
	}
	return out
}

// ApplyScenario resets store and loads the scenario with the given id.
func ApplyScenario(ctx context.Context, store Store, id string, log logrus.FieldLogger) error {
	var sc *scenario
	for i := range scenarios {
		if scenarios[i].ID == id {
			sc = &scenarios[i]
			break
		}
	}
	if sc == nil {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	table, err := gradeseed.Default()
	if err != nil {
		return err
	}
	grades, err := table.GradeValues()
	if err != nil {
		return err
	}
	if _, err := gradeseed.Apply(ctx, store, grades, log); err != nil {
		return err
	}

	rows := sc.positions()
	if len(rows) > 0 {
		if err := store.SavePositions(ctx, rows); err != nil {
			return fmt.Errorf("save positions: %w", err)
		}
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"scenario":  id,
			"positions": len(rows),
		}).Info("scenario loaded")
	}
	return nil
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Scenarios())
}

// GetCurrentScenario returns the id of the last loaded scenario.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": current})
}

// LoadScenario resets the store and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "scenario_id is required", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ApplyScenario(r.Context(), h.store, req.ScenarioID, h.log); err != nil {
		if errors.Is(err, ErrUnknownScenario) {
			writeError(w, http.StatusNotFound, "not_found", "Unknown scenario", err)
			return
		}
		h.writeDomainError(w, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario_id": req.ScenarioID})
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

const (
	unitInformatics = "chair-informatics"
	unitMathematics = "chair-mathematics"
)

func researchGroupPositions() []position.Position {
	return []position.Position{
		// Vacant full-time E13, two years
		demoRow(unitInformatics, "50000001", "WM-01", "Research associate", "E13", 100, "2025-01-01", "2026-12-31", ""),
		// E14 with one half-time holder during 2025
		demoRow(unitInformatics, "50000002", "WM-02", "Postdoc", "E14", 50, "2025-01-01", "2025-12-31", "00012345"),
		// E13 shared by two half-time holders
		demoRow(unitInformatics, "50000003", "WM-03", "Research associate (shared)", "E13", 50, "2024-10-01", "2026-09-30", "00012346"),
		demoRow(unitInformatics, "50000003", "WM-03", "Research associate (shared)", "E13", 50, "2024-10-01", "2026-09-30", "00012347"),
		// Reserved slot, ignored by the finder
		demoRow(unitInformatics, "50000004", "WM-04", "Reserved", "E12", 100, "2025-01-01", "2025-12-31", position.PlaceholderPersonnel),
		// Free E15 in another relevance category
		withCategory(demoRow(unitInformatics, "50000005", "WM-05", "Group leader", "E15", 100, "2025-01-01", "2027-12-31", ""), "2"),
	}
}

func splitNeededPositions() []position.Position {
	return []position.Position{
		demoRow(unitMathematics, "50001001", "MA-01", "Research associate", "E13", 50, "2025-01-01", "2025-12-31", "00022345"),
		demoRow(unitMathematics, "50001002", "MA-02", "Research associate", "E13", 60, "2025-01-01", "2025-12-31", "00022346"),
		demoRow(unitMathematics, "50001003", "MA-03", "Postdoc", "E14", 50, "2025-01-01", "2025-12-31", "00022347"),
	}
}

func demoRow(unit, positionID, code, description, grade string, percent int64, start, end, personnel string) position.Position {
	s := position.MustParseDate(start)
	e := position.MustParseDate(end)
	return position.Position{
		PositionID:        positionID,
		Status:            "S",
		ObjectCode:        code,
		ObjectDescription: description,
		RelevanceCategory: "1",
		OrganizationUnit:  unit,
		GradeCode:         grade,
		BaseGrade:         grade,
		Percentage:        decimal.NewFromInt(percent),
		StartDate:         &s,
		EndDate:           &e,
		PersonnelNumber:   personnel,
		EmployeeGroup:     "1",
		OrgUnitID:         unit,
	}
}

func withCategory(p position.Position, category string) position.Position {
	p.RelevanceCategory = category
	return p
}
