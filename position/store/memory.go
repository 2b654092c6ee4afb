// Package store provides in-memory Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/staffplan/position"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements position.PositionStore and position.GradeStore.
type Memory struct {
	mu        sync.RWMutex
	positions []position.Position
	grades    map[string]position.GradeValue // by id
}

func NewMemory() *Memory {
	return &Memory{grades: make(map[string]position.GradeValue)}
}

// -----------------------------------------------------------------------------
// Positions
// -----------------------------------------------------------------------------

func (m *Memory) CandidatePositions(_ context.Context, filter position.CandidateFilter) ([]position.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []position.Position
	for _, p := range m.positions {
		if filter.Matches(p) {
			result = append(result, p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].GradeCode != result[j].GradeCode {
			return result[i].GradeCode < result[j].GradeCode
		}
		return position.StartOrMin(result[i].StartDate).Before(position.StartOrMin(result[j].StartDate))
	})
	return result, nil
}

func (m *Memory) ListPositions(_ context.Context, orgUnitID string) ([]position.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []position.Position
	for _, p := range m.positions {
		if orgUnitID == "" || p.OrgUnitID == orgUnitID {
			result = append(result, p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return position.StartOrMin(result[i].StartDate).Before(position.StartOrMin(result[j].StartDate))
	})
	return result, nil
}

func (m *Memory) RelevanceCategories(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var result []string
	for _, p := range m.positions {
		if p.RelevanceCategory != "" && !seen[p.RelevanceCategory] {
			seen[p.RelevanceCategory] = true
			result = append(result, p.RelevanceCategory)
		}
	}
	sort.Strings(result)
	return result, nil
}

// SavePositions appends rows. All-or-nothing is trivial in memory.
func (m *Memory) SavePositions(_ context.Context, rows []position.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range rows {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		m.positions = append(m.positions, p)
	}
	return nil
}

func (m *Memory) DeletePositions(_ context.Context, orgUnitID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(orgUnitID), nil
}

func (m *Memory) ReplacePositions(_ context.Context, orgUnitID string, rows []position.Position) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := m.deleteLocked(orgUnitID)
	for _, p := range rows {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		m.positions = append(m.positions, p)
	}
	return deleted, nil
}

func (m *Memory) deleteLocked(orgUnitID string) int {
	kept := m.positions[:0]
	deleted := 0
	for _, p := range m.positions {
		if orgUnitID == "" || p.OrgUnitID == orgUnitID {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	m.positions = kept
	return deleted
}

// -----------------------------------------------------------------------------
// Grade values
// -----------------------------------------------------------------------------

func (m *Memory) ListGradeValues(_ context.Context, activeOnly bool) ([]position.GradeValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]position.GradeValue, 0, len(m.grades))
	for _, g := range m.grades {
		if activeOnly && !g.Active {
			continue
		}
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SortOrder != result[j].SortOrder {
			return result[i].SortOrder < result[j].SortOrder
		}
		return result[i].GradeCode < result[j].GradeCode
	})
	return result, nil
}

func (m *Memory) GetGradeValue(_ context.Context, id string) (*position.GradeValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.grades[id]
	if !ok {
		return nil, position.ErrGradeValueNotFound
	}
	return &g, nil
}

func (m *Memory) FindGradeValue(_ context.Context, code string) (*position.GradeValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.findByCodeLocked(position.NormalizeGrade(code))
	if !ok {
		return nil, position.ErrGradeValueNotFound
	}
	return &g, nil
}

func (m *Memory) findByCodeLocked(normalized string) (position.GradeValue, bool) {
	for _, g := range m.grades {
		if g.GradeCode == normalized {
			return g, true
		}
	}
	return position.GradeValue{}, false
}

func (m *Memory) CreateGradeValue(_ context.Context, g position.GradeValue) (*position.GradeValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g.GradeCode = position.NormalizeGrade(g.GradeCode)
	if _, exists := m.findByCodeLocked(g.GradeCode); exists {
		return nil, &position.GradeConflictError{GradeCode: g.GradeCode, Err: position.ErrDuplicateGradeCode}
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	m.grades[g.ID] = g
	return &g, nil
}

func (m *Memory) UpdateGradeValue(_ context.Context, g position.GradeValue) (*position.GradeValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.grades[g.ID]; !ok {
		return nil, position.ErrGradeValueNotFound
	}
	g.GradeCode = position.NormalizeGrade(g.GradeCode)
	if other, exists := m.findByCodeLocked(g.GradeCode); exists && other.ID != g.ID {
		return nil, &position.GradeConflictError{GradeCode: g.GradeCode, Err: position.ErrDuplicateGradeCode}
	}
	m.grades[g.ID] = g
	return &g, nil
}

func (m *Memory) DeleteGradeValue(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.grades[id]
	if !ok {
		return position.ErrGradeValueNotFound
	}
	for _, code := range m.gradesInUseLocked() {
		if code == g.GradeCode {
			return &position.GradeConflictError{GradeCode: g.GradeCode, Err: position.ErrGradeInUse}
		}
	}
	delete(m.grades, id)
	return nil
}

func (m *Memory) GradesInUse(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gradesInUseLocked(), nil
}

func (m *Memory) gradesInUseLocked() []string {
	seen := make(map[string]bool)
	var result []string
	for _, p := range m.positions {
		code := position.NormalizeGrade(p.GradeCode)
		if code != "" && !seen[code] {
			seen[code] = true
			result = append(result, code)
		}
	}
	sort.Strings(result)
	return result
}

// Reset clears all data (for demos).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = nil
	m.grades = make(map[string]position.GradeValue)
	return nil
}
