/*
store.go - Persistence interfaces for positions and grade values

PURPOSE:
  Defines the boundary between the matching engine / API and the database.
  The matching engine only ever reads: it loads candidate rows and the grade
  table once per request and never writes back.

KEY INTERFACES:
  PositionReader: Candidate lookup used by the finder
  PositionStore:  Full position persistence (import, listing, cleanup)
  GradeReader:    Grade table snapshot used by the finder
  GradeStore:     Grade value CRUD

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - position/store/memory.go: In-memory for tests and demos

CONCURRENCY:
  Implementations must be safe for concurrent reads; the finder may run many
  requests in parallel against the same store.
*/
package position

import "context"

// =============================================================================
// POSITIONS
// =============================================================================

// PositionReader is the read-only view the finder consumes.
type PositionReader interface {
	// CandidatePositions returns rows with a grade code and a non-placeholder
	// personnel number, narrowed by filter, ordered by grade code then start
	// date (unbounded start first).
	CandidatePositions(ctx context.Context, filter CandidateFilter) ([]Position, error)
}

// PositionStore handles persistence of position rows.
type PositionStore interface {
	PositionReader

	// ListPositions returns rows ordered by start date. Empty orgUnitID = all.
	ListPositions(ctx context.Context, orgUnitID string) ([]Position, error)

	// RelevanceCategories returns the distinct non-empty categories, sorted.
	RelevanceCategories(ctx context.Context) ([]string, error)

	// SavePositions inserts rows atomically. Rows without ID get one assigned.
	SavePositions(ctx context.Context, rows []Position) error

	// DeletePositions removes the rows of one org unit (empty = all rows).
	// Returns the number of deleted rows.
	DeletePositions(ctx context.Context, orgUnitID string) (int, error)

	// ReplacePositions atomically swaps the rows of one org unit for rows.
	// Returns the number of rows removed.
	ReplacePositions(ctx context.Context, orgUnitID string, rows []Position) (int, error)
}

// =============================================================================
// GRADE VALUES
// =============================================================================

// GradeReader is the read-only view the finder consumes.
type GradeReader interface {
	// ListGradeValues returns grade values ordered by sort order.
	ListGradeValues(ctx context.Context, activeOnly bool) ([]GradeValue, error)
}

// GradeStore handles persistence of grade values.
type GradeStore interface {
	GradeReader

	GetGradeValue(ctx context.Context, id string) (*GradeValue, error)

	// FindGradeValue looks up by code; the code is normalized first.
	FindGradeValue(ctx context.Context, code string) (*GradeValue, error)

	// CreateGradeValue stores g with a normalized code. Returns a
	// GradeConflictError wrapping ErrDuplicateGradeCode on collision.
	CreateGradeValue(ctx context.Context, g GradeValue) (*GradeValue, error)

	// UpdateGradeValue replaces the grade value with id g.ID.
	UpdateGradeValue(ctx context.Context, g GradeValue) (*GradeValue, error)

	// DeleteGradeValue fails with ErrGradeInUse while positions reference it.
	DeleteGradeValue(ctx context.Context, id string) error

	// GradesInUse returns the distinct normalized grade codes of all positions.
	GradesInUse(ctx context.Context) ([]string, error)
}
