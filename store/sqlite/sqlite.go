/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the staff plan (position rows) and the pay-grade table. The
  matching engine only reads from here; writes come from imports, the grade
  value API and the seed command.

INTERFACES IMPLEMENTED:
  position.PositionStore: Position rows (import, listing, candidates)
  position.GradeStore:    Grade value CRUD

KEY TABLES:
  positions:    One row per assignment period. Several rows share a
                position_id when a slot changes hands or is split.
  grade_values: Normalized grade code -> monthly value.

STORAGE FORMATS:
  - Dates are TEXT "YYYY-MM-DD", NULL for unbounded edges
  - Money and percentages are TEXT decimals (no float rounding)

INDEXES:
  - idx_positions_candidates: Candidate lookup (grade_code, start_date)
  - idx_positions_org_unit: Scope filter and per-unit replace/delete
  - idx_positions_position_id: Grouping rows of one slot

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Reads run in parallel, writes are
  serialized.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so searches are not blocked
  by a running import.

USAGE:
  store, err := sqlite.New("./data/staffplan.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  finder := matching.NewFinder(store, store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - position/store.go: Interface definitions
  - position/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/staffplan/position"
)

// Store implements position.PositionStore and position.GradeStore.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ position.PositionStore = (*Store)(nil)
	_ position.GradeStore    = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Position rows (one per assignment period)
	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		position_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		object_code TEXT NOT NULL DEFAULT '',
		object_description TEXT NOT NULL DEFAULT '',
		relevance_category TEXT NOT NULL DEFAULT '',
		organization_unit TEXT NOT NULL DEFAULT '',
		grade_code TEXT NOT NULL DEFAULT '',
		base_grade TEXT NOT NULL DEFAULT '',
		position_value TEXT,
		percentage TEXT NOT NULL DEFAULT '0',
		start_date TEXT,
		end_date TEXT,
		fund TEXT NOT NULL DEFAULT '',
		personnel_number TEXT NOT NULL DEFAULT '',
		employee_group TEXT NOT NULL DEFAULT '',
		org_unit_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Candidate lookup: ordered by grade, then start (NULL = unbounded first)
	CREATE INDEX IF NOT EXISTS idx_positions_candidates
		ON positions(grade_code, start_date);
	CREATE INDEX IF NOT EXISTS idx_positions_org_unit
		ON positions(org_unit_id);
	CREATE INDEX IF NOT EXISTS idx_positions_position_id
		ON positions(position_id);

	-- Pay-grade table
	CREATE TABLE IF NOT EXISTS grade_values (
		id TEXT PRIMARY KEY,
		grade_code TEXT NOT NULL UNIQUE,
		grade_type TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		monthly_value TEXT,
		min_salary TEXT,
		max_salary TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_grade_values_sort
		ON grade_values(sort_order, grade_code);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// POSITION STORE (position.PositionStore interface)
// =============================================================================

const positionColumns = `id, position_id, status, object_code, object_description,
	relevance_category, organization_unit, grade_code, base_grade, position_value,
	percentage, start_date, end_date, fund, personnel_number, employee_group, org_unit_id`

// CandidatePositions returns rows eligible for matching.
func (s *Store) CandidatePositions(ctx context.Context, filter position.CandidateFilter) ([]position.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + positionColumns + ` FROM positions
		WHERE TRIM(grade_code) <> ''
		  AND TRIM(personnel_number) <> ?`
	args := []any{position.PlaceholderPersonnel}

	if filter.OrgUnitID != "" {
		query += ` AND org_unit_id = ?`
		args = append(args, filter.OrgUnitID)
	}
	if len(filter.RelevanceCategories) > 0 {
		placeholders := make([]string, len(filter.RelevanceCategories))
		for i, c := range filter.RelevanceCategories {
			placeholders[i] = "?"
			args = append(args, c)
		}
		query += ` AND relevance_category IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY grade_code ASC, start_date ASC NULLS FIRST, rowid ASC`

	return s.queryPositions(ctx, query, args...)
}

// ListPositions returns rows ordered by start date. Empty orgUnitID = all.
func (s *Store) ListPositions(ctx context.Context, orgUnitID string) ([]position.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if orgUnitID == "" {
		return s.queryPositions(ctx, `SELECT `+positionColumns+` FROM positions
			ORDER BY start_date ASC NULLS FIRST, rowid ASC`)
	}
	return s.queryPositions(ctx, `SELECT `+positionColumns+` FROM positions
		WHERE org_unit_id = ?
		ORDER BY start_date ASC NULLS FIRST, rowid ASC`, orgUnitID)
}

// RelevanceCategories returns the distinct non-empty categories, sorted.
func (s *Store) RelevanceCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT relevance_category FROM positions
		WHERE relevance_category <> ''
		ORDER BY relevance_category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query relevance categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SavePositions inserts rows atomically.
func (s *Store) SavePositions(ctx context.Context, rows []position.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := insertPositions(ctx, sqlTx, rows); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// DeletePositions removes the rows of one org unit (empty = all rows).
func (s *Store) DeletePositions(ctx context.Context, orgUnitID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deletePositions(ctx, s.db, orgUnitID)
}

// ReplacePositions swaps the rows of one org unit in a single transaction.
func (s *Store) ReplacePositions(ctx context.Context, orgUnitID string, rows []position.Position) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	deleted, err := deletePositions(ctx, sqlTx, orgUnitID)
	if err != nil {
		return 0, err
	}
	if err := insertPositions(ctx, sqlTx, rows); err != nil {
		return 0, err
	}
	return deleted, sqlTx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPositions(ctx context.Context, db execer, rows []position.Position) error {
	query := `
		INSERT INTO positions (` + positionColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range rows {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		_, err := db.ExecContext(ctx, query,
			p.ID, p.PositionID, p.Status, p.ObjectCode, p.ObjectDescription,
			p.RelevanceCategory, p.OrganizationUnit, p.GradeCode, p.BaseGrade, p.PositionValue,
			p.Percentage, nullDate(p.StartDate), nullDate(p.EndDate), p.Fund, p.PersonnelNumber,
			p.EmployeeGroup, p.OrgUnitID, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert position %s: %w", p.PositionID, err)
		}
	}
	return nil
}

func deletePositions(ctx context.Context, db execer, orgUnitID string) (int, error) {
	var (
		res sql.Result
		err error
	)
	if orgUnitID == "" {
		res, err = db.ExecContext(ctx, "DELETE FROM positions")
	} else {
		res, err = db.ExecContext(ctx, "DELETE FROM positions WHERE org_unit_id = ?", orgUnitID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete positions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) queryPositions(ctx context.Context, query string, args ...any) ([]position.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []position.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func scanPosition(rows *sql.Rows) (position.Position, error) {
	var p position.Position
	var startDate, endDate sql.NullString

	err := rows.Scan(
		&p.ID, &p.PositionID, &p.Status, &p.ObjectCode, &p.ObjectDescription,
		&p.RelevanceCategory, &p.OrganizationUnit, &p.GradeCode, &p.BaseGrade, &p.PositionValue,
		&p.Percentage, &startDate, &endDate, &p.Fund, &p.PersonnelNumber,
		&p.EmployeeGroup, &p.OrgUnitID,
	)
	if err != nil {
		return p, fmt.Errorf("failed to scan position: %w", err)
	}

	if p.StartDate, err = parseNullDate(startDate); err != nil {
		return p, err
	}
	if p.EndDate, err = parseNullDate(endDate); err != nil {
		return p, err
	}
	return p, nil
}

// =============================================================================
// GRADE STORE (position.GradeStore interface)
// =============================================================================

const gradeColumns = `id, grade_code, grade_type, display_name, monthly_value,
	min_salary, max_salary, sort_order, active`

// ListGradeValues returns grade values ordered by sort order.
func (s *Store) ListGradeValues(ctx context.Context, activeOnly bool) ([]position.GradeValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + gradeColumns + ` FROM grade_values`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, grade_code ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query grade values: %w", err)
	}
	defer rows.Close()

	grades := make([]position.GradeValue, 0)
	for rows.Next() {
		var g position.GradeValue
		if err := rows.Scan(gradeDest(&g)...); err != nil {
			return nil, fmt.Errorf("failed to scan grade value: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// GetGradeValue retrieves a grade value by ID.
func (s *Store) GetGradeValue(ctx context.Context, id string) (*position.GradeValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getGrade(ctx, "id", id)
}

// FindGradeValue retrieves a grade value by (normalized) code.
func (s *Store) FindGradeValue(ctx context.Context, code string) (*position.GradeValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getGrade(ctx, "grade_code", position.NormalizeGrade(code))
}

func (s *Store) getGrade(ctx context.Context, column, value string) (*position.GradeValue, error) {
	var g position.GradeValue
	err := s.db.QueryRowContext(ctx,
		"SELECT "+gradeColumns+" FROM grade_values WHERE "+column+" = ?",
		value,
	).Scan(gradeDest(&g)...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, position.ErrGradeValueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grade value: %w", err)
	}
	return &g, nil
}

// CreateGradeValue stores g under its normalized code.
func (s *Store) CreateGradeValue(ctx context.Context, g position.GradeValue) (*position.GradeValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.GradeCode = position.NormalizeGrade(g.GradeCode)

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO grade_values (`+gradeColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID, g.GradeCode, g.GradeType, g.DisplayName, g.MonthlyValue,
		g.MinSalary, g.MaxSalary, g.SortOrder, g.Active, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, &position.GradeConflictError{GradeCode: g.GradeCode, Err: position.ErrDuplicateGradeCode}
		}
		return nil, fmt.Errorf("failed to create grade value: %w", err)
	}
	return &g, nil
}

// UpdateGradeValue replaces the grade value with ID g.ID.
func (s *Store) UpdateGradeValue(ctx context.Context, g position.GradeValue) (*position.GradeValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.GradeCode = position.NormalizeGrade(g.GradeCode)
	res, err := s.db.ExecContext(ctx, `
		UPDATE grade_values SET
			grade_code = ?, grade_type = ?, display_name = ?, monthly_value = ?,
			min_salary = ?, max_salary = ?, sort_order = ?, active = ?, updated_at = ?
		WHERE id = ?
	`,
		g.GradeCode, g.GradeType, g.DisplayName, g.MonthlyValue,
		g.MinSalary, g.MaxSalary, g.SortOrder, g.Active,
		time.Now().UTC().Format(time.RFC3339), g.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, &position.GradeConflictError{GradeCode: g.GradeCode, Err: position.ErrDuplicateGradeCode}
		}
		return nil, fmt.Errorf("failed to update grade value: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, position.ErrGradeValueNotFound
	}
	return &g, nil
}

// DeleteGradeValue removes a grade value that no position references.
func (s *Store) DeleteGradeValue(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.getGrade(ctx, "id", id)
	if err != nil {
		return err
	}

	inUse, err := s.gradesInUse(ctx)
	if err != nil {
		return err
	}
	for _, code := range inUse {
		if code == g.GradeCode {
			return &position.GradeConflictError{GradeCode: g.GradeCode, Err: position.ErrGradeInUse}
		}
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM grade_values WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete grade value: %w", err)
	}
	return nil
}

// GradesInUse returns the distinct normalized grade codes of all positions.
func (s *Store) GradesInUse(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.gradesInUse(ctx)
}

// gradesInUse normalizes in Go; raw codes like "E 13" and "E13 TV-L" collapse.
func (s *Store) gradesInUse(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT grade_code FROM positions WHERE TRIM(grade_code) <> ''")
	if err != nil {
		return nil, fmt.Errorf("failed to query grades in use: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var codes []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		code := position.NormalizeGrade(raw)
		if code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(codes)
	return codes, nil
}

func gradeDest(g *position.GradeValue) []any {
	return []any{
		&g.ID, &g.GradeCode, &g.GradeType, &g.DisplayName, &g.MonthlyValue,
		&g.MinSalary, &g.MaxSalary, &g.SortOrder, &g.Active,
	}
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"positions", "grade_values"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullDate(d *position.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(ns sql.NullString) (*position.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := position.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
