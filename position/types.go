/*
Package position holds the staff-plan data model shared by the matching
engine, the stores, the importer and the API.

PURPOSE:
  A budgeted position (a "slot" identified by PositionID) is stored as one or
  more assignment-period rows. Rows sharing a PositionID either follow each
  other in time (assignment changes) or overlap (a position split between
  several people). Grade values map a normalized pay-grade code to a monthly
  monetary value used for budget calculations.

KEY CONCEPTS IN THIS FILE (types.go):
  - Position: one assignment-period row
  - GradeValue: one row of the pay-grade table
  - CandidateFilter: scope + relevance filters for candidate lookups

PLACEHOLDER ROWS:
  A personnel number of "00000000" marks an unoccupied placeholder row. An
  empty personnel number marks a vacant row. Neither occupies capacity.

PRECISION:
  Percentages and money use decimal.Decimal. Monthly values are nullable
  because grade tables are often imported before salaries are known.

SEE ALSO:
  - store.go: PositionStore / GradeStore interfaces
  - errors.go: Sentinel errors
  - ../matching: The position-matching engine
*/
package position

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PlaceholderPersonnel marks a row that reserves a slot without a real person.
const PlaceholderPersonnel = "00000000"

// =============================================================================
// POSITION ROW
// =============================================================================

// Position is one assignment-period row of a budgeted position.
type Position struct {
	ID                string // row id (uuid)
	PositionID        string // shared by all rows of the same slot
	Status            string
	ObjectCode        string
	ObjectDescription string
	RelevanceCategory string
	OrganizationUnit  string // free-text unit name from the source system
	GradeCode         string // raw tariff group, normalize before lookup
	BaseGrade         string
	PositionValue     decimal.NullDecimal
	Percentage        decimal.Decimal
	StartDate         *Date // nil = unbounded past
	EndDate           *Date // nil = unbounded future
	Fund              string
	PersonnelNumber   string
	EmployeeGroup     string
	OrgUnitID         string // owning organizational unit
}

// IsOccupying reports whether the row represents a real person holding
// part of the position's capacity.
func (p Position) IsOccupying() bool {
	pn := strings.TrimSpace(p.PersonnelNumber)
	return pn != "" && pn != PlaceholderPersonnel
}

// IsPlaceholder reports whether the row is an unoccupied placeholder.
func (p Position) IsPlaceholder() bool {
	return strings.TrimSpace(p.PersonnelNumber) == PlaceholderPersonnel
}

// HasGrade reports whether the row carries a non-blank grade code.
func (p Position) HasGrade() bool {
	return strings.TrimSpace(p.GradeCode) != ""
}

// Period returns the row's date range with unbounded edges substituted.
func (p Position) Period() Period {
	return Period{Start: StartOrMin(p.StartDate), End: EndOrMax(p.EndDate)}
}

// ActiveOn returns true if the row's [start, end] interval contains d.
func (p Position) ActiveOn(d Date) bool {
	return p.Period().Contains(d)
}

// =============================================================================
// GRADE VALUE
// =============================================================================

// GradeValue is one entry of the pay-grade table.
type GradeValue struct {
	ID           string
	GradeCode    string // normalized, unique
	GradeType    string // e.g. "E", "A", "W"
	DisplayName  string
	MonthlyValue decimal.NullDecimal
	MinSalary    decimal.NullDecimal
	MaxSalary    decimal.NullDecimal
	SortOrder    int
	Active       bool
}

// Monthly returns the monthly value or zero when unknown.
func (g GradeValue) Monthly() decimal.Decimal {
	if !g.MonthlyValue.Valid {
		return decimal.Zero
	}
	return g.MonthlyValue.Decimal
}

// =============================================================================
// CANDIDATE FILTER
// =============================================================================

// CandidateFilter narrows candidate rows. Both filters are optional and
// combine with AND.
type CandidateFilter struct {
	OrgUnitID           string   // empty = all units
	RelevanceCategories []string // empty = all categories
}

// Matches applies the grade-presence, placeholder and scope rules to one row.
func (f CandidateFilter) Matches(p Position) bool {
	if !p.HasGrade() || p.IsPlaceholder() {
		return false
	}
	if f.OrgUnitID != "" && p.OrgUnitID != f.OrgUnitID {
		return false
	}
	if len(f.RelevanceCategories) > 0 {
		for _, c := range f.RelevanceCategories {
			if p.RelevanceCategory == c {
				return true
			}
		}
		return false
	}
	return true
}
