package matching

import (
	"github.com/shopspring/decimal"

	"github.com/warp/staffplan/position"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// GRADE SCALE - Snapshot of the grade table for one request
// =============================================================================

// GradeScale resolves raw grade codes to grade values. It is built once per
// request from the grade store and never modified afterwards.
type GradeScale struct {
	byCode map[string]position.GradeValue
}

// NewGradeScale indexes values by normalized code. Later duplicates win.
func NewGradeScale(values []position.GradeValue) *GradeScale {
	s := &GradeScale{byCode: make(map[string]position.GradeValue, len(values))}
	for _, v := range values {
		s.byCode[position.NormalizeGrade(v.GradeCode)] = v
	}
	return s
}

// Lookup normalizes code and resolves it.
func (s *GradeScale) Lookup(code string) (position.GradeValue, bool) {
	normalized := position.NormalizeGrade(code)
	if normalized == "" {
		return position.GradeValue{}, false
	}
	g, ok := s.byCode[normalized]
	return g, ok
}

// Len returns the number of indexed grades.
func (s *GradeScale) Len() int {
	return len(s.byCode)
}

// =============================================================================
// COST CALCULATOR
// =============================================================================

// MonthlyCost prorates a grade's monthly value by percent (0-100), rounded
// half-up to cents. A grade without a monetary value costs nothing.
func MonthlyCost(g position.GradeValue, percent decimal.Decimal) decimal.Decimal {
	if !g.MonthlyValue.Valid {
		return decimal.Zero
	}
	return g.MonthlyValue.Decimal.Mul(percent).Div(hundred).Round(2)
}
