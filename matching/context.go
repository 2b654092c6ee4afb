package matching

import (
	"github.com/shopspring/decimal"

	"github.com/warp/staffplan/position"
)

// =============================================================================
// MATCHING CONTEXT - Everything a rule may look at for one position
// =============================================================================

// MatchingContext is the immutable input of the scoring rules. The finder
// builds one per evaluated position.
type MatchingContext struct {
	Position            position.Position // first row of the position id
	EmployeeGrade       position.GradeValue
	EmployeeMonthlyCost decimal.Decimal
	PositionBudget      decimal.Decimal // monthly value x available %
	Requested           position.Period
	RequestedPercent    decimal.Decimal
	AvailablePercent    decimal.Decimal
	AssignmentCount     int
}

// AssignedPercent returns 100 minus the available percentage.
func (c MatchingContext) AssignedPercent() decimal.Decimal {
	return hundred.Sub(c.AvailablePercent)
}

// FitsInBudget reports whether the employee cost does not exceed the budget.
func (c MatchingContext) FitsInBudget() bool {
	return c.EmployeeMonthlyCost.LessThanOrEqual(c.PositionBudget)
}

// WasteAmount is the unused part of the budget. Negative when the employee
// does not fit.
func (c MatchingContext) WasteAmount() decimal.Decimal {
	return c.PositionBudget.Sub(c.EmployeeMonthlyCost)
}

// WastePercent is the waste as a percentage of the budget, using a 4-digit
// fraction. Zero when there is no budget.
func (c MatchingContext) WastePercent() decimal.Decimal {
	if !c.PositionBudget.IsPositive() {
		return decimal.Zero
	}
	return c.WasteAmount().DivRound(c.PositionBudget, 4).Mul(hundred)
}

// RequestedDays is the length of the requested period, end exclusive.
func (c MatchingContext) RequestedDays() int64 {
	return c.Requested.Days()
}

// OverlapDays is the length of the intersection of the position's first row
// and the requested period, end exclusive. A row missing either date counts
// as covering the whole request.
func (c MatchingContext) OverlapDays() int64 {
	if c.Position.StartDate == nil || c.Position.EndDate == nil {
		return c.RequestedDays()
	}
	overlap, ok := c.Position.Period().Overlap(c.Requested)
	if !ok {
		return 0
	}
	return overlap.Days()
}
