/*
rules.go - Scoring rules

PURPOSE:
  Each rule looks at a MatchingContext and returns a score in [0, 100], or
  Excluded (-1) to drop the position entirely. The total score is the
  weighted sum of all rule scores; the weights add up to 1.0 so the total
  stays in [0, 100].

RULES (evaluation order = priority):
  1. BudgetEfficiency  (0.50) - cost vs. budget, less waste is better
  2. SplitMinimization (0.30) - fewer existing assignments is better
  3. TimeOverlap       (0.20) - position period must cover the request

  Evaluation stops at the first rule that excludes.

SEE ALSO:
  - context.go: MatchingContext
  - finder.go: Uses DefaultRules
*/
package matching

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Excluded is the score a rule returns to drop a position.
const Excluded = -1.0

// Rule weights.
const (
	WeightBudgetEfficiency  = 0.50
	WeightSplitMinimization = 0.30
	WeightTimeOverlap       = 0.20
)

// PartialOverlapThreshold is the overlap ratio below which a match gets the
// partial-overlap warning.
const PartialOverlapThreshold = 0.8

// Rule is one scoring criterion.
type Rule struct {
	Name     string
	Priority int // lower runs first
	Weight   float64
	Evaluate func(ctx MatchingContext) float64
}

// RuleSet is an ordered list of rules.
type RuleSet []Rule

// DefaultRules returns the three standard rules in priority order.
func DefaultRules() RuleSet {
	return NewRuleSet(BudgetEfficiencyRule(), SplitMinimizationRule(), TimeOverlapRule())
}

// NewRuleSet sorts rules by priority.
func NewRuleSet(rules ...Rule) RuleSet {
	rs := make(RuleSet, len(rules))
	copy(rs, rules)
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Priority < rs[j].Priority
	})
	return rs
}

// Score evaluates the rules in order. It returns the weighted total, or the
// name of the first rule that excluded the position.
func (rs RuleSet) Score(ctx MatchingContext) (total float64, excludedBy string) {
	for _, r := range rs {
		score := r.Evaluate(ctx)
		if score == Excluded {
			return 0, r.Name
		}
		total += score * r.Weight
	}
	return total, ""
}

// =============================================================================
// BUDGET EFFICIENCY
// =============================================================================

// BudgetEfficiencyRule prefers positions whose budget is used up by the
// employee. Positions the employee does not fit into are excluded.
//
//	cost > budget   -> Excluded
//	waste == 0      -> 100
//	otherwise       -> max(0, 100 - waste%)
func BudgetEfficiencyRule() Rule {
	return Rule{
		Name:     "BudgetEfficiency",
		Priority: 1,
		Weight:   WeightBudgetEfficiency,
		Evaluate: func(ctx MatchingContext) float64 {
			if !ctx.FitsInBudget() {
				return Excluded
			}
			if ctx.WasteAmount().IsZero() {
				return 100
			}
			score := 100 - ctx.WastePercent().InexactFloat64()
			return math.Max(0, score)
		},
	}
}

// =============================================================================
// SPLIT MINIMIZATION
// =============================================================================

// SplitMinimizationRule prefers positions with fewer people already on them.
//
//	0 -> 100, 1 -> 80, 2 -> 50, n>=3 -> max(10, 25 - (n-3)*5)
func SplitMinimizationRule() Rule {
	return Rule{
		Name:     "SplitMinimization",
		Priority: 2,
		Weight:   WeightSplitMinimization,
		Evaluate: func(ctx MatchingContext) float64 {
			return splitScore(ctx.AssignmentCount)
		},
	}
}

func splitScore(assignments int) float64 {
	switch {
	case assignments <= 0:
		return 100
	case assignments == 1:
		return 80
	case assignments == 2:
		return 50
	default:
		return math.Max(10, 25-float64(assignments-3)*5)
	}
}

// =============================================================================
// TIME OVERLAP
// =============================================================================

// TimeOverlapRule scores how much of the requested period the position's
// first row covers.
//
//	requested days <= 0             -> Excluded
//	available >= requested percent  -> 100
//	overlap days <= 0               -> Excluded
//	otherwise                       -> min(100, overlap / requested * 100)
func TimeOverlapRule() Rule {
	return Rule{
		Name:     "TimeOverlap",
		Priority: 3,
		Weight:   WeightTimeOverlap,
		Evaluate: func(ctx MatchingContext) float64 {
			requested := ctx.RequestedDays()
			if requested <= 0 {
				return Excluded
			}
			if ctx.AvailablePercent.GreaterThanOrEqual(ctx.RequestedPercent) {
				return 100
			}
			overlap := ctx.OverlapDays()
			if overlap <= 0 {
				return Excluded
			}
			return math.Min(100, float64(overlap)/float64(requested)*100)
		},
	}
}

// overlapRatio is overlap days / requested days, or 1 for an empty request.
func overlapRatio(ctx MatchingContext) float64 {
	requested := ctx.RequestedDays()
	if requested <= 0 {
		return 1
	}
	return float64(ctx.OverlapDays()) / float64(requested)
}

// round2 rounds half away from zero to 2 decimals.
func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
