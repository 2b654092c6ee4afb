/*
split.go - Split suggestions

PURPOSE:
  When no single position has enough free capacity, an employee can be
  funded from several positions at once. The generator finds groups of 2, 3
  or 4 partially free positions whose free capacity, summed, covers the
  requested percentage for the whole period.

SEARCH BOUNDS:
  Combinations grow fast (100 choose 4 is almost 4 million), so the search
  is bounded:
  - only the first MaxSplitCandidates partial matches are combined
  - at most MaxSplitCombinations complete combinations per size
  - at most 5 / 2 / 1 results for sizes 2 / 3 / 4
  - at most MaxSplitSuggestions results overall

RANKING:
  Fewer positions first, then least excess capacity (sum - requested).
*/
package matching

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/staffplan/position"
)

// Search bounds.
const (
	MaxSplitCandidates   = 100
	MaxSplitCombinations = 10000
	MaxSplitSuggestions  = 8
)

// Partial matches are not ranked by the rule set.
const (
	partialMatchScore   = 50.0
	partialMatchQuality = QualityFair
)

// splitSizes lists the combination sizes and the number of results kept
// for each.
var splitSizes = []struct {
	size       int
	maxResults int
}{
	{size: 2, maxResults: 5},
	{size: 3, maxResults: 2},
	{size: 4, maxResults: 1},
}

// SplitRequest carries the already-loaded inputs of one search.
type SplitRequest struct {
	Candidates    []position.Position
	Scale         *GradeScale
	EmployeeGrade position.GradeValue
	Period        position.Period
	Fill          int
}

// SplitGenerator builds split suggestions.
type SplitGenerator struct {
	log logrus.FieldLogger
}

// NewSplitGenerator creates a generator.
func NewSplitGenerator(log logrus.FieldLogger) *SplitGenerator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SplitGenerator{log: log}
}

// Generate returns up to MaxSplitSuggestions suggestions, best first.
func (g *SplitGenerator) Generate(req SplitRequest) []SplitSuggestion {
	partials := g.partialMatches(req)
	target := decimal.NewFromInt(int64(req.Fill))

	suggestions := make([]SplitSuggestion, 0)
	for _, s := range splitSizes {
		suggestions = append(suggestions, topCombinations(partials, target, s.size, s.maxResults)...)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].SplitCount != suggestions[j].SplitCount {
			return suggestions[i].SplitCount < suggestions[j].SplitCount
		}
		return suggestions[i].TotalAvailablePercentage.LessThan(suggestions[j].TotalAvailablePercentage)
	})
	if len(suggestions) > MaxSplitSuggestions {
		suggestions = suggestions[:MaxSplitSuggestions]
	}

	g.log.WithFields(logrus.Fields{
		"partial_matches": len(partials),
		"suggestions":     len(suggestions),
	}).Info("generated split suggestions")

	return suggestions
}

// partialMatches returns one entry per position that has some free capacity
// and whose grade is worth at least the employee's.
func (g *SplitGenerator) partialMatches(req SplitRequest) []MatchResult {
	order, groups := groupByPositionID(req.Candidates)
	employeeMonthly := req.EmployeeGrade.Monthly()

	result := make([]MatchResult, 0)
	for _, id := range order {
		rows := groups[id]
		first := rows[0]

		positionGrade, ok := req.Scale.Lookup(first.GradeCode)
		if !ok {
			continue
		}
		if positionGrade.Monthly().LessThan(employeeMonthly) {
			continue
		}

		avail := AnalyzeAvailability(rows, req.Period)
		if !avail.MinAvailablePercent.IsPositive() {
			continue
		}

		budget := MonthlyCost(positionGrade, avail.MinAvailablePercent)
		cost := MonthlyCost(req.EmployeeGrade, avail.MinAvailablePercent)
		waste := budget.Sub(cost)
		if waste.IsNegative() {
			waste = decimal.Zero
		}
		wastePercent := decimal.Zero
		if budget.IsPositive() {
			wastePercent = waste.DivRound(budget, 4).Mul(hundred)
		}

		result = append(result, MatchResult{
			RowID:                  first.ID,
			PositionID:             first.PositionID,
			ObjectCode:             first.ObjectCode,
			ObjectDescription:      first.ObjectDescription,
			PositionGrade:          first.GradeCode,
			RelevanceCategory:      first.RelevanceCategory,
			PositionPercentage:     first.Percentage,
			AvailablePercentage:    avail.MinAvailablePercent,
			StartDate:              first.StartDate,
			EndDate:                first.EndDate,
			OverallScore:           partialMatchScore,
			MatchQuality:           partialMatchQuality,
			WasteAmount:            waste.Round(2),
			WastePercentage:        round2(wastePercent.InexactFloat64()),
			CurrentAssignmentCount: avail.PeakAssignmentCount,
			Warnings:               []string{},
		})
	}
	return result
}

// topCombinations returns the best maxResults combinations of exactly n
// partial matches whose capacity sum reaches target, least excess first.
func topCombinations(partials []MatchResult, target decimal.Decimal, n, maxResults int) []SplitSuggestion {
	if len(partials) < n {
		return nil
	}
	if len(partials) > MaxSplitCandidates {
		partials = partials[:MaxSplitCandidates]
	}

	var qualifying []SplitSuggestion
	examined := 0
	current := make([]int, 0, n)

	var walk func(start int)
	walk = func(start int) {
		if len(current) == n {
			examined++
			combo := make([]MatchResult, n)
			for i, idx := range current {
				combo[i] = partials[idx]
			}
			s := newSplitSuggestion(combo)
			if s.TotalAvailablePercentage.GreaterThanOrEqual(target) {
				qualifying = append(qualifying, s)
			}
			return
		}
		// not enough candidates left to fill the remaining slots
		if len(partials)-start < n-len(current) {
			return
		}
		for i := start; i < len(partials); i++ {
			if examined >= MaxSplitCombinations {
				return
			}
			current = append(current, i)
			walk(i + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)
	recordCombinations(strconv.Itoa(n), examined)

	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].TotalAvailablePercentage.LessThan(qualifying[j].TotalAvailablePercentage)
	})
	if len(qualifying) > maxResults {
		qualifying = qualifying[:maxResults]
	}
	return qualifying
}
