/*
Package matching implements the position-matching engine.

PURPOSE:
  Given an employee profile (grade, employment percentage, date range) and a
  catalog of position rows, the engine answers:
  - How much of each position is free for the WHOLE requested period?
  - Is placing the employee there financially and temporally sound?
  - How does each viable position rank?
  - If no single position suffices, which 2-4 positions jointly cover it?

CONTROL FLOW:
  Finder.FindPositions
    -> AnalyzeAvailability + MonthlyCost (per unique position id)
    -> RuleSet.Score (budget efficiency, split minimization, time overlap)
    -> ranked matches
    -> SplitGenerator.Generate (only when there are no matches)

STATELESSNESS:
  Every request loads its inputs once (candidate rows + grade table) and works
  on local values only. Nothing is cached between requests and nothing is
  written back, so concurrent requests need no locking.

KEY TYPES IN THIS FILE (types.go):
  Request, Response, MatchResult, SplitSuggestion, MatchQuality, Diagnostics

SEE ALSO:
  - availability.go: Time-slice capacity analysis
  - rules.go: Scoring rules and weights
  - finder.go: Orchestration
  - split.go: Combination search
*/
package matching

import (
	"github.com/shopspring/decimal"

	"github.com/warp/staffplan/position"
)

// DefaultFillPercentage is used when a request omits the percentage.
const DefaultFillPercentage = 100

// =============================================================================
// REQUEST
// =============================================================================

// Request describes the employee to place.
type Request struct {
	StartDate     *position.Date
	EndDate       *position.Date
	EmployeeGrade string // raw, normalized by the finder

	// FillPercentage is the employment percentage (1-100). nil = 100.
	FillPercentage *int

	// Optional filters, AND-combined.
	OrganizationScope   string
	RelevanceCategories []string
}

// FillPercentageOrDefault returns the requested percentage or 100.
func (r Request) FillPercentageOrDefault() int {
	if r.FillPercentage == nil {
		return DefaultFillPercentage
	}
	return *r.FillPercentage
}

// =============================================================================
// RESULTS
// =============================================================================

// MatchQuality is a tier derived from the overall score.
type MatchQuality string

const (
	QualityExcellent MatchQuality = "EXCELLENT" // 80-100
	QualityGood      MatchQuality = "GOOD"      // 60-79
	QualityFair      MatchQuality = "FAIR"      // 40-59
	QualityPoor      MatchQuality = "POOR"      // 0-39
)

// QualityFromScore maps a total score to its tier.
func QualityFromScore(score float64) MatchQuality {
	switch {
	case score >= 80:
		return QualityExcellent
	case score >= 60:
		return QualityGood
	case score >= 40:
		return QualityFair
	default:
		return QualityPoor
	}
}

// MatchResult is one ranked position.
type MatchResult struct {
	RowID               string
	PositionID          string
	ObjectCode          string
	ObjectDescription   string
	PositionGrade       string
	RelevanceCategory   string
	PositionPercentage  decimal.Decimal
	AvailablePercentage decimal.Decimal
	StartDate           *position.Date
	EndDate             *position.Date

	OverallScore           float64 // rounded to 2 decimals
	MatchQuality           MatchQuality
	WasteAmount            decimal.Decimal // rounded to 2 decimals
	WastePercentage        float64         // rounded to 2 decimals
	CurrentAssignmentCount int
	Warnings               []string
}

// SplitSuggestion is a group of positions whose free capacity jointly covers
// the requested percentage.
type SplitSuggestion struct {
	Positions                []MatchResult
	TotalAvailablePercentage decimal.Decimal
	TotalWasteAmount         decimal.Decimal
	SplitCount               int
}

// newSplitSuggestion sums up a combination.
func newSplitSuggestion(matches []MatchResult) SplitSuggestion {
	totalAvailable := decimal.Zero
	totalWaste := decimal.Zero
	for _, m := range matches {
		totalAvailable = totalAvailable.Add(m.AvailablePercentage)
		totalWaste = totalWaste.Add(m.WasteAmount)
	}
	return SplitSuggestion{
		Positions:                matches,
		TotalAvailablePercentage: totalAvailable,
		TotalWasteAmount:         totalWaste,
		SplitCount:               len(matches),
	}
}

// Diagnostics counts positions dropped from the ranking. They are reported
// for observability only.
type Diagnostics struct {
	Candidates               int
	UniquePositions          int
	SkippedUnknownGrade      int
	SkippedInsufficientAvail int
	SkippedByRules           int
}

// Response is the outcome of one search.
type Response struct {
	EmployeeMonthlyCost decimal.Decimal
	EmployeeGrade       string
	FillPercentage      int
	TotalMatchesFound   int
	Matches             []MatchResult
	SplitSuggestions    []SplitSuggestion
	Diagnostics         Diagnostics
}
