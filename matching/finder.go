/*
finder.go - Position finder orchestration

PURPOSE:
  FindPositions is the single entry point of the engine. It validates the
  request, prices the employee, evaluates every candidate position and ranks
  the results. When nothing fits, it falls back to split suggestions.

STEPS:
  1. Validate dates, grade, fill percentage.
  2. Resolve the employee grade and compute the monthly cost.
  3. Load candidate rows (filtered by scope and relevance categories).
  4. Group rows by position id, keeping first-occurrence order.
  5. Per position:
     - resolve its grade (skip if unknown)
     - analyze availability (skip if below the requested percentage)
     - score with the rule set (skip if a rule excludes)
     - compute waste and warnings
  6. Sort by score descending.
  7. No matches -> SplitGenerator.

SEE ALSO:
  - availability.go, rules.go, split.go
*/
package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/staffplan/position"
)

// HighWasteThreshold is the waste percentage above which a match is flagged.
const HighWasteThreshold = 30.0

// Warning messages attached to matches.
const (
	WarnMultipleAssignment = "Position has multiple assignments"
	WarnPartialOverlap     = "Partial time overlap only"
)

// maxSkipLogs bounds the per-request warnings for each kind of skipped position.
const maxSkipLogs = 5

// Finder ranks positions for an employee.
type Finder struct {
	positions position.PositionReader
	grades    position.GradeReader
	rules     RuleSet
	splits    *SplitGenerator
	log       logrus.FieldLogger
}

// Option configures a Finder.
type Option func(*Finder)

// WithRules replaces the default rule set.
func WithRules(rules RuleSet) Option {
	return func(f *Finder) { f.rules = rules }
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Finder) { f.log = log }
}

// NewFinder creates a finder reading from the given stores.
func NewFinder(positions position.PositionReader, grades position.GradeReader, opts ...Option) *Finder {
	f := &Finder{
		positions: positions,
		grades:    grades,
		rules:     DefaultRules(),
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.splits = NewSplitGenerator(f.log)
	return f
}

// searchInput is a validated request.
type searchInput struct {
	period  position.Period
	fill    int
	percent decimal.Decimal
}

// validate checks the request in a fixed order and returns the first
// violation.
func validate(req Request) (searchInput, error) {
	if req.StartDate == nil || req.EndDate == nil {
		return searchInput{}, ErrMissingDates
	}
	period, err := position.NewPeriod(*req.StartDate, *req.EndDate)
	if err != nil {
		return searchInput{}, ErrInvalidDateRange
	}
	if strings.TrimSpace(req.EmployeeGrade) == "" {
		return searchInput{}, ErrMissingGrade
	}
	fill := req.FillPercentageOrDefault()
	if fill < 1 || fill > 100 {
		return searchInput{}, fmt.Errorf("%w: got %d", ErrFillPercentageOutOfRange, fill)
	}
	return searchInput{period: period, fill: fill, percent: decimal.NewFromInt(int64(fill))}, nil
}

// FindPositions ranks the candidate positions for req.
func (f *Finder) FindPositions(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()

	in, err := validate(req)
	if err != nil {
		recordSearch(outcomeRejected, started)
		return nil, err
	}

	gradeValues, err := f.grades.ListGradeValues(ctx, false)
	if err != nil {
		recordSearch(outcomeError, started)
		return nil, fmt.Errorf("load grade values: %w", err)
	}
	scale := NewGradeScale(gradeValues)

	employeeGrade, ok := scale.Lookup(req.EmployeeGrade)
	if !ok {
		recordSearch(outcomeRejected, started)
		return nil, &UnknownGradeError{Raw: req.EmployeeGrade, Normalized: position.NormalizeGrade(req.EmployeeGrade)}
	}
	employeeCost := MonthlyCost(employeeGrade, in.percent)

	candidates, err := f.positions.CandidatePositions(ctx, position.CandidateFilter{
		OrgUnitID:           req.OrganizationScope,
		RelevanceCategories: req.RelevanceCategories,
	})
	if err != nil {
		recordSearch(outcomeError, started)
		return nil, fmt.Errorf("load candidate positions: %w", err)
	}

	log := f.log.WithFields(logrus.Fields{
		"grade":    employeeGrade.GradeCode,
		"fill":     in.fill,
		"period":   in.period.String(),
		"cost":     employeeCost.StringFixed(2),
		"rows":     len(candidates),
		"org_unit": req.OrganizationScope,
	})

	order, groups := groupByPositionID(candidates)
	diag := Diagnostics{Candidates: len(candidates), UniquePositions: len(order)}

	matches := make([]MatchResult, 0)
	for _, id := range order {
		rows := groups[id]
		first := rows[0]

		positionGrade, ok := scale.Lookup(first.GradeCode)
		if !ok {
			diag.SkippedUnknownGrade++
			if diag.SkippedUnknownGrade <= maxSkipLogs {
				log.WithFields(logrus.Fields{
					"position_id": id,
					"grade_code":  first.GradeCode,
				}).Warn("skipping position with unknown grade")
			}
			continue
		}

		avail := AnalyzeAvailability(rows, in.period)
		if avail.MinAvailablePercent.LessThan(in.percent) {
			diag.SkippedInsufficientAvail++
			if diag.SkippedInsufficientAvail <= maxSkipLogs {
				log.WithFields(logrus.Fields{
					"position_id":       id,
					"available_percent": avail.MinAvailablePercent.String(),
					"requested_percent": in.fill,
					"assignments":       avail.PeakAssignmentCount,
				}).Warn("skipping position with insufficient availability")
			}
			continue
		}

		mc := MatchingContext{
			Position:            first,
			EmployeeGrade:       employeeGrade,
			EmployeeMonthlyCost: employeeCost,
			PositionBudget:      MonthlyCost(positionGrade, avail.MinAvailablePercent),
			Requested:           in.period,
			RequestedPercent:    in.percent,
			AvailablePercent:    avail.MinAvailablePercent,
			AssignmentCount:     avail.PeakAssignmentCount,
		}

		score, excludedBy := f.rules.Score(mc)
		if excludedBy != "" {
			diag.SkippedByRules++
			if diag.SkippedByRules <= maxSkipLogs {
				log.WithFields(logrus.Fields{
					"position_id":       id,
					"rule":              excludedBy,
					"available_percent": mc.AvailablePercent.String(),
					"requested_percent": in.fill,
					"employee_cost":     mc.EmployeeMonthlyCost.StringFixed(2),
					"position_budget":   mc.PositionBudget.StringFixed(2),
				}).Warn("skipping position excluded by rule")
			}
			continue
		}

		matches = append(matches, buildMatch(first, mc, score))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].OverallScore > matches[j].OverallScore
	})

	splits := make([]SplitSuggestion, 0)
	if len(matches) == 0 {
		splits = f.splits.Generate(SplitRequest{
			Candidates:    candidates,
			Scale:         scale,
			EmployeeGrade: employeeGrade,
			Period:        in.period,
			Fill:          in.fill,
		})
	}

	recordSkipped(diag)
	switch {
	case len(matches) > 0:
		recordSearch(outcomeMatched, started)
	case len(splits) > 0:
		recordSearch(outcomeSplit, started)
	default:
		recordSearch(outcomeEmpty, started)
	}

	log.WithFields(logrus.Fields{
		"unique_positions": diag.UniquePositions,
		"matches":          len(matches),
		"splits":           len(splits),
		"skipped_grade":    diag.SkippedUnknownGrade,
		"skipped_capacity": diag.SkippedInsufficientAvail,
		"skipped_rules":    diag.SkippedByRules,
		"duration_ms":      time.Since(started).Milliseconds(),
	}).Info("position search finished")

	return &Response{
		EmployeeMonthlyCost: employeeCost,
		EmployeeGrade:       req.EmployeeGrade,
		FillPercentage:      in.fill,
		TotalMatchesFound:   len(matches),
		Matches:             matches,
		SplitSuggestions:    splits,
		Diagnostics:         diag,
	}, nil
}

// buildMatch turns a scored context into a result row.
func buildMatch(first position.Position, mc MatchingContext, score float64) MatchResult {
	wastePercentDec := mc.WastePercent()
	wastePercent := wastePercentDec.InexactFloat64()

	var warnings []string
	if wastePercent > HighWasteThreshold {
		warnings = append(warnings, "High budget waste (>"+wastePercentDec.StringFixed(0)+"%)")
	}
	if mc.AssignmentCount >= 2 {
		warnings = append(warnings, WarnMultipleAssignment)
	}
	if mc.RequestedDays() > 0 && overlapRatio(mc) < PartialOverlapThreshold {
		warnings = append(warnings, WarnPartialOverlap)
	}

	return MatchResult{
		RowID:                  first.ID,
		PositionID:             first.PositionID,
		ObjectCode:             first.ObjectCode,
		ObjectDescription:      first.ObjectDescription,
		PositionGrade:          first.GradeCode,
		RelevanceCategory:      first.RelevanceCategory,
		PositionPercentage:     first.Percentage,
		AvailablePercentage:    mc.AvailablePercent,
		StartDate:              first.StartDate,
		EndDate:                first.EndDate,
		OverallScore:           round2(score),
		MatchQuality:           QualityFromScore(score),
		WasteAmount:            mc.WasteAmount().Round(2),
		WastePercentage:        round2(wastePercent),
		CurrentAssignmentCount: mc.AssignmentCount,
		Warnings:               warnings,
	}
}

// groupByPositionID groups rows by position id. order lists each id once, in
// order of first occurrence.
func groupByPositionID(rows []position.Position) (order []string, groups map[string][]position.Position) {
	groups = make(map[string][]position.Position)
	for _, r := range rows {
		if _, seen := groups[r.PositionID]; !seen {
			order = append(order, r.PositionID)
		}
		groups[r.PositionID] = append(groups[r.PositionID], r)
	}
	return order, groups
}
