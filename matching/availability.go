/*
availability.go - Time-slice capacity analysis

PURPOSE:
  Determines how much of a position is free for the ENTIRE requested period.
  A position that is 100% free in March but fully booked in April is not
  free for a March-April request: the minimum over time is what counts.

HOW IT WORKS:
  1. Only occupying rows count (real personnel number, not "00000000").
  2. Every date where the set of active assignments can change becomes a
     boundary: the query start and end, each assignment start, each
     assignment end, and each day after an assignment end.
  3. Consecutive boundaries form slices. At the start of each slice the
     percentages of all active assignments are summed.
     Available = max(0, 100 - sum). The last boundary only closes the final
     slice, so a single-day query has no slice and is fully free.
  4. The result is the minimum available percentage and the maximum number
     of concurrent assignments seen at any slice start.

EXAMPLE:
  Query [2025-01-01, 2025-12-31], rows:
    A 50%  [2024-01-01, 2025-06-30]
    B 30%  [2025-03-01, open]
  Boundaries: 01-01 (A=50), 03-01 (A+B=80), 06-30 (80), 07-01 (B=30), 12-31 (end)
  -> MinAvailablePercent 20, PeakAssignmentCount 2

SEE ALSO:
  - finder.go: Calls AnalyzeAvailability once per unique position
  - split.go: Uses the same analysis for partial matches
*/
package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/staffplan/position"
)

// Availability is the free capacity of one position over a period.
type Availability struct {
	MinAvailablePercent decimal.Decimal // 0-100
	PeakAssignmentCount int
}

// AssignedPercent returns 100 minus the available percentage.
func (a Availability) AssignedPercent() decimal.Decimal {
	return hundred.Sub(a.MinAvailablePercent)
}

// AnalyzeAvailability computes the free capacity of the rows of one position
// over the query period.
func AnalyzeAvailability(rows []position.Position, query position.Period) Availability {
	occupying := make([]position.Period, 0, len(rows))
	percents := make([]decimal.Decimal, 0, len(rows))
	for _, r := range rows {
		if r.IsOccupying() {
			occupying = append(occupying, r.Period())
			percents = append(percents, r.Percentage)
		}
	}
	if len(occupying) == 0 {
		return Availability{MinAvailablePercent: hundred}
	}

	minAvailable := hundred
	peak := 0
	boundaries := sliceBoundaries(occupying, query)
	for _, at := range boundaries[:max(len(boundaries)-1, 0)] {
		assigned := decimal.Zero
		active := 0
		for i, p := range occupying {
			if p.Contains(at) {
				assigned = assigned.Add(percents[i])
				active++
			}
		}

		available := hundred.Sub(assigned)
		if available.IsNegative() {
			available = decimal.Zero
		}
		if available.LessThan(minAvailable) {
			minAvailable = available
		}
		if active > peak {
			peak = active
		}
	}

	return Availability{MinAvailablePercent: minAvailable, PeakAssignmentCount: peak}
}

// sliceBoundaries returns the sorted, de-duplicated dates inside the query at
// which the set of active assignments may change. The query end is included
// as the closing boundary of the last slice.
func sliceBoundaries(assignments []position.Period, query position.Period) []position.Date {
	candidates := []position.Date{query.Start, query.End}
	for _, a := range assignments {
		candidates = append(candidates, a.Start, a.End, a.End.AddDays(1))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Before(candidates[j])
	})

	result := make([]position.Date, 0, len(candidates))
	for _, d := range candidates {
		if !query.Contains(d) {
			continue
		}
		if len(result) > 0 && result[len(result)-1].Equal(d) {
			continue
		}
		result = append(result, d)
	}
	return result
}
