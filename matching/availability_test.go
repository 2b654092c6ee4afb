package matching

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/staffplan/position"
)

func datePtr(s string) *position.Date {
	d := position.MustParseDate(s)
	return &d
}

func assignment(personnel string, percent int64, start, end string) position.Position {
	p := position.Position{
		PositionID:      "50001234",
		GradeCode:       "E13",
		PersonnelNumber: personnel,
		Percentage:      decimal.NewFromInt(percent),
	}
	if start != "" {
		p.StartDate = datePtr(start)
	}
	if end != "" {
		p.EndDate = datePtr(end)
	}
	return p
}

func period(start, end string) position.Period {
	return position.Period{Start: position.MustParseDate(start), End: position.MustParseDate(end)}
}

func TestAnalyzeAvailability_NoOccupyingRows_FullyFree(t *testing.T) {
	// GIVEN: Only a vacant row and a placeholder row
	rows := []position.Position{
		assignment("", 100, "2025-01-01", "2025-12-31"),
		assignment(position.PlaceholderPersonnel, 100, "2025-01-01", "2025-12-31"),
	}

	// WHEN: Analyzing 2025
	a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))

	// THEN: Nothing occupies capacity
	assert.True(t, a.MinAvailablePercent.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 0, a.PeakAssignmentCount)
	assert.True(t, a.AssignedPercent().IsZero())
}

func TestAnalyzeAvailability_AssignmentEndsBeforeQuery(t *testing.T) {
	rows := []position.Position{assignment("10000001", 100, "2020-01-01", "2024-12-31")}

	a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))

	assert.True(t, a.MinAvailablePercent.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 0, a.PeakAssignmentCount)
}

func TestAnalyzeAvailability_MinimumOverTime(t *testing.T) {
	// GIVEN: A 50% assignment until June and a 30% open-ended one from March
	rows := []position.Position{
		assignment("10000001", 50, "2024-01-01", "2025-06-30"),
		assignment("10000002", 30, "2025-03-01", ""),
	}

	// WHEN: Analyzing 2025
	a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))

	// THEN: March to June is the bottleneck (80% assigned)
	assert.True(t, a.MinAvailablePercent.Equal(decimal.NewFromInt(20)), "got %s", a.MinAvailablePercent)
	assert.Equal(t, 2, a.PeakAssignmentCount)
}

func TestAnalyzeAvailability_TwoConcurrentHalves_NoCapacity(t *testing.T) {
	rows := []position.Position{
		assignment("10000001", 50, "2024-01-01", "2026-12-31"),
		assignment("10000002", 50, "2024-01-01", "2026-12-31"),
	}

	a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))

	assert.True(t, a.MinAvailablePercent.IsZero())
	assert.Equal(t, 2, a.PeakAssignmentCount)
}

func TestAnalyzeAvailability_OverAssignedClampsAtZero(t *testing.T) {
	rows := []position.Position{
		assignment("10000001", 70, "2025-01-01", "2025-12-31"),
		assignment("10000002", 50, "2025-01-01", "2025-12-31"),
	}

	a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))

	assert.True(t, a.MinAvailablePercent.IsZero())
	assert.False(t, a.MinAvailablePercent.IsNegative())
}

func TestAnalyzeAvailability_SequentialAssignments_NoConcurrency(t *testing.T) {
	// GIVEN: Two 60% assignments that follow each other
	rows := []position.Position{
		assignment("10000001", 60, "2025-01-01", "2025-06-30"),
		assignment("10000002", 60, "2025-07-01", "2025-12-31"),
	}

	a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))

	// THEN: Never more than one person at a time
	assert.True(t, a.MinAvailablePercent.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 1, a.PeakAssignmentCount)
}

func TestAnalyzeAvailability_UnboundedDates(t *testing.T) {
	rows := []position.Position{assignment("10000001", 25, "", "")}

	a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))

	assert.True(t, a.MinAvailablePercent.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, 1, a.PeakAssignmentCount)
}

func TestAnalyzeAvailability_AssignmentStartsOnLastDay(t *testing.T) {
	// GIVEN: An assignment that only touches the final requested day
	rows := []position.Position{assignment("10000001", 100, "2025-12-31", "2026-12-31")}

	// WHEN: Analyzing 2025
	a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))

	// THEN: The end date only closes the last slice, so the position stays free
	assert.True(t, a.MinAvailablePercent.Equal(decimal.NewFromInt(100)), "got %s", a.MinAvailablePercent)
	assert.Equal(t, 0, a.PeakAssignmentCount)
}

func TestAnalyzeAvailability_AssignmentStartsBeforeLastDay(t *testing.T) {
	rows := []position.Position{assignment("10000001", 100, "2025-12-30", "2026-12-31")}

	a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))

	assert.True(t, a.MinAvailablePercent.IsZero())
	assert.Equal(t, 1, a.PeakAssignmentCount)
}

func TestAnalyzeAvailability_SingleDayQuery(t *testing.T) {
	// GIVEN: A single-day query inside a 40% assignment
	rows := []position.Position{assignment("10000001", 40, "2025-03-01", "2025-03-31")}

	// WHEN: Start and end are the same day
	a := AnalyzeAvailability(rows, period("2025-03-15", "2025-03-15"))

	// THEN: There is no slice to evaluate
	assert.True(t, a.MinAvailablePercent.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 0, a.PeakAssignmentCount)
}

func TestSliceBoundaries_SortedDistinctInsideQuery(t *testing.T) {
	assignments := []position.Period{
		period("2024-06-01", "2025-03-31"),
		period("2025-03-01", "2026-01-31"),
	}

	got := sliceBoundaries(assignments, period("2025-01-01", "2025-12-31"))

	want := []string{"2025-01-01", "2025-03-01", "2025-03-31", "2025-04-01", "2025-12-31"}
	gotStrings := make([]string, len(got))
	for i, d := range got {
		gotStrings[i] = d.String()
	}
	assert.Equal(t, want, gotStrings)
}

func TestAnalyzeAvailability_StaysWithinBounds(t *testing.T) {
	// Property: 0 <= available <= 100 for arbitrary assignment mixes
	mixes := [][]position.Position{
		{assignment("1", 10, "2025-01-01", "2025-01-10")},
		{assignment("1", 100, "", ""), assignment("2", 100, "", "")},
		{assignment("1", 0, "2025-01-01", "2025-12-31")},
		{assignment("1", 33, "2024-06-01", "2025-02-01"), assignment("2", 33, "2025-01-15", ""), assignment("3", 34, "", "2025-01-20")},
	}
	for _, rows := range mixes {
		a := AnalyzeAvailability(rows, period("2025-01-01", "2025-12-31"))
		assert.False(t, a.MinAvailablePercent.IsNegative())
		assert.True(t, a.MinAvailablePercent.LessThanOrEqual(decimal.NewFromInt(100)))
	}
}
