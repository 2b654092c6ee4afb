package matching_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffplan/matching"
	"github.com/warp/staffplan/position"
)

func warningsWithMessage(hook *test.Hook, msg string) []*logrus.Entry {
	var result []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == msg {
			result = append(result, e)
		}
	}
	return result
}

func TestFindPositions_SkipWarningsAreCapped(t *testing.T) {
	// GIVEN: Seven fully occupied E13 positions and seven free E12 positions
	_, mem := newTestFinder(t)
	ctx := context.Background()
	var rows []position.Position
	for i := 0; i < 7; i++ {
		rows = append(rows,
			row(fmt.Sprintf("5100%04d", i), "E13", fmt.Sprintf("1000%04d", i), 100, "2024-01-01", "2026-12-31"),
			row(fmt.Sprintf("5200%04d", i), "E12", "", 100, "2025-01-01", "2025-12-31"),
		)
	}
	require.NoError(t, mem.SavePositions(ctx, rows))

	log := logrus.New()
	log.SetOutput(io.Discard)
	hook := test.NewLocal(log)
	finder := matching.NewFinder(mem, mem, matching.WithLogger(log))

	// WHEN: Searching a full-time E13
	resp, err := finder.FindPositions(ctx, request2025("E13", 100))

	// THEN: Every skip is counted
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.Equal(t, 7, resp.Diagnostics.SkippedInsufficientAvail)
	assert.Equal(t, 7, resp.Diagnostics.SkippedByRules)

	// AND: Only the first five of each kind are logged at Warn
	capacity := warningsWithMessage(hook, "skipping position with insufficient availability")
	require.Len(t, capacity, 5)
	assert.Equal(t, "51000000", capacity[0].Data["position_id"])
	assert.Equal(t, "0", capacity[0].Data["available_percent"])
	assert.Equal(t, 100, capacity[0].Data["requested_percent"])

	excluded := warningsWithMessage(hook, "skipping position excluded by rule")
	require.Len(t, excluded, 5)
	assert.Equal(t, "52000000", excluded[0].Data["position_id"])
	assert.Equal(t, "BudgetEfficiency", excluded[0].Data["rule"])
	assert.Equal(t, "5600.00", excluded[0].Data["employee_cost"])
	assert.Equal(t, "5000.00", excluded[0].Data["position_budget"])
}
