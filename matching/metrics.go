package matching

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes.
const (
	outcomeMatched  = "matched"
	outcomeSplit    = "split"
	outcomeEmpty    = "empty"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

type metrics struct {
	searchTotal      *prometheus.CounterVec
	searchDuration   prometheus.Histogram
	skippedTotal     *prometheus.CounterVec
	combinationTotal *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		searchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffplan",
			Subsystem: "finder",
			Name:      "search_total",
			Help:      "Total number of position searches by outcome.",
		}, []string{"outcome"}),
		searchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "staffplan",
			Subsystem: "finder",
			Name:      "search_duration_seconds",
			Help:      "Latency distribution for position searches.",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.05,
				0.1, 0.25, 0.5, 1, 2.5,
			},
		}),
		skippedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffplan",
			Subsystem: "finder",
			Name:      "skipped_positions_total",
			Help:      "Total number of positions dropped from ranking by reason.",
		}, []string{"reason"}),
		combinationTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffplan",
			Subsystem: "finder",
			Name:      "split_combinations_total",
			Help:      "Total number of split combinations examined by size.",
		}, []string{"size"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}

func recordSearch(outcome string, started time.Time) {
	m := getMetrics()
	m.searchTotal.WithLabelValues(outcome).Inc()
	m.searchDuration.Observe(time.Since(started).Seconds())
}

func recordSkipped(d Diagnostics) {
	m := getMetrics()
	m.skippedTotal.WithLabelValues("unknown_grade").Add(float64(d.SkippedUnknownGrade))
	m.skippedTotal.WithLabelValues("insufficient_availability").Add(float64(d.SkippedInsufficientAvail))
	m.skippedTotal.WithLabelValues("excluded_by_rule").Add(float64(d.SkippedByRules))
}

func recordCombinations(size string, n int) {
	getMetrics().combinationTotal.WithLabelValues(size).Add(float64(n))
}
