package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	windowSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lpscope_controller_window_blocks",
			Help: "Current log query window size in blocks",
		},
		[]string{"event"},
	)

	windowCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpscope_controller_calls_total",
			Help: "Total number of window fetches by outcome",
		},
		[]string{"event", "outcome"},
	)

	windowOverflows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpscope_controller_overflows_total",
			Help: "Total number of rejected windows",
		},
		[]string{"event"},
	)

	recordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpscope_controller_records_total",
			Help: "Total number of decoded event records",
		},
		[]string{"event"},
	)
)

func WindowSizeSet(event string, blocks uint64) {
	windowSize.WithLabelValues(event).Set(float64(blocks))
}

func WindowCallInc(event, outcome string) {
	windowCalls.WithLabelValues(event, outcome).Inc()
}

func WindowOverflowInc(event string) {
	windowOverflows.WithLabelValues(event).Inc()
}

func RecordsAdd(event string, n int) {
	recordsFetched.WithLabelValues(event).Add(float64(n))
}
