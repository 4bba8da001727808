package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mqmeter_run_duration_seconds",
			Help:    "Time taken for a complete measurement run",
			Buckets: []float64{1, 10, 60, 300, 900, 3600, 7200},
		},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mqmeter_runs_total",
			Help: "Total number of measurement run attempts",
		},
		[]string{"status"}, // success, error or canceled
	)

	measureDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mqmeter_measure_duration_seconds",
			Help:    "Time taken to measure a single queue",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"transport"},
	)

	queuesMeasured = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mqmeter_report_queues",
			Help: "Number of queues included in the last report",
		},
	)
)
