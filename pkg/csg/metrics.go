package csg

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// booleanTotal counts boolean evaluations by operator and result.
	booleanTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mallet_boolean_total",
		Help: "Total boolean evaluations by operator and result",
	}, []string{"op", "result"})

	// booleanDuration tracks the wall time of a whole reduction.
	booleanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mallet_boolean_duration_seconds",
		Help:    "Boolean evaluation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"op"})

	// booleanTriangles tracks the size of produced meshes.
	booleanTriangles = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mallet_boolean_result_triangles",
		Help:    "Triangle count of boolean result meshes",
		Buckets: prometheus.ExponentialBuckets(16, 4, 9), // 16 to ~1M
	})
)

// Result label values.
const (
	resultOK           = "ok"
	resultInsufficient = "insufficient_operands"
	resultDecode       = "decode_error"
	resultFailed       = "failed"
)
