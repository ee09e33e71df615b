package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(generatorLatencyMs)
}

var generatorLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "generator_calls_latency_ms",
		Help:    "Document generator call latency distribution in milliseconds.",
		Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000, 60000},
	},
	[]string{"provider", "kind", "success"},
)

func ObserveGeneratorCall(provider, kind string, success bool, elapsed time.Duration) {
	generatorLatencyMs.
		WithLabelValues(norm(provider), norm(kind), strconv.FormatBool(success)).
		Observe(float64(elapsed.Milliseconds()))
}
