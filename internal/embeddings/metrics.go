package embeddings

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all embedding-related metrics.
type Metrics struct {
	duration  *prometheus.HistogramVec
	batchSize prometheus.Histogram
	errors    *prometheus.CounterVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// NewMetrics returns the process-wide Metrics instance for embeddings.
// Collectors register against the default registry exactly once.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics()
	})
	return metricsInstance
}

func newMetrics() *Metrics {
	return &Metrics{
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "extractd",
			Subsystem: "embedding",
			Name:      "generation_duration_seconds",
			Help:      "Duration of embedding generation in seconds, labeled by model and operation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"model", "operation"}),
		batchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "extractd",
			Subsystem: "embedding",
			Name:      "batch_size",
			Help:      "Number of texts per embedding batch request.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
		errors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "extractd",
			Subsystem: "embedding",
			Name:      "errors_total",
			Help:      "Total embedding generation errors by model and operation.",
		}, []string{"model", "operation"}),
	}
}

// RecordGeneration records embedding generation metrics.
func (m *Metrics) RecordGeneration(model, operation string, duration time.Duration, batchSize int, err error) {
	m.duration.WithLabelValues(model, operation).Observe(duration.Seconds())
	if batchSize > 0 {
		m.batchSize.Observe(float64(batchSize))
	}
	if err != nil {
		m.errors.WithLabelValues(model, operation).Inc()
	}
}
