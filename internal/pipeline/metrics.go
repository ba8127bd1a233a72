package pipeline

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds pipeline-level metrics.
type Metrics struct {
	utterances    prometheus.Counter
	candidates    *prometheus.CounterVec
	records       prometheus.Counter
	oracleResults *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// NewMetrics returns the process-wide pipeline Metrics instance.
// Collectors register against the default registry exactly once.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			utterances: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "extractd",
				Subsystem: "pipeline",
				Name:      "utterances_total",
				Help:      "Total utterances processed after cleaning.",
			}),
			candidates: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "extractd",
				Subsystem: "pipeline",
				Name:      "candidates_total",
				Help:      "Total task candidates detected, by pattern family.",
			}, []string{"family"}),
			records: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "extractd",
				Subsystem: "pipeline",
				Name:      "records_total",
				Help:      "Total task records emitted after deduplication.",
			}),
			oracleResults: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "extractd",
				Subsystem: "pipeline",
				Name:      "oracle_results_total",
				Help:      "Clarification outcomes: kept, revised, dropped or error.",
			}, []string{"result"}),
			stageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "extractd",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage in seconds.",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
			}, []string{"stage"}),
		}
	})
	return metricsInstance
}

// ObserveStage records the duration of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
