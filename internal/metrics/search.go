package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of nearest-reference searches",
		},
		[]string{"metric", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"metric"},
	)

	CorpusEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_entries",
			Help:      "Reference vectors in the most recently loaded corpus",
		},
	)
)

var registerOnce sync.Once

// Register registers the HTTP and search metrics with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequestDuration)
		prometheus.MustRegister(httpRequestsTotal)
		prometheus.MustRegister(SearchesTotal)
		prometheus.MustRegister(SearchDuration)
		prometheus.MustRegister(CorpusEntries)
	})
}

// Recorder reports search outcomes to the search metrics.
type Recorder struct{}

// NewRecorder registers the search metrics and returns a recorder for them.
func NewRecorder() *Recorder {
	Register()
	return &Recorder{}
}

// ObserveSearch counts one search by metric and status and records its duration.
func (*Recorder) ObserveSearch(metric, status string, elapsed time.Duration) {
	SearchesTotal.WithLabelValues(metric, status).Inc()
	SearchDuration.WithLabelValues(metric).Observe(elapsed.Seconds())
}

// ObserveCorpus records the size of a freshly loaded corpus.
func (*Recorder) ObserveCorpus(entries int) {
	CorpusEntries.Set(float64(entries))
}
