package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	ScreeningsIngested prometheus.Counter
	ScreeningsRejected prometheus.Counter
	AnomaliesDetected  *prometheus.CounterVec
	ScrapeDuration     prometheus.Histogram
	VerifierCalls      *prometheus.CounterVec
	ErrorsCount        *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scraper_runs_total",
			Help:      "The total number of scraper runs by outcome status",
		}, []string{"status"}),
		ScreeningsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenings_ingested_total",
			Help:      "The total number of screenings upserted into the canonical store",
		}),
		ScreeningsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenings_rejected_total",
			Help:      "The total number of raw screenings rejected by validation",
		}),
		AnomaliesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_detected_total",
			Help:      "The total number of anomalies by classification",
		}, []string{"type"}),
		ScrapeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scrape_duration_seconds",
			Help:      "Time taken for one scrape-validate-ingest cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		VerifierCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifier_calls_total",
			Help:      "The total number of AI verifier model calls by model tier",
		}, []string{"model"}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
