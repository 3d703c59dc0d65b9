package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RowsCollected  *prometheus.CounterVec
	PagesWalked    prometheus.Counter
	Enrichments    *prometheus.CounterVec
	RequestSeconds *prometheus.HistogramVec
	Runs           *prometheus.CounterVec
	ActiveRuns     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RowsCollected: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "landscout_rows_collected_total",
			Help: "Total number of rows collected, by dataset.",
		}, []string{"dataset"}),
		PagesWalked: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "landscout_result_pages_total",
			Help: "Total number of portal result pages extracted.",
		}),
		Enrichments: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "landscout_enrichment_lookups_total",
			Help: "Total number of enrichment lookups, by api and outcome.",
		}, []string{"api", "outcome"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landscout_api_request_duration_seconds",
			Help:    "Duration of requests to the external address APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"api"}),
		Runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "landscout_runs_total",
			Help: "Total number of collection runs, by dataset and final status.",
		}, []string{"dataset", "status"}),
		ActiveRuns: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "landscout_active_runs",
			Help: "Number of collection runs currently in progress.",
		}),
	}
}
