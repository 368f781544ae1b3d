package metrics

import "github.com/prometheus/client_golang/prometheus"

// Extraction pipeline Prometheus metrics.
var (
	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patentrag",
			Name:      "documents_total",
			Help:      "Documents seen by the pipeline, by outcome",
		},
		[]string{"outcome"}, // "extracted" / "excluded" / "failed"
	)

	RecordsExtractedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "patentrag",
			Name:      "records_extracted_total",
			Help:      "Total patent records extracted",
		},
	)

	ExtractDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "patentrag",
			Name:      "extract_duration_seconds",
			Help:      "Per-document extraction duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	IndexUpsertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patentrag",
			Name:      "index_upserts_total",
			Help:      "Vector index upserts, by status",
		},
		[]string{"status"}, // "success" / "error"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocumentsTotal)
	prometheus.MustRegister(RecordsExtractedTotal)
	prometheus.MustRegister(ExtractDuration)
	prometheus.MustRegister(IndexUpsertsTotal)
	pipelineMetricsRegistered = true
}
