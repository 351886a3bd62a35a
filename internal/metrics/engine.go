package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryon",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "queryon",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryon",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryon",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryon",
			Name:      "queries_total",
			Help:      "Total resolved queries",
		},
		[]string{"domain", "persona", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "queryon",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query resolution duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"domain", "persona"},
	)

	WebSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryon",
			Name:      "web_searches_total",
			Help:      "Total web search tool executions",
		},
		[]string{"status"}, // "success" / "empty" / "error"
	)

	PageFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryon",
			Name:      "page_fetches_total",
			Help:      "Total result page fetches",
		},
		[]string{"status"},
	)

	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryon",
			Name:      "completion_requests_total",
			Help:      "Total completion endpoint requests",
		},
		[]string{"model", "status"},
	)

	JournalEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queryon",
			Name:      "journal_entries_total",
			Help:      "Total journal patterns embedded asynchronously",
		},
		[]string{"status"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(WebSearchesTotal)
	prometheus.MustRegister(PageFetchesTotal)
	prometheus.MustRegister(CompletionRequestsTotal)
	prometheus.MustRegister(JournalEntriesTotal)
	engineMetricsRegistered = true
}
