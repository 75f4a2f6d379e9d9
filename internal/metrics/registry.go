package metrics

import "github.com/prometheus/client_golang/prometheus"

// Field registry Prometheus metrics.
var (
	RegistryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verdex",
			Name:      "registry_cache_total",
			Help:      "Field registry cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SchemaCompilationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verdex",
			Name:      "schema_compilations_total",
			Help:      "Total number of schema compilations",
		},
		[]string{"doc_type", "status"},
	)

	DocumentValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verdex",
			Name:      "document_validations_total",
			Help:      "Document validation outcomes on write",
		},
		[]string{"doc_type", "result"}, // "ok" / "rejected"
	)
)

var registryMetricsRegistered bool

// RegisterRegistryMetrics registers Prometheus registry metrics. Must be called once from main.
func RegisterRegistryMetrics() {
	if registryMetricsRegistered {
		return
	}
	prometheus.MustRegister(RegistryCacheTotal)
	prometheus.MustRegister(SchemaCompilationsTotal)
	prometheus.MustRegister(DocumentValidationsTotal)
	registryMetricsRegistered = true
}
