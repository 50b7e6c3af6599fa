package tenant

import "github.com/prometheus/client_golang/prometheus"

const (
	tierMemory      = "memory"
	tierDistributed = "distributed"
)

// CacheMetrics holds the Prometheus collectors updated by a Cache.
// A nil *CacheMetrics records nothing.
type CacheMetrics struct {
	hits        *prometheus.CounterVec
	misses      prometheus.Counter
	storeErrors *prometheus.CounterVec
}

// NewCacheMetrics creates the cache collectors and registers them with reg.
func NewCacheMetrics(reg prometheus.Registerer, namespace string) *CacheMetrics {
	m := &CacheMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant_cache",
			Name:      "hits_total",
			Help:      "Tenant cache hits, by tier.",
		}, []string{"tier"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant_cache",
			Name:      "misses_total",
			Help:      "Tenant cache lookups that missed every tier.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant_cache",
			Name:      "store_errors_total",
			Help:      "Distributed tier failures, by operation.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.storeErrors)
	}
	return m
}

func (m *CacheMetrics) hit(tier string) {
	if m != nil {
		m.hits.WithLabelValues(tier).Inc()
	}
}

func (m *CacheMetrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *CacheMetrics) storeFailed(op string) {
	if m != nil {
		m.storeErrors.WithLabelValues(op).Inc()
	}
}

// Hits returns the hit counter for the "memory" or "distributed" tier.
func (m *CacheMetrics) Hits(tier string) prometheus.Counter {
	return m.hits.WithLabelValues(tier)
}

func (m *CacheMetrics) Misses() prometheus.Counter {
	return m.misses
}

// StoreErrors returns the failure counter for op ("get", "set", "del", "decode" or "encode").
func (m *CacheMetrics) StoreErrors(op string) prometheus.Counter {
	return m.storeErrors.WithLabelValues(op)
}
