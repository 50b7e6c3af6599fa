package pool

import "github.com/prometheus/client_golang/prometheus"

// Eviction reasons reported in the evictions counter.
const (
	ReasonExpired = "expired"
	ReasonLRU     = "lru"
	ReasonRemoved = "removed"
	ReasonClosed  = "closed"
)

// Metrics holds the Prometheus collectors updated by a Pool.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	hits            prometheus.Counter
	misses          prometheus.Counter
	evictions       *prometheus.CounterVec
	disposeFailures prometheus.Counter
	size            prometheus.Gauge
}

// NewMetrics creates the pool collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handle_pool",
			Name:      "hits_total",
			Help:      "Handle lookups served from the pool.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handle_pool",
			Name:      "misses_total",
			Help:      "Handle lookups that opened a new handle.",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handle_pool",
			Name:      "evictions_total",
			Help:      "Handles removed from the pool, by reason.",
		}, []string{"reason"}),
		disposeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handle_pool",
			Name:      "dispose_failures_total",
			Help:      "Handle disposals that returned an error.",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "handle_pool",
			Name:      "handles",
			Help:      "Live handles currently held by the pool.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.evictions, m.disposeFailures, m.size)
	}
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) evicted(reason string) {
	if m != nil {
		m.evictions.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) disposeFailed() {
	if m != nil {
		m.disposeFailures.Inc()
	}
}

func (m *Metrics) setSize(n int) {
	if m != nil {
		m.size.Set(float64(n))
	}
}

// Evictions returns the eviction counter for reason.
func (m *Metrics) Evictions(reason string) prometheus.Counter {
	return m.evictions.WithLabelValues(reason)
}
