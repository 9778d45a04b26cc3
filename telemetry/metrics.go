package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the buffer pool counters. A nil *Metrics is valid and every
// method is a no-op, so the pool can be used without a registry (the
// teacher's BufferPool has no metrics surface at all; this makes metrics
// additive rather than mandatory).
type Metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	flushes   prometheus.Counter
}

// NewMetrics registers the buffer pool counters on reg and returns a
// *Metrics that records into them. Pass a fresh *prometheus.Registry, or
// prometheus.DefaultRegisterer wrapped in a registry, per caller's choice.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bufferpool_hits_total",
			Help: "Number of fetch_page calls resolved from a resident frame.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bufferpool_misses_total",
			Help: "Number of fetch_page calls that required a disk read.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bufferpool_evictions_total",
			Help: "Number of frames reclaimed via LRU eviction.",
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bufferpool_flushes_total",
			Help: "Number of dirty-page writes issued to disk.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.evictions, m.flushes)
	}
	return m
}

func (m *Metrics) Hit() {
	if m == nil {
		return
	}
	m.hits.Inc()
}

func (m *Metrics) Miss() {
	if m == nil {
		return
	}
	m.misses.Inc()
}

func (m *Metrics) Eviction() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}

func (m *Metrics) Flush() {
	if m == nil {
		return
	}
	m.flushes.Inc()
}
