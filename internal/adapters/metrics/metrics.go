// Package metrics exposes moderation and ownership counters to Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formations"

// Metrics holds the service counters.
type Metrics struct {
	registry      *prometheus.Registry
	transitions   *prometheus.CounterVec
	claims        *prometheus.CounterVec
	merges        prometheus.Counter
	mergedCourses prometheus.Counter
	outbox        *prometheus.CounterVec
	cacheLoads    prometheus.Counter
}

// New creates the counters on a fresh registry that also carries the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Moderation status changes by content kind, origin and target status.",
		}, []string{"kind", "from", "to"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_claims_total",
			Help:      "Dashboard claim outcomes (linked, claimed, created, failed).",
		}, []string{"outcome"}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_merges_total",
			Help:      "Orphan profiles merged into a linked profile.",
		}),
		mergedCourses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_merged_courses_total",
			Help:      "Courses reassigned from an orphan profile by a merge.",
		}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_deliveries_total",
			Help:      "Outbox delivery attempts by action type and result.",
		}, []string{"action", "result"}),
		cacheLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_loads_total",
			Help:      "Catalog reads that missed the cache and hit the database.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions, m.claims, m.merges, m.mergedCourses, m.outbox, m.cacheLoads,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// StatusTransition counts one moderation status change.
func (m *Metrics) StatusTransition(kind, from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind, from, to).Inc()
}

// Claim counts one dashboard claim outcome.
func (m *Metrics) Claim(outcome string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(outcome).Inc()
}

// Merge counts one orphan merge and the courses it moved.
func (m *Metrics) Merge(courses int) {
	if m == nil {
		return
	}
	m.merges.Inc()
	m.mergedCourses.Add(float64(courses))
}

// OutboxDelivery counts one outbox attempt.
func (m *Metrics) OutboxDelivery(action string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.outbox.WithLabelValues(action, result).Inc()
}

// CatalogLoad counts one catalog cache miss.
func (m *Metrics) CatalogLoad() {
	if m == nil {
		return
	}
	m.cacheLoads.Inc()
}
