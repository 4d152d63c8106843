// Package metrics exposes session lifecycle counters to Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "session"

// Revocation scopes.
const (
	ScopeSingle = "single"
	ScopeAll    = "all"
	ScopeChain  = "chain"
)

type Metrics struct {
	issued    prometheus.Counter
	refreshed prometheus.Counter
	rejected  *prometheus.CounterVec
	revoked   *prometheus.CounterVec
	validated *prometheus.CounterVec
	pruned    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issued_total",
			Help:      "Sessions issued by login.",
		}),
		refreshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshed_total",
			Help:      "Successful refresh rotations.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_rejected_total",
			Help:      "Refresh attempts rejected, by reason.",
		}, []string{"reason"}),
		revoked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revoked_total",
			Help:      "Refresh records revoked, by scope.",
		}, []string{"scope"}),
		validated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_validations_total",
			Help:      "Access credential checks, by result.",
		}, []string{"result"}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_records_total",
			Help:      "Expired refresh records deleted.",
		}),
	}

	reg.MustRegister(m.issued, m.refreshed, m.rejected, m.revoked, m.validated, m.pruned)
	return m
}

func (m *Metrics) SessionIssued() {
	if m == nil {
		return
	}
	m.issued.Inc()
}

func (m *Metrics) SessionRefreshed() {
	if m == nil {
		return
	}
	m.refreshed.Inc()
}

// RefreshRejected counts a failed refresh. reason is one of the fixed labels
// "decode", "unknown", "owner", "rotated", "revoked", "expired",
// "unknown_identity", "stale" or "throttled".
func (m *Metrics) RefreshRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Revoked(scope string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.revoked.WithLabelValues(scope).Add(float64(n))
}

func (m *Metrics) AccessValidated(result string) {
	if m == nil {
		return
	}
	m.validated.WithLabelValues(result).Inc()
}

func (m *Metrics) Pruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.pruned.Add(float64(n))
}
