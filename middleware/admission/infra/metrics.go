package infra

import (
	"admission-gateway/middleware/admission/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa os coletores Prometheus do gate.
// Um *Metrics nil é válido e não faz nada.
type Metrics struct {
	verdicts *prometheus.CounterVec
	breaches prometheus.Counter
	expiries prometheus.Counter
	tracked  prometheus.Gauge
	pending  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admission",
			Name:      "verdicts_total",
			Help:      "Admission decisions by verdict.",
		}, []string{"verdict"}),
		breaches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admission",
			Name:      "breaches_total",
			Help:      "Clients that crossed the threshold and got banned.",
		}),
		expiries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admission",
			Name:      "expiries_total",
			Help:      "Ban expirations that removed a client record.",
		}),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "admission",
			Name:      "tracked_clients",
			Help:      "Client records currently held by the gate.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "admission",
			Name:      "pending_expiries",
			Help:      "Bans waiting for their expiry timer.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.verdicts, m.breaches, m.expiries, m.tracked, m.pending)
	}
	return m
}

func (m *Metrics) observe(v domain.Verdict) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(v.String()).Inc()
}

func (m *Metrics) breach(pending int) {
	if m == nil {
		return
	}
	m.breaches.Inc()
	m.pending.Set(float64(pending))
}

func (m *Metrics) expired(tracked, pending int) {
	if m == nil {
		return
	}
	m.expiries.Inc()
	m.tracked.Set(float64(tracked))
	m.pending.Set(float64(pending))
}

func (m *Metrics) setTracked(n int) {
	if m == nil {
		return
	}
	m.tracked.Set(float64(n))
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}
