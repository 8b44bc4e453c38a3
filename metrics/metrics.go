// Package metrics exposes per-chain Prometheus counters/gauges for the
// inference run (proposals, acceptances, log-likelihood), following
// 99souls-ariadne's PrometheusExporter registration shape (a dedicated
// registry, CounterVec/GaugeVec per concern, served over promhttp).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps the metrics an inference run exposes.
type Registry struct {
	registry *prometheus.Registry

	proposalsTotal  *prometheus.CounterVec
	acceptancesTotal *prometheus.CounterVec
	logLikelihood   *prometheus.GaugeVec
	iterationGauge  *prometheus.GaugeVec
}

// New builds a Registry under namespace "flepimop_inference".
func New() *Registry {
	reg := prometheus.NewRegistry()

	proposals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flepimop_inference",
		Name:      "proposals_total",
		Help:      "Total number of proposed parameter samples.",
	}, []string{"slot", "stream"})

	acceptances := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flepimop_inference",
		Name:      "acceptances_total",
		Help:      "Total number of accepted parameter samples.",
	}, []string{"slot", "stream"})

	logLik := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flepimop_inference",
		Name:      "log_likelihood",
		Help:      "Current log-likelihood of the chain's accepted sample.",
	}, []string{"slot", "stream"})

	iter := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "flepimop_inference",
		Name:      "iteration",
		Help:      "Current iteration index of the slot's chain.",
	}, []string{"slot"})

	reg.MustRegister(proposals, acceptances, logLik, iter)

	return &Registry{registry: reg, proposalsTotal: proposals, acceptancesTotal: acceptances, logLikelihood: logLik, iterationGauge: iter}
}

// Handler returns the promhttp handler serving this registry's metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordProposal increments the proposal counter for slot/stream.
func (r *Registry) RecordProposal(slot, stream string) {
	r.proposalsTotal.WithLabelValues(slot, stream).Inc()
}

// RecordAcceptance increments the acceptance counter for slot/stream.
func (r *Registry) RecordAcceptance(slot, stream string) {
	r.acceptancesTotal.WithLabelValues(slot, stream).Inc()
}

// SetLogLikelihood sets the current log-likelihood gauge for slot/stream.
func (r *Registry) SetLogLikelihood(slot, stream string, value float64) {
	r.logLikelihood.WithLabelValues(slot, stream).Set(value)
}

// SetIteration sets the current iteration gauge for slot.
func (r *Registry) SetIteration(slot string, value float64) {
	r.iterationGauge.WithLabelValues(slot).Set(value)
}
