// Package metrics exposes function evaluation counters in the Prometheus
// text format.
package metrics

import (
	"net/http"
	"time"

	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeUndefined = "undefined"
)

// Recorder owns an independent registry so several instances (one per test,
// one per server) never collide.
type Recorder struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewRecorder registers the evaluation collectors plus the Go runtime and
// process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "easymoney",
			Name:      "evaluations_total",
			Help:      "Function evaluations by function and outcome.",
		}, []string{"function", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "easymoney",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating one function call.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"function"}),
	}

	r.registry.MustRegister(
		r.evaluations,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one evaluation. The outcome is "ok", "undefined", or the
// error type of err.
func (r *Recorder) Observe(function string, elapsed time.Duration, undefined bool, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = coreerr.Kind(err)
	case undefined:
		outcome = OutcomeUndefined
	}
	r.evaluations.WithLabelValues(function, outcome).Inc()
	r.duration.WithLabelValues(function).Observe(elapsed.Seconds())
}

// Handler serves the scrape endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
