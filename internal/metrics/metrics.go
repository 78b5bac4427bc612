// Package metrics exposes rendering activity as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alnah/go-htmlatex"
)

const namespace = "htmlatex"

var _ htmlatex.Observer = (*Collector)(nil)

// Collector implements htmlatex.Observer with Prometheus counters and
// histograms.
type Collector struct {
	equations        *prometheus.CounterVec
	equationDuration *prometheus.HistogramVec
	documents        *prometheus.CounterVec
	documentDuration prometheus.Histogram
}

// NewCollector creates unregistered metrics.
func NewCollector() *Collector {
	return &Collector{
		equations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "equations_total",
				Help:      "Equations processed, by outcome.",
			},
			[]string{"outcome"},
		),
		equationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "equation_duration_seconds",
				Help:      "Time to resolve one equation, by outcome.",
				Buckets:   []float64{.001, .01, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Documents with at least one equation, by result.",
			},
			[]string{"result"},
		),
		documentDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_duration_seconds",
				Help:      "Time to render all equations of a document.",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// Register adds every metric to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	var errs []error
	for _, m := range []prometheus.Collector{c.equations, c.equationDuration, c.documents, c.documentDuration} {
		if err := reg.Register(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Collector) EquationRendered(outcome htmlatex.Outcome, elapsed time.Duration) {
	c.equations.WithLabelValues(string(outcome)).Inc()
	c.equationDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

func (c *Collector) DocumentRendered(_ int, elapsed time.Duration, err error) {
	result := "ok"
	switch {
	case errors.Is(err, htmlatex.ErrTimeout):
		result = "timeout"
	case err != nil:
		result = "error"
	}
	c.documents.WithLabelValues(result).Inc()
	c.documentDuration.Observe(elapsed.Seconds())
}
