package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	stepDuration    *prom.HistogramVec
	publishDuration prom.Histogram
	stepResults     *prom.CounterVec
	publishOutcome  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docpages",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual publish steps",
			Buckets:   prom.DefBuckets,
		}, []string{"step"})
		pr.publishDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docpages",
			Name:      "publish_duration_seconds",
			Help:      "Total publish run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docpages",
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"step", "result"})
		pr.publishOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docpages",
			Name:      "publish_outcomes_total",
			Help:      "Publish outcomes by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.stepDuration, pr.publishDuration, pr.stepResults, pr.publishOutcome)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePublishDuration(d time.Duration) {
	if p == nil || p.publishDuration == nil {
		return
	}
	p.publishDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil || p.stepResults == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) IncPublishOutcome(outcome string) {
	if p == nil || p.publishOutcome == nil {
		return
	}
	p.publishOutcome.WithLabelValues(outcome).Inc()
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
