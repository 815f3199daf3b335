package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renderDuration      *prom.HistogramVec
	renderOutcomes      *prom.CounterVec
	fingerprintDuration prom.Histogram
	cacheWriteFailures  prom.Counter
	warmDuration        prom.Histogram
	warmPages           *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pitcher",
			Name:      "render_duration_seconds",
			Help:      "Duration of page requests by outcome",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		renderOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pitcher",
			Name:      "render_outcomes_total",
			Help:      "Page requests by outcome",
		}, []string{"outcome"}),
		fingerprintDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pitcher",
			Name:      "fingerprint_duration_seconds",
			Help:      "Time spent hashing the content and templates trees",
			Buckets:   prom.DefBuckets,
		}),
		cacheWriteFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: "pitcher",
			Name:      "cache_write_failures_total",
			Help:      "Rendered pages that could not be written to the cache",
		}),
		warmDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pitcher",
			Name:      "warm_duration_seconds",
			Help:      "Duration of cache warm-up runs",
			Buckets:   prom.DefBuckets,
		}),
		warmPages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pitcher",
			Name:      "warm_pages_total",
			Help:      "Pages visited by cache warm-up runs",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.renderDuration, pr.renderOutcomes, pr.fingerprintDuration,
		pr.cacheWriteFailures, pr.warmDuration, pr.warmPages)
	return pr
}

func (p *PrometheusRecorder) ObserveRender(outcome string, d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.WithLabelValues(outcome).Observe(d.Seconds())
	p.renderOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveFingerprintDuration(d time.Duration) {
	if p == nil || p.fingerprintDuration == nil {
		return
	}
	p.fingerprintDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheWriteFailure() {
	if p == nil || p.cacheWriteFailures == nil {
		return
	}
	p.cacheWriteFailures.Inc()
}

func (p *PrometheusRecorder) ObserveWarm(pages int, failures int, d time.Duration) {
	if p == nil || p.warmDuration == nil {
		return
	}
	p.warmDuration.Observe(d.Seconds())
	p.warmPages.WithLabelValues("success").Add(float64(pages))
	p.warmPages.WithLabelValues("failed").Add(float64(failures))
}
