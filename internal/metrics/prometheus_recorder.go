package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	pageDuration    *prom.HistogramVec
	buildDuration   prom.Histogram
	pageResults     *prom.CounterVec
	buildOutcome    *prom.CounterVec
	scanFindings    *prom.CounterVec
	watchQueueDepth prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.pageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "unify",
			Name:      "page_duration_seconds",
			Help:      "Duration of individual page builds",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "unify",
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "unify",
			Name:      "page_results_total",
			Help:      "Page results by outcome",
		}, []string{"result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "unify",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.scanFindings = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "unify",
			Name:      "scan_findings_total",
			Help:      "Security scan findings by severity",
		}, []string{"severity"})
		pr.watchQueueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "unify",
			Name:      "watch_queue_depth",
			Help:      "Pending paths in the watch rebuild queue",
		})
		reg.MustRegister(pr.pageDuration, pr.buildDuration, pr.pageResults,
			pr.buildOutcome, pr.scanFindings, pr.watchQueueDepth)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePageDuration(result PageResult, d time.Duration) {
	if p == nil || p.pageDuration == nil {
		return
	}
	p.pageDuration.WithLabelValues(string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result PageResult) {
	if p == nil || p.pageResults == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncScanFinding(severity string) {
	if p == nil || p.scanFindings == nil {
		return
	}
	p.scanFindings.WithLabelValues(severity).Inc()
}

func (p *PrometheusRecorder) SetWatchQueueDepth(n int) {
	if p == nil || p.watchQueueDepth == nil {
		return
	}
	p.watchQueueDepth.Set(float64(n))
}
