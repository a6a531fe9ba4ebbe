package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	pageLoads      *prom.CounterVec
	scopeLookups   *prom.CounterVec
	renderDuration prom.Histogram
	syncDuration   prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		pageLoads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagetree",
			Name:      "page_loads_total",
			Help:      "Page descriptor loads by outcome",
		}, []string{"result"}),
		scopeLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagetree",
			Name:      "scope_lookups_total",
			Help:      "Request scope cache lookups by hit/miss",
		}, []string{"result"}),
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagetree",
			Name:      "render_duration_seconds",
			Help:      "Duration of page content rendering",
			Buckets:   prom.DefBuckets,
		}),
		syncDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagetree",
			Name:      "index_sync_duration_seconds",
			Help:      "Duration of page index synchronisation",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.pageLoads, pr.scopeLookups, pr.renderDuration, pr.syncDuration)
	return pr
}

func (p *PrometheusRecorder) IncPageLoad(result LoadResult) {
	p.pageLoads.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncScopeLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.scopeLookups.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveSyncDuration(d time.Duration) {
	p.syncDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}
