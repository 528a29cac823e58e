// Package metrics exposes build and dev-server counters as Prometheus
// metrics, served by the development server's /metrics endpoint.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dompile"

// Metrics is the registry of build counters. One instance is owned by
// the build driver for the lifetime of a watch/serve session.
type Metrics struct {
	registry *prom.Registry

	BuildsTotal        prom.Counter
	BuildErrorsTotal   prom.Counter
	PagesRenderedTotal prom.Counter
	AssetsCopiedTotal  prom.Counter
	WarningsTotal      prom.Counter
	BuildDuration      prom.Histogram
	LastBuildPages     prom.Gauge
	LiveReloadClients  prom.Gauge
}

// New creates the metric set and its private registry.
func New() *Metrics {
	m := &Metrics{
		registry:           prom.NewRegistry(),
		BuildsTotal:        prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "builds_total", Help: "Total builds started"}),
		BuildErrorsTotal:   prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "build_errors_total", Help: "Builds that ended with a page-fatal error"}),
		PagesRenderedTotal: prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "pages_rendered_total", Help: "Pages resolved and written"}),
		AssetsCopiedTotal:  prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "assets_copied_total", Help: "Referenced assets copied to the output directory"}),
		WarningsTotal:      prom.NewCounter(prom.CounterOpts{Namespace: namespace, Name: "warnings_total", Help: "Structured resolution warnings collected"}),
		BuildDuration:      prom.NewHistogram(prom.HistogramOpts{Namespace: namespace, Name: "build_duration_seconds", Help: "Wall-clock build duration", Buckets: prom.DefBuckets}),
		LastBuildPages:     prom.NewGauge(prom.GaugeOpts{Namespace: namespace, Name: "last_build_pages", Help: "Pages rendered in the most recent build"}),
		LiveReloadClients:  prom.NewGauge(prom.GaugeOpts{Namespace: namespace, Name: "livereload_clients", Help: "Connected livereload clients"}),
	}

	m.registry.MustRegister(
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
		m.BuildsTotal,
		m.BuildErrorsTotal,
		m.PagesRenderedTotal,
		m.AssetsCopiedTotal,
		m.WarningsTotal,
		m.BuildDuration,
		m.LastBuildPages,
		m.LiveReloadClients,
	)
	return m
}

// ObserveBuild records the outcome of one completed build cycle.
func (m *Metrics) ObserveBuild(pages, assets, warnings int, duration time.Duration, failed bool) {
	m.BuildsTotal.Inc()
	if failed {
		m.BuildErrorsTotal.Inc()
	}
	m.PagesRenderedTotal.Add(float64(pages))
	m.AssetsCopiedTotal.Add(float64(assets))
	m.WarningsTotal.Add(float64(warnings))
	m.BuildDuration.Observe(duration.Seconds())
	m.LastBuildPages.Set(float64(pages))
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
