package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the API. It satisfies
// pipeline.Observer.
type Metrics struct {
	registry *prometheus.Registry

	pipelineDuration prometheus.Histogram
	listingsLoaded   prometheus.Gauge
	buyCandidates    prometheus.Gauge
	httpRequests     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "houserocket",
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent computing recommendations for one request.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		listingsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "houserocket",
			Name:      "listings_loaded",
			Help:      "Cleaned listings in the last run.",
		}),
		buyCandidates: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "houserocket",
			Name:      "buy_candidates",
			Help:      "Unfiltered buy candidates in the last run.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "houserocket",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}
}

// ObserveRun records one pipeline run.
func (m *Metrics) ObserveRun(elapsed time.Duration, listings, candidates int) {
	m.pipelineDuration.Observe(elapsed.Seconds())
	m.listingsLoaded.Set(float64(listings))
	m.buyCandidates.Set(float64(candidates))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by chi route pattern so path parameters do not
// explode the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
