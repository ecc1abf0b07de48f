package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetwatch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assetwatch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "assetwatch",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
		[]string{"path"},
	)

	eventsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetwatch",
			Name:      "events_ingested_total",
			Help:      "Asset compilation events published to the bus",
		},
		[]string{"kind", "source"},
	)

	eventsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assetwatch",
			Name:      "events_rejected_total",
			Help:      "Malformed asset compilation events dropped at ingestion",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight, eventsIngested, eventsRejected)
}

// MetricsMiddleware instruments requests for Prometheus. Register it with
// chi's Use so the route pattern is known once the handler returns.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inflight := httpInflight.WithLabelValues(matchRoutePattern(r))
		inflight.Inc()
		defer inflight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			// hijacked upgrades never call WriteHeader on the wrapper
			status = http.StatusOK
			if websocket.IsWebSocketUpgrade(r) {
				status = http.StatusSwitchingProtocols
			}
		}
		path := routePatternOrPath(r)
		statusLabel := strconv.Itoa(status)
		httpRequestsTotal.WithLabelValues(path, r.Method, statusLabel).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method, statusLabel).Observe(time.Since(start).Seconds())
	})
}

// unmatchedRoute labels requests that hit no route, so arbitrary 404 paths
// cannot grow the label set.
const unmatchedRoute = "unmatched"

// routePatternOrPath returns the chi route pattern once routing is done,
// otherwise unmatchedRoute.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// matchRoutePattern resolves the route pattern before the request is routed.
func matchRoutePattern(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil || rc.Routes == nil {
		return unmatchedRoute
	}
	tctx := chi.NewRouteContext()
	if !rc.Routes.Match(tctx, r.Method, r.URL.Path) {
		return unmatchedRoute
	}
	if p := tctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}

// observeIngest counts an accepted event from source (http, ws).
func observeIngest(kind, source string) {
	eventsIngested.WithLabelValues(kind, source).Inc()
}

// observeReject counts a dropped event from source.
func observeReject(source string) {
	eventsRejected.WithLabelValues(source).Inc()
}
