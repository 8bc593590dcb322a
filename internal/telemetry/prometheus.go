package telemetry

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus is the production tracker. All collectors live on its own
// registry so tests can run several instances side by side.
type Prometheus struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	entryOps           *prometheus.CounterVec
	classifierCalls    *prometheus.CounterVec
	classifierDuration prometheus.Histogram
	eventsPublished    *prometheus.CounterVec
}

var _ Tracker = (*Prometheus)(nil)

// NewPrometheus builds a tracker with a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lifetrack",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifetrack",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lifetrack",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		entryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifetrack",
			Subsystem: "journal",
			Name:      "operations_total",
			Help:      "Total number of journal operations by outcome.",
		}, []string{"op", "status"}),
		classifierCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifetrack",
			Subsystem: "sentiment",
			Name:      "requests_total",
			Help:      "Total number of sentiment classifier calls.",
		}, []string{"status"}),
		classifierDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lifetrack",
			Subsystem: "sentiment",
			Name:      "request_duration_seconds",
			Help:      "Duration of sentiment classifier calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifetrack",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of journal events published.",
		}, []string{"status"}),
	}

	p.registry.MustRegister(
		p.httpInFlight,
		p.httpRequests,
		p.httpDuration,
		p.entryOps,
		p.classifierCalls,
		p.classifierDuration,
		p.eventsPublished,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return p
}

func (p *Prometheus) EntryOp(op string, err error) {
	p.entryOps.WithLabelValues(op, outcome(err)).Inc()
}

func (p *Prometheus) ClassifierCall(d time.Duration, err error) {
	p.classifierCalls.WithLabelValues(outcome(err)).Inc()
	p.classifierDuration.Observe(d.Seconds())
}

func (p *Prometheus) EventPublished(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	p.eventsPublished.WithLabelValues(status).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler exposes the registry for GET /metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Instrument wraps an HTTP handler with request metrics.
func (p *Prometheus) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		p.httpInFlight.Inc()
		defer p.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		p.httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		p.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

var _ http.Hijacker = (*statusRecorder)(nil)

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Hijack exposes the underlying connection to handlers that take over
// the socket, such as the WebSocket upgrader. The 101 never passes
// through WriteHeader, so it is recorded here.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// canonicalPath collapses resource ids so label cardinality stays bounded.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "journals" {
		return "/" + parts[0]
	}
	switch {
	case len(parts) == 1:
		return "/journals"
	case parts[1] == "search":
		return "/journals/search"
	case len(parts) == 2:
		return "/journals/:id"
	case len(parts) == 3:
		return "/journals/:id/" + parts[2]
	default:
		return "/journals/:id/" + parts[2] + "/:attachment"
	}
}
