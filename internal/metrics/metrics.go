package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTriggered *prometheus.CounterVec
	RunsCompleted *prometheus.CounterVec
	RunsActive    prometheus.Gauge
	ResultsServed *prometheus.CounterVec
	ProjectsAdded prometheus.Counter
	Logins        prometheus.Counter
	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// New registers the collectors on a private registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RunsTriggered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_triggered_total",
			Help:      "QA runs triggered, by environment",
		}, []string{"environment"}),
		RunsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "QA runs completed, by status",
		}, []string{"status"}),
		RunsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "QA runs currently in flight",
		}),
		ResultsServed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_synthesized_total",
			Help:      "Result details synthesized, by status",
		}, []string{"status"}),
		ProjectsAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projects_created_total",
			Help:      "Projects created",
		}),
		Logins: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Successful logins",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method and status code",
		}, []string{"method", "code"}),
		HTTPDurations: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
	}
}

func (m *Metrics) RunTriggered(environment string) {
	if m == nil {
		return
	}
	m.RunsTriggered.WithLabelValues(environment).Inc()
	m.RunsActive.Inc()
}

func (m *Metrics) RunCompleted(status string) {
	if m == nil {
		return
	}
	m.RunsCompleted.WithLabelValues(status).Inc()
	m.RunsActive.Dec()
}

func (m *Metrics) ResultSynthesized(status string) {
	if m == nil {
		return
	}
	m.ResultsServed.WithLabelValues(status).Inc()
}

func (m *Metrics) ProjectCreated() {
	if m == nil {
		return
	}
	m.ProjectsAdded.Inc()
}

func (m *Metrics) LoggedIn() {
	if m == nil {
		return
	}
	m.Logins.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		m.HTTPDurations.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
