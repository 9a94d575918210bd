package telemetry

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"metricquery/internal/logging"
	"metricquery/internal/plugin"
)

const namespace = "metricquery"

// Metrics holds the engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	executions   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	metricsIn    prometheus.Counter
	metricsOut   prometheus.Counter
	plugins      *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_executions_total",
			Help:      "Pipeline executions by origin and status.",
		}, []string{"origin", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_step_duration_seconds",
			Help:      "Time spent in one pipeline step.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"step"}),
		metricsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metrics_in_total",
			Help:      "Metrics fed into pipelines.",
		}),
		metricsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metrics_out_total",
			Help:      "Metrics produced by successful pipelines.",
		}),
		plugins: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_plugins",
			Help:      "Registered plugins by capability.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.executions, m.stepDuration, m.metricsIn, m.metricsOut, m.plugins)
	return m
}

var Default = New(prometheus.DefaultRegisterer)

// ObserveExecution records one pipeline run started from origin (run, grpc).
func (m *Metrics) ObserveExecution(origin string, in, out int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	} else {
		m.metricsOut.Add(float64(out))
	}
	m.metricsIn.Add(float64(in))
	m.executions.WithLabelValues(origin, status).Inc()
}

// ObserveStep matches the pipeline step observer signature.
func (m *Metrics) ObserveStep(step string, _, _ int, elapsed time.Duration, _ error) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
}

// SetPlugins publishes the plugin counts of reg.
func (m *Metrics) SetPlugins(reg *plugin.Registry) {
	if m == nil || reg == nil {
		return
	}
	m.plugins.WithLabelValues("filter").Set(float64(len(reg.FilterNames())))
	m.plugins.WithLabelValues("aggregation").Set(float64(len(reg.AggregationNames())))
	m.plugins.WithLabelValues("time_grouping").Set(float64(len(reg.TimeGroupingNames())))
}

// Expose serves /metrics from g on port in the background. The returned
// server is stopped with Shutdown or Close.
func Expose(port int, g prometheus.Gatherer) *http.Server {
	srv := NewServer(port, g)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.With("telemetry").Error("metrics listener stopped", "port", port, "err", err)
		}
	}()
	return srv
}

// NewServer builds the /metrics server without starting it.
func NewServer(port int, g prometheus.Gatherer) *http.Server {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
