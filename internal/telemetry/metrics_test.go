package telemetry

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metricquery/internal/plugin"
)

func TestObserveExecution(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveExecution("run", 6, 2, nil)
	m.ObserveExecution("grpc", 4, 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.executions.WithLabelValues("run", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.executions.WithLabelValues("grpc", "error")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.metricsIn))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.metricsOut))
}

func TestObserveStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveStep("filter:gt", 6, 4, 2*time.Millisecond, nil)
	m.ObserveStep("filter:gt", 4, 4, time.Millisecond, nil)

	assert.Equal(t, 1, testutil.CollectAndCount(m.stepDuration))
	n, err := testutil.GatherAndCount(reg, "metricquery_pipeline_step_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSetPlugins(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetPlugins(plugin.NewBuiltinRegistry())

	assert.Equal(t, 7.0, testutil.ToFloat64(m.plugins.WithLabelValues("filter")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.plugins.WithLabelValues("aggregation")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.plugins.WithLabelValues("time_grouping")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveExecution("run", 1, 1, nil)
	m.ObserveStep("x", 1, 1, time.Second, nil)
	m.SetPlugins(plugin.Default())
}

func TestServerHandlesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveExecution("run", 3, 1, nil)

	srv := NewServer(0, reg)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `metricquery_pipeline_executions_total{origin="run",status="ok"} 1`)
}

func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	return port
}

func TestExposeServesInBackground(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).SetPlugins(plugin.NewBuiltinRegistry())

	port := freePort(t)
	srv := Expose(port, reg)
	defer srv.Close()

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		body = string(b)
		return err == nil && resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, `metricquery_registry_plugins{kind="filter"} 7`)
}
