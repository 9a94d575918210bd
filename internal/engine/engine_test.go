package engine

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metricquery/internal/config"
	"metricquery/internal/metric"
	"metricquery/internal/plugin"
	"metricquery/internal/spec"
	"metricquery/internal/transport"
)

func TestEngineServesQueriesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := Bootstrap(ctx, config.Engine{Log: config.LogConfig{Level: "error"}}, plugin.NewBuiltinRegistry())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	port := e.GRPCAddr().(*net.TCPAddr).Port
	c, err := transport.Dial(fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer c.Close()

	cctx, ccancel := context.WithTimeout(ctx, 5*time.Second)
	defer ccancel()
	v := int64(1)
	out, err := c.Execute(cctx, transport.Request{
		Metrics:    []metric.Metric{metric.New(1, 10), metric.New(2, 20), metric.New(3, 30)},
		Operations: []spec.Operation{{Op: "greater_than", Value: &v}, {Op: "sum"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []metric.Metric{metric.New(5, 20)}, out)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestBootstrapRunsStartupPipeline(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.json"), []byte(`[{"value": 1, "timestamp": 1}]`), 0o644))
	pipe := filepath.Join(dir, "pipeline.yml")
	require.NoError(t, os.WriteFile(pipe, []byte("source: {driver: file, config: m.json}\noperations: [{operation: sum}]\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	e, err := Bootstrap(ctx, config.Engine{Pipeline: pipe}, nil)
	require.NoError(t, err)

	cancel()
	assert.NoError(t, e.Run(ctx))
}

func TestBootstrapFailsOnBadPipeline(t *testing.T) {
	_, err := Bootstrap(context.Background(), config.Engine{Pipeline: filepath.Join(t.TempDir(), "missing.yml")}, nil)
	assert.ErrorContains(t, err, "pipeline:")
}
