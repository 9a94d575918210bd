package engine

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/oklog/run"

	"metricquery/internal/logging"
	"metricquery/internal/transport"
)

type Engine struct {
	transport *transport.Server
	metrics   *http.Server
}

// GRPCAddr is the address the query service listens on.
func (e *Engine) GRPCAddr() net.Addr { return e.transport.Addr() }

// Run serves until ctx is done or one of the servers fails, then stops the
// others. Cancellation is a clean exit.
func (e *Engine) Run(ctx context.Context) error {
	log := logging.With("engine")
	var g run.Group

	g.Add(e.transport.Serve, func(error) { e.transport.Stop() })

	g.Add(func() error {
		log.Info("metrics listening", "addr", e.metrics.Addr)
		if err := e.metrics.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.metrics.Shutdown(sctx)
	})

	cctx, cancel := context.WithCancel(ctx)
	g.Add(func() error {
		<-cctx.Done()
		return cctx.Err()
	}, func(error) { cancel() })

	err := g.Run()
	if errors.Is(err, context.Canceled) {
		log.Info("engine stopped")
		return nil
	}
	return err
}
