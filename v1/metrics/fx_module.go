package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/fx"

	"github.com/milannair/tidepool-go/v1/logger"
	"github.com/milannair/tidepool-go/v1/observability"
)

// FXModule defines the Fx module for the metrics package.
//
// The module:
//  1. Provides *Metrics and exposes it as an observability.Observer, so a
//     tidepool client built with tidepool.FXModule picks it up automatically.
//  2. Invokes RegisterMetricsLifecycle to start and stop the /metrics server.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    fx.Supply(metrics.Config{Address: ":9090", ServiceName: "search-api"}),
//	)
//
// Dependencies required by this module:
// - A metrics.Config instance
// - A logger.Logger instance for startup/shutdown logs
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		func(m *Metrics) observability.Observer { return m },
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle manages the startup and shutdown lifecycle
// of the Prometheus metrics HTTP server.
//
// OnStart binds the listener synchronously, so an address already in use fails
// application start, then serves in a background goroutine. OnStop shuts the
// server down gracefully.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", m.Server.Addr)
			if err != nil {
				return err
			}
			log.Info("Starting Prometheus metrics server", nil, map[string]interface{}{
				"address": ln.Addr().String(),
			})
			go func() {
				if err := m.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Error serving Prometheus metrics", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Prometheus metrics server", nil, nil)
			return m.Server.Shutdown(ctx)
		},
	})
}
