package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Tracer and flushes it on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    fx.Supply(tracer.Config{ServiceName: "search-api"}),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle registers an OnStop hook that shuts the tracer
// provider down, flushing any pending spans to the exporter.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer == nil || tracer.tracer == nil {
				return nil
			}
			tracer.logger.Info("shutting down tracer", nil, nil)
			return tracer.Shutdown(ctx)
		},
	})
}
