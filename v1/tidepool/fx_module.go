package tidepool

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/milannair/tidepool-go/v1/logger"
	"github.com/milannair/tidepool-go/v1/observability"
	"github.com/milannair/tidepool-go/v1/tracer"
)

// FXModule is an fx.Module that provides the Tidepool client.
//
// The module:
//  1. Provides *Client through NewClientWithDI
//  2. Invokes RegisterTidepoolLifecycle to health-check on start (when
//     enabled) and release connections on stop
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule, // optional, observes every operation
//	    tidepool.FXModule,
//	    fx.Provide(tidepool.NewConfig),
//	)
var FXModule = fx.Module("tidepool",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterTidepoolLifecycle),
)

// TidepoolParams groups the dependencies needed to create a Tidepool client.
type TidepoolParams struct {
	fx.In

	Config   *Config
	Logger   logger.Logger          `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Tracer   *tracer.Tracer         `optional:"true"`
}

// NewClientWithDI creates a client from injected dependencies. Logger,
// observer and tracer are attached only when present in the container.
func NewClientWithDI(params TidepoolParams) (*Client, error) {
	if params.Config == nil {
		return nil, newValidationError("config is required")
	}
	cfg := *params.Config
	if params.Logger != nil {
		cfg.Logger = params.Logger
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}
	if params.Tracer != nil {
		client.WithTracer(params.Tracer)
	}
	return client, nil
}

// TidepoolLifecycleParams groups the dependencies needed for lifecycle management.
type TidepoolLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterTidepoolLifecycle registers the client with the fx lifecycle.
//
// On start, when Config.HealthCheckOnStart is set, both services must answer
// /health or the application fails to start. On stop, idle connections are
// closed.
func RegisterTidepoolLifecycle(params TidepoolLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !params.Client.cfg.HealthCheckOnStart {
				return nil
			}
			for _, service := range []Service{ServiceQuery, ServiceIngest} {
				if _, err := params.Client.Health(ctx, service); err != nil {
					return fmt.Errorf("tidepool %s service is not healthy: %w", service, err)
				}
			}
			if params.Client.logger != nil {
				params.Client.logger.Info("tidepool services healthy", nil, map[string]interface{}{
					"query_url":  params.Client.cfg.QueryURL,
					"ingest_url": params.Client.cfg.IngestURL,
				})
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return params.Client.Close()
		},
	})
}
