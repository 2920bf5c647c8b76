package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/milannair/tidepool-go/v1/logger"
	"github.com/milannair/tidepool-go/v1/tidepool"
	"github.com/milannair/tidepool-go/v1/tracer"
)

const serviceName = "tidepool-cli"

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := opts.clientConfig()
	if err != nil {
		return err
	}

	var (
		client *tidepool.Client
		log    logger.Logger
	)
	modules := []fx.Option{
		fx.NopLogger,
		logger.FXModule,
		tidepool.FXModule,
		fx.Supply(logger.Config{Level: opts.logLevel, ServiceName: serviceName}),
		fx.Supply(cfg),
		fx.Populate(&client, &log),
	}
	if opts.traceExport {
		modules = append(modules,
			tracer.FXModule,
			fx.Supply(tracer.Config{ServiceName: serviceName, EnableExport: true}),
		)
	}

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	policy := tidepool.RetryPolicy{
		MaxAttempts: opts.retries,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warn("retrying command", err, map[string]interface{}{
				"attempt": attempt + 1,
				"delay":   delay.String(),
			})
		},
	}
	result, err := tidepool.Retry(context.Background(), policy, func(ctx context.Context) (any, error) {
		return dispatch(ctx, client, opts)
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ack is printed by commands whose response body is discarded.
type ack struct {
	OK bool `json:"ok"`
}

func dispatch(ctx context.Context, client *tidepool.Client, opts *options) (any, error) {
	command, rest := opts.args[0], opts.args[1:]

	switch command {
	case "health":
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: health <query|ingest>")
		}
		return client.Health(ctx, tidepool.Service(rest[0]))

	case "status":
		return client.Status(ctx)

	case "namespaces":
		return client.ListNamespaces(ctx)

	case "namespace":
		return client.GetNamespace(ctx, optionalArg(rest))

	case "namespace-status":
		return client.GetNamespaceStatus(ctx, optionalArg(rest))

	case "compact":
		if err := client.Compact(ctx, optionalArg(rest)); err != nil {
			return nil, err
		}
		return ack{OK: true}, nil

	case "query":
		req, err := opts.queryRequest()
		if err != nil {
			return nil, err
		}
		return client.QueryWithRequest(ctx, req)

	case "upsert":
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: upsert <file.json>")
		}
		docs, err := readDocuments(rest[0])
		if err != nil {
			return nil, err
		}
		if err := client.Upsert(ctx, docs, tidepool.UpsertOptions{DistanceMetric: tidepool.DistanceMetric(opts.metric)}); err != nil {
			return nil, err
		}
		return ack{OK: true}, nil

	case "delete":
		if len(rest) == 0 {
			return nil, fmt.Errorf("usage: delete <id>...")
		}
		if err := client.Delete(ctx, rest, tidepool.DeleteOptions{}); err != nil {
			return nil, err
		}
		return ack{OK: true}, nil
	}

	return nil, fmt.Errorf("unknown command %q", command)
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// readDocuments accepts a JSON array of documents, or an object holding
// one under "vectors" or "documents".
func readDocuments(path string) ([]tidepool.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	var docs []tidepool.Document
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}

	var wrapped struct {
		Vectors   []tidepool.Document `json:"vectors"`
		Documents []tidepool.Document `json:"documents"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse documents: %w", err)
	}
	if len(wrapped.Vectors) > 0 {
		return wrapped.Vectors, nil
	}
	return wrapped.Documents, nil
}
