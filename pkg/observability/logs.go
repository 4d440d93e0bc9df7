package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// SetupLogging installs a global OTLP logger provider and returns it. With
// no endpoint it returns the current global provider (a no-op by default).
func SetupLogging(ctx context.Context, cfg Config) (provider otellog.LoggerProvider, shutdown func(context.Context) error, err error) {
	shutdown = func(context.Context) error { return nil }
	if cfg.Endpoint == "" {
		return global.GetLoggerProvider(), shutdown, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, shutdown, err
	}

	opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
	if cfg.LogsPath != "" {
		opts = append(opts, otlploghttp.WithURLPath(cfg.LogsPath))
	}
	if headers := authHeaders(cfg); headers != nil {
		opts = append(opts, otlploghttp.WithHeaders(headers))
	}
	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, shutdown, fmt.Errorf("OTLP log exporter: %w", err)
	}

	var batchOpts []sdklog.BatchProcessorOption
	if cfg.ExportTimeout > 0 {
		batchOpts = append(batchOpts, sdklog.WithExportTimeout(cfg.ExportTimeout))
	}
	if cfg.MaxQueueSize > 0 {
		batchOpts = append(batchOpts, sdklog.WithMaxQueueSize(cfg.MaxQueueSize))
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter, batchOpts...)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	return lp, lp.Shutdown, nil
}
