package obs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/stock-ledger/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	serviceVersion = "1.0.0"
	exportTimeout  = 10 * time.Second
	maxQueueSize   = 4096
)

// Shutdown flushes and stops exporters.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// endpoint splits an OTLP endpoint into host:port and whether TLS is off.
func endpoint(cfg config.OtelConfig) (string, bool) {
	ep := cfg.Endpoint
	insecure := cfg.Insecure
	switch {
	case strings.HasPrefix(ep, "http://"):
		ep, insecure = strings.TrimPrefix(ep, "http://"), true
	case strings.HasPrefix(ep, "https://"):
		ep, insecure = strings.TrimPrefix(ep, "https://"), false
	}
	return strings.TrimSuffix(ep, "/"), insecure
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
}

// SetupTracing installs the global tracer provider and W3C propagators.
// With no endpoint configured only the propagators are installed and spans
// stay no-ops.
func SetupTracing(ctx context.Context, cfg config.OtelConfig) (Shutdown, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if cfg.Endpoint == "" {
		return noopShutdown, nil
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	host, insecure := endpoint(cfg)
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(host)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("OTLP trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter,
			sdktrace.WithExportTimeout(exportTimeout),
			sdktrace.WithMaxQueueSize(maxQueueSize),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// SetupLogging installs the global OTLP logger provider used by WithOTLP.
func SetupLogging(ctx context.Context, cfg config.OtelConfig) (Shutdown, error) {
	if cfg.Endpoint == "" {
		return noopShutdown, nil
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	host, insecure := endpoint(cfg)
	opts := []otlploghttp.Option{otlploghttp.WithEndpoint(host)}
	if insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("OTLP log exporter: %w", err)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter,
			sdklog.WithExportTimeout(exportTimeout),
			sdklog.WithMaxQueueSize(maxQueueSize),
		)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)
	return lp.Shutdown, nil
}

// JoinShutdown runs every shutdown and joins their errors.
func JoinShutdown(fns ...Shutdown) Shutdown {
	return func(ctx context.Context) error {
		var err error
		for _, fn := range fns {
			if fn != nil {
				err = errors.Join(err, fn(ctx))
			}
		}
		return err
	}
}
