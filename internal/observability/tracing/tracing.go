// Package tracing sets up the OTLP trace pipeline. Spans are produced by the
// otelhttp wrapper around the root handler; this package only owns exporter
// and provider lifecycle.
package tracing

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const endpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

// Init wires an OTLP HTTP exporter when OTEL_EXPORTER_OTLP_ENDPOINT is set
// and returns the provider's shutdown hook. Without an endpoint the global
// provider stays a no-op and the returned hook does nothing, so callers can
// defer it unconditionally.
func Init(ctx context.Context, logger *slog.Logger, serviceName, environment string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	endpoint := os.Getenv(endpointEnv)
	if endpoint == "" {
		if logger != nil {
			logger.Info("tracing not configured", slog.String("env", endpointEnv))
		}
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.DeploymentEnvironment(environment),
	))
	if err != nil {
		return noop, err
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	if logger != nil {
		logger.Info("tracing enabled",
			slog.String("endpoint", endpoint),
			slog.String("service", serviceName),
		)
	}
	return provider.Shutdown, nil
}
