package otel

import (
	"context"
	"errors"
	"os"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

const instrumentationName = "github.com/adrianliechti/wingman-jina"

var (
	EnableDebug     = false
	EnableTelemetry = false
)

func init() {
	EnableDebug = os.Getenv("DEBUG") != ""
	EnableTelemetry = os.Getenv("TELEMETRY") != ""
}

type Observable interface {
	otelSetup()
}

// Setup installs OTLP exporters for logs, metrics and traces. It is a no-op
// unless telemetry is enabled through the TELEMETRY environment variable.
func Setup(ctx context.Context, service, version string) error {
	if !EnableTelemetry {
		return nil
	}

	resource, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewSchemaless(
			semconv.ServiceNameKey.String(service),
			semconv.ServiceVersionKey.String(version),
		),
	)

	if err != nil {
		return err
	}

	return errors.Join(
		setupLogger(ctx, resource),
		setupMeter(ctx, resource),
		setupTracer(ctx, resource),
	)
}
