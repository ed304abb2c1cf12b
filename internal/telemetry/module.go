package telemetry

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// ServiceName identifies this service to the tracer provider's
// resource and to structured logs.
const ServiceName = "go-reactor"

// Module provides the application logger, the watermill logger
// adapter, and an OpenTelemetry TracerProvider, wiring the provider's
// shutdown into the fx lifecycle.
var Module = fx.Module("telemetry",
	fx.Provide(
		NewLogger,
		NewWatermillLogger,
		func() (*sdktrace.TracerProvider, error) { return NewTracerProvider(ServiceName) },
	),
	fx.Invoke(func(lc fx.Lifecycle, tp *sdktrace.TracerProvider) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return tp.Shutdown(ctx)
			},
		})
	}),
)
