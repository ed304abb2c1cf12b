package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/webitel/go-reactor"

// NewTracerProvider builds an SDK TracerProvider identifying this
// service, registers it as the global provider, and returns it so the
// caller's fx.Lifecycle can shut it down cleanly.
func NewTracerProvider(serviceName string) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp, nil
}

// Tracer returns the service's named tracer from the global provider,
// under the same name cmd/fx.go passes to reactor.WithTracer.
// reactor.NewReactor's own default tracer uses a different name
// ("github.com/webitel/go-reactor/internal/reactor").
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
