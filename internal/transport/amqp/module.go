package amqp

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	amqpdriver "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"go.uber.org/fx"

	rconfig "github.com/webitel/go-reactor/config"
)

// Module provides the watermill AMQP driver (publisher + subscriber
// constructors) and this package's Dispatcher to the fx graph, the
// same shape as the teacher's amqp.Module (`internal/handler/amqp/module.go`)
// minus the gRPC-era message.Router wiring — this domain drives
// subscriptions through reactor.Selectable, not a watermill Router.
var Module = fx.Module("amqp-transport",
	fx.Provide(
		NewAMQPConfig,
		NewPublisherDriver,
		NewSubscriberDriver,
		func(pub *amqpdriver.Publisher) Dispatcher { return NewDispatcher(pub) },
	),
)

// NewAMQPConfig builds a watermill-amqp durable pub/sub config from
// the application configuration.
func NewAMQPConfig(cfg *rconfig.Config) amqpdriver.Config {
	return amqpdriver.NewDurableQueueConfig(cfg.AMQP.URL)
}

// NewPublisherDriver constructs the watermill-amqp publisher used by
// Dispatcher.
func NewPublisherDriver(cfg amqpdriver.Config, logger *slog.Logger) (*amqpdriver.Publisher, error) {
	return amqpdriver.NewPublisher(cfg, watermill.NewSlogLogger(logger))
}

// NewSubscriberDriver constructs the watermill-amqp subscriber driver
// that Subscriber instances are built from (one per queue a Link
// binds to).
func NewSubscriberDriver(cfg amqpdriver.Config, logger *slog.Logger) (*amqpdriver.Subscriber, error) {
	return amqpdriver.NewSubscriber(cfg, watermill.NewSlogLogger(logger))
}
