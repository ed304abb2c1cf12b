package amqp

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Dispatcher publishes reactor-originated payloads back onto the bus.
// Grounded on the teacher's EventDispatcher
// (`adapter/pubsub/dispatcher.go`), stripped of the IM-specific
// Eventer/GetRoutingKey contract: callers supply the routing key and
// an already-encoded payload directly, since this domain's events are
// not a fixed marshalled type.
type Dispatcher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Publisher() message.Publisher
}

type dispatcher struct {
	publisher message.Publisher
}

// NewDispatcher wraps pub as a Dispatcher.
func NewDispatcher(pub message.Publisher) Dispatcher {
	return &dispatcher{publisher: pub}
}

func (d *dispatcher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("amqp dispatcher: cannot publish an empty payload")
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := d.publisher.Publish(routingKey, msg); err != nil {
		return fmt.Errorf("amqp dispatcher: publish to %q: %w", routingKey, err)
	}
	return nil
}

func (d *dispatcher) Publisher() message.Publisher { return d.publisher }
