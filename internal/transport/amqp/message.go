// Package amqp adapts a watermill AMQP subscriber/publisher pair into
// a reactor Selectable, the transport-layer concern spec.md §6 calls
// the "I/O resource abstraction" and leaves intentionally unspecified
// beyond the interface it must satisfy.
package amqp

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/webitel/go-reactor/internal/event"
	"github.com/webitel/go-reactor/internal/reactor"
)

// TransportMessage is the TRANSPORT_MESSAGE event context spec.md §3
// calls a "pass-through type": one per inbound AMQP delivery, carrying
// the underlying watermill message and its own Attachments record so
// a handler can be bound per-queue via the normal resolve() walk
// (typically attached to the Link the message's routing key maps to).
type TransportMessage struct {
	msg         *message.Message
	attachments *reactor.Attachments
	parent      event.Context
}

func newTransportMessage(msg *message.Message, parent event.Context) *TransportMessage {
	return &TransportMessage{msg: msg, attachments: reactor.NewAttachments(), parent: parent}
}

// EntityClass reports ClassTransport.
func (t *TransportMessage) EntityClass() event.EntityClass { return event.ClassTransport }

// Attachments returns the message's attachments record.
func (t *TransportMessage) Attachments() *reactor.Attachments { return t.attachments }

// Parent returns the link or session the message was routed to, if
// the subscriber was told one at construction time (NewSubscriber's
// parent argument), satisfying reactor.Nesting.
func (t *TransportMessage) Parent() (event.Context, bool) {
	if t.parent == nil {
		return nil, false
	}
	return t.parent, true
}

// Message returns the underlying watermill message, for a handler
// that needs the raw payload/metadata.
func (t *TransportMessage) Message() *message.Message { return t.msg }
