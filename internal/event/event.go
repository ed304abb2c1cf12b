// Package event defines the closed set of event types and entity
// classes the reactor dispatches, and the immutable Event record
// produced by the collector.
package event

import "fmt"

// EntityClass identifies which kind of entity an Event's context
// belongs to. The dispatch loop uses it to decide how to walk the
// entity graph when resolving a handler (see reactor.Resolve).
type EntityClass int16

const (
	ClassNone EntityClass = iota
	ClassReactor
	ClassSelectable
	ClassTask
	ClassTransport
	ClassConnection
	ClassSession
	ClassLink
	ClassDelivery
)

//go:generate stringer -type=EntityClass
func (c EntityClass) String() string {
	switch c {
	case ClassReactor:
		return "reactor"
	case ClassSelectable:
		return "selectable"
	case ClassTask:
		return "task"
	case ClassTransport:
		return "transport"
	case ClassConnection:
		return "connection"
	case ClassSession:
		return "session"
	case ClassLink:
		return "link"
	case ClassDelivery:
		return "delivery"
	default:
		return "none"
	}
}

// Type is the closed enumeration of event types the reactor core and
// its collaborators may produce. Pass-through types produced by a
// transport (e.g. AMQP) are namespaced separately (TRANSPORT_*) so the
// core enumeration stays closed per spec.
type Type int32

//go:generate stringer -type=Type
const (
	None Type = iota

	ReactorInit
	ReactorQuiesced
	ReactorFinal

	SelectableInit
	SelectableUpdated
	SelectableFinal

	ConnectionInit
	ConnectionFinal

	TimerTask

	// TransportMessage is produced by an AMQP (or other) transport
	// selectable for each inbound message it drains. It is the
	// pass-through type mentioned in spec.md §3.
	TransportMessage
)

func (t Type) String() string {
	switch t {
	case ReactorInit:
		return "REACTOR_INIT"
	case ReactorQuiesced:
		return "REACTOR_QUIESCED"
	case ReactorFinal:
		return "REACTOR_FINAL"
	case SelectableInit:
		return "SELECTABLE_INIT"
	case SelectableUpdated:
		return "SELECTABLE_UPDATED"
	case SelectableFinal:
		return "SELECTABLE_FINAL"
	case ConnectionInit:
		return "CONNECTION_INIT"
	case ConnectionFinal:
		return "CONNECTION_FINAL"
	case TimerTask:
		return "TIMER_TASK"
	case TransportMessage:
		return "TRANSPORT_MESSAGE"
	default:
		return "NONE"
	}
}

// Context is the non-owning handle an Event carries to its subject
// entity. The collector is responsible for keeping the referenced
// entity alive until the event is popped (spec.md §3).
type Context interface {
	// EntityClass reports which branch of the entity graph this
	// context belongs to, so the dispatch loop knows how to walk it.
	EntityClass() EntityClass
}

// Event is an immutable record produced by the collector and consumed
// exactly once per dispatch step.
type Event struct {
	Type    Type
	Class   EntityClass
	Context Context
}

func (e Event) String() string {
	return fmt.Sprintf("Event{%s class=%s}", e.Type, e.Class)
}
