package reactor

import "github.com/webitel/go-reactor/internal/event"

// Handler is the opaque subscriber contract of spec.md §3: a single
// dispatch(event) operation. Handler implementations are never
// inspected by the reactor beyond this one method.
type Handler interface {
	Dispatch(ev event.Event)
}

// HandlerFunc adapts a plain function to Handler, the same functional
// shape the teacher's amqp.DomainHandler[T] uses for binding business
// logic to the transport layer.
type HandlerFunc func(ev event.Event)

// Dispatch calls f.
func (f HandlerFunc) Dispatch(ev event.Event) { f(ev) }

type noopHandler struct{}

func (noopHandler) Dispatch(event.Event) {}

// Attaching is implemented by any entity in the graph that carries an
// Attachments record. The dispatch loop depends on this interface
// only, not on concrete registry types, keeping resolve() a pure
// function over the entity graph (spec.md §9).
type Attaching interface {
	Attachments() *Attachments
}

// Nesting is implemented by entities that have a logical parent in the
// connection/session/link graph (link→session, session→connection).
// A context with no Nesting implementation is a graph leaf: the walk
// stops there and falls back to the root handler if it carries none
// of its own.
type Nesting interface {
	Parent() (event.Context, bool)
}

// Resolve implements the handler-resolution walk of spec.md §4.3:
// starting at the event's context, return the first attached HANDLER
// found walking from most specific to least specific entity, or root
// if none carries one. It is a pure function of (event, root) plus
// whatever Attaching/Nesting the context graph exposes, exactly the
// "expose the walk as a pure function" shape spec.md §9 recommends.
func Resolve(ev event.Event, root Handler) Handler {
	ctx := ev.Context
	for ctx != nil {
		if a, ok := ctx.(Attaching); ok {
			if h, ok := a.Attachments().Handler(); ok {
				return h
			}
		}
		n, ok := ctx.(Nesting)
		if !ok {
			break
		}
		parent, ok := n.Parent()
		if !ok {
			break
		}
		ctx = parent
	}
	if root == nil {
		return noopHandler{}
	}
	return root
}

// ReactorOf resolves which reactor owns an event, per the table in
// spec.md §4.3: reactor events carry the reactor itself as context;
// selectable events resolve via the selectable's own weak owner ref;
// everything else (task, transport, and the delivery→link→session→
// connection chain) walks the Attaching/Nesting graph until it finds
// an entity whose attachments carry a REACTOR weak ref.
func ReactorOf(ev event.Event) (*Reactor, bool) {
	switch ev.Class {
	case event.ClassReactor:
		r, ok := ev.Context.(*Reactor)
		return r, ok
	case event.ClassSelectable:
		sel, ok := ev.Context.(Selectable)
		if !ok {
			return nil, false
		}
		return sel.Owner().Get()
	default:
		ctx := ev.Context
		for ctx != nil {
			if a, ok := ctx.(Attaching); ok {
				if w, ok := a.Attachments().ReactorRef(); ok {
					return w.Get()
				}
			}
			n, ok := ctx.(Nesting)
			if !ok {
				break
			}
			parent, ok := n.Parent()
			if !ok {
				break
			}
			ctx = parent
		}
		return nil, false
	}
}
