package registry

import (
	"github.com/google/uuid"

	"github.com/webitel/go-reactor/internal/event"
	"github.com/webitel/go-reactor/internal/reactor"
)

// Link is the leaf of the connection/session/link graph — the finest
// grain at which a handler can be attached (spec.md §4.3 "the most
// specific entity wins"). A Delivery event's context, if this domain
// ever needs one, would nest one level further under Link the same
// way Link nests under Session.
type Link struct {
	id     uuid.UUID
	parent *Session

	attachments *reactor.Attachments

	name string
}

func newLink(parent *Session) *Link {
	return &Link{
		id:          uuid.New(),
		parent:      parent,
		attachments: reactor.NewAttachments(),
	}
}

// ID returns the link's identifier.
func (l *Link) ID() uuid.UUID { return l.id }

// Name returns the link's application-assigned name (an AMQP queue or
// routing key, typically), set via SetName.
func (l *Link) Name() string { return l.name }

// SetName records the link's application-assigned name.
func (l *Link) SetName(name string) { l.name = name }

// EntityClass reports ClassLink.
func (l *Link) EntityClass() event.EntityClass { return event.ClassLink }

// Attachments returns the link's attachments record.
func (l *Link) Attachments() *reactor.Attachments { return l.attachments }

// Parent returns the owning session, satisfying reactor.Nesting.
func (l *Link) Parent() (event.Context, bool) {
	if l.parent == nil {
		return nil, false
	}
	return l.parent, true
}
