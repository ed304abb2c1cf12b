package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/webitel/go-reactor/internal/event"
	"github.com/webitel/go-reactor/internal/reactor"
)

// Session nests a logical AMQP/websocket session under its owning
// Connection (spec.md §4.3: link → session → connection). Follows the
// teacher's Cell sessions map shape (`registry/cell.go`) but as a
// single addressable graph node rather than a fan-out registry.
type Session struct {
	id     uuid.UUID
	parent *Connection

	attachments *reactor.Attachments

	mu    sync.RWMutex
	links map[uuid.UUID]*Link
}

func newSession(parent *Connection) *Session {
	return &Session{
		id:          uuid.New(),
		parent:      parent,
		attachments: reactor.NewAttachments(),
		links:       make(map[uuid.UUID]*Link),
	}
}

// ID returns the session's identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// EntityClass reports ClassSession.
func (s *Session) EntityClass() event.EntityClass { return event.ClassSession }

// Attachments returns the session's attachments record.
func (s *Session) Attachments() *reactor.Attachments { return s.attachments }

// Parent returns the owning connection, satisfying reactor.Nesting so
// Resolve/ReactorOf can walk session → connection.
func (s *Session) Parent() (event.Context, bool) {
	if s.parent == nil {
		return nil, false
	}
	return s.parent, true
}

// OpenLink creates a new Link nested under this session.
func (s *Session) OpenLink() *Link {
	l := newLink(s)
	s.mu.Lock()
	s.links[l.id] = l
	s.mu.Unlock()
	return l
}

// CloseLink detaches a link by ID.
func (s *Session) CloseLink(id uuid.UUID) {
	s.mu.Lock()
	delete(s.links, id)
	s.mu.Unlock()
}

// Links returns a snapshot of currently open links.
func (s *Session) Links() []*Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Link, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, l)
	}
	return out
}
