// Package ws adapts a gorilla/websocket connection into a reactor
// Selectable nested under a registry Link, replacing the teacher's
// (now superseded) internal/handler/ws/delivery.go inline pump loop:
// the connection's lifecycle is driven by the reactor loop rather than
// its own bare goroutine select.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/webitel/go-reactor/internal/event"
	"github.com/webitel/go-reactor/internal/reactor"
	"github.com/webitel/go-reactor/internal/registry"
)

// InboundMessage is the TRANSPORT_MESSAGE context for a frame read off
// a websocket connection, nested under the owning Link the same way
// amqp.TransportMessage nests under a Link bound to a queue.
type InboundMessage struct {
	payload     []byte
	attachments *reactor.Attachments
	link        *registry.Link
}

// EntityClass reports ClassTransport.
func (m *InboundMessage) EntityClass() event.EntityClass { return event.ClassTransport }

// Attachments returns the message's attachments record.
func (m *InboundMessage) Attachments() *reactor.Attachments { return m.attachments }

// Parent returns the owning link, satisfying reactor.Nesting.
func (m *InboundMessage) Parent() (event.Context, bool) {
	if m.link == nil {
		return nil, false
	}
	return m.link, true
}

// Payload returns the raw frame bytes.
func (m *InboundMessage) Payload() []byte { return m.payload }

// Connection wraps a single upgraded websocket as a reactor
// Selectable. Its read pump enqueues one InboundMessage per inbound
// text/binary frame; its write pump drains an outbound channel any
// handler attached to link may publish to via Send.
type Connection struct {
	*reactor.BaseSelectable

	ws         *websocket.Conn
	collector  *reactor.Collector
	registered *registry.Connection
	link       *registry.Link
	logger     *slog.Logger

	outbound chan []byte
	closeMu  sync.Mutex
}

// Upgrader upgrades incoming HTTP requests to websocket connections
// and binds the result into the registry's connection/session/link
// graph, grounded on the teacher's WSHandler.
type Upgrader struct {
	Hub      *registry.Hub
	Logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewUpgrader builds an Upgrader. CheckOrigin is permissive by
// default, matching the teacher's explicit "adjust for production"
// comment.
func NewUpgrader(hub *registry.Hub, logger *slog.Logger) *Upgrader {
	return &Upgrader{
		Hub:    hub,
		Logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Upgrade promotes r to a websocket connection, registers a fresh
// Connection/Session/Link in the hub, and returns the reactor
// Selectable ready for RegisterSelectable.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request, meta registry.ConnectMetadata) (*Connection, error) {
	wsConn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	conn := u.Hub.Register(r.Context(), meta)
	session := conn.OpenSession()
	link := session.OpenLink()

	c := &Connection{
		BaseSelectable: reactor.NewBaseSelectable(),
		ws:             wsConn,
		collector:      conn.Collector(),
		registered:     conn,
		link:           link,
		logger:         u.Logger,
		outbound:       make(chan []byte, 64),
	}
	c.OnRelease(func() {
		_ = wsConn.Close()
		conn.Close()
	})

	go c.readPump(r.Context())
	go c.writePump()

	return c, nil
}

func (c *Connection) readPump(ctx context.Context) {
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Debug("ws read pump closing", "err", err)
			c.Terminate()
			c.notifyOwner()
			close(c.outbound)
			return
		}

		msg := &InboundMessage{payload: payload, attachments: reactor.NewAttachments(), link: c.link}
		c.collector.Put(event.TransportMessage, event.ClassTransport, msg)
		c.notifyOwner()

		select {
		case <-ctx.Done():
			c.Terminate()
			c.notifyOwner()
			return
		default:
		}
	}
}

func (c *Connection) writePump() {
	for payload := range c.outbound {
		if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.logger.Warn("ws write pump failed", "err", err)
			c.Terminate()
			c.notifyOwner()
			return
		}
	}
}

// Send enqueues payload for delivery to the client. Non-blocking: a
// full outbound buffer drops the frame rather than stalling the
// caller, the same backpressure posture as the teacher's connect.go
// Send.
func (c *Connection) Send(payload []byte) bool {
	select {
	case c.outbound <- payload:
		return true
	default:
		return false
	}
}

// Handler returns an http.Handler that upgrades every request and
// registers the resulting Connection on r, so a single fx-provided
// Upgrader can be mounted directly on the control server's mux
// (control.Server.Mount) without callers touching RegisterSelectable
// themselves.
func (u *Upgrader) Handler(r *reactor.Reactor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		meta := registry.ConnectMetadata{
			RemoteIP:  req.RemoteAddr,
			UserAgent: req.UserAgent(),
		}
		conn, err := u.Upgrade(w, req, meta)
		if err != nil {
			u.Logger.Warn("websocket upgrade failed", "err", err)
			return
		}
		r.RegisterSelectable(conn)
	})
}

func (c *Connection) notifyOwner() {
	if r, ok := c.Owner().Get(); ok {
		r.Update(c)
	}
}
