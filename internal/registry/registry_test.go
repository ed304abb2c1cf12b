package registry

import (
	"context"
	"testing"
	"time"

	"github.com/webitel/go-reactor/internal/event"
	"github.com/webitel/go-reactor/internal/reactor"
)

func TestNewConnectionPublishesConnectionInit(t *testing.T) {
	c := reactor.NewCollector()
	conn := NewConnection(context.Background(), c, ConnectMetadata{Platform: "web"})

	ev, ok := c.Peek()
	if !ok || ev.Type != event.ConnectionInit || ev.Context != conn {
		t.Fatalf("want ConnectionInit for the new connection, got %+v ok=%v", ev, ok)
	}
}

func TestConnectionCloseIsIdempotentAndPublishesFinal(t *testing.T) {
	c := reactor.NewCollector()
	conn := NewConnection(context.Background(), c, ConnectMetadata{})
	c.Pop() // drop CONNECTION_INIT

	conn.Close()
	conn.Close() // must not publish a second CONNECTION_FINAL or panic

	var finals int
	for c.Len() > 0 {
		ev, _ := c.Peek()
		if ev.Type == event.ConnectionFinal {
			finals++
		}
		c.Pop()
	}
	if finals != 1 {
		t.Fatalf("want exactly one ConnectionFinal, got %d", finals)
	}

	select {
	case <-conn.Context().Done():
	default:
		t.Fatal("expected connection context to be cancelled after Close")
	}
}

func TestSessionAndLinkNestUnderConnection(t *testing.T) {
	c := reactor.NewCollector()
	conn := NewConnection(context.Background(), c, ConnectMetadata{})
	session := conn.OpenSession()
	link := session.OpenLink()

	parent, ok := session.Parent()
	if !ok || parent != event.Context(conn) {
		t.Fatalf("want session parent to be the connection, got %v ok=%v", parent, ok)
	}
	grandparent, ok := link.Parent()
	if !ok || grandparent != event.Context(session) {
		t.Fatalf("want link parent to be the session, got %v ok=%v", grandparent, ok)
	}

	ev := event.Event{Class: event.ClassLink, Context: link}
	r, ok := reactor.ReactorOf(ev)
	_ = r
	if ok {
		t.Fatal("want ReactorOf to fail until the connection has bound a reactor ref")
	}
}

func TestResolveWalksLinkToConnectionHandler(t *testing.T) {
	c := reactor.NewCollector()
	conn := NewConnection(context.Background(), c, ConnectMetadata{})
	session := conn.OpenSession()
	link := session.OpenLink()

	var called bool
	conn.Attachments().SetHandler(reactor.HandlerFunc(func(event.Event) { called = true }))

	ev := event.Event{Class: event.ClassLink, Context: link}
	h := reactor.Resolve(ev, nil)
	h.Dispatch(ev)

	if !called {
		t.Fatal("want the walk to find the connection's handler")
	}
}

func TestConnectionIsIdleOnlyWithoutSessions(t *testing.T) {
	c := reactor.NewCollector()
	conn := NewConnection(context.Background(), c, ConnectMetadata{})

	if !conn.IsIdle(0) {
		t.Fatal("want an immediately-idle connection with no sessions and a zero timeout")
	}

	session := conn.OpenSession()
	if conn.IsIdle(0) {
		t.Fatal("want a connection with an open session to never be idle")
	}

	conn.CloseSession(session.ID())
	if !conn.IsIdle(0) {
		t.Fatal("want the connection to become idle again once its only session closes")
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	c := reactor.NewCollector()
	h := NewHub(c, WithEvictionInterval(time.Hour), WithIdleTimeout(time.Hour))
	defer h.Shutdown()

	conn := h.Register(context.Background(), ConnectMetadata{Platform: "ws"})
	if _, ok := h.Lookup(conn.ID()); !ok {
		t.Fatal("want registered connection to be findable")
	}

	h.Unregister(conn.ID())
	if _, ok := h.Lookup(conn.ID()); ok {
		t.Fatal("want unregistered connection to no longer be findable")
	}
}

func TestHubFindLinkByNameFallsBackToWalk(t *testing.T) {
	c := reactor.NewCollector()
	h := NewHub(c, WithEvictionInterval(time.Hour), WithIdleTimeout(time.Hour))
	defer h.Shutdown()

	conn := h.Register(context.Background(), ConnectMetadata{})
	session := conn.OpenSession()
	link := session.OpenLink()
	link.SetName("orders.created")

	got, ok := h.FindLinkByName("orders.created")
	if !ok || got != link {
		t.Fatalf("want the walk to find the link by name, got %v ok=%v", got, ok)
	}

	// A second lookup should hit the populated cache.
	got2, ok := h.FindLinkByName("orders.created")
	if !ok || got2 != link {
		t.Fatalf("want cache lookup to also find the link, got %v ok=%v", got2, ok)
	}
}
