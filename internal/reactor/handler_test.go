package reactor

import (
	"testing"

	"github.com/webitel/go-reactor/internal/event"
)

// graphNode is a minimal Attaching+Nesting entity used to exercise the
// most-specific-wins resolution walk without pulling in the registry
// package (which itself depends on this one).
type graphNode struct {
	class       event.EntityClass
	attachments *Attachments
	parent      event.Context
}

func newGraphNode(class event.EntityClass, parent event.Context) *graphNode {
	return &graphNode{class: class, attachments: NewAttachments(), parent: parent}
}

func (g *graphNode) EntityClass() event.EntityClass { return g.class }
func (g *graphNode) Attachments() *Attachments      { return g.attachments }
func (g *graphNode) Parent() (event.Context, bool) {
	if g.parent == nil {
		return nil, false
	}
	return g.parent, true
}

func TestResolveMostSpecificWins(t *testing.T) {
	root := HandlerFunc(func(event.Event) {})
	conn := newGraphNode(event.ClassConnection, nil)
	session := newGraphNode(event.ClassSession, conn)
	link := newGraphNode(event.ClassLink, session)

	var calledOn string
	session.attachments.SetHandler(HandlerFunc(func(event.Event) { calledOn = "session" }))

	ev := event.Event{Type: event.ConnectionInit, Class: event.ClassLink, Context: link}
	h := Resolve(ev, root)
	h.Dispatch(ev)

	if calledOn != "session" {
		t.Fatalf("want session handler to win over root, got %q", calledOn)
	}
}

func TestResolveFallsBackToRoot(t *testing.T) {
	var rootCalled bool
	root := HandlerFunc(func(event.Event) { rootCalled = true })
	conn := newGraphNode(event.ClassConnection, nil)
	link := newGraphNode(event.ClassLink, conn)

	ev := event.Event{Class: event.ClassLink, Context: link}
	h := Resolve(ev, root)
	if h == nil {
		t.Fatal("Resolve must never return nil")
	}
	h.Dispatch(ev)
	if !rootCalled {
		t.Fatal("want the root handler when no entity in the graph carries one")
	}
}

func TestResolveNilRootYieldsNoop(t *testing.T) {
	leaf := newGraphNode(event.ClassLink, nil)
	ev := event.Event{Class: event.ClassLink, Context: leaf}

	h := Resolve(ev, nil)
	h.Dispatch(ev) // must not panic
}

func TestReactorOfSelectableWalksOwner(t *testing.T) {
	r := NewReactor()
	sel := NewBaseSelectable()
	sel.SetOwner(r.WeakRef())

	ev := event.Event{Class: event.ClassSelectable, Context: sel}
	got, ok := ReactorOf(ev)
	if !ok || got != r {
		t.Fatalf("want reactor resolved via owner, got %v ok=%v", got, ok)
	}
}

func TestReactorOfWalksAttachingChain(t *testing.T) {
	r := NewReactor()
	conn := newGraphNode(event.ClassConnection, nil)
	conn.attachments.SetReactorRef(r.WeakRef())
	link := newGraphNode(event.ClassLink, conn)

	ev := event.Event{Class: event.ClassLink, Context: link}
	got, ok := ReactorOf(ev)
	if !ok || got != r {
		t.Fatalf("want reactor resolved by walking to connection, got %v ok=%v", got, ok)
	}
}
