package control

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/webitel/go-reactor/internal/event"
	"github.com/webitel/go-reactor/internal/reactor"
)

type fakeSource struct{ stats reactor.Stats }

func (f fakeSource) Stats() reactor.Stats { return f.stats }

func TestHealthzReportsOK(t *testing.T) {
	srv := NewServer(":0", fakeSource{}, slog.Default())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

func TestStatsReflectsSource(t *testing.T) {
	src := fakeSource{stats: reactor.Stats{
		Selectables: 3,
		TimerTasks:  1,
		QueueLength: 2,
		LastEvent:   event.ConnectionInit,
	}}
	srv := NewServer(":0", src, slog.Default())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	srv.httpServer.Handler.ServeHTTP(rec, req)

	var got statsDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Selectables != 3 || got.TimerTasks != 1 || got.QueueLength != 2 {
		t.Fatalf("unexpected stats payload: %+v", got)
	}
	if got.LastEvent != "CONNECTION_INIT" {
		t.Fatalf("want CONNECTION_INIT, got %q", got.LastEvent)
	}
}
