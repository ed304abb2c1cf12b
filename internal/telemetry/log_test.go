package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("not-a-level"); got != slog.LevelInfo {
		t.Fatalf("want LevelInfo fallback, got %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("want LevelDebug, got %v", got)
	}
}

func TestFanoutHandlerWritesToEveryHandler(t *testing.T) {
	var bufA, bufB bytes.Buffer
	h := fanoutHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&bufA, nil),
		slog.NewJSONHandler(&bufB, nil),
	}}
	logger := slog.New(h)
	logger.Info("hello", "k", "v")

	for _, buf := range []*bytes.Buffer{&bufA, &bufB} {
		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec["msg"] != "hello" {
			t.Fatalf("want msg=hello, got %v", rec["msg"])
		}
	}
}
