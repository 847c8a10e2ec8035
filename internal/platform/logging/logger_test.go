package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitFallsBackToInfoOnUnknownLevel(t *testing.T) {
	log, err := Init("loud", "dev", "aquajudge")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	defer log.Closer()

	if got := log.Level.Level().String(); got != "info" {
		t.Fatalf("expected info level, got %s", got)
	}
	if log.Slog.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected debug disabled at info level")
	}
	if !log.Slog.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatalf("expected warn enabled at info level")
	}
}
