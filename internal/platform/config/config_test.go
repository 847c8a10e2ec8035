package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.WorkerPollInterval != 5*time.Second {
		t.Fatalf("expected default poll interval 5s, got %s", cfg.WorkerPollInterval)
	}
	if cfg.AutoCloseRegistration {
		t.Fatalf("expected auto close disabled by default")
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	content := "HTTP_PORT=9191\nRESULTS_CACHE_TTL=2h\nTELEGRAM_ANNOUNCE_CHAT_ID=-1001\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("RESULTS_CACHE_TTL", "30m")
	t.Cleanup(func() {
		_ = os.Unsetenv("HTTP_PORT")
		_ = os.Unsetenv("TELEGRAM_ANNOUNCE_CHAT_ID")
	})

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "9191" {
		t.Fatalf("expected port from file, got %q", cfg.HTTPPort)
	}
	if cfg.ResultsCacheTTL != 30*time.Minute {
		t.Fatalf("expected environment to win, got %s", cfg.ResultsCacheTTL)
	}
	if cfg.TelegramAnnounceChatID != -1001 {
		t.Fatalf("expected chat id -1001, got %d", cfg.TelegramAnnounceChatID)
	}
}
