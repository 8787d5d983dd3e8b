package config_test

import (
	"testing"
	"time"

	"github.com/saferoom/chat-client/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if cfg.MaxAttempts != 10 {
		t.Errorf("expected 10 reconnect attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.BaseDelay != time.Second {
		t.Errorf("expected 1s base delay, got %v", cfg.BaseDelay)
	}
	if cfg.MaxDelay != 5*time.Second {
		t.Errorf("expected 5s max delay, got %v", cfg.MaxDelay)
	}
	if cfg.HandshakeTimeout != 30*time.Second {
		t.Errorf("expected 30s handshake timeout, got %v", cfg.HandshakeTimeout)
	}
	if cfg.ReadLimit != 10<<20 {
		t.Errorf("expected 10 MiB read limit, got %d", cfg.ReadLimit)
	}
	if cfg.ReadLimit < cfg.MaxImageBytes {
		t.Errorf("read limit %d cannot cover a maximum-size image %d", cfg.ReadLimit, cfg.MaxImageBytes)
	}
	if cfg.ToastTTL != 2*time.Second {
		t.Errorf("expected 2s toast TTL, got %v", cfg.ToastTTL)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("expected 30s heartbeat, got %v", cfg.HeartbeatInterval)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CHAT_SERVER_URL", "ws://example.test/ws")
	t.Setenv("CHAT_RECONNECT_ATTEMPTS", "3")
	t.Setenv("CHAT_RECONNECT_DELAY", "250ms")
	t.Setenv("CHAT_MAX_IMAGE_BYTES", "1048576")

	cfg := config.FromEnv()

	if cfg.ServerURL != "ws://example.test/ws" {
		t.Errorf("expected server URL override, got %q", cfg.ServerURL)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.BaseDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms base delay, got %v", cfg.BaseDelay)
	}
	if cfg.MaxImageBytes != 1<<20 {
		t.Errorf("expected 1 MiB image ceiling, got %d", cfg.MaxImageBytes)
	}
}

func TestFromEnv_IgnoresMalformed(t *testing.T) {
	t.Setenv("CHAT_RECONNECT_ATTEMPTS", "many")
	t.Setenv("CHAT_TOAST_TTL", "soon")

	cfg := config.FromEnv()

	if cfg.MaxAttempts != 10 {
		t.Errorf("expected default attempts for malformed value, got %d", cfg.MaxAttempts)
	}
	if cfg.ToastTTL != 2*time.Second {
		t.Errorf("expected default toast TTL for malformed value, got %v", cfg.ToastTTL)
	}
}
