// Package config carries the runtime knobs of the chat client. Defaults
// match the connection contract of the room server; everything can be
// overridden through CHAT_* environment variables or an optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration.
type Config struct {
	// ServerURL is the websocket endpoint of the room server.
	ServerURL string
	// HTTPURL is the base URL for the pre-join identity check.
	HTTPURL string

	// Reconnection policy.
	MaxAttempts      int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	HandshakeTimeout time.Duration

	// ReadLimit bounds inbound frames; it must cover a maximum-size image.
	ReadLimit int64
	// MaxImageBytes is the outbound image ceiling, enforced before any read.
	MaxImageBytes int64

	ToastTTL          time.Duration
	HeartbeatInterval time.Duration

	// RoomsFile optionally replaces the built-in room catalog.
	RoomsFile string
}

// Default returns the configuration matching the server's connection
// contract: 10 reconnect attempts, 1s base delay capped at 5s, a 30s
// handshake timeout and 10 MiB frames.
func Default() Config {
	return Config{
		ServerURL:         "ws://localhost:8080/ws",
		HTTPURL:           "http://localhost:8080",
		MaxAttempts:       10,
		BaseDelay:         time.Second,
		MaxDelay:          5 * time.Second,
		HandshakeTimeout:  30 * time.Second,
		ReadLimit:         10 << 20,
		MaxImageBytes:     10 << 20,
		ToastTTL:          2 * time.Second,
		HeartbeatInterval: 30 * time.Second,
	}
}

// FromEnv loads Default overridden by CHAT_* environment variables. A .env
// file in the working directory is honored when present.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Default()
	cfg.ServerURL = envString("CHAT_SERVER_URL", cfg.ServerURL)
	cfg.HTTPURL = envString("CHAT_HTTP_URL", cfg.HTTPURL)
	cfg.MaxAttempts = envInt("CHAT_RECONNECT_ATTEMPTS", cfg.MaxAttempts)
	cfg.BaseDelay = envDuration("CHAT_RECONNECT_DELAY", cfg.BaseDelay)
	cfg.MaxDelay = envDuration("CHAT_RECONNECT_DELAY_MAX", cfg.MaxDelay)
	cfg.HandshakeTimeout = envDuration("CHAT_CONNECT_TIMEOUT", cfg.HandshakeTimeout)
	cfg.ReadLimit = envInt64("CHAT_READ_LIMIT", cfg.ReadLimit)
	cfg.MaxImageBytes = envInt64("CHAT_MAX_IMAGE_BYTES", cfg.MaxImageBytes)
	cfg.ToastTTL = envDuration("CHAT_TOAST_TTL", cfg.ToastTTL)
	cfg.HeartbeatInterval = envDuration("CHAT_HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	cfg.RoomsFile = envString("CHAT_ROOMS_FILE", cfg.RoomsFile)
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
