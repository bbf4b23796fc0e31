// Package config reads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service needs at startup.
type Config struct {
	// HTTPAddr is the listen address for the operation surface.
	HTTPAddr string

	// DatabaseDSN selects the postgres store; empty selects the
	// in-memory store.
	DatabaseDSN string

	// ScanInterval is the expiry scanner's wake-up period.
	ScanInterval time.Duration

	// WebhookURL selects the webhook notifier; empty selects the
	// log notifier.
	WebhookURL string

	// MembershipURL selects the HTTP membership lookup; empty selects
	// the in-process static directory.
	MembershipURL string
}

// Load reads configuration, applying defaults for anything unset.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		WebhookURL:    os.Getenv("WEBHOOK_URL"),
		MembershipURL: os.Getenv("MEMBERSHIP_URL"),
	}

	interval := getenv("SCAN_INTERVAL", "15s")
	parsed, err := time.ParseDuration(interval)
	if err != nil || parsed <= 0 {
		return nil, fmt.Errorf("invalid SCAN_INTERVAL %q", interval)
	}
	cfg.ScanInterval = parsed

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
