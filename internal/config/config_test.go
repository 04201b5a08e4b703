package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPPort != "8081" {
		t.Fatalf("HTTPPort default = %q", cfg.HTTPPort)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("AccessTTL default = %s", cfg.AccessTTL)
	}
	if cfg.QRTokenBytes != 24 {
		t.Fatalf("QRTokenBytes default = %d", cfg.QRTokenBytes)
	}
	if cfg.DefaultTimezone != "Asia/Manila" {
		t.Fatalf("DefaultTimezone default = %q", cfg.DefaultTimezone)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("ACCESS_TTL", "5m")
	t.Setenv("FACE_SKIP", "false")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")

	cfg := Load()
	if cfg.HTTPPort != "9000" {
		t.Fatalf("HTTPPort = %q", cfg.HTTPPort)
	}
	if cfg.AccessTTL != 5*time.Minute {
		t.Fatalf("AccessTTL = %s", cfg.AccessTTL)
	}
	if cfg.FaceSkip {
		t.Fatal("FaceSkip should be false")
	}
	if cfg.RateLimitPerMin != 30 {
		t.Fatalf("RateLimitPerMin = %d", cfg.RateLimitPerMin)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ACCESS_TTL", "soon")
	t.Setenv("FACE_SKIP", "maybe")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")

	cfg := Load()
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("AccessTTL should fall back, got %s", cfg.AccessTTL)
	}
	if !cfg.FaceSkip {
		t.Fatal("FaceSkip should fall back to true")
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("RateLimitPerMin should fall back, got %d", cfg.RateLimitPerMin)
	}
}
