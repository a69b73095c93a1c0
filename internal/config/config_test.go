package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.FlushInterval != 5*time.Minute {
		t.Errorf("FlushInterval = %v, want 5m", cfg.FlushInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("CORSAllowedOrigins = %v, want the two dev origins", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FLUSH_INTERVAL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://bonk.example, https://www.bonk.example")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.FlushInterval != 30*time.Second {
		t.Errorf("FlushInterval = %v, want 30s", cfg.FlushInterval)
	}
	want := []string{"https://bonk.example", "https://www.bonk.example"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
	for i, origin := range want {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Errorf("origin[%d] = %s, want %s", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}
