package config

import (
	"testing"
	"time"
)

func TestLoadWithOptions_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("LOGIN_DOMAIN", "")
	t.Setenv("ROLE_CACHE_TTL", "")
	t.Setenv("SESSION_TTL", "")

	cfg, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.HTTPAddr != defaultHTTPAddr {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, defaultHTTPAddr)
	}
	if cfg.LoginDomain != defaultLoginDomain {
		t.Fatalf("LoginDomain = %q, want %q", cfg.LoginDomain, defaultLoginDomain)
	}
	if cfg.RoleCacheTTL != defaultRoleCacheTTL {
		t.Fatalf("RoleCacheTTL = %s, want %s", cfg.RoleCacheTTL, defaultRoleCacheTTL)
	}
	if cfg.SessionTTL != defaultSessionTTL {
		t.Fatalf("SessionTTL = %s, want %s", cfg.SessionTTL, defaultSessionTTL)
	}
}

func TestLoadWithOptions_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: true}); err == nil {
		t.Fatal("expected DATABASE_URL required error")
	}
}

func TestLoadWithOptions_ParsesDurations(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ROLE_CACHE_TTL", "90s")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.RoleCacheTTL != 90*time.Second {
		t.Fatalf("RoleCacheTTL = %s, want 90s", cfg.RoleCacheTTL)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("SessionTTL = %s, want 2h", cfg.SessionTTL)
	}
}

func TestLoadWithOptions_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ROLE_CACHE_TTL", "soon")

	cfg, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.RoleCacheTTL != defaultRoleCacheTTL {
		t.Fatalf("RoleCacheTTL = %s, want %s", cfg.RoleCacheTTL, defaultRoleCacheTTL)
	}
}

func TestLoadWithOptions_NormalizesLoginDomain(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOGIN_DOMAIN", "  Members.Example ")

	cfg, err := LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.LoginDomain != "members.example" {
		t.Fatalf("LoginDomain = %q, want %q", cfg.LoginDomain, "members.example")
	}
}
