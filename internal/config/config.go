package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr            = ":8080"
	defaultLoginDomain         = "members.local"
	defaultRoleCacheTTL        = 5 * time.Minute
	defaultSessionTTL          = 12 * time.Hour
	defaultSessionSweepEvery   = 5 * time.Minute
	defaultMetricsAddrDisabled = ""
)

type Config struct {
	DatabaseURL      string
	HTTPAddr         string
	MetricsAddr      string
	AuthCookieSecure bool
	LoginDomain      string
	RoleCacheTTL     time.Duration
	SessionTTL       time.Duration
	SessionSweep     time.Duration
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadOptionalDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPAddr:         getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:      getenvDefault("METRICS_ADDR", defaultMetricsAddrDisabled),
		AuthCookieSecure: getenvBoolDefault("AUTH_COOKIE_SECURE", false),
		LoginDomain:      strings.ToLower(strings.TrimSpace(getenvDefault("LOGIN_DOMAIN", defaultLoginDomain))),
		RoleCacheTTL:     getenvDurationDefault("ROLE_CACHE_TTL", defaultRoleCacheTTL),
		SessionTTL:       getenvDurationDefault("SESSION_TTL", defaultSessionTTL),
		SessionSweep:     getenvDurationDefault("SESSION_SWEEP_INTERVAL", defaultSessionSweepEvery),
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
