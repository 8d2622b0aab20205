package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Base URLs per deployment environment.
var presets = map[string]string{
	"development": "http://localhost:8005",
	"test":        "http://120.55.1.43:8005",
	"production":  "https://api.example.com",
}

// Config captures the runtime configuration of the douyin client.
type Config struct {
	Env          string
	BaseURL      string
	Timeout      time.Duration
	Proxy        string
	ConfigDir    string
	LogLevel     string
	FeedDelay    time.Duration
	ProfileDelay time.Duration
}

// Load reads configuration from environment variables. DOUYIN_ENV picks the
// base URL preset; DOUYIN_BASE_URL overrides it.
func Load() (Config, error) {
	env := strings.ToLower(getString("DOUYIN_ENV", "development"))
	base, ok := presets[env]
	if !ok {
		return Config{}, fmt.Errorf("config: unknown DOUYIN_ENV %q", env)
	}

	cfg := Config{
		Env:          env,
		BaseURL:      getString("DOUYIN_BASE_URL", base),
		Timeout:      getDuration("DOUYIN_TIMEOUT", 10*time.Second),
		Proxy:        getString("DOUYIN_PROXY", ""),
		ConfigDir:    getString("DOUYIN_CONFIG_DIR", ""),
		LogLevel:     getString("DOUYIN_LOG_LEVEL", "info"),
		FeedDelay:    getDuration("DOUYIN_FEED_DELAY", 0),
		ProfileDelay: getDuration("DOUYIN_PROFILE_DELAY", 0),
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
