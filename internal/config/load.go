package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

const (
	defaultAddr            = ":8080"
	defaultAccessTokenTTL  = Duration(1 * time.Hour)
	defaultRecordTTL       = Duration(10 * time.Minute)
	defaultCleanupInterval = Duration(5 * time.Minute)
)

// Load reads, resolves, and validates the config file. Env var references
// are resolved during unmarshaling; validation runs on resolved values so a
// bad config fails at startup, not on the first request.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = defaultAddr
	}
	if config.OAuth.AccessTokenTTL == 0 {
		config.OAuth.AccessTokenTTL = defaultAccessTokenTTL
	}
	if config.OAuth.RecordTTL == 0 {
		config.OAuth.RecordTTL = defaultRecordTTL
	}
	if config.OAuth.CleanupInterval == 0 {
		config.OAuth.CleanupInterval = defaultCleanupInterval
	}
	if config.Storage.Backend == "" {
		config.Storage.Backend = "memory"
	}
	if config.Jobs.Queue == "" {
		config.Jobs.Queue = "memory"
	}
	if config.Upstream.Provider == "" {
		config.Upstream.Provider = "strava"
	}
}

// Validate checks the resolved configuration.
func Validate(config *Config) error {
	if config.Server.BaseURL == "" {
		return fmt.Errorf("server.baseURL is required")
	}
	if _, err := url.ParseRequestURI(config.Server.BaseURL); err != nil {
		return fmt.Errorf("server.baseURL is not a valid URL: %w", err)
	}
	if config.Server.ResourceURL == "" {
		return fmt.Errorf("server.resourceURL is required")
	}
	if _, err := url.ParseRequestURI(config.Server.ResourceURL); err != nil {
		return fmt.Errorf("server.resourceURL is not a valid URL: %w", err)
	}

	if len(config.OAuth.JWTSecret) < 32 {
		return fmt.Errorf("oauth.jwtSecret must be at least 32 characters (got %d). Generate with: openssl rand -base64 32", len(config.OAuth.JWTSecret))
	}
	if config.OAuth.RecordTTL < 0 || config.OAuth.AccessTokenTTL < 0 || config.OAuth.CleanupInterval < 0 {
		return fmt.Errorf("oauth TTLs cannot be negative")
	}

	if config.Upstream.Provider != "strava" {
		return fmt.Errorf("unsupported upstream provider: %s", config.Upstream.Provider)
	}
	if config.Upstream.ClientID == "" {
		return fmt.Errorf("upstream.clientId is required")
	}
	if config.Upstream.ClientSecret == "" {
		return fmt.Errorf("upstream.clientSecret is required")
	}

	switch config.Storage.Backend {
	case "memory":
	case "firestore":
		if config.Storage.GCPProject == "" {
			return fmt.Errorf("storage.gcpProject is required when using firestore storage")
		}
	default:
		return fmt.Errorf("storage.backend must be memory or firestore, got %q", config.Storage.Backend)
	}

	switch config.Jobs.Queue {
	case "memory":
	case "redis":
		if config.Jobs.RedisAddr == "" {
			return fmt.Errorf("jobs.redisAddr is required when using the redis queue")
		}
	default:
		return fmt.Errorf("jobs.queue must be memory or redis, got %q", config.Jobs.Queue)
	}

	return nil
}
