package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed.
//
// In config files a secret must be written as {"$env": "VAR_NAME"} rather
// than a literal string. The explicit JSON syntax avoids accidental shell
// expansion of $VAR forms and makes the reference checkable at parse time.
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// UnmarshalJSON resolves {"$env": "VAR_NAME"} references at parse time.
// Literal strings are rejected so secrets never live in config files.
func (s *Secret) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		return fmt.Errorf("secret values must use {\"$env\": \"VAR_NAME\"} format")
	}

	var ref map[string]string
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("secret value must be a reference object")
	}
	envVar, ok := ref["$env"]
	if !ok {
		return fmt.Errorf("unknown reference type in secret value")
	}
	value := os.Getenv(envVar)
	if value == "" {
		return fmt.Errorf("environment variable %s not set", envVar)
	}
	*s = Secret(value)
	return nil
}

// Duration parses Go duration strings in JSON config values.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("duration must be a string like \"10m\"")
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", str, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// BaseURL is the public issuer URL; every endpoint in the server
	// metadata document is derived from it.
	BaseURL string `json:"baseURL"`
	Addr    string `json:"addr"`
	// ResourceURL identifies the protected resource this server fronts.
	ResourceURL    string   `json:"resourceURL"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// OAuthConfig configures token issuance and record lifetimes.
type OAuthConfig struct {
	JWTSecret       Secret   `json:"jwtSecret"`
	AccessTokenTTL  Duration `json:"accessTokenTtl,omitempty"`
	RecordTTL       Duration `json:"recordTtl,omitempty"`
	CleanupInterval Duration `json:"cleanupInterval,omitempty"`
}

// UpstreamConfig configures the upstream identity provider.
type UpstreamConfig struct {
	Provider     string   `json:"provider"`
	ClientID     string   `json:"clientId"`
	ClientSecret Secret   `json:"clientSecret"`
	Scopes       []string `json:"scopes,omitempty"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Backend is "memory" or "firestore".
	Backend             string `json:"backend"`
	GCPProject          string `json:"gcpProject,omitempty"`
	FirestoreDatabase   string `json:"firestoreDatabase,omitempty"`
	FirestoreCollection string `json:"firestoreCollection,omitempty"`
}

// JobsConfig configures the sync-job work queue.
type JobsConfig struct {
	// Queue is "memory" or "redis".
	Queue         string `json:"queue"`
	RedisAddr     string `json:"redisAddr,omitempty"`
	RedisPassword Secret `json:"redisPassword,omitempty"`
	RedisDB       int    `json:"redisDb,omitempty"`
	RedisKey      string `json:"redisKey,omitempty"`
}

// Config is the resolved application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	OAuth    OAuthConfig    `json:"oauth"`
	Upstream UpstreamConfig `json:"upstream"`
	Storage  StorageConfig  `json:"storage"`
	Jobs     JobsConfig     `json:"jobs"`
}
