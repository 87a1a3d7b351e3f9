package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `{
	"server": {
		"baseURL": "https://auth.example.com",
		"resourceURL": "https://api.example.com"
	},
	"oauth": {
		"jwtSecret": {"$env": "TEST_JWT_SECRET"}
	},
	"upstream": {
		"provider": "strava",
		"clientId": "12345",
		"clientSecret": {"$env": "TEST_STRAVA_SECRET"}
	}
}`

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("TEST_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TEST_STRAVA_SECRET", "strava-secret")
}

func TestLoad(t *testing.T) {
	setSecrets(t)

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example.com", cfg.Server.BaseURL)
	assert.Equal(t, Secret("0123456789abcdef0123456789abcdef"), cfg.OAuth.JWTSecret)
	assert.Equal(t, Secret("strava-secret"), cfg.Upstream.ClientSecret)

	t.Run("defaults applied", func(t *testing.T) {
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, time.Hour, cfg.OAuth.AccessTokenTTL.Std())
		assert.Equal(t, 10*time.Minute, cfg.OAuth.RecordTTL.Std())
		assert.Equal(t, 5*time.Minute, cfg.OAuth.CleanupInterval.Std())
		assert.Equal(t, "memory", cfg.Storage.Backend)
		assert.Equal(t, "memory", cfg.Jobs.Queue)
	})
}

func TestLoadExplicitValues(t *testing.T) {
	setSecrets(t)

	cfg, err := Load(writeConfig(t, `{
		"server": {
			"baseURL": "https://auth.example.com",
			"addr": ":9999",
			"resourceURL": "https://api.example.com"
		},
		"oauth": {
			"jwtSecret": {"$env": "TEST_JWT_SECRET"},
			"accessTokenTtl": "30m",
			"recordTtl": "2m"
		},
		"upstream": {
			"clientId": "12345",
			"clientSecret": {"$env": "TEST_STRAVA_SECRET"},
			"scopes": ["read"]
		},
		"jobs": {
			"queue": "redis",
			"redisAddr": "localhost:6379"
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.OAuth.AccessTokenTTL.Std())
	assert.Equal(t, 2*time.Minute, cfg.OAuth.RecordTTL.Std())
	assert.Equal(t, []string{"read"}, cfg.Upstream.Scopes)
	assert.Equal(t, "redis", cfg.Jobs.Queue)
}

func TestLoadFailures(t *testing.T) {
	setSecrets(t)

	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "literal secret rejected",
			content: `{
				"server": {"baseURL": "https://auth.example.com", "resourceURL": "https://api.example.com"},
				"oauth": {"jwtSecret": "plain-text-secret-0123456789abcdef"},
				"upstream": {"clientId": "1", "clientSecret": {"$env": "TEST_STRAVA_SECRET"}}
			}`,
			wantErr: "$env",
		},
		{
			name: "missing env var",
			content: `{
				"server": {"baseURL": "https://auth.example.com", "resourceURL": "https://api.example.com"},
				"oauth": {"jwtSecret": {"$env": "DOES_NOT_EXIST_EVER"}},
				"upstream": {"clientId": "1", "clientSecret": {"$env": "TEST_STRAVA_SECRET"}}
			}`,
			wantErr: "DOES_NOT_EXIST_EVER",
		},
		{
			name: "missing base url",
			content: `{
				"server": {"resourceURL": "https://api.example.com"},
				"oauth": {"jwtSecret": {"$env": "TEST_JWT_SECRET"}},
				"upstream": {"clientId": "1", "clientSecret": {"$env": "TEST_STRAVA_SECRET"}}
			}`,
			wantErr: "baseURL",
		},
		{
			name: "short jwt secret",
			content: `{
				"server": {"baseURL": "https://auth.example.com", "resourceURL": "https://api.example.com"},
				"oauth": {"jwtSecret": {"$env": "TEST_SHORT_SECRET"}},
				"upstream": {"clientId": "1", "clientSecret": {"$env": "TEST_STRAVA_SECRET"}}
			}`,
			wantErr: "jwtSecret",
		},
		{
			name: "unknown storage backend",
			content: `{
				"server": {"baseURL": "https://auth.example.com", "resourceURL": "https://api.example.com"},
				"oauth": {"jwtSecret": {"$env": "TEST_JWT_SECRET"}},
				"upstream": {"clientId": "1", "clientSecret": {"$env": "TEST_STRAVA_SECRET"}},
				"storage": {"backend": "postgres"}
			}`,
			wantErr: "storage.backend",
		},
		{
			name: "firestore without project",
			content: `{
				"server": {"baseURL": "https://auth.example.com", "resourceURL": "https://api.example.com"},
				"oauth": {"jwtSecret": {"$env": "TEST_JWT_SECRET"}},
				"upstream": {"clientId": "1", "clientSecret": {"$env": "TEST_STRAVA_SECRET"}},
				"storage": {"backend": "firestore"}
			}`,
			wantErr: "gcpProject",
		},
		{
			name: "redis queue without addr",
			content: `{
				"server": {"baseURL": "https://auth.example.com", "resourceURL": "https://api.example.com"},
				"oauth": {"jwtSecret": {"$env": "TEST_JWT_SECRET"}},
				"upstream": {"clientId": "1", "clientSecret": {"$env": "TEST_STRAVA_SECRET"}},
				"jobs": {"queue": "redis"}
			}`,
			wantErr: "redisAddr",
		},
		{
			name: "bad duration",
			content: `{
				"server": {"baseURL": "https://auth.example.com", "resourceURL": "https://api.example.com"},
				"oauth": {"jwtSecret": {"$env": "TEST_JWT_SECRET"}, "recordTtl": "ten minutes"},
				"upstream": {"clientId": "1", "clientSecret": {"$env": "TEST_STRAVA_SECRET"}}
			}`,
			wantErr: "duration",
		},
	}

	t.Setenv("TEST_SHORT_SECRET", "too-short")

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSecretRedaction(t *testing.T) {
	assert.Equal(t, "***", Secret("super-secret").String())
	assert.Equal(t, "", Secret("").String())

	data, err := Secret("super-secret").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"***"`, string(data))
}
