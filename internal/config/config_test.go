package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// env returns a lookup function backed by a map
func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(nil, env(map[string]string{"FILMAPI_JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "filmapi.db", cfg.Storage.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.RateLimit.TrustProxy)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := load(nil, env(nil))
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":7000"
storage:
  driver: bolt
  path: from-file.bolt
auth:
  jwt_secret: file-secret
  token_ttl: 1h
log:
  level: debug
cors:
  allowed_origins:
    - https://file.example.com
`)

	tests := []struct {
		name       string
		args       []string
		env        map[string]string
		wantAddr   string
		wantPath   string
		wantSecret string
		wantTTL    time.Duration
		wantCORS   []string
	}{
		{
			name:       "file over defaults",
			args:       []string{"--config", path},
			wantAddr:   ":7000",
			wantPath:   "from-file.bolt",
			wantSecret: "file-secret",
			wantTTL:    time.Hour,
			wantCORS:   []string{"https://file.example.com"},
		},
		{
			name: "env over file",
			args: []string{"-c", path},
			env: map[string]string{
				"PORT":                 "9000",
				"FILMAPI_STORAGE_PATH": "from-env.bolt",
				"FILMAPI_TOKEN_TTL":    "30m",
				"FILMAPI_CORS_ORIGINS": "https://a.example.com, https://b.example.com",
			},
			wantAddr:   ":9000",
			wantPath:   "from-env.bolt",
			wantSecret: "file-secret",
			wantTTL:    30 * time.Minute,
			wantCORS:   []string{"https://a.example.com", "https://b.example.com"},
		},
		{
			name: "flags over env",
			args: []string{"-c", path, "--addr", ":6000", "-s", "flag-secret", "--cors-origin", "https://flag.example.com"},
			env: map[string]string{
				"FILMAPI_ADDR":         ":9001",
				"FILMAPI_JWT_SECRET":   "env-secret",
				"FILMAPI_CORS_ORIGINS": "https://env.example.com",
			},
			wantAddr:   ":6000",
			wantPath:   "from-file.bolt",
			wantSecret: "flag-secret",
			wantTTL:    time.Hour,
			wantCORS:   []string{"https://flag.example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(tt.args, env(tt.env))
			require.NoError(t, err)

			assert.Equal(t, tt.wantAddr, cfg.Server.Addr)
			assert.Equal(t, DriverBolt, cfg.Storage.Driver)
			assert.Equal(t, tt.wantPath, cfg.Storage.Path)
			assert.Equal(t, tt.wantSecret, cfg.Auth.JWTSecret)
			assert.Equal(t, tt.wantTTL, cfg.Auth.TokenTTL)
			assert.Equal(t, tt.wantCORS, cfg.CORS.AllowedOrigins)
			assert.Equal(t, "debug", cfg.Log.Level)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	base := map[string]string{"FILMAPI_JWT_SECRET": "s3cret"}
	with := func(k, v string) map[string]string {
		m := map[string]string{k: v}
		for key, val := range base {
			if _, ok := m[key]; !ok {
				m[key] = val
			}
		}
		return m
	}

	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown flag", args: []string{"--nope"}, env: base},
		{name: "missing config file", args: []string{"-c", filepath.Join(t.TempDir(), "absent.yaml")}, env: base},
		{name: "bad ttl env", env: with("FILMAPI_TOKEN_TTL", "forever")},
		{name: "negative ttl", args: []string{"--token-ttl=-1h"}, env: base},
		{name: "bad bcrypt env", env: with("FILMAPI_BCRYPT_COST", "ten")},
		{name: "bad trust proxy env", env: with("FILMAPI_TRUST_PROXY", "sometimes")},
		{name: "bcrypt out of range", args: []string{"--bcrypt-cost", "40"}, env: base},
		{name: "unknown driver", args: []string{"--storage-driver", "mongo"}, env: base},
		{name: "empty path", args: []string{"--storage-path", ""}, env: base},
		{name: "unknown log format", args: []string{"--log-format", "xml"}, env: base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(tt.args, env(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_TrustProxy(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: file-secret
rate_limit:
  trust_proxy: true
`)

	tests := []struct {
		name string
		args []string
		env  map[string]string
		want bool
	}{
		{name: "off by default", args: nil, env: map[string]string{"FILMAPI_JWT_SECRET": "x"}, want: false},
		{name: "file", args: []string{"-c", path}, want: true},
		{name: "env over file", args: []string{"-c", path}, env: map[string]string{"FILMAPI_TRUST_PROXY": "false"}, want: false},
		{
			name: "flag over env",
			args: []string{"-c", path, "--trust-proxy"},
			env:  map[string]string{"FILMAPI_TRUST_PROXY": "false"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(tt.args, env(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.RateLimit.TrustProxy)
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [unterminated")
	_, err := load([]string{"-c", path}, env(map[string]string{"FILMAPI_JWT_SECRET": "x"}))
	assert.Error(t, err)
}

func TestLoad_Version(t *testing.T) {
	// --version не требует секрета
	cfg, err := load([]string{"--version"}, env(nil))
	require.NoError(t, err)
	assert.True(t, cfg.ShowVersion)
}
