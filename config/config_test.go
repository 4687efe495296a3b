package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "forum.db", cfg.Database.DSN)
	assert.Equal(t, 14*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "forum_session", cfg.Session.CookieName)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forum.yaml")
	content := `
httpAddr: ":8080"
database:
  driver: postgres
  dsn: "host=localhost user=forum dbname=forum sslmode=disable"
redis:
  addr: "localhost:6379"
session:
  secretKey: from-file
  ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("FORUM_HTTP_ADDR", ":9090")
	t.Setenv("JWT_SECRET_KEY", "from-env")
	t.Setenv("FORUM_COOKIE_SECURE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=localhost user=forum dbname=forum sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "from-env", cfg.Session.SecretKey)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.CookieSecure)
	// untouched by file and env
	assert.Equal(t, "forum_session", cfg.Session.CookieName)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("httpAddr: \":7000\"\n"), 0o600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"FORUM_DB_DRIVER": "mysql"},
		},
		{
			name: "bad ttl",
			env:  map[string]string{"FORUM_SESSION_TTL": "forever"},
		},
		{
			name: "bad bool",
			env:  map[string]string{"FORUM_DB_DEBUG": "maybe"},
		},
		{
			name: "negative ttl",
			env:  map[string]string{"FORUM_SESSION_TTL": "-1h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigPath, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
