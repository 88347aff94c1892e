package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimal = `
env: dev
storage_path: storage/test.db
http_server:
  address: localhost:8082
auth:
  jwt_secret: 0123456789abcdef0123
admin:
  password: admin123
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "storage/test.db", cfg.StoragePath)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "localhost:8082", cfg.HTTPServer.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPServer.IdleTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 50, cfg.Rooms.Count)
	assert.Equal(t, 101, cfg.Rooms.FirstNumber)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "System Administrator", cfg.Admin.FullName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ROOMS_COUNT", "5")
	t.Setenv("AUTH_TOKEN_TTL", "1h")

	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Rooms.Count)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_Rejects(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `
env: qa
storage_path: x.db
http_server:
  address: localhost:1
auth:
  jwt_secret: 0123456789abcdef0123
admin:
  password: p
`))
	assert.ErrorContains(t, err, "invalid env")

	_, err = Load(writeConfig(t, `
env: dev
storage_path: x.db
http_server:
  address: localhost:1
auth:
  jwt_secret: short
admin:
  password: p
`))
	assert.ErrorContains(t, err, "jwt_secret")
}
