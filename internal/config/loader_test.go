package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
database:
  driver: postgres
  host: db.internal
session:
  secret: file-secret
jwt:
  secret: file-jwt
  access_ttl: 10m
`)
	t.Setenv("WORKFORCE_DATABASE_HOST", "db.override")
	t.Setenv("WORKFORCE_JWT_REFRESH_TTL", "48h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 48*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, SessionStoreCookie, cfg.Session.Store)
	assert.Equal(t, 30, cfg.Notifications.ReadRetentionDays)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("WORKFORCE_DATABASE_DRIVER", "sqlite")
	t.Setenv("WORKFORCE_DATABASE_DSN", "file::memory:")
	t.Setenv("WORKFORCE_SESSION_SECRET", "s")
	t.Setenv("WORKFORCE_JWT_SECRET", "j")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.secret is required")
	assert.Contains(t, err.Error(), "jwt.secret is required")

	cfg.Session.Secret = "s"
	cfg.JWT.Secret = "j"
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = DriverMySQL
	cfg.JWT.AccessTTL = cfg.JWT.RefreshTTL
	assert.Error(t, cfg.Validate())
}

func TestServerOrigins(t *testing.T) {
	s := ServerConfig{AllowedOrigins: " http://a.example , ,http://b.example"}
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, s.Origins())
	assert.Empty(t, ServerConfig{}.Origins())
}
