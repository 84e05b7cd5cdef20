package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "jobtracker", cfg.Auth.JWT.Issuer)
	require.Equal(t, 15*time.Minute, cfg.Auth.JWT.AccessTTL)
	require.Equal(t, 168*time.Hour, cfg.Auth.JWT.RefreshTTL)
	require.Equal(t, 72*time.Hour, cfg.Auth.AccountTokens.Expiry)
	require.False(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "http://localhost:3000", cfg.URLs.Frontend)
	require.Equal(t, "http://localhost:8000", cfg.URLs.Backend)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
server:
  port: 9000
auth:
  secret_key: file-secret
  jwt:
    access_token_ttl: 5m
urls:
  frontend: https://app.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "file-secret", cfg.Auth.SecretKey)
	require.Equal(t, 5*time.Minute, cfg.Auth.JWT.AccessTTL)
	require.Equal(t, "https://app.example.com", cfg.URLs.Frontend)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("JOBTRACKER_SERVER_PORT", "9100")
	t.Setenv("JOBTRACKER_AUTH_SECRET_KEY", "env-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "env-secret", cfg.Auth.SecretKey)
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Error(t, cfg.Validate())

	cfg.Auth.SecretKey = "secret"
	require.NoError(t, cfg.Validate())
}

func TestConfigMappers(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.Auth.SecretKey = "secret"

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, "secret", jwtCfg.Secret)
	require.Equal(t, "jobtracker", jwtCfg.Issuer)
	require.Equal(t, 15*time.Minute, jwtCfg.AccessTokenTTL)

	tokenCfg := cfg.AccountTokenServiceConfig()
	require.Equal(t, "secret", tokenCfg.Secret)
	require.Equal(t, 72*time.Hour, tokenCfg.Expiry)

	dbCfg := cfg.DatabaseServiceConfig()
	require.Equal(t, "sqlite", dbCfg.Driver)
	require.Equal(t, "./data/jobtracker.sqlite", dbCfg.Path)
}
