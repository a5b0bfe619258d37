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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "0123456789abcdef-secret"
meeting:
  join_grace_hours: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Meeting.JoinGraceHours)
	assert.Equal(t, 6, cfg.Meeting.CodeLength)
	assert.Equal(t, 2*time.Hour, cfg.Meeting.BrowseLookback)
	assert.Equal(t, 10*time.Minute, cfg.Meeting.CodeAttemptTTL)
	assert.Equal(t, "#lcreport", cfg.Karma.CircleReport.Hashtag)
	assert.Equal(t, 30, cfg.Karma.CircleReport.Amount)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "0123456789abcdef-secret"
server:
  port: 9000
`)
	t.Setenv("LC_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidate_CodeLength(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080},
		Auth:    AuthConfig{JWTSecret: "0123456789abcdef"},
		Meeting: MeetingConfig{CodeLength: 2},
	}
	assert.Error(t, cfg.Validate())

	cfg.Meeting.CodeLength = 6
	assert.NoError(t, cfg.Validate())
}
