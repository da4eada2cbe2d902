package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PAYHUB_API_URL", "")
	t.Setenv("PAYHUB_HTTP_TIMEOUT", "")
	t.Setenv("PAYHUB_LOG_LEVEL", "")
	t.Setenv("PAYHUB_LOG_FORMAT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.API.URL)
	assert.Zero(t, cfg.API.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PAYHUB_API_URL", "https://pay.example.com/api/v1/auth")
	t.Setenv("PAYHUB_HTTP_TIMEOUT", "15s")
	t.Setenv("PAYHUB_EMAIL", "a@b.com")
	t.Setenv("PAYHUB_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/api/v1/auth", cfg.API.URL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "a@b.com", cfg.Credentials.Email)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PAYHUB_HTTP_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYHUB_HTTP_TIMEOUT")
}
