package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DASHBOARD_API_URL", "https://fedskillstest.example.test/api/patients")
	t.Setenv("DASHBOARD_API_USERNAME", "coalition")
	t.Setenv("DASHBOARD_API_PASSWORD", "skills-test")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.False(t, cfg.Server.TLS.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, float64(30), cfg.RateLimit.RPS)
	assert.Equal(t, 30, cfg.RateLimit.Burst)
	assert.Empty(t, cfg.Audit.ElasticsearchURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadFrom_Environment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DASHBOARD_API_TIMEOUT", "15s")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("ELASTICSEARCH_URL", "http://localhost:9200")

	cfg, err := LoadFrom()
	require.NoError(t, err)

	assert.Equal(t, "https://fedskillstest.example.test/api/patients", cfg.API.URL)
	assert.Equal(t, "coalition", cfg.API.Username)
	assert.Equal(t, "skills-test", cfg.API.Password)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "http://localhost:9200", cfg.Audit.ElasticsearchURL)
}

func TestLoadFrom_File(t *testing.T) {
	path := writeConfig(t, `
api:
  url: https://file.example.test/patients
  username: file-user
  password: file-pass
  timeout: 5s
server:
  port: 7070
  mode: debug
log:
  level: debug
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.test/patients", cfg.API.URL)
	assert.Equal(t, "file-user", cfg.API.Username)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadFrom_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  url: https://file.example.test/patients
  username: file-user
  password: file-pass
server:
  port: 7070
`)
	t.Setenv("DASHBOARD_API_USERNAME", "env-user")
	t.Setenv("SERVER_PORT", "6060")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "env-user", cfg.API.Username)
	assert.Equal(t, "file-pass", cfg.API.Password)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoadFrom_FirstReadableFileWins(t *testing.T) {
	first := writeConfig(t, "api:\n  url: https://first.example.test\n  username: a\n  password: b\n")
	second := writeConfig(t, "api:\n  url: https://second.example.test\n  username: a\n  password: b\n")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"), first, second)
	require.NoError(t, err)
	assert.Equal(t, "https://first.example.test", cfg.API.URL)
}

func TestLoadFrom_MissingRequired(t *testing.T) {
	t.Setenv("DASHBOARD_API_URL", "https://fedskillstest.example.test/api/patients")

	cfg, err := LoadFrom()
	assert.Nil(t, cfg)
	require.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), "DASHBOARD_API_USERNAME")
	assert.Contains(t, err.Error(), "DASHBOARD_API_PASSWORD")
	assert.NotContains(t, err.Error(), "DASHBOARD_API_URL")
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "api: [unterminated")

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidate_TLSRequiresFiles(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_TLS_ENABLED", "true")

	_, err := LoadFrom()
	assert.ErrorIs(t, err, ErrMissingSetting)

	t.Setenv("SERVER_TLS_CERT_FILE", "/tmp/cert.pem")
	t.Setenv("SERVER_TLS_KEY_FILE", "/tmp/key.pem")
	cfg, err := LoadFrom()
	require.NoError(t, err)
	assert.True(t, cfg.Server.TLS.Enabled)
}
