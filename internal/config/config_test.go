package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "data/events.db", cfg.DatabasePath)
	assert.True(t, cfg.UsingDevSecret())
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen: 0.0.0.0:9000\nwebhook_secret: s3cret\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "s3cret", cfg.WebhookSecret)
	assert.False(t, cfg.UsingDevSecret())
	// Unset keys keep their defaults.
	assert.Equal(t, "data/events.db", cfg.DatabasePath)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen: 0.0.0.0:9000\nwebhook_secret: from-file\n"), 0o600))

	t.Setenv("GITHUB_WEBHOOK_SECRET", "from-env")
	t.Setenv("REPOPULSE_DB_PATH", "/tmp/other.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.WebhookSecret)
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [broken\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsEmptySecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("webhook_secret: \"\"\n"), 0o600))

	// YAML can blank the secret; validation must catch it.
	_, err := Load(path)
	require.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: 0.0.0.0:9000\n"), 0o600))

	fp1, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Len(t, fp1, 64)

	fp2, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2, "fingerprint should be deterministic")

	require.NoError(t, os.WriteFile(path, []byte("listen: 0.0.0.0:9001\n"), 0o600))
	fp3, err := Fingerprint(path)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3, "changed file should change fingerprint")
}
