package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Embedding.MaxWorkers)
	assert.Equal(t, 3, cfg.Embedding.RetryBudget)
	assert.Equal(t, 0.7, cfg.Embedding.VectorWeight)
	assert.NotEmpty(t, cfg.Store.Path, "missing store path falls back to DefaultDataPath")
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "does-not-exist.yaml"))
	require.NoError(t, err)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  path: /tmp/custom-index.db
embedding:
  provider: openai
  model: text-embedding-3-small
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-index.db", cfg.Store.Path)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	t.Setenv("SKILLSPLIT_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestSecretChainResolvesFromConfigSecretsBlock(t *testing.T) {
	cfg := &Config{Secrets: map[string]string{"embedding.api_key": "sk-test"}}
	chain := cfg.SecretChain(nil)

	v, err := chain.Resolve("embedding.api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", v)
}
