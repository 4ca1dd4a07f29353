package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8484, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.Equal(t, "./data", cfg.Storage.DataPath)
	assert.Equal(t, 0.8, cfg.Storage.MergeThreshold)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "development", cfg.Security.Mode)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
llm:
  provider: anthropic
  api_key: sk-test
engine:
  top_k: 5
  model_intent_fallback: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 5, cfg.Engine.TopK)
	assert.True(t, cfg.Engine.ModelIntentFallback)
	// Untouched sections keep their defaults.
	assert.Equal(t, "sqlite", cfg.Storage.Engine)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("RECALL_PORT", "7070")
	t.Setenv("RECALL_LLM_PROVIDER", "openai")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("RECALL_STORAGE_ENGINE", "cassandra")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("RECALL_STORAGE_ENGINE", "postgres")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("RECALL_POSTGRES_DSN", "postgres://localhost/recall")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Engine)
}

func TestProductionRequiresToken(t *testing.T) {
	t.Setenv("RECALL_SECURITY_MODE", "production")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("RECALL_API_TOKEN", "secret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Security.APIToken)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/recall.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnvHonorsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("RECALL_CONFIG_FILE", path)
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestEnvTunableOverrides(t *testing.T) {
	t.Setenv("RECALL_MERGE_DECAY_FLOOR", "0.6")
	t.Setenv("RECALL_DECAY_BASE", "0.9")
	t.Setenv("RECALL_DECAY_HORIZON", "50")
	t.Setenv("RECALL_DECAY_FLOOR", "0.2")
	t.Setenv("RECALL_KEY_MATCH_BONUS", "0.4")
	t.Setenv("RECALL_FETCH_LIMIT", "25")
	t.Setenv("RECALL_EXTRACTION_CACHE_SIZE", "-1")
	t.Setenv("RECALL_LLM_TIMEOUT", "30s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Storage.MergeDecayFloor)
	assert.Equal(t, 0.9, cfg.Engine.DecayBase)
	assert.Equal(t, 50.0, cfg.Engine.DecayHorizon)
	assert.Equal(t, 0.2, cfg.Engine.DecayFloor)
	assert.Equal(t, 0.4, cfg.Engine.KeyMatchBonus)
	assert.Equal(t, 25, cfg.Engine.FetchLimit)
	assert.Equal(t, -1, cfg.Engine.ExtractionCacheSize)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
}

func TestEnvBoolParsing(t *testing.T) {
	t.Setenv("RECALL_MODEL_INTENT_FALLBACK", "yes")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Engine.ModelIntentFallback)
}
