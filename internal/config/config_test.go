package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfigFile(t, `{"port": 9090, "model": "anthropic/claude-3.7-sonnet", "scrape_workers": 4}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "anthropic/claude-3.7-sonnet", cfg.Model)
	assert.Equal(t, 4, cfg.ScrapeWorkers)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{not json`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := &Config{Provider: "watson"}
	assert.Error(t, cfg.Validate())

	cfg.Provider = "openrouter"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_NegativeWorkers(t *testing.T) {
	cfg := &Config{ScrapeWorkers: -1}
	assert.Error(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Model: "anthropic/claude-3.7-sonnet"}
	merged := cfg.MergeWithDefaults(Config{
		Model:         "ignored",
		Port:          8080,
		ScrapeWorkers: 8,
		Provider:      "openrouter",
	})

	assert.Equal(t, "anthropic/claude-3.7-sonnet", merged.Model)
	assert.Equal(t, 8080, merged.Port)
	assert.Equal(t, 8, merged.ScrapeWorkers)
	assert.Equal(t, "openrouter", merged.Provider)
}

func TestKeysFromEnv_Sanitizes(t *testing.T) {
	t.Setenv(EnvOpenRouterKey, ` "sk-or-test-key" `)
	t.Setenv(EnvTavilyKey, "")

	keys := KeysFromEnv()
	assert.Equal(t, "sk-or-test-key", keys.OpenRouter)
	assert.True(t, keys.HasOpenRouter())
	assert.False(t, keys.HasTavily())
	assert.False(t, keys.Complete())
}

func TestKeys_GeminiSatisfiesLLMRequirement(t *testing.T) {
	t.Setenv(EnvOpenRouterKey, "")
	t.Setenv(EnvGeminiKey, "gm-test-key")
	t.Setenv(EnvTavilyKey, "tv-test-key")

	keys := KeysFromEnv()
	assert.False(t, keys.HasOpenRouter())
	assert.True(t, keys.HasGemini())
	assert.Equal(t, "gm-test-key", keys.Gemini)
	assert.True(t, keys.Complete())
}

func TestKeysExport(t *testing.T) {
	t.Setenv(EnvOpenRouterKey, "")
	t.Setenv(EnvTavilyKey, "")

	Keys{OpenRouter: "or-key", Tavily: "tv-key"}.Export()
	assert.Equal(t, "or-key", os.Getenv(EnvOpenRouterKey))
	assert.Equal(t, "tv-key", os.Getenv(EnvTavilyKey))
}
