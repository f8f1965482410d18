package config

import (
	"os"
	"strings"
)

// Environment variable names for upstream API keys.
const (
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvTavilyKey     = "TAVILY_API_KEY"
	EnvDatabaseURL   = "DATABASE_URL"
)

// Keys holds the upstream credentials the enrichment workflow depends on.
// Absence is not fatal at startup; analysis endpoints fail with a
// failed-dependency error until keys are supplied.
type Keys struct {
	OpenRouter string
	Gemini     string
	Tavily     string
}

// KeysFromEnv reads upstream keys from the environment.
func KeysFromEnv() Keys {
	return Keys{
		OpenRouter: sanitizeKey(os.Getenv(EnvOpenRouterKey)),
		Gemini:     sanitizeKey(os.Getenv(EnvGeminiKey)),
		Tavily:     sanitizeKey(os.Getenv(EnvTavilyKey)),
	}
}

// HasOpenRouter reports whether the OpenRouter gateway key is present.
func (k Keys) HasOpenRouter() bool { return k.OpenRouter != "" }

// HasGemini reports whether the Gemini key is present.
func (k Keys) HasGemini() bool { return k.Gemini != "" }

// HasTavily reports whether the search key is present.
func (k Keys) HasTavily() bool { return k.Tavily != "" }

// Complete reports whether the workflow can run end to end: an LLM key for
// at least one provider plus the search key.
func (k Keys) Complete() bool {
	return (k.HasOpenRouter() || k.HasGemini()) && k.HasTavily()
}

// Export writes the keys back to the environment for the current process,
// mirroring the original session-scoped key entry form.
func (k Keys) Export() {
	if k.OpenRouter != "" {
		_ = os.Setenv(EnvOpenRouterKey, k.OpenRouter)
	}
	if k.Gemini != "" {
		_ = os.Setenv(EnvGeminiKey, k.Gemini)
	}
	if k.Tavily != "" {
		_ = os.Setenv(EnvTavilyKey, k.Tavily)
	}
}

// sanitizeKey strips quotes and whitespace that tend to ride along when keys
// are pasted from shell files.
func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, `"`, "")
	return key
}
