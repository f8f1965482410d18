// Package config provides configuration loading and validation for the CLI
// and server, plus the upstream API key environment handling.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided
// via CLI flags.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Enrichment behavior
	Model         string `json:"model,omitempty"`          // LLM model identifier
	Provider      string `json:"provider,omitempty"`       // "openrouter" or "gemini"
	ScrapeWorkers int    `json:"scrape_workers,omitempty"` // Concurrent website fetches
	AnalyzeLimit  int    `json:"analyze_limit,omitempty"`  // Max rows per analysis run (0 = all)
	UseBrowser    bool   `json:"use_browser,omitempty"`    // Headless browser fallback for SPA sites
	Verbose       bool   `json:"verbose,omitempty"`        // Print detailed progress information

	// Upstreams
	OpenRouterKey string `json:"openrouter_api_key,omitempty"`
	GeminiKey     string `json:"gemini_api_key,omitempty"`
	TavilyKey     string `json:"tavily_api_key,omitempty"`
	DatabaseURL   string `json:"database_url,omitempty"` // Optional page-cache database
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be a valid TCP port")
	}
	if c.ScrapeWorkers < 0 {
		return fmt.Errorf("config error: 'scrape_workers' must be non-negative")
	}
	if c.AnalyzeLimit < 0 {
		return fmt.Errorf("config error: 'analyze_limit' must be non-negative")
	}
	if c.Provider != "" && c.Provider != "openrouter" && c.Provider != "gemini" {
		return fmt.Errorf("config error: unknown provider %q", c.Provider)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.ScrapeWorkers == 0 {
		result.ScrapeWorkers = defaults.ScrapeWorkers
	}
	if result.AnalyzeLimit == 0 {
		result.AnalyzeLimit = defaults.AnalyzeLimit
	}
	if result.OpenRouterKey == "" {
		result.OpenRouterKey = defaults.OpenRouterKey
	}
	if result.GeminiKey == "" {
		result.GeminiKey = defaults.GeminiKey
	}
	if result.TavilyKey == "" {
		result.TavilyKey = defaults.TavilyKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
