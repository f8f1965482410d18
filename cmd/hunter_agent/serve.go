package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hunter/lead-enricher/internal/config"
	"github.com/hunter/lead-enricher/internal/server"
)

var (
	servePort       int
	serveConfigPath string
	serveProvider   string
	serveModel      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for the enrichment workflow: session management, CSV upload, column mapping, website scraping, company context approval, personality analysis and download.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to JSON config file")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "LLM provider: openrouter or gemini")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Override the LLM model identifier")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Config{
		Port:        servePort,
		Provider:    serveProvider,
		Model:       serveModel,
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	if serveConfigPath != "" {
		fileCfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Keys from the config file become process env so the server and any
	// later key updates share one source of truth. Env values set directly
	// take precedence over the config file.
	env := config.KeysFromEnv()
	if env.OpenRouter == "" {
		env.OpenRouter = cfg.OpenRouterKey
	}
	if env.Gemini == "" {
		env.Gemini = cfg.GeminiKey
	}
	if env.Tavily == "" {
		env.Tavily = cfg.TavilyKey
	}
	env.Export()

	srv, err := server.New(&cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
