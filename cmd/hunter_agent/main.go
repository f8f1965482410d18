// Package main provides the entry point for the lead enricher CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hunter_agent",
	Short: "Lead enrichment workflow",
	Long:  "Lead enricher scrapes contact websites, builds an approved company context, and runs per-contact personality analysis to produce an enriched CSV, via REST API or headless CLI run.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
