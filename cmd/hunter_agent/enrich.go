package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hunter/lead-enricher/internal/company"
	"github.com/hunter/lead-enricher/internal/config"
	"github.com/hunter/lead-enricher/internal/fetch"
	"github.com/hunter/lead-enricher/internal/llm"
	"github.com/hunter/lead-enricher/internal/observability"
	"github.com/hunter/lead-enricher/internal/personality"
	"github.com/hunter/lead-enricher/internal/scrape"
	"github.com/hunter/lead-enricher/internal/search"
	"github.com/hunter/lead-enricher/internal/table"
	"github.com/hunter/lead-enricher/internal/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run the full enrichment pipeline on a CSV file",
	Long: `Headless version of the web workflow: load a contacts CSV, scrape each
contact's website, generate (or take from flags) a company context, run
personality analysis and write the enriched CSV.

The company context is auto-approved in this mode. Use the REST server
when a human should review the context before analysis starts.`,
	RunE: runEnrich,
}

var (
	enrichIn          string
	enrichOut         string
	enrichWebsiteCol  string
	enrichNameCol     string
	enrichCompanyURL  string
	enrichCompanyName string
	enrichCompanyDesc string
	enrichGeography   string
	enrichLimit       int
	enrichWorkers     int
	enrichUseBrowser  bool
	enrichVerbose     bool
	enrichScrapeOnly  bool
	enrichDropFailed  bool
	enrichProvider    string
	enrichModel       string
)

func init() {
	enrichCmd.Flags().StringVarP(&enrichIn, "in", "i", "", "Input contacts CSV (required)")
	enrichCmd.Flags().StringVarP(&enrichOut, "out", "o", "", "Output CSV path (required)")
	enrichCmd.Flags().StringVar(&enrichWebsiteCol, "website-column", "", "Column holding contact websites (default: guessed)")
	enrichCmd.Flags().StringVar(&enrichNameCol, "name-column", "", "Column holding contact names (default: guessed)")
	enrichCmd.Flags().StringVar(&enrichCompanyURL, "company-url", "", "Your company's website, analyzed to build the context")
	enrichCmd.Flags().StringVar(&enrichCompanyName, "company-name", "", "Company name for a manually supplied context")
	enrichCmd.Flags().StringVar(&enrichCompanyDesc, "company-description", "", "Company description for a manually supplied context")
	enrichCmd.Flags().StringVar(&enrichGeography, "geography", "", "Target geography, kept verbatim in the context")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "Max contacts to analyze (0 = all)")
	enrichCmd.Flags().IntVar(&enrichWorkers, "workers", scrape.DefaultWorkers, "Concurrent website fetches")
	enrichCmd.Flags().BoolVar(&enrichUseBrowser, "use-browser", false, "Retry thin pages with a headless browser")
	enrichCmd.Flags().BoolVar(&enrichVerbose, "verbose", false, "Print per-row progress")
	enrichCmd.Flags().BoolVar(&enrichScrapeOnly, "scrape-only", false, "Stop after scraping, skip analysis")
	enrichCmd.Flags().BoolVar(&enrichDropFailed, "drop-failed", false, "Remove rows whose scrape failed before analysis")
	enrichCmd.Flags().StringVar(&enrichProvider, "provider", "", "LLM provider: openrouter or gemini")
	enrichCmd.Flags().StringVar(&enrichModel, "model", "", "Override the LLM model identifier")

	if err := enrichCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	if err := enrichCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	printer := observability.NewPrinter(os.Stdout)

	tbl, err := loadContacts(enrichIn)
	if err != nil {
		return err
	}

	websiteCol, nameCol, err := resolveColumns(tbl)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d contacts from %s (website: %q, name: %q)\n",
		tbl.Len(), enrichIn, websiteCol, nameCol)

	// Scrape. No cache database in CLI mode; every fetch hits the network.
	fetcher := fetch.NewCachedFetcher(nil, nil)
	scraper := scrape.New(fetcher, &scrape.Options{
		Workers:    enrichWorkers,
		UseBrowser: enrichUseBrowser,
		Verbose:    enrichVerbose,
	})
	summary, err := scraper.Table(ctx, tbl, websiteCol)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	printer.PrintScrapeSummary(summary)

	if enrichDropFailed {
		removed := tbl.RemoveFailedRows()
		if removed > 0 {
			fmt.Printf("Dropped %d rows with failed scrapes, %d remain\n", removed, tbl.Len())
		}
	}

	if enrichScrapeOnly {
		return writeContacts(tbl, enrichOut)
	}

	keys := config.KeysFromEnv()
	llmClient, err := newLLMClient(ctx, keys)
	if err != nil {
		return err
	}
	defer func() { _ = llmClient.Close() }()

	var searchClient *search.Client
	if keys.HasTavily() {
		if searchClient, err = search.NewClient(keys.Tavily); err != nil {
			return fmt.Errorf("search client: %w", err)
		}
	}

	companyCtx, err := buildCompanyContext(ctx, llmClient, searchClient, fetcher)
	if err != nil {
		return err
	}
	printer.PrintCompanyContext(companyCtx)

	analyzer := personality.NewAnalyzer(llmClient, searchClient, 0)
	result, err := analyzer.Table(ctx, tbl, nameCol, companyCtx, enrichLimit)
	if err != nil {
		return fmt.Errorf("personality analysis failed: %w", err)
	}
	printer.PrintAnalysisSummary(result.Analyzed, result.Skipped, result.Failed)

	for idx, profile := range result.Profiles {
		printer.PrintProfileSample(tbl.Get(idx, nameCol), &profile)
		break
	}

	tbl.MergeProfiles(result.Profiles, companyCtx.Stamp())
	return writeContacts(tbl, enrichOut)
}

func loadContacts(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	tbl, err := table.LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return tbl, nil
}

// resolveColumns applies the column flags, falling back to header guessing.
// Separate first/last name columns are combined into full_name.
func resolveColumns(tbl *table.Table) (websiteCol, nameCol string, err error) {
	websiteCol = enrichWebsiteCol
	if websiteCol == "" {
		websiteCol = tbl.GuessWebsiteColumn()
	}
	if websiteCol == "" {
		return "", "", fmt.Errorf("could not find a website column, use --website-column")
	}
	if !tbl.HasColumn(websiteCol) {
		return "", "", fmt.Errorf("website column %q not found in CSV", websiteCol)
	}

	nameCol = enrichNameCol
	if nameCol == "" {
		if first, last := tbl.FindNameComponents(); first != "" && last != "" {
			tbl.CombineNames(first, last)
			nameCol = table.ColFullName
		} else if first != "" {
			nameCol = first
		}
	}
	if nameCol != "" && !tbl.HasColumn(nameCol) {
		return "", "", fmt.Errorf("name column %q not found in CSV", nameCol)
	}
	return websiteCol, nameCol, nil
}

func newLLMClient(ctx context.Context, keys config.Keys) (llm.Client, error) {
	llmCfg := llm.DefaultOpenRouterConfig()
	apiKey := keys.OpenRouter
	keyName := config.EnvOpenRouterKey
	if enrichProvider == string(llm.ProviderGemini) {
		llmCfg = llm.DefaultGeminiConfig()
		apiKey = keys.Gemini
		keyName = config.EnvGeminiKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key required: set %s (or use --scrape-only)", keyName)
	}
	if enrichModel != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, enrichModel)
	}
	return llm.NewClient(ctx, llmCfg, apiKey)
}

// buildCompanyContext analyzes --company-url when given, otherwise uses the
// manual flags. Either path auto-approves since no reviewer is present.
func buildCompanyContext(ctx context.Context, llmClient llm.Client, searchClient *search.Client, fetcher *fetch.CachedFetcher) (*types.CompanyContext, error) {
	if enrichCompanyURL != "" {
		analyzer := company.NewAnalyzer(llmClient, searchClient, fetcher)
		companyCtx, err := analyzer.Analyze(ctx, enrichCompanyURL, enrichGeography)
		if err != nil {
			return nil, fmt.Errorf("company analysis failed: %w", err)
		}
		return companyCtx, nil
	}

	if enrichCompanyDesc == "" {
		return nil, fmt.Errorf("a company context is required: set --company-url or --company-description")
	}
	return &types.CompanyContext{
		Name:            enrichCompanyName,
		Description:     enrichCompanyDesc,
		TargetGeography: enrichGeography,
	}, nil
}

func writeContacts(tbl *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := tbl.WriteCSV(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Wrote %d rows to %s\n", tbl.Len(), path)
	return nil
}
