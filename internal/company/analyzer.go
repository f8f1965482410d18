package company

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hunter/lead-enricher/internal/crawling"
	"github.com/hunter/lead-enricher/internal/fetch"
	"github.com/hunter/lead-enricher/internal/llm"
	"github.com/hunter/lead-enricher/internal/prompts"
	"github.com/hunter/lead-enricher/internal/schemas"
	"github.com/hunter/lead-enricher/internal/search"
	"github.com/hunter/lead-enricher/internal/types"
)

const (
	// maxCorpusChars bounds how much website text goes into the prompt.
	maxCorpusChars = 12000
	// maxSearchResults bounds the supplementary Tavily lookup.
	maxSearchResults = 3
)

// Analyzer builds company contexts from a website URL.
// The search client is optional; without it only scraped content is used.
type Analyzer struct {
	llm      llm.Client
	search   *search.Client
	fetcher  *fetch.CachedFetcher
	maxPages int
}

// NewAnalyzer creates an Analyzer. searchClient may be nil.
func NewAnalyzer(llmClient llm.Client, searchClient *search.Client, fetcher *fetch.CachedFetcher) *Analyzer {
	return &Analyzer{
		llm:      llmClient,
		search:   searchClient,
		fetcher:  fetcher,
		maxPages: crawling.DefaultMaxPages,
	}
}

// llmContext mirrors the JSON shape the model is asked to produce.
type llmContext struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	TargetGeography string `json:"target_geography"`
	Confidence      string `json:"confidence"`
}

// Analyze crawls the company website, augments it with a web search, and
// asks the LLM for a structured company context. A user-supplied
// targetGeography always overrides whatever the model detects.
func (a *Analyzer) Analyze(ctx context.Context, companyURL, targetGeography string) (*types.CompanyContext, error) {
	corpus, err := crawling.CrawlCompanyCorpus(ctx, a.fetcher, companyURL, a.maxPages)
	if err != nil {
		return nil, &AnalysisError{
			URL:     companyURL,
			Message: "failed to crawl website",
			Cause:   err,
		}
	}

	websiteText := truncate(corpus.Text, maxCorpusChars)
	if strings.TrimSpace(websiteText) == "" {
		return nil, &AnalysisError{
			URL:     companyURL,
			Message: "no text could be extracted from the website",
		}
	}

	searchText, searchWarning := a.searchCompany(ctx, companyURL)

	template := prompts.MustGet("company.json", "analyze-context")
	prompt := prompts.Format(template, map[string]string{
		"URL":             companyURL,
		"TargetGeography": targetGeography,
		"WebsiteContent":  websiteText,
		"SearchResults":   searchText,
	})

	responseText, err := a.llm.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &AnalysisError{
			URL:     companyURL,
			Message: "LLM analysis failed",
			Cause:   err,
		}
	}

	if err := schemas.Validate(schemas.CompanyContext, responseText); err != nil {
		return nil, &AnalysisError{
			URL:     companyURL,
			Message: "LLM returned an invalid context",
			Cause:   err,
		}
	}

	var parsed llmContext
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, &AnalysisError{
			URL:     companyURL,
			Message: "failed to parse context JSON",
			Cause:   err,
		}
	}

	result := &types.CompanyContext{
		URL:             companyURL,
		Name:            parsed.Name,
		Description:     parsed.Description,
		TargetGeography: parsed.TargetGeography,
		WebsiteContent:  websiteText,
		Confidence:      parsed.Confidence,
		Warning:         searchWarning,
	}

	// User input wins over detection.
	if strings.TrimSpace(targetGeography) != "" {
		result.TargetGeography = targetGeography
	}

	return result, nil
}

// searchCompany runs a supplementary web search for the company. Search
// failures degrade to scraped-content-only analysis with a warning.
func (a *Analyzer) searchCompany(ctx context.Context, companyURL string) (text, warning string) {
	if a.search == nil {
		return "", ""
	}

	query := fmt.Sprintf("what does the company at %s do", companyURL)
	resp, err := a.search.Search(ctx, query, maxSearchResults)
	if err != nil {
		return "", "web search unavailable, analysis based on website content only"
	}

	var sb strings.Builder
	for _, r := range resp.Results {
		sb.WriteString(r.Title)
		sb.WriteString("\n")
		sb.WriteString(r.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
