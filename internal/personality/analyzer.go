// Package personality runs the per-contact LLM analysis that produces the
// personality, conversation style and interest columns.
package personality

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hunter/lead-enricher/internal/llm"
	"github.com/hunter/lead-enricher/internal/prompts"
	"github.com/hunter/lead-enricher/internal/schemas"
	"github.com/hunter/lead-enricher/internal/search"
	"github.com/hunter/lead-enricher/internal/table"
	"github.com/hunter/lead-enricher/internal/types"
)

const (
	// DefaultWorkers is the number of concurrent LLM calls.
	DefaultWorkers = 3
	// maxContentChars bounds how much scraped text goes into one prompt.
	maxContentChars = 8000
	// maxSearchResults bounds the optional per-contact search lookup.
	maxSearchResults = 2
)

// AnalysisError represents a failure in personality analysis
type AnalysisError struct {
	Row     int
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("personality analysis error for row %d: %s: %v", e.Row, e.Message, e.Cause)
	}
	return fmt.Sprintf("personality analysis error for row %d: %s", e.Row, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Analyzer produces personality profiles for contacts whose websites were
// scraped successfully. The search client is optional.
type Analyzer struct {
	llm     llm.Client
	search  *search.Client
	workers int
}

// NewAnalyzer creates an Analyzer. searchClient may be nil.
func NewAnalyzer(llmClient llm.Client, searchClient *search.Client, workers int) *Analyzer {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Analyzer{
		llm:     llmClient,
		search:  searchClient,
		workers: workers,
	}
}

// llmProfile mirrors the JSON shape the model is asked to produce.
type llmProfile struct {
	PersonalityAnalysis   string `json:"personality_analysis"`
	ConversationStyle     string `json:"conversation_style"`
	ProfessionalInterests string `json:"professional_interests"`
}

// Result reports a batch analysis outcome.
type Result struct {
	Profiles map[int]types.PersonalityProfile
	Analyzed int
	Skipped  int
	Failed   int
}

// Table analyzes up to limit eligible rows and returns profiles keyed by
// original row index. Rows whose website_content marks a scrape failure
// are skipped, never sent to the model. A limit <= 0 means no limit.
// Individual row failures are counted, not fatal.
func (a *Analyzer) Table(ctx context.Context, tbl *table.Table, nameColumn string, companyCtx *types.CompanyContext, limit int) (*Result, error) {
	if tbl == nil || tbl.Len() == 0 {
		return &Result{Profiles: map[int]types.PersonalityProfile{}}, nil
	}

	contextText := ""
	if companyCtx != nil {
		contextText = companyCtx.Name + "\n" + companyCtx.Description
		if companyCtx.TargetGeography != "" {
			contextText += "\nTarget geography: " + companyCtx.TargetGeography
		}
	}

	result := &Result{Profiles: make(map[int]types.PersonalityProfile)}

	// Pick eligible rows up front so the limit counts analyzable contacts.
	eligible := make([]int, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		content := tbl.Get(i, table.ColWebsiteContent)
		if table.IsFailedContent(content) {
			result.Skipped++
			continue
		}
		eligible = append(eligible, i)
	}
	if limit > 0 && len(eligible) > limit {
		result.Skipped += len(eligible) - limit
		eligible = eligible[:limit]
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, row := range eligible {
		row := row
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			profile, err := a.analyzeRow(gctx, tbl, row, nameColumn, contextText)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				return nil
			}
			result.Profiles[row] = *profile
			result.Analyzed++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// analyzeRow runs the LLM analysis for a single contact.
func (a *Analyzer) analyzeRow(ctx context.Context, tbl *table.Table, row int, nameColumn, contextText string) (*types.PersonalityProfile, error) {
	contactName := strings.TrimSpace(tbl.Get(row, nameColumn))
	if contactName == "" {
		contactName = "Unknown contact"
	}

	content := truncate(tbl.Get(row, table.ColWebsiteContent), maxContentChars)
	searchText := a.searchContact(ctx, contactName, tbl.Get(row, table.ColWebsiteLinks))
	language := strings.TrimSpace(tbl.Get(row, table.ColWebsiteLanguage))
	if language == "" {
		language = "unknown"
	}

	template := prompts.MustGet("personality.json", "analyze-personality")
	prompt := prompts.Format(template, map[string]string{
		"ContactName":    contactName,
		"WebsiteContent": content,
		"Language":       language,
		"SearchResults":  searchText,
		"CompanyContext": contextText,
	})

	responseText, err := a.llm.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &AnalysisError{Row: row, Message: "LLM call failed", Cause: err}
	}

	if err := schemas.Validate(schemas.Personality, responseText); err != nil {
		return nil, &AnalysisError{Row: row, Message: "LLM returned an invalid profile", Cause: err}
	}

	var parsed llmProfile
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, &AnalysisError{Row: row, Message: "failed to parse profile JSON", Cause: err}
	}

	return &types.PersonalityProfile{
		PersonalityAnalysis:   parsed.PersonalityAnalysis,
		ConversationStyle:     parsed.ConversationStyle,
		ProfessionalInterests: parsed.ProfessionalInterests,
	}, nil
}

// searchContact runs an optional supplementary search for the contact.
// Failures degrade silently to website-content-only analysis.
func (a *Analyzer) searchContact(ctx context.Context, contactName, links string) string {
	if a.search == nil || contactName == "Unknown contact" {
		return ""
	}

	query := contactName
	if links != "" {
		first, _, _ := strings.Cut(links, ",")
		query += " " + strings.TrimSpace(first)
	}

	resp, err := a.search.Search(ctx, query, maxSearchResults)
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for _, r := range resp.Results {
		sb.WriteString(r.Title)
		sb.WriteString("\n")
		sb.WriteString(r.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
