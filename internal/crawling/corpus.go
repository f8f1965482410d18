package crawling

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hunter/lead-enricher/internal/fetch"
)

const (
	// MaxPagesLimit is the hard maximum number of pages to crawl per site
	MaxPagesLimit = 8
	// DefaultMaxPages is used when the caller does not specify a page budget
	DefaultMaxPages = 4
	// DefaultRateLimitDelay is the delay between HTTP requests to one site
	DefaultRateLimitDelay = 1 * time.Second
)

// Source records where a piece of corpus text came from.
type Source struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	Hash      string `json:"hash"`
}

// Corpus holds the concatenated text gathered from a company website.
type Corpus struct {
	Text    string   `json:"text"`
	Links   []string `json:"links"`
	Sources []Source `json:"sources"`
}

// CrawlCompanyCorpus fetches a company homepage, discovers the most
// informative same-domain pages, and concatenates their text into a
// corpus suitable for analysis. The fetcher may be cache-backed.
func CrawlCompanyCorpus(ctx context.Context, fetcher *fetch.CachedFetcher, seedURL string, maxPages int) (*Corpus, error) {
	normalized, err := fetch.NormalizeURL(seedURL)
	if err != nil {
		return nil, &CrawlError{
			Message: "invalid seed URL",
			Cause:   err,
		}
	}

	if maxPages > MaxPagesLimit {
		maxPages = MaxPagesLimit
	}
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}

	var corpusParts []string
	sources := make([]Source, 0)
	visited := map[string]bool{normalized: true}

	// Phase 1: fetch the seed page
	homepageType := "homepage"
	result, err := fetcher.FetchWithType(ctx, normalized, &homepageType)
	if err != nil {
		return nil, &CrawlError{
			Message: "failed to fetch seed page",
			Cause:   err,
		}
	}

	text := result.Text
	if text == "" {
		text = fetch.BestEffortText(normalized, result.HTML, fetch.CompanyPageSelectors())
	}
	if text != "" {
		corpusParts = append(corpusParts, text)
		sources = append(sources, Source{
			URL:       normalized,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Hash:      computeHash(text),
		})
	}

	links, err := ExtractLinks(result.HTML, normalized)
	if err != nil {
		links = nil
	}

	// Phase 2: fetch the highest-value discovered pages
	ranked := RankLinks(links, maxPages-1)
	subpageType := "subpage"
	for _, pageURL := range ranked {
		if len(sources) >= maxPages {
			break
		}
		if visited[pageURL] {
			continue
		}
		visited[pageURL] = true

		time.Sleep(DefaultRateLimitDelay)

		pageResult, err := fetcher.FetchWithType(ctx, pageURL, &subpageType)
		if err != nil {
			continue
		}

		pageText := pageResult.Text
		if pageText == "" {
			pageText = fetch.BestEffortText(pageURL, pageResult.HTML, fetch.CompanyPageSelectors())
		}
		if pageText == "" {
			continue
		}

		corpusParts = append(corpusParts, pageText)
		sources = append(sources, Source{
			URL:       pageURL,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Hash:      computeHash(pageText),
		})
	}

	return &Corpus{
		Text:    strings.Join(corpusParts, "\n\n---\n\n"),
		Links:   links,
		Sources: sources,
	}, nil
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
