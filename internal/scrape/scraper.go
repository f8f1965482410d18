// Package scrape fills the contact table's website columns by fetching each
// contact's website concurrently. Failures are recorded in-band as cell
// values so a bad URL never aborts the batch.
package scrape

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hunter/lead-enricher/internal/crawling"
	"github.com/hunter/lead-enricher/internal/fetch"
	"github.com/hunter/lead-enricher/internal/table"
)

const (
	// DefaultWorkers is the number of concurrent site fetches.
	DefaultWorkers = 5
	// MaxLinksPerRow caps how many discovered links are stored per contact.
	MaxLinksPerRow = 10

	// Cell values written for rows that could not be scraped.
	outcomeNoURL      = "No URL provided"
	outcomeInvalidURL = "Invalid URL"
)

// Scraper fetches contact websites and writes the results back by row index.
type Scraper struct {
	fetcher    *fetch.CachedFetcher
	workers    int
	useBrowser bool
	verbose    bool
}

// Options configures a Scraper.
type Options struct {
	Workers    int
	UseBrowser bool
	Verbose    bool
}

// New creates a Scraper. A nil options pointer uses defaults.
func New(fetcher *fetch.CachedFetcher, opts *Options) *Scraper {
	if opts == nil {
		opts = &Options{}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Scraper{
		fetcher:    fetcher,
		workers:    workers,
		useBrowser: opts.UseBrowser,
		verbose:    opts.Verbose,
	}
}

// Summary reports how a batch scrape went.
type Summary struct {
	Total   int `json:"total"`
	Scraped int `json:"scraped"`
	Failed  int `json:"failed"`
}

// Table scrapes every row's website from websiteColumn and writes
// website_content, website_links and website_language cells. Rows without
// a usable URL get an error value in website_content instead. Row order
// and count never change.
func (s *Scraper) Table(ctx context.Context, tbl *table.Table, websiteColumn string) (*Summary, error) {
	if tbl == nil || tbl.Len() == 0 {
		return &Summary{}, nil
	}
	if !tbl.HasColumn(websiteColumn) {
		return nil, fmt.Errorf("website column %q not found", websiteColumn)
	}

	// Columns must exist before the workers start writing rows.
	tbl.EnsureColumn(table.ColWebsiteContent)
	tbl.EnsureColumn(table.ColWebsiteLinks)
	tbl.EnsureColumn(table.ColWebsiteLanguage)

	summary := &Summary{Total: tbl.Len()}
	outcomes := make([]bool, tbl.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < tbl.Len(); i++ {
		row := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[row] = s.scrapeRow(gctx, tbl, row, websiteColumn)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, ok := range outcomes {
		if ok {
			summary.Scraped++
		} else {
			summary.Failed++
		}
	}

	if s.verbose {
		log.Printf("[SCRAPE] done: %d scraped, %d failed of %d", summary.Scraped, summary.Failed, summary.Total)
	}

	return summary, nil
}

// scrapeRow fetches one contact's website. Returns true when usable
// content was written. Each worker touches only its own row so no
// locking is needed.
func (s *Scraper) scrapeRow(ctx context.Context, tbl *table.Table, row int, websiteColumn string) bool {
	raw := strings.TrimSpace(tbl.Get(row, websiteColumn))
	if raw == "" {
		tbl.Set(row, table.ColWebsiteContent, outcomeNoURL)
		return false
	}

	pageURL, err := fetch.NormalizeURL(raw)
	if err != nil {
		tbl.Set(row, table.ColWebsiteContent, outcomeInvalidURL)
		return false
	}

	result, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		tbl.Set(row, table.ColWebsiteContent, "Error: "+err.Error())
		return false
	}

	text := result.Text
	if text == "" {
		text = fetch.BestEffortText(pageURL, result.HTML, fetch.CompanyPageSelectors())
	}

	// JavaScript-heavy sites render nothing server-side; retry in a browser.
	if s.useBrowser && fetch.ShouldUseBrowser(text) {
		if html, berr := fetch.BrowserSimple(ctx, pageURL, s.verbose); berr == nil {
			if rendered := fetch.BestEffortText(pageURL, html, fetch.CompanyPageSelectors()); len(rendered) > len(text) {
				result.HTML = html
				text = rendered
			}
		}
	}

	if strings.TrimSpace(text) == "" {
		tbl.Set(row, table.ColWebsiteContent, "Error: no content could be extracted")
		return false
	}

	tbl.Set(row, table.ColWebsiteContent, text)

	if links, lerr := crawling.ExtractLinks(result.HTML, pageURL); lerr == nil && len(links) > 0 {
		ranked := crawling.RankLinks(links, MaxLinksPerRow)
		tbl.Set(row, table.ColWebsiteLinks, strings.Join(ranked, ", "))
	}

	if language := DetectLanguage(text); language != "" {
		tbl.Set(row, table.ColWebsiteLanguage, language)
	}

	return true
}
