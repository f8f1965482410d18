package table

import "strings"

// minContentLength is the shortest website_content considered a real scrape.
// Anything shorter is treated as a failure artifact.
const minContentLength = 50

// failedContentPrefixes mark scrape outcomes written by the scraper itself.
var failedContentPrefixes = []string{
	"Error:",
	"No URL provided",
	"Invalid URL",
}

// failedContentFragments are matched case-insensitively anywhere in the content.
var failedContentFragments = []string{
	"failed to scrape",
	"timed out",
	"access denied",
	"error",
}

// IsFailedContent reports whether a website_content value represents a failed
// or unusable scrape: empty, whitespace-only, shorter than minContentLength,
// a known error prefix, or a known error fragment.
func IsFailedContent(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return true
	}
	if len(content) < minContentLength {
		return true
	}
	for _, prefix := range failedContentPrefixes {
		if strings.HasPrefix(content, prefix) {
			return true
		}
	}
	lower := strings.ToLower(content)
	for _, frag := range failedContentFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// RemoveFailedRows drops rows whose website_content is a failed scrape and
// returns how many were removed. Tables without the column are untouched.
func (t *Table) RemoveFailedRows() int {
	if !t.HasColumn(ColWebsiteContent) {
		return 0
	}
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		if IsFailedContent(row[ColWebsiteContent]) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}
