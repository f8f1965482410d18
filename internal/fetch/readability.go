// Package fetch - readability.go provides article-style content distillation
// as a fallback when selector-based extraction yields little text.
package fetch

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ExtractReadableText distills the main article content from HTML using
// go-readability. It works well on pages where the content selectors miss
// (unusual markup, heavy div soup). Returns the page title and the cleaned
// body text.
func ExtractReadableText(rawURL, html string) (title, text string, err error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(article.Title), cleanWhitespace(article.TextContent), nil
}

// BestEffortText tries selector-based extraction first and falls back to
// readability distillation when the selector pass comes back thin. The
// longer of the two results wins.
func BestEffortText(rawURL, html string, contentSelectors []string) string {
	selectorText, _ := ExtractMainText(html, contentSelectors)
	if len(selectorText) >= MinContentLength {
		return selectorText
	}

	_, readableText, err := ExtractReadableText(rawURL, html)
	if err != nil || len(readableText) < len(selectorText) {
		return selectorText
	}
	return readableText
}
