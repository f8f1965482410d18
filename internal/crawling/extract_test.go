package crawling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks_SameDomainOnly(t *testing.T) {
	html := `
	<html><body>
		<a href="/about">About</a>
		<a href="https://acme.com/services">Services</a>
		<a href="https://other.com/page">External</a>
		<a href="contact">Contact</a>
	</body></html>`

	links, err := ExtractLinks(html, "https://acme.com")
	require.NoError(t, err)

	assert.Contains(t, links, "https://acme.com/about")
	assert.Contains(t, links, "https://acme.com/services")
	assert.Contains(t, links, "https://acme.com/contact")
	for _, l := range links {
		assert.NotContains(t, l, "other.com")
	}
}

func TestExtractLinks_Deduplicates(t *testing.T) {
	html := `
	<html><body>
		<a href="/about">About</a>
		<a href="/about/">About again</a>
		<a href="/about#team">Team anchor</a>
	</body></html>`

	links, err := ExtractLinks(html, "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.com/about"}, links)
}

func TestExtractLinks_InvalidBaseURL(t *testing.T) {
	_, err := ExtractLinks("<html></html>", "not-a-url")
	require.Error(t, err)

	var extractErr *LinkExtractionError
	assert.ErrorAs(t, err, &extractErr)
}

func TestRankLinks_PrefersAboutPages(t *testing.T) {
	links := []string{
		"https://acme.com/blog/some-post",
		"https://acme.com/privacy",
		"https://acme.com/about",
		"https://acme.com/careers/2024/listing",
		"https://acme.com/services",
	}

	ranked := RankLinks(links, 3)
	require.NotEmpty(t, ranked)
	assert.Equal(t, "https://acme.com/about", ranked[0])
	assert.Contains(t, ranked, "https://acme.com/services")
	assert.NotContains(t, ranked, "https://acme.com/privacy")
	assert.NotContains(t, ranked, "https://acme.com/blog/some-post")
}

func TestRankLinks_CapsResults(t *testing.T) {
	links := []string{
		"https://acme.com/about",
		"https://acme.com/services",
		"https://acme.com/team",
		"https://acme.com/contact",
	}

	ranked := RankLinks(links, 2)
	assert.Len(t, ranked, 2)
}

func TestRankLinks_SkipsAssetsAndAuth(t *testing.T) {
	links := []string{
		"https://acme.com/brochure.pdf",
		"https://acme.com/login",
		"https://acme.com/signup",
	}

	ranked := RankLinks(links, 10)
	assert.Empty(t, ranked)
}
