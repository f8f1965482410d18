package crawling

import (
	"net/url"
	"sort"
	"strings"
)

// pathScores maps path keywords to a priority score. Higher scores mean
// the page is more likely to describe what the company actually does.
var pathScores = map[string]int{
	"about":     100,
	"about-us":  100,
	"services":  90,
	"products":  90,
	"solutions": 85,
	"what-we-do": 85,
	"team":      70,
	"company":   70,
	"mission":   65,
	"contact":   50,
	"pricing":   45,
	"customers": 40,
	"clients":   40,
	"industries": 40,
	"home":      30,
}

// skipFragments are path pieces that mark low-value or non-HTML pages.
var skipFragments = []string{
	"login", "signin", "sign-in", "signup", "sign-up", "register",
	"privacy", "terms", "legal", "cookie",
	"cart", "checkout", "account",
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".zip",
	"mailto:", "tel:",
	"/blog/", "/news/", "/tag/", "/category/", "/wp-content/",
}

// RankLinks orders same-domain links by how informative they are likely
// to be about the company, highest value first, and drops links that are
// clearly not worth fetching. The result is capped at max entries.
func RankLinks(links []string, max int) []string {
	type scored struct {
		url   string
		score int
		order int
	}

	candidates := make([]scored, 0, len(links))
	for i, link := range links {
		if shouldSkipLink(link) {
			continue
		}
		candidates = append(candidates, scored{url: link, score: scoreLink(link), order: i})
	}

	// Stable by original order so equal scores keep page order
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	ranked := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, c.url)
	}
	return ranked
}

func scoreLink(link string) int {
	parsed, err := url.Parse(link)
	if err != nil {
		return 0
	}

	path := strings.ToLower(strings.Trim(parsed.Path, "/"))
	if path == "" {
		// Homepage
		return 30
	}

	score := 0
	for keyword, value := range pathScores {
		if strings.Contains(path, keyword) && value > score {
			score = value
		}
	}

	// Shallow paths are more likely to be core pages
	depth := strings.Count(path, "/")
	score -= depth * 5

	return score
}

func shouldSkipLink(link string) bool {
	lower := strings.ToLower(link)
	for _, fragment := range skipFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
