package table

import "strings"

// websiteHeaderCandidates are header names that indicate a website column,
// in priority order.
var websiteHeaderCandidates = []string{
	"website", "website_url", "web site", "url", "domain", "homepage", "company website", "site",
}

// firstNameCandidates and lastNameCandidates match separate name-part columns.
var (
	firstNameCandidates = []string{"first_name", "firstname", "first name", "first", "given_name", "given name"}
	lastNameCandidates  = []string{"last_name", "lastname", "last name", "last", "surname", "family_name", "family name"}
)

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GuessWebsiteColumn picks the most likely website column.
// Header names are tried first; when none match, the column whose values look
// most like URLs wins. Returns "" when nothing plausible exists.
func (t *Table) GuessWebsiteColumn() string {
	byNorm := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		byNorm[normalizeHeader(c)] = c
	}
	for _, cand := range websiteHeaderCandidates {
		if col, ok := byNorm[cand]; ok {
			return col
		}
	}
	for _, c := range t.Columns {
		n := normalizeHeader(c)
		for _, cand := range websiteHeaderCandidates {
			if strings.Contains(n, cand) {
				return c
			}
		}
	}

	// Fall back to value inspection over a small sample.
	bestCol := ""
	bestScore := 0
	sample := len(t.Rows)
	if sample > 20 {
		sample = 20
	}
	for _, c := range t.Columns {
		score := 0
		for i := 0; i < sample; i++ {
			v := strings.ToLower(strings.TrimSpace(t.Rows[i][c]))
			if v == "" {
				continue
			}
			if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") ||
				strings.HasPrefix(v, "www.") || looksLikeDomain(v) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestCol = c
		}
	}
	return bestCol
}

// looksLikeDomain reports whether a bare value such as "example.com" is
// plausibly a hostname.
func looksLikeDomain(v string) bool {
	if strings.ContainsAny(v, " \t") {
		return false
	}
	dot := strings.LastIndex(v, ".")
	if dot <= 0 || dot == len(v)-1 {
		return false
	}
	tld := v[dot+1:]
	if len(tld) < 2 || len(tld) > 10 {
		return false
	}
	for _, r := range tld {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// FindNameComponents returns the first/last name columns when the table has
// both, or empty strings otherwise.
func (t *Table) FindNameComponents() (first, last string) {
	byNorm := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		byNorm[normalizeHeader(c)] = c
	}
	for _, cand := range firstNameCandidates {
		if col, ok := byNorm[cand]; ok {
			first = col
			break
		}
	}
	for _, cand := range lastNameCandidates {
		if col, ok := byNorm[cand]; ok {
			last = col
			break
		}
	}
	if first == "" || last == "" {
		return "", ""
	}
	return first, last
}

// HasNameComponents reports whether the table has separate first and last
// name columns. A single combined name column does not count.
func (t *Table) HasNameComponents() bool {
	first, last := t.FindNameComponents()
	return first != "" && last != ""
}

// CombineNames derives the full_name column from the given first/last
// columns, trimming the join so a missing part leaves no stray space.
func (t *Table) CombineNames(firstCol, lastCol string) {
	t.EnsureColumn(ColFullName)
	for i := range t.Rows {
		full := strings.TrimSpace(strings.TrimSpace(t.Rows[i][firstCol]) + " " + strings.TrimSpace(t.Rows[i][lastCol]))
		t.Rows[i][ColFullName] = full
	}
}
