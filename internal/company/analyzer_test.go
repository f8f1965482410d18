package company

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunter/lead-enricher/internal/fetch"
	"github.com/hunter/lead-enricher/internal/llm"
	"github.com/hunter/lead-enricher/internal/search"
	"github.com/hunter/lead-enricher/internal/types"
)

// stubLLM returns canned responses and records the last prompt.
type stubLLM struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubLLM) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func (s *stubLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func (s *stubLLM) GetModel(llm.ModelTier) string { return "stub-model" }
func (s *stubLLM) Close() error                  { return nil }

func companySite(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><main>
			<h1>Acme Plumbing Software</h1>
			<p>Acme builds scheduling and dispatch software for plumbing contractors.
			Our customers run service businesses across North America and rely on us
			for invoicing, payroll and route planning every single day.</p>
		</main></body></html>`))
	}))
	t.Cleanup(server.Close)
	return server
}

func contextJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{
		"name":             "Acme Plumbing Software",
		"description":      "Acme builds scheduling and dispatch software for plumbing contractors.",
		"target_geography": "North America",
		"confidence":       "High",
	})
	require.NoError(t, err)
	return string(b)
}

func TestAnalyzer_Analyze(t *testing.T) {
	server := companySite(t)
	model := &stubLLM{response: contextJSON(t)}
	analyzer := NewAnalyzer(model, nil, fetch.NewCachedFetcher(nil, nil))

	result, err := analyzer.Analyze(context.Background(), server.URL, "")
	require.NoError(t, err)

	assert.Equal(t, "Acme Plumbing Software", result.Name)
	assert.Equal(t, "North America", result.TargetGeography)
	assert.Equal(t, "High", result.Confidence)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.WebsiteContent, "scheduling and dispatch")
	assert.Contains(t, model.lastPrompt, "scheduling and dispatch")
}

func TestAnalyzer_Analyze_UserGeographyWins(t *testing.T) {
	server := companySite(t)
	model := &stubLLM{response: contextJSON(t)}
	analyzer := NewAnalyzer(model, nil, fetch.NewCachedFetcher(nil, nil))

	result, err := analyzer.Analyze(context.Background(), server.URL, "EMEA")
	require.NoError(t, err)
	assert.Equal(t, "EMEA", result.TargetGeography)
}

func TestAnalyzer_Analyze_InvalidLLMResponse(t *testing.T) {
	server := companySite(t)
	model := &stubLLM{response: `{"name": "Acme"}`} // missing description
	analyzer := NewAnalyzer(model, nil, fetch.NewCachedFetcher(nil, nil))

	_, err := analyzer.Analyze(context.Background(), server.URL, "")
	require.Error(t, err)

	var analysisErr *AnalysisError
	assert.ErrorAs(t, err, &analysisErr)
}

func TestAnalyzer_Analyze_BadURL(t *testing.T) {
	analyzer := NewAnalyzer(&stubLLM{}, nil, fetch.NewCachedFetcher(nil, nil))

	_, err := analyzer.Analyze(context.Background(), "not a url", "")
	require.Error(t, err)
}

func TestAnalyzer_Analyze_WithSearchResults(t *testing.T) {
	site := companySite(t)

	searchAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"title": "Acme raises Series A", "url": "https://news.example.com", "content": "Acme announced funding to expand in Canada."}]}`))
	}))
	t.Cleanup(searchAPI.Close)

	searchClient, err := search.NewClient("tvly-test")
	require.NoError(t, err)
	searchClient = searchClient.WithBaseURL(searchAPI.URL)

	model := &stubLLM{response: contextJSON(t)}
	analyzer := NewAnalyzer(model, searchClient, fetch.NewCachedFetcher(nil, nil))

	_, err = analyzer.Analyze(context.Background(), site.URL, "")
	require.NoError(t, err)
	assert.Contains(t, model.lastPrompt, "Series A")
}

func TestAdjust(t *testing.T) {
	current := &types.CompanyContext{
		URL:             "https://acme.com",
		Name:            "Acme",
		Description:     "Old description",
		TargetGeography: "Global",
		WebsiteContent:  "scraped text",
	}

	model := &stubLLM{response: `{"name": "Acme", "description": "Acme sells to plumbers, not electricians.", "target_geography": "Global", "confidence": "Medium"}`}

	adjusted, err := Adjust(context.Background(), model, current, "We only sell to plumbers")
	require.NoError(t, err)

	assert.Equal(t, "Acme sells to plumbers, not electricians.", adjusted.Description)
	assert.Equal(t, "https://acme.com", adjusted.URL)
	assert.Equal(t, "scraped text", adjusted.WebsiteContent)
	assert.Contains(t, model.lastPrompt, "We only sell to plumbers")
	assert.Contains(t, model.lastPrompt, "Old description")
}

func TestAdjust_RequiresFeedback(t *testing.T) {
	current := &types.CompanyContext{Name: "Acme", Description: "desc"}

	_, err := Adjust(context.Background(), &stubLLM{}, current, "   ")
	require.Error(t, err)

	var adjustErr *AdjustmentError
	assert.ErrorAs(t, err, &adjustErr)
}

func TestAdjust_RequiresContext(t *testing.T) {
	_, err := Adjust(context.Background(), &stubLLM{}, nil, "feedback")
	assert.Error(t, err)

	_, err = Adjust(context.Background(), &stubLLM{}, &types.CompanyContext{}, "feedback")
	assert.Error(t, err)
}
