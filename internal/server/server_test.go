package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunter/lead-enricher/internal/config"
	"github.com/hunter/lead-enricher/internal/llm"
	"github.com/hunter/lead-enricher/internal/session"
)

// newTestServer builds a server with no database and no API keys configured.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv(config.EnvOpenRouterKey, "")
	t.Setenv(config.EnvGeminiKey, "")
	t.Setenv(config.EnvTavilyKey, "")

	s, err := New(&config.Config{Port: 8080, ScrapeWorkers: 2})
	require.NoError(t, err)
	t.Cleanup(func() {
		s.rateLimiter.Stop()
		s.store.Stop()
	})
	return s
}

// do routes a request through the full handler chain so path patterns
// and middleware behave as in production.
func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)
	return w
}

// uploadCSV posts CSV content as a multipart form to the contacts endpoint.
func uploadCSV(t *testing.T, s *Server, sessionID, filename, csvContent string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(csvContent))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/sessions/%s/contacts", sessionID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var sess struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.ID)
	return sess.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := do(t, s, http.MethodGet, "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var sess struct {
		Step         string `json:"step"`
		ContextStage string `json:"context_stage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, "new", sess.Step)
	assert.Equal(t, "empty", sess.ContextStage)

	w = do(t, s, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSession_InvalidID(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadContacts_GuessesMapping(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	csv := "first_name,last_name,website\nJane,Doe,example.com\n"
	w := uploadCSV(t, s, id, "contacts.csv", csv)
	require.Equal(t, http.StatusOK, w.Code)

	var sess struct {
		Step             string `json:"step"`
		HasCombinedNames bool   `json:"has_combined_names"`
		Mapping          struct {
			WebsiteColumn    string `json:"website_column"`
			FirstNameColumn  string `json:"first_name_column"`
			HasSeparateNames bool   `json:"has_separate_names"`
		} `json:"mapping"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, "csv_uploaded", sess.Step)
	assert.True(t, sess.HasCombinedNames)
	assert.Equal(t, "website", sess.Mapping.WebsiteColumn)
	assert.Equal(t, "first_name", sess.Mapping.FirstNameColumn)
	assert.True(t, sess.Mapping.HasSeparateNames)
}

func TestUploadContacts_RejectsNonCSV(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := uploadCSV(t, s, id, "contacts.xlsx", "not,a,csv")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadContacts_EmptyFile(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := uploadCSV(t, s, id, "empty.csv", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetMapping(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	uploadCSV(t, s, id, "contacts.csv", "name,site\nJane Doe,example.com\n")

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/mapping", map[string]any{
		"website_column": "site",
		"name_column":    "name",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var sess struct {
		Step string `json:"step"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, "mapped", sess.Step)
}

func TestSetMapping_RequiresWebsiteColumn(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	uploadCSV(t, s, id, "contacts.csv", "name,site\nJane Doe,example.com\n")

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/mapping", map[string]any{
		"name_column": "name",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetMapping_NoTable(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/mapping", map[string]any{
		"website_column": "site",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScrape_NoTable(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/scrape", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScrapeWorkflow(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><main>Acme Corp builds rocket-powered widgets for discerning coyotes across the western territories.</main></body></html>`)
	}))
	defer site.Close()

	s := newTestServer(t)
	id := createSession(t, s)

	csv := fmt.Sprintf("name,website\nJane Doe,%s\nNo Site,\n", site.URL)
	uploadCSV(t, s, id, "contacts.csv", csv)
	do(t, s, http.MethodPost, "/sessions/"+id+"/mapping", map[string]any{
		"website_column": "website",
		"name_column":    "name",
	})

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/scrape", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary struct {
		Total   int `json:"total"`
		Scraped int `json:"scraped"`
		Failed  int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Scraped)
	assert.Equal(t, 1, summary.Failed)

	w = do(t, s, http.MethodGet, "/sessions/"+id+"/contacts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rocket-powered widgets")
	assert.Contains(t, w.Body.String(), "No URL provided")
}

func TestAnalyze_RequiresScrapeAndContext(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	uploadCSV(t, s, id, "contacts.csv", "name,website\nJane Doe,example.com\n")

	// Not scraped yet.
	w := do(t, s, http.MethodPost, "/sessions/"+id+"/analyze", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAnalyze_MissingLLMKey(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><main>A perfectly ordinary company page with enough words to count as real content for extraction purposes.</main></body></html>`)
	}))
	defer site.Close()

	s := newTestServer(t)
	id := createSession(t, s)

	csv := fmt.Sprintf("name,website\nJane Doe,%s\n", site.URL)
	uploadCSV(t, s, id, "contacts.csv", csv)
	do(t, s, http.MethodPost, "/sessions/"+id+"/mapping", map[string]any{
		"website_column": "website",
		"name_column":    "name",
	})
	do(t, s, http.MethodPost, "/sessions/"+id+"/scrape", nil)
	do(t, s, http.MethodPut, "/sessions/"+id+"/context", map[string]string{
		"name":        "Acme",
		"description": "Sells widgets",
	})
	do(t, s, http.MethodPost, "/sessions/"+id+"/context/approve", map[string]string{
		"name":        "Acme",
		"description": "Sells widgets",
	})

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/analyze", nil)
	assert.Equal(t, http.StatusFailedDependency, w.Code)
}

func TestContextLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	// Manual entry.
	w := do(t, s, http.MethodPut, "/sessions/"+id+"/context", map[string]string{
		"name":             "Acme",
		"description":      "Sells widgets to coyotes",
		"target_geography": "US Southwest",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Approval rejects an empty description.
	w = do(t, s, http.MethodPost, "/sessions/"+id+"/context/approve", map[string]string{
		"name":        "Acme",
		"description": "",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Approval with edits applied.
	w = do(t, s, http.MethodPost, "/sessions/"+id+"/context/approve", map[string]string{
		"name":             "Acme Corp",
		"description":      "Sells widgets to coyotes",
		"target_geography": "US Southwest",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme Corp")

	w = do(t, s, http.MethodGet, "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"context_stage":"approved"`)

	// Start over.
	w = do(t, s, http.MethodPost, "/sessions/"+id+"/context/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/sessions/"+id, nil)
	assert.Contains(t, w.Body.String(), `"context_stage":"empty"`)
	assert.NotContains(t, w.Body.String(), "Acme Corp")
}

func TestAnalyzeContext_RequiresURL(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/context/analyze", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeContext_MissingLLMKey(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/context/analyze", map[string]string{
		"url": "https://example.com",
	})
	assert.Equal(t, http.StatusFailedDependency, w.Code)
}

func TestAdjustContext_RequiresFeedback(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/context/adjust", map[string]string{
		"feedback": "  ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRow(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	uploadCSV(t, s, id, "contacts.csv", "name,website\nJane Doe,example.com\nJohn Roe,other.com\n")

	w := do(t, s, http.MethodPut, "/sessions/"+id+"/contacts/rows/1", map[string]string{
		"website": "https://corrected.example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/sessions/"+id+"/contacts", nil)
	assert.Contains(t, w.Body.String(), "corrected.example.com")
}

func TestUpdateRow_OutOfRange(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	uploadCSV(t, s, id, "contacts.csv", "name,website\nJane Doe,example.com\n")

	w := do(t, s, http.MethodPut, "/sessions/"+id+"/contacts/rows/5", map[string]string{
		"website": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveFailedRows(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	csv := "name,website,website_content\n" +
		"Jane,a.com,Acme ships modular irrigation kits to small farms across three continents with same-week delivery\n" +
		"John,b.com,Error: connection refused\n"
	uploadCSV(t, s, id, "contacts.csv", csv)

	w := do(t, s, http.MethodPost, "/sessions/"+id+"/contacts/remove-failed", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp["removed"])
	assert.Equal(t, 1, resp["remaining"])
}

func TestDownload(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	uploadCSV(t, s, id, "contacts.csv", "name,website\nJane Doe,example.com\n")

	w := do(t, s, http.MethodGet, "/sessions/"+id+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp["data_link"], "data:text/csv"))
	assert.True(t, strings.HasSuffix(resp["filename"], ".csv"))

	w = do(t, s, http.MethodGet, "/sessions/"+id+"/download?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Jane Doe")
}

func TestDownload_NoTable(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := do(t, s, http.MethodGet, "/sessions/"+id+"/download", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTableLockedDuringBatch(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	csv := "name,website,website_content\n" +
		"Alice,a.com,Alice's firm hand-builds timber canoes for guided river expeditions in the north country\n" +
		"Bob,b.com,Error: connection refused\n" +
		"Carol,c.com,Carol runs a regional bakery chain supplying sourdough to restaurants across the valley\n"
	uploadCSV(t, s, id, "contacts.csv", csv)

	// Hold the table lock the way the analyze handler does while its
	// batch runs outside the store lock.
	sid, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NoError(t, s.store.With(sid, func(sess *session.Session) error {
		return sess.BeginWork("personality analysis")
	}))

	// Dropping Bob would shift Carol from index 2 to 1 and misdirect the
	// pending merge, so structural changes are rejected mid-batch.
	w := do(t, s, http.MethodPost, "/sessions/"+id+"/contacts/remove-failed", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPut, "/sessions/"+id+"/contacts/rows/0", map[string]string{
		"website": "https://edited.example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = uploadCSV(t, s, id, "contacts.csv", csv)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, s.store.With(sid, func(sess *session.Session) error {
		sess.EndWork()
		return nil
	}))

	w = do(t, s, http.MethodPost, "/sessions/"+id+"/contacts/remove-failed", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp["removed"])
	assert.Equal(t, 2, resp["remaining"])
}

func TestKeys_NeverEchoed(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/keys", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"openrouter":false`)

	w = do(t, s, http.MethodPost, "/keys", map[string]string{
		"openrouter_api_key": "sk-or-secret-value",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-or-secret-value")

	w = do(t, s, http.MethodGet, "/keys", nil)
	assert.Contains(t, w.Body.String(), `"openrouter":true`)
	assert.Contains(t, w.Body.String(), `"tavily":false`)
	assert.NotContains(t, w.Body.String(), "sk-or-secret-value")
}

func TestLLMClient_KeySelectedByProvider(t *testing.T) {
	t.Setenv(config.EnvOpenRouterKey, "sk-or-test")
	t.Setenv(config.EnvGeminiKey, "")
	t.Setenv(config.EnvTavilyKey, "")

	// A Gemini deployment must not authenticate with the OpenRouter key.
	s, err := New(&config.Config{Port: 8080, Provider: "gemini"})
	require.NoError(t, err)
	t.Cleanup(func() {
		s.rateLimiter.Stop()
		s.store.Stop()
	})

	_, err = s.llmClient(context.Background())
	var missing *ErrMissingKey
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, config.EnvGeminiKey, missing.Key)

	s.keysMu.Lock()
	s.keys.Gemini = "gm-test"
	s.keysMu.Unlock()

	client, err := s.llmClient(context.Background())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	assert.Contains(t, client.GetModel(llm.TierStandard), "gemini")
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
