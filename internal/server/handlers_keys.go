package server

import (
	"encoding/json"
	"net/http"

	"github.com/hunter/lead-enricher/internal/llm"
	"github.com/hunter/lead-enricher/internal/search"
)

// handleGetKeys reports which upstream API keys are configured.
// Key values are never echoed back.
func (s *Server) handleGetKeys(w http.ResponseWriter, _ *http.Request) {
	keys := s.currentKeys()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"openrouter": keys.HasOpenRouter(),
		"gemini":     keys.HasGemini(),
		"tavily":     keys.HasTavily(),
		"complete":   keys.Complete(),
	})
}

// setKeysRequest is the body for POST /keys. Empty fields leave the
// corresponding key unchanged.
type setKeysRequest struct {
	OpenRouter string `json:"openrouter_api_key"`
	Gemini     string `json:"gemini_api_key"`
	Tavily     string `json:"tavily_api_key"`
}

// handleSetKeys updates API keys for this process.
func (s *Server) handleSetKeys(w http.ResponseWriter, r *http.Request) {
	var req setKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	s.keysMu.Lock()
	if req.OpenRouter != "" {
		s.keys.OpenRouter = req.OpenRouter
	}
	if req.Gemini != "" {
		s.keys.Gemini = req.Gemini
	}
	if req.Tavily != "" {
		s.keys.Tavily = req.Tavily
	}
	keys := s.keys
	s.keysMu.Unlock()

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"openrouter": keys.HasOpenRouter(),
		"gemini":     keys.HasGemini(),
		"tavily":     keys.HasTavily(),
		"complete":   keys.Complete(),
	})
}

// handleTestKeys checks the configured keys against their upstreams. The
// LLM probe goes through the active provider, so a Gemini deployment tests
// the Gemini key.
func (s *Server) handleTestKeys(w http.ResponseWriter, r *http.Request) {
	keys := s.currentKeys()
	result := map[string]string{}

	llmName := "openrouter"
	hasLLMKey := keys.HasOpenRouter()
	if s.cfg.Provider == string(llm.ProviderGemini) {
		llmName = "gemini"
		hasLLMKey = keys.HasGemini()
	}
	if !hasLLMKey {
		result[llmName] = "missing"
	} else {
		client, err := s.llmClient(r.Context())
		if err != nil {
			result[llmName] = "error: " + err.Error()
		} else {
			defer func() { _ = client.Close() }()
			if _, err := client.GenerateContent(r.Context(), "Reply with OK.", llm.TierLite); err != nil {
				result[llmName] = "error: " + err.Error()
			} else {
				result[llmName] = "ok"
			}
		}
	}

	if !keys.HasTavily() {
		result["tavily"] = "missing"
	} else {
		client, err := search.NewClient(keys.Tavily)
		if err != nil {
			result["tavily"] = "error: " + err.Error()
		} else if err := client.Ping(r.Context()); err != nil {
			result["tavily"] = "error: " + err.Error()
		} else {
			result["tavily"] = "ok"
		}
	}

	status := http.StatusOK
	if result[llmName] != "ok" || result["tavily"] != "ok" {
		status = http.StatusFailedDependency
	}
	s.jsonResponse(w, status, result)
}
