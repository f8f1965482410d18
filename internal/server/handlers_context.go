package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hunter/lead-enricher/internal/company"
	"github.com/hunter/lead-enricher/internal/session"
	"github.com/hunter/lead-enricher/internal/types"
)

// analyzeContextRequest is the body for POST /sessions/{id}/context/analyze.
type analyzeContextRequest struct {
	URL             string `json:"url"`
	TargetGeography string `json:"target_geography"`
}

// handleAnalyzeContext scrapes the seller's website and generates a company
// context with the LLM. The result still needs explicit approval.
func (s *Server) handleAnalyzeContext(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req analyzeContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.handlerError(w, &ErrValidation{Field: "url", Message: "company URL is required"})
		return
	}

	// Session must exist before the expensive crawl starts.
	if err := s.store.With(id, func(*session.Session) error { return nil }); err != nil {
		s.handlerError(w, err)
		return
	}

	llmClient, err := s.llmClient(r.Context())
	if err != nil {
		s.handlerError(w, err)
		return
	}
	defer func() { _ = llmClient.Close() }()

	analyzer := company.NewAnalyzer(llmClient, s.searchClient(), s.fetcher)
	result, err := analyzer.Analyze(r.Context(), req.URL, req.TargetGeography)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	if err := s.store.With(id, func(sess *session.Session) error {
		return sess.SetContext(result)
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// adjustContextRequest is the body for POST /sessions/{id}/context/adjust.
type adjustContextRequest struct {
	Feedback string `json:"feedback"`
}

// handleAdjustContext refines the generated context using user feedback.
func (s *Server) handleAdjustContext(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req adjustContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Feedback) == "" {
		s.handlerError(w, &ErrValidation{Field: "feedback", Message: "feedback is required"})
		return
	}

	var current *types.CompanyContext
	if err := s.store.With(id, func(sess *session.Session) error {
		if sess.Context == nil {
			return &ErrValidation{Field: "context", Message: "no context to adjust"}
		}
		snapshot := *sess.Context
		current = &snapshot
		return nil
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	llmClient, err := s.llmClient(r.Context())
	if err != nil {
		s.handlerError(w, err)
		return
	}
	defer func() { _ = llmClient.Close() }()

	adjusted, err := company.Adjust(r.Context(), llmClient, current, req.Feedback)
	if err != nil {
		s.handlerError(w, err)
		return
	}

	if err := s.store.With(id, func(sess *session.Session) error {
		return sess.SetContext(adjusted)
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, adjusted)
}

// updateContextRequest is the body for PUT /sessions/{id}/context.
// This is the manual-entry path: no website analysis involved.
type updateContextRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	TargetGeography string `json:"target_geography"`
	URL             string `json:"url"`
}

// handleUpdateContext installs a manually entered or edited context.
func (s *Server) handleUpdateContext(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req updateContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	ctx := &types.CompanyContext{
		URL:             req.URL,
		Name:            req.Name,
		Description:     req.Description,
		TargetGeography: req.TargetGeography,
	}

	if err := s.store.With(id, func(sess *session.Session) error {
		return sess.SetContext(ctx)
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, ctx)
}

// approveContextRequest is the body for POST /sessions/{id}/context/approve.
// The fields carry any final edits made during review.
type approveContextRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	TargetGeography string `json:"target_geography"`
}

// handleApproveContext freezes the context for personality analysis.
func (s *Server) handleApproveContext(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req approveContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	var approved *types.CompanyContext
	if err := s.store.With(id, func(sess *session.Session) error {
		if err := sess.ApproveContext(req.Name, req.Description, req.TargetGeography); err != nil {
			return err
		}
		snapshot := *sess.Context
		approved = &snapshot
		return nil
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, approved)
}

// handleResetContext discards the context entirely ("Start Over").
func (s *Server) handleResetContext(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	if err := s.store.With(id, func(sess *session.Session) error {
		return sess.ResetContext()
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "reset"})
}
