package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hunter/lead-enricher/internal/personality"
	"github.com/hunter/lead-enricher/internal/scrape"
	"github.com/hunter/lead-enricher/internal/session"
	"github.com/hunter/lead-enricher/internal/table"
	"github.com/hunter/lead-enricher/internal/types"
)

// maxUploadBytes caps the multipart form memory for CSV uploads.
const maxUploadBytes = 32 << 20

// handleUploadContacts accepts a multipart CSV upload, parses it into the
// session's contact table, and returns the session with a guessed mapping.
func (s *Server) handleUploadContacts(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.handlerError(w, &ErrBadUpload{Message: "could not parse multipart form", Cause: err})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.handlerError(w, &ErrBadUpload{Message: "missing 'file' form field", Cause: err})
		return
	}
	defer func() { _ = file.Close() }()

	if header.Filename != "" && !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		s.handlerError(w, &ErrBadUpload{Message: "only .csv files are accepted"})
		return
	}

	tbl, err := table.LoadCSV(file)
	if err != nil {
		s.handlerError(w, &ErrBadUpload{Message: "invalid CSV", Cause: err})
		return
	}

	var body []byte
	if err := s.store.With(id, func(sess *session.Session) error {
		if err := sess.AttachTable(tbl); err != nil {
			return err
		}
		body, err = json.Marshal(sess)
		return err
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleGetContacts returns the current contact table.
func (s *Server) handleGetContacts(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var body []byte
	if err := s.store.With(id, func(sess *session.Session) error {
		if sess.Table == nil {
			return &session.ErrNoTable{}
		}
		var err error
		body, err = json.Marshal(sess.Table)
		return err
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleUpdateRow edits individual cells of one contact row. The body is a
// flat map of column name to new value.
func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		s.handlerError(w, &ErrValidation{Field: "index", Message: "row index must be a non-negative integer"})
		return
	}

	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if len(updates) == 0 {
		s.handlerError(w, &ErrValidation{Field: "body", Message: "no cell updates provided"})
		return
	}

	if err := s.store.With(id, func(sess *session.Session) error {
		if err := sess.Mutable(); err != nil {
			return err
		}
		if sess.Table == nil {
			return &session.ErrNoTable{}
		}
		if index >= sess.Table.Len() {
			return &ErrValidation{Field: "index", Message: fmt.Sprintf("row %d out of range (table has %d rows)", index, sess.Table.Len())}
		}
		for column, value := range updates {
			sess.Table.Set(index, column, value)
		}
		return nil
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"row": index, "updated": len(updates)})
}

// handleSetMapping validates and applies the column mapping.
func (s *Server) handleSetMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var mapping types.ColumnMapping
	if err := json.NewDecoder(r.Body).Decode(&mapping); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	var body []byte
	if err := s.store.With(id, func(sess *session.Session) error {
		if err := sess.SetMapping(&mapping); err != nil {
			return err
		}
		var err error
		body, err = json.Marshal(sess)
		return err
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleScrape fetches every contact's website and fills the content, links,
// and language columns. The table is cloned so the scrape can run without
// holding the store lock; results merge back by row index afterwards.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var tbl *table.Table
	var websiteColumn string
	if err := s.store.With(id, func(sess *session.Session) error {
		if err := sess.BeginScrape(); err != nil {
			return err
		}
		// Lock the table so uploads, row edits and remove-failed cannot
		// shift row indices while the batch runs outside the store lock.
		if err := sess.BeginWork("website scraping"); err != nil {
			return err
		}
		tbl = sess.Table.Clone()
		websiteColumn = sess.Mapping.WebsiteColumn
		return nil
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	scraper := scrape.New(s.fetcher, &scrape.Options{
		Workers:    s.cfg.ScrapeWorkers,
		UseBrowser: s.cfg.UseBrowser,
		Verbose:    s.cfg.Verbose,
	})
	summary, err := scraper.Table(r.Context(), tbl, websiteColumn)
	if err != nil {
		_ = s.store.With(id, func(sess *session.Session) error {
			sess.EndWork()
			return nil
		})
		s.handlerError(w, err)
		return
	}

	if err := s.store.With(id, func(sess *session.Session) error {
		sess.EndWork()
		sess.Table = tbl
		return sess.CompleteScrape()
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, summary)
}

// handleRemoveFailed drops rows whose website scrape produced no usable
// content, so they do not burn analysis credits.
func (s *Server) handleRemoveFailed(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var removed, remaining int
	if err := s.store.With(id, func(sess *session.Session) error {
		if err := sess.Mutable(); err != nil {
			return err
		}
		if sess.Table == nil {
			return &session.ErrNoTable{}
		}
		removed = sess.Table.RemoveFailedRows()
		remaining = sess.Table.Len()
		return nil
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]int{"removed": removed, "remaining": remaining})
}

// analyzeRequest is the optional body for POST /sessions/{id}/analyze.
type analyzeRequest struct {
	Limit int `json:"limit"`
}

// handleAnalyze runs per-contact personality analysis over the scraped table.
// Requires an approved company context; runs outside the store lock.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	limit := s.cfg.AnalyzeLimit
	if r.Body != nil && r.ContentLength != 0 {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
			return
		}
		if req.Limit > 0 {
			limit = req.Limit
		}
	}
	limit = parseQueryInt(r, "limit", limit, 10000)

	if err := s.store.With(id, func(sess *session.Session) error {
		return sess.BeginAnalysis()
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

	var tbl *table.Table
	var nameColumn string
	var companyCtx types.CompanyContext
	if err := s.store.With(id, func(sess *session.Session) error {
		if err := sess.BeginAnalysis(); err != nil {
			return err
		}
		// Profiles merge back by row index, so the table must keep its
		// shape until the batch completes.
		if err := sess.BeginWork("personality analysis"); err != nil {
			return err
		}
		tbl = sess.Table.Clone()
		nameColumn = sess.Mapping.NameColumn
		companyCtx = *sess.Context
		return nil
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	analyzer := personality.NewAnalyzer(llmClient, s.searchClient(), 0)
	result, err := analyzer.Table(r.Context(), tbl, nameColumn, &companyCtx, limit)
	if err != nil {
		_ = s.store.With(id, func(sess *session.Session) error {
			sess.EndWork()
			return nil
		})
		s.handlerError(w, err)
		return
	}

	if err := s.store.With(id, func(sess *session.Session) error {
		sess.EndWork()
		sess.Table.MergeProfiles(result.Profiles, companyCtx.Stamp())
		return sess.CompleteAnalysis()
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]int{
		"analyzed": result.Analyzed,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	})
}

// handleDownload serves the enriched table. The default response is a JSON
// envelope with a data URI; ?format=csv streams the raw file instead.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var data []byte
	var link string
	if err := s.store.With(id, func(sess *session.Session) error {
		if sess.Table == nil {
			return &session.ErrNoTable{}
		}
		var err error
		data, err = sess.Table.CSVBytes()
		if err != nil {
			return err
		}
		link, err = sess.Table.DownloadLink()
		return err
	}); err != nil {
		s.handlerError(w, err)
		return
	}

	filename := fmt.Sprintf("enriched_contacts_%s.csv", id.String()[:8])

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"filename":  filename,
		"data_link": link,
	})
}
