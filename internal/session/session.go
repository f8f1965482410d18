package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/hunter/lead-enricher/internal/table"
	"github.com/hunter/lead-enricher/internal/types"
)

// Session is the full workflow state for one enrichment run.
// It is JSON-serializable; GET /sessions/{id} returns it verbatim.
// Methods are not safe for concurrent use; the Store serializes access.
type Session struct {
	ID           uuid.UUID    `json:"id"`
	Step         Step         `json:"step"`
	ContextStage ContextStage `json:"context_stage"`

	Table   *table.Table         `json:"table,omitempty"`
	Mapping *types.ColumnMapping `json:"mapping,omitempty"`
	Context *types.CompanyContext `json:"company_context,omitempty"`

	// HasCombinedNames is set at upload when the CSV carries separate
	// first/last name columns that can be combined into full_name.
	HasCombinedNames   bool `json:"has_combined_names"`
	ProcessingComplete bool `json:"processing_complete"`
	AnalysisComplete   bool `json:"personality_analysis_complete"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// work names the batch currently running outside the store lock.
	// While set, the table must not change shape so the batch can merge
	// its results back by row index. Transient, never serialized.
	work string
}

func newSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.New(),
		Step:         StepNew,
		ContextStage: ContextEmpty,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

func (s *Session) transition(next Step) error {
	if !s.Step.CanTransition(next) {
		return &ErrInvalidTransition{From: string(s.Step), To: string(next)}
	}
	s.Step = next
	s.touch()
	return nil
}

func (s *Session) transitionContext(next ContextStage) error {
	if !s.ContextStage.CanTransition(next) {
		return &ErrInvalidTransition{From: string(s.ContextStage), To: string(next)}
	}
	s.ContextStage = next
	s.touch()
	return nil
}

// BeginWork locks the table for a long-running batch identified by op.
// Returns ErrBusy when another batch already holds the lock.
func (s *Session) BeginWork(op string) error {
	if s.work != "" {
		return &ErrBusy{Op: s.work}
	}
	s.work = op
	return nil
}

// EndWork releases the batch lock.
func (s *Session) EndWork() {
	s.work = ""
}

// Mutable reports whether the contact table may change shape right now.
func (s *Session) Mutable() error {
	if s.work != "" {
		return &ErrBusy{Op: s.work}
	}
	return nil
}

// AttachTable installs a freshly uploaded contact table, guesses the website
// column, detects separate name columns, and resets everything downstream of
// the upload. The company context survives a re-upload.
func (s *Session) AttachTable(t *table.Table) error {
	if err := s.Mutable(); err != nil {
		return err
	}
	if err := s.transition(StepUploaded); err != nil {
		return err
	}
	s.Table = t
	s.HasCombinedNames = t.HasNameComponents()
	s.ProcessingComplete = false
	s.AnalysisComplete = false

	s.Mapping = &types.ColumnMapping{WebsiteColumn: t.GuessWebsiteColumn()}
	if first, last := t.FindNameComponents(); first != "" {
		s.Mapping.FirstNameColumn = first
		s.Mapping.LastNameColumn = last
		s.Mapping.HasSeparateNames = true
	}
	return nil
}

// SetMapping validates and applies a column mapping. Separate name columns
// are combined into full_name, which then becomes the effective name column.
func (s *Session) SetMapping(m *types.ColumnMapping) error {
	if err := s.Mutable(); err != nil {
		return err
	}
	if s.Table == nil {
		return &ErrNoTable{}
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.transition(StepMapped); err != nil {
		return err
	}
	if m.HasSeparateNames {
		s.Table.CombineNames(m.FirstNameColumn, m.LastNameColumn)
		m.NameColumn = table.ColFullName
	}
	s.Mapping = m
	return nil
}

// BeginScrape checks the preconditions for website scraping.
func (s *Session) BeginScrape() error {
	if s.Table == nil {
		return &ErrNoTable{}
	}
	if s.Mapping == nil || s.Mapping.WebsiteColumn == "" {
		return &ErrNoMapping{}
	}
	if !s.Step.AtLeast(StepMapped) {
		return &ErrInvalidTransition{From: string(s.Step), To: string(StepScraped)}
	}
	return nil
}

// CompleteScrape marks website processing done.
func (s *Session) CompleteScrape() error {
	if err := s.transition(StepScraped); err != nil {
		return err
	}
	s.ProcessingComplete = true
	return nil
}

// SetContext installs a freshly generated (or adjusted) company context.
// A new context is never pre-approved.
func (s *Session) SetContext(ctx *types.CompanyContext) error {
	if err := s.transitionContext(ContextGenerated); err != nil {
		return err
	}
	s.Context = ctx
	return nil
}

// ApproveContext freezes the context after an explicit approval action,
// applying any final edits. An empty description is rejected, and a
// rejected approval leaves the existing context untouched.
func (s *Session) ApproveContext(name, description, geography string) error {
	candidate := types.CompanyContext{
		Name:            name,
		Description:     description,
		TargetGeography: geography,
	}
	if s.Context != nil {
		candidate.URL = s.Context.URL
		candidate.WebsiteContent = s.Context.WebsiteContent
		candidate.Confidence = s.Context.Confidence
	}
	if !candidate.HasDescription() {
		return &ErrEmptyDescription{}
	}
	if err := s.transitionContext(ContextApproved); err != nil {
		return err
	}
	s.Context = &candidate
	return nil
}

// ReopenContext moves an approved context back to review for editing.
func (s *Session) ReopenContext() error {
	return s.transitionContext(ContextGenerated)
}

// ResetContext discards the context entirely ("Start Over").
func (s *Session) ResetContext() error {
	if err := s.transitionContext(ContextEmpty); err != nil {
		return err
	}
	s.Context = nil
	return nil
}

// ContextApproved reports whether the approval gate is open.
func (s *Session) ContextApproved() bool {
	return s.ContextStage == ContextApproved
}

// BeginAnalysis checks the preconditions for personality analysis:
// scraping complete and context approved.
func (s *Session) BeginAnalysis() error {
	if s.Table == nil {
		return &ErrNoTable{}
	}
	if !s.ProcessingComplete {
		return &ErrNotScraped{}
	}
	if !s.ContextApproved() {
		return &ErrContextNotApproved{}
	}
	return nil
}

// CompleteAnalysis marks personality analysis done.
func (s *Session) CompleteAnalysis() error {
	if err := s.transition(StepAnalyzed); err != nil {
		return err
	}
	s.AnalysisComplete = true
	return nil
}
