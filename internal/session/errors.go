// Package session holds the explicit, serializable per-session workflow state
// that replaces page-level mutable globals: the contact table, the column
// mapping, the company context, and an enumerated wizard step with validated
// transitions.
package session

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound indicates the session does not exist or has expired.
type ErrNotFound struct {
	ID uuid.UUID
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// ErrInvalidTransition indicates a wizard step change the transition table
// does not allow.
type ErrInvalidTransition struct {
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// ErrNoTable indicates an operation that needs an uploaded contact table.
type ErrNoTable struct{}

func (e *ErrNoTable) Error() string {
	return "no contact table uploaded"
}

// ErrNoMapping indicates an operation that needs a column mapping.
type ErrNoMapping struct{}

func (e *ErrNoMapping) Error() string {
	return "no column mapping set"
}

// ErrNotScraped indicates personality analysis was requested before website
// processing completed.
type ErrNotScraped struct{}

func (e *ErrNotScraped) Error() string {
	return "website scraping has not completed"
}

// ErrContextNotApproved indicates the approval gate is still closed.
type ErrContextNotApproved struct{}

func (e *ErrContextNotApproved) Error() string {
	return "company context has not been approved"
}

// ErrBusy indicates the session's table is locked by a long-running batch
// (scrape or analysis). Structural table changes would shift row indices
// out from under the batch's merge.
type ErrBusy struct {
	Op string
}

func (e *ErrBusy) Error() string {
	return fmt.Sprintf("session is busy: %s in progress", e.Op)
}

// ErrEmptyDescription indicates an approval attempt without a description.
type ErrEmptyDescription struct{}

func (e *ErrEmptyDescription) Error() string {
	return "company description must not be empty"
}
