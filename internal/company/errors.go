// Package company analyzes the seller's website to build a company context
// that personalizes every downstream personality analysis.
package company

import "fmt"

// AnalysisError represents a failure in company context analysis
type AnalysisError struct {
	URL     string
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("company analysis error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("company analysis error for %s: %s", e.URL, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// AdjustmentError represents a failure applying user feedback to a context
type AdjustmentError struct {
	Message string
	Cause   error
}

func (e *AdjustmentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("context adjustment error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("context adjustment error: %s", e.Message)
}

func (e *AdjustmentError) Unwrap() error {
	return e.Cause
}
