// Package parsing turns raw job postings and resume text into structured records with a language model.
package parsing

import (
	"fmt"

	"github.com/jonathan/career-copilot/internal/schemas"
)

// APICallError means the model never answered an extraction request.
// Nothing was stored, so the posting or resume can be extracted again on the next run.
type APICallError struct {
	Schema schemas.Name
	Cause  error
}

func (e *APICallError) Error() string {
	return fmt.Sprintf("%s extraction: model call failed: %v", e.Schema, e.Cause)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ParseError means the model answered with text that is not JSON or does not fit Schema.
type ParseError struct {
	Schema  schemas.Name
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s extraction: %s: %v", e.Schema, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s extraction: %s", e.Schema, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError rejects a record before it is stored. Record is "job" or "resume".
// Empty resume text fails here without a model call.
type ValidationError struct {
	Record  string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Record, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
