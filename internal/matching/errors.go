// Package matching scores the active resume against stored jobs using a language
// model prompted with skill knowledge relevant to each pair.
package matching

import (
	"errors"
	"fmt"
)

// ErrNoActiveResume is returned by MatchAll when no resume has been added.
var ErrNoActiveResume = errors.New("no active resume")

// DataIntegrityError reports stored data that cannot be used, such as a
// serialized field that is not valid JSON.
type DataIntegrityError struct {
	Field   string
	Message string
	Cause   error
}

func (e *DataIntegrityError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("data integrity error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("data integrity error: %s", msg)
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Cause
}

// ScoringError reports a failed or unusable model response for one job.
type ScoringError struct {
	JobID   string
	Message string
	Cause   error
}

func (e *ScoringError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoring job %s failed: %s: %v", e.JobID, e.Message, e.Cause)
	}
	return fmt.Sprintf("scoring job %s failed: %s", e.JobID, e.Message)
}

func (e *ScoringError) Unwrap() error {
	return e.Cause
}
