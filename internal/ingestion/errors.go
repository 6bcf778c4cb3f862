// Package ingestion brings scraped jobs and resume files into the database.
package ingestion

import "fmt"

// FileError reports a resume file that could not be read.
type FileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *FileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resume file %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("resume file %s: %s", e.Path, e.Message)
}

func (e *FileError) Unwrap() error {
	return e.Cause
}
