// Package scraper collects raw job postings from job boards.
package scraper

import (
	"context"
	"fmt"

	"github.com/jonathan/career-copilot/internal/types"
)

// SkipFunc reports whether a job ID is already known. Known postings are not fetched.
type SkipFunc func(ctx context.Context, jobID string) (bool, error)

// Scraper fetches the current postings of one job board. A nil skip fetches every posting.
type Scraper interface {
	Name() string
	ScrapeJobs(ctx context.Context, skip SkipFunc) ([]types.RawJob, error)
}

// Error reports a failure to read a search page.
type Error struct {
	Source  string
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s scraper: %s (%s): %v", e.Source, e.Message, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s scraper: %s (%s)", e.Source, e.Message, e.URL)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
