// Package types defines the resume, job and match entities shared across packages.
package types

import "time"

// Job is a stored job posting. Requirements and KeyTechnologies hold serialized JSON lists.
type Job struct {
	ID              int64     `json:"id"`
	JobID           string    `json:"job_id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	Requirements    string    `json:"requirements"`
	KeyTechnologies string    `json:"key_technologies"`
	URL             string    `json:"url"`
	Source          string    `json:"source"`
	ScrapedAt       time.Time `json:"scraped_at"`
	Processed       bool      `json:"processed"`
	MatchScore      *float64  `json:"match_score,omitempty"`
}

// RawJob is a job as it comes off a scraper, before any model extraction.
type RawJob struct {
	JobID       string    `json:"job_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Company     string    `json:"company" validate:"required"`
	Location    string    `json:"location"`
	Description string    `json:"description" validate:"required"`
	URL         string    `json:"url" validate:"required,url"`
	Source      string    `json:"source" validate:"required"`
	ScrapedAt   time.Time `json:"scraped_at" validate:"required"`
}

// JobExtraction is the structured view of a posting returned by the model.
type JobExtraction struct {
	Description     string   `json:"description" validate:"required"`
	Requirements    []string `json:"requirements" validate:"dive,required"`
	KeyTechnologies []string `json:"key_technologies" validate:"dive,required"`
}

// JobPosting is what gets persisted for a newly scraped job.
type JobPosting struct {
	Raw        RawJob
	Extraction JobExtraction
}
