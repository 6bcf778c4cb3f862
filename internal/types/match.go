package types

import "time"

// MatchResult is the normalized outcome of scoring one resume against one job.
type MatchResult struct {
	Job            Job            `json:"job"`
	TotalScore     float64        `json:"total_score"`
	Recommendation Recommendation `json:"recommendation"`
	MatchingSkills []string       `json:"matching_skills"`
	MissingSkills  []string       `json:"missing_skills"`
}

// StoredMatch is a match result read back from storage.
type StoredMatch struct {
	ResumeID  int64     `json:"resume_id"`
	CreatedAt time.Time `json:"created_at"`
	MatchResult
}
