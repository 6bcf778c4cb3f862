package types

import "time"

// Resume is a stored resume. Skills, Education, Experience and Projects hold serialized JSON.
type Resume struct {
	ID          int64     `json:"id"`
	RawText     string    `json:"raw_text"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Skills      string    `json:"skills"`
	Education   string    `json:"education"`
	Experience  string    `json:"experience"`
	Summary     string    `json:"summary"`
	Projects    string    `json:"projects"`
	UploadedAt  time.Time `json:"uploaded_at"`
	IsActive    bool      `json:"is_active"`
}

// ResumeExtraction is the structured view of a resume returned by the model.
type ResumeExtraction struct {
	Name        string       `json:"name" validate:"required"`
	Email       string       `json:"email"`
	PhoneNumber string       `json:"phone_number"`
	Skills      []string     `json:"skills" validate:"dive,required"`
	Education   []Education  `json:"education" validate:"dive"`
	Experience  []Experience `json:"experience" validate:"dive"`
	Summary     string       `json:"summary"`
	Projects    []Project    `json:"projects" validate:"dive"`
}

// Education is one education entry on a resume.
type Education struct {
	Institution  string `json:"institution"`
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
}

// Experience is one position on a resume.
type Experience struct {
	Company          string   `json:"company"`
	Title            string   `json:"title"`
	StartDate        string   `json:"start_date,omitempty"`
	EndDate          string   `json:"end_date,omitempty"`
	Responsibilities []string `json:"responsibilities"`
}

// Project is one project entry on a resume.
type Project struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// ResumeDetails is what gets persisted when a resume is added.
type ResumeDetails struct {
	RawText string
	ResumeExtraction
}
