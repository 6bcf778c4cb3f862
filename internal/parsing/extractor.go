package parsing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/career-copilot/internal/llm"
	"github.com/jonathan/career-copilot/internal/logger"
	"github.com/jonathan/career-copilot/internal/prompts"
	"github.com/jonathan/career-copilot/internal/schemas"
	"github.com/jonathan/career-copilot/internal/types"
)

// previewLength bounds prompt and response previews in debug logs.
const previewLength = 500

// Extractor asks the model for structured versions of job postings and resumes.
type Extractor struct {
	client    llm.Client
	tier      llm.ModelTier
	jobPrompt string
	cvPrompt  string
	logger    *zap.Logger
}

// NewExtractor returns an Extractor. Both extraction prompts must be present in loader.
func NewExtractor(client llm.Client, loader *prompts.Loader, logger *zap.Logger) (*Extractor, error) {
	if err := loader.Require(prompts.ExtractionFile, prompts.KeyExtractJob, prompts.KeyExtractResume); err != nil {
		return nil, fmt.Errorf("extraction prompts unavailable: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		client:    client,
		tier:      llm.TierLite,
		jobPrompt: loader.MustGet(prompts.ExtractionFile, prompts.KeyExtractJob),
		cvPrompt:  loader.MustGet(prompts.ExtractionFile, prompts.KeyExtractResume),
		logger:    logger,
	}, nil
}

// ExtractJob summarizes a scraped posting into description, requirements and key technologies.
func (e *Extractor) ExtractJob(ctx context.Context, raw types.RawJob) (*types.JobExtraction, error) {
	content := fmt.Sprintf("Title: %s\nCompany: %s\nLocation: %s\n\n%s", raw.Title, raw.Company, raw.Location, raw.Description)
	prompt := prompts.Format(e.jobPrompt, map[string]string{"JobContent": content})

	var extraction types.JobExtraction
	if err := e.extract(ctx, prompt, schemas.JobExtraction, &extraction); err != nil {
		return nil, err
	}

	extraction.Description = strings.TrimSpace(extraction.Description)
	extraction.Requirements = CleanLines(extraction.Requirements)
	extraction.KeyTechnologies = NormalizeSkills(extraction.KeyTechnologies)

	if err := extraction.Validate(); err != nil {
		return nil, &ValidationError{Record: "job", Message: types.DescribeValidation(err), Cause: err}
	}

	e.logger.Debug("job extracted",
		zap.String("job_id", raw.JobID),
		zap.Int("requirements", len(extraction.Requirements)),
		zap.Int("key_technologies", len(extraction.KeyTechnologies)),
	)
	return &extraction, nil
}

// ExtractResume parses plain resume text into its sections.
func (e *Extractor) ExtractResume(ctx context.Context, text string) (*types.ResumeExtraction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Record: "resume", Message: "resume text is empty"}
	}
	prompt := prompts.Format(e.cvPrompt, map[string]string{"ResumeText": text})

	var extraction types.ResumeExtraction
	if err := e.extract(ctx, prompt, schemas.ResumeExtraction, &extraction); err != nil {
		return nil, err
	}

	extraction.Name = strings.TrimSpace(extraction.Name)
	extraction.Skills = NormalizeSkills(extraction.Skills)
	for i := range extraction.Experience {
		extraction.Experience[i].Responsibilities = CleanLines(extraction.Experience[i].Responsibilities)
	}

	if err := extraction.Validate(); err != nil {
		return nil, &ValidationError{Record: "resume", Message: types.DescribeValidation(err), Cause: err}
	}

	e.logger.Debug("resume extracted",
		zap.String("name", extraction.Name),
		zap.Int("skills", len(extraction.Skills)),
		zap.Int("experience", len(extraction.Experience)),
	)
	return &extraction, nil
}

// extract calls the model, checks the response against schema and decodes it into out.
func (e *Extractor) extract(ctx context.Context, prompt string, schema schemas.Name, out any) error {
	e.logger.Debug("extraction prompt",
		zap.String("schema", string(schema)),
		zap.String("preview", logger.TruncateForLog(prompt, previewLength)),
	)
	responseText, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return &APICallError{Schema: schema, Cause: err}
	}
	responseText = llm.CleanJSONBlock(responseText)
	e.logger.Debug("extraction response",
		zap.String("schema", string(schema)),
		zap.String("preview", logger.TruncateForLog(responseText, previewLength)),
	)

	if err := schemas.Validate(schema, responseText); err != nil {
		return &ParseError{Schema: schema, Message: "response does not match the schema", Cause: err}
	}
	if err := json.Unmarshal([]byte(responseText), out); err != nil {
		return &ParseError{Schema: schema, Message: "failed to decode response", Cause: err}
	}
	return nil
}
