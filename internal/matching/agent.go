package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/career-copilot/internal/llm"
	"github.com/jonathan/career-copilot/internal/logger"
	"github.com/jonathan/career-copilot/internal/prompts"
	"github.com/jonathan/career-copilot/internal/ranking"
	"github.com/jonathan/career-copilot/internal/schemas"
	"github.com/jonathan/career-copilot/internal/types"
)

// DefaultBatchSize is how many unprocessed jobs one MatchAll call scores.
const DefaultBatchSize = 10

// previewLength bounds prompt and response previews in debug logs.
const previewLength = 500

// Repository is the persistence the agent reads from and writes to.
type Repository interface {
	GetActiveResume(ctx context.Context) (*types.Resume, error)
	GetAllUnprocessedJobs(ctx context.Context) ([]types.Job, error)
	SaveMatchResult(ctx context.Context, resumeID int64, result types.MatchResult) error
}

// Options configures an Agent.
type Options struct {
	// BatchSize caps jobs per MatchAll. Zero or less means every unprocessed job.
	BatchSize int
	Limits    Limits
	Tier      llm.ModelTier
	// OnJobDone, if set, is called after each job with its result or error.
	OnJobDone func(job types.Job, result *types.MatchResult, err error)
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		BatchSize: DefaultBatchSize,
		Limits:    DefaultLimits(),
		Tier:      llm.TierStandard,
	}
}

// Report summarizes a MatchAll call.
type Report struct {
	ResumeID   int64
	Results    []types.MatchResult
	Succeeded  int
	Failed     int
	Considered int
	Backlog    int
	Duration   time.Duration
}

// Agent scores jobs against the active resume.
type Agent struct {
	repo      Repository
	knowledge KnowledgeQuerier
	client    llm.Client
	template  string
	opts      Options
	logger    *zap.Logger
}

// NewAgent returns an Agent. It fails if the matching prompt cannot be loaded.
func NewAgent(repo Repository, knowledge KnowledgeQuerier, client llm.Client, loader *prompts.Loader, opts Options, logger *zap.Logger) (*Agent, error) {
	if repo == nil || knowledge == nil || client == nil || loader == nil {
		return nil, errors.New("matching agent requires a repository, knowledge store, model client and prompt loader")
	}
	template, err := loader.Get(prompts.MatchingFile, prompts.KeyJobMatch)
	if err != nil {
		return nil, fmt.Errorf("failed to load matching prompt: %w", err)
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		repo:      repo,
		knowledge: knowledge,
		client:    client,
		template:  template,
		opts:      opts,
		logger:    logger,
	}, nil
}

// MatchAll scores up to BatchSize unprocessed jobs against the active resume and
// returns the successful results ranked. Failed jobs are logged and stay unprocessed.
// If ctx is cancelled it returns the results gathered so far together with ctx.Err().
func (a *Agent) MatchAll(ctx context.Context) (*Report, error) {
	start := time.Now()

	resume, err := a.repo.GetActiveResume(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active resume: %w", err)
	}
	if resume == nil {
		return nil, ErrNoActiveResume
	}

	jobs, err := a.repo.GetAllUnprocessedJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unprocessed jobs: %w", err)
	}

	report := &Report{ResumeID: resume.ID, Backlog: len(jobs), Results: []types.MatchResult{}}
	if a.opts.BatchSize > 0 && len(jobs) > a.opts.BatchSize {
		jobs = jobs[:a.opts.BatchSize]
	}
	report.Considered = len(jobs)

	a.logger.Info("matching jobs",
		zap.Int64("resume_id", resume.ID),
		zap.Int("considered", report.Considered),
		zap.Int("backlog", report.Backlog),
	)

	var ctxErr error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}

		result, err := a.matchAndSave(ctx, resume, job)
		if a.opts.OnJobDone != nil {
			a.opts.OnJobDone(job, result, err)
		}
		if err != nil {
			report.Failed++
			a.logger.Warn("job match failed",
				zap.String("job_id", job.JobID),
				zap.String("title", job.Title),
				zap.Error(err),
			)
			continue
		}
		report.Succeeded++
		report.Results = append(report.Results, *result)
	}

	ranking.Rank(report.Results)
	report.Duration = time.Since(start)

	a.logger.Info("matching finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration),
	)
	return report, ctxErr
}

func (a *Agent) matchAndSave(ctx context.Context, resume *types.Resume, job types.Job) (*types.MatchResult, error) {
	result, err := a.MatchOne(ctx, resume, &job)
	if err != nil {
		return nil, err
	}
	if err := a.repo.SaveMatchResult(ctx, resume.ID, *result); err != nil {
		return nil, fmt.Errorf("failed to save match for job %s: %w", job.JobID, err)
	}
	return result, nil
}

// matchResponse is the JSON object the model returns.
type matchResponse struct {
	TotalScore     float64  `json:"total_score"`
	Recommendation string   `json:"recommendation"`
	MatchingSkills []string `json:"matching_skills"`
	MissingSkills  []string `json:"missing_skills"`
}

// MatchOne scores a single resume and job pair.
func (a *Agent) MatchOne(ctx context.Context, resume *types.Resume, job *types.Job) (*types.MatchResult, error) {
	builder, err := NewContextBuilder(job, resume, a.knowledge, a.opts.Limits, a.logger)
	if err != nil {
		return nil, err
	}
	skillContext, err := builder.BuildContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build context for job %s: %w", job.JobID, err)
	}

	prompt := prompts.Format(a.template, map[string]string{
		"ResumeName":         resume.Name,
		"ResumeSkills":       resume.Skills,
		"ResumeExperience":   resume.Experience,
		"ResumeEducation":    resume.Education,
		"ResumeSummary":      resume.Summary,
		"JobTitle":           job.Title,
		"JobCompany":         job.Company,
		"JobDescription":     job.Description,
		"JobRequirements":    job.Requirements,
		"JobKeyTechnologies": job.KeyTechnologies,
		"SkillContext":       skillContext,
	})

	a.logger.Debug("match prompt",
		zap.String("job_id", job.JobID),
		zap.Int("length", len(prompt)),
		zap.String("preview", logger.TruncateForLog(prompt, previewLength)),
	)

	start := time.Now()
	raw, err := a.client.GenerateJSON(ctx, prompt, a.opts.Tier)
	if err != nil {
		return nil, &ScoringError{JobID: job.JobID, Message: "model call failed", Cause: err}
	}
	raw = llm.CleanJSONBlock(raw)
	a.logger.Debug("match response",
		zap.String("job_id", job.JobID),
		zap.String("preview", logger.TruncateForLog(raw, previewLength)),
	)

	if err := schemas.Validate(schemas.MatchResult, raw); err != nil {
		return nil, &ScoringError{JobID: job.JobID, Message: "response does not match schema", Cause: err}
	}

	var resp matchResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &ScoringError{JobID: job.JobID, Message: "failed to decode response", Cause: err}
	}

	result := &types.MatchResult{
		Job:            *job,
		TotalScore:     clampScore(resp.TotalScore),
		Recommendation: types.ParseRecommendation(resp.Recommendation),
		MatchingSkills: nonNil(resp.MatchingSkills),
		MissingSkills:  nonNil(resp.MissingSkills),
	}

	a.logger.Info("job scored",
		zap.String("job_id", job.JobID),
		zap.String("title", job.Title),
		zap.String("company", job.Company),
		zap.Float64("score", result.TotalScore),
		zap.Stringer("recommendation", result.Recommendation),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func clampScore(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(100, score))
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
