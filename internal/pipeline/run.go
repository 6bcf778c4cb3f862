// Package pipeline sequences knowledge ingestion, resume ingestion, scraping and matching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-copilot/internal/ingestion"
	"github.com/jonathan/career-copilot/internal/knowledge"
	"github.com/jonathan/career-copilot/internal/matching"
)

// Step names reported in progress events
const (
	StepIngestKnowledge = "ingest_knowledge"
	StepIngestResume    = "ingest_resume"
	StepScrapeJobs      = "scrape_jobs"
	StepMatchJobs       = "match_jobs"
)

// Event categories
const (
	CategoryStarted   = "started"
	CategoryCompleted = "completed"
	CategorySkipped   = "skipped"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs. Calls are serialized.
type ProgressCallback func(event ProgressEvent)

// KnowledgeIngester loads the skill knowledge base.
type KnowledgeIngester interface {
	Ingest(ctx context.Context, knowledgeDir string) (*knowledge.IngestReport, error)
}

// ResumeProcessor stores a resume file as the active resume.
type ResumeProcessor interface {
	ProcessResume(ctx context.Context, path string) (*ingestion.ResumeReport, error)
}

// JobScraper collects new job postings.
type JobScraper interface {
	ScrapeAll(ctx context.Context) (*ingestion.ScrapeReport, error)
}

// Matcher scores unprocessed jobs against the active resume.
type Matcher interface {
	MatchAll(ctx context.Context) (*matching.Report, error)
}

// Pipeline holds the stages of a run. A nil stage is skipped.
type Pipeline struct {
	Knowledge KnowledgeIngester
	Resumes   ResumeProcessor
	Jobs      JobScraper
	Matcher   Matcher
	Logger    *zap.Logger
}

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	// KnowledgeDir is ingested when set.
	KnowledgeDir string
	// ResumePath is stored as the active resume when set.
	ResumePath string
	SkipScrape bool
	SkipMatch  bool
	OnProgress ProgressCallback
}

// Result collects the reports of the stages that ran.
type Result struct {
	RunID     string
	Knowledge *knowledge.IngestReport
	Resume    *ingestion.ResumeReport
	Scrape    *ingestion.ScrapeReport
	Match     *matching.Report
	Duration  time.Duration
}

type run struct {
	id     string
	opts   RunOptions
	logger *zap.Logger
	mu     sync.Mutex
}

// emit calls the progress callback if configured
func (r *run) emit(step, category, message string, content any) {
	r.logger.Info(message, zap.String("step", step), zap.String("category", category))
	if r.opts.OnProgress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.OnProgress(ProgressEvent{
		Step:     step,
		Category: category,
		Message:  message,
		RunID:    r.id,
		Content:  content,
	})
}

// Run executes the pipeline. Knowledge ingestion runs alongside resume
// ingestion and scraping; matching starts once all of them finished.
// When matching is cancelled the partial report is kept in the result.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	start := time.Now()
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &run{id: uuid.NewString(), opts: opts}
	r.logger = logger.With(zap.String("run_id", r.id))

	result := &Result{RunID: r.id}
	defer func() { result.Duration = time.Since(start) }()

	g, gCtx := errgroup.WithContext(ctx)

	// Knowledge branch
	g.Go(func() error {
		report, err := p.ingestKnowledge(gCtx, r)
		if err != nil {
			return err
		}
		result.Knowledge = report
		return nil
	})

	// Jobs branch: the resume goes first so a failing file stops the run before scraping
	g.Go(func() error {
		resume, err := p.ingestResume(gCtx, r)
		if err != nil {
			return err
		}
		result.Resume = resume

		scrape, err := p.scrapeJobs(gCtx, r)
		if err != nil {
			return err
		}
		result.Scrape = scrape
		return nil
	})

	if err := g.Wait(); err != nil {
		return result, err
	}

	match, err := p.matchJobs(ctx, r)
	result.Match = match
	if err != nil {
		return result, err
	}
	return result, nil
}

func (p *Pipeline) ingestKnowledge(ctx context.Context, r *run) (*knowledge.IngestReport, error) {
	if p.Knowledge == nil || r.opts.KnowledgeDir == "" {
		r.emit(StepIngestKnowledge, CategorySkipped, "Knowledge ingestion skipped", nil)
		return nil, nil
	}
	r.emit(StepIngestKnowledge, CategoryStarted, fmt.Sprintf("Ingesting knowledge base from %s", r.opts.KnowledgeDir), nil)

	report, err := p.Knowledge.Ingest(ctx, r.opts.KnowledgeDir)
	if err != nil {
		return nil, fmt.Errorf("knowledge ingestion failed: %w", err)
	}
	r.emit(StepIngestKnowledge, CategoryCompleted,
		fmt.Sprintf("Ingested %d documents for %d skills", report.Documents, report.Skills), report)
	return report, nil
}

func (p *Pipeline) ingestResume(ctx context.Context, r *run) (*ingestion.ResumeReport, error) {
	if p.Resumes == nil || r.opts.ResumePath == "" {
		r.emit(StepIngestResume, CategorySkipped, "Resume ingestion skipped, using the active resume", nil)
		return nil, nil
	}
	r.emit(StepIngestResume, CategoryStarted, fmt.Sprintf("Ingesting resume %s", r.opts.ResumePath), nil)

	report, err := p.Resumes.ProcessResume(ctx, r.opts.ResumePath)
	if err != nil {
		return nil, fmt.Errorf("resume ingestion failed: %w", err)
	}
	r.emit(StepIngestResume, CategoryCompleted, fmt.Sprintf("Stored resume %d for %s", report.ID, report.Name), report)
	return report, nil
}

func (p *Pipeline) scrapeJobs(ctx context.Context, r *run) (*ingestion.ScrapeReport, error) {
	if p.Jobs == nil || r.opts.SkipScrape {
		r.emit(StepScrapeJobs, CategorySkipped, "Scraping skipped", nil)
		return nil, nil
	}
	r.emit(StepScrapeJobs, CategoryStarted, "Scraping job boards", nil)

	report, err := p.Jobs.ScrapeAll(ctx)
	if err != nil {
		return report, fmt.Errorf("scraping failed: %w", err)
	}
	r.emit(StepScrapeJobs, CategoryCompleted,
		fmt.Sprintf("Added %d of %d scraped jobs", report.Added, report.Scraped), report)
	return report, nil
}

func (p *Pipeline) matchJobs(ctx context.Context, r *run) (*matching.Report, error) {
	if p.Matcher == nil || r.opts.SkipMatch {
		r.emit(StepMatchJobs, CategorySkipped, "Matching skipped", nil)
		return nil, nil
	}
	r.emit(StepMatchJobs, CategoryStarted, "Matching jobs against the active resume", nil)

	report, err := p.Matcher.MatchAll(ctx)
	if err != nil {
		if errors.Is(err, matching.ErrNoActiveResume) {
			return nil, fmt.Errorf("matching needs a resume, ingest one first: %w", err)
		}
		return report, fmt.Errorf("matching failed: %w", err)
	}
	r.emit(StepMatchJobs, CategoryCompleted,
		fmt.Sprintf("Scored %d jobs, %d failed", report.Succeeded, report.Failed), report)
	return report, nil
}
