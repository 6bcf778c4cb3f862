package ingestion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/career-copilot/internal/scraper"
	"github.com/jonathan/career-copilot/internal/types"
)

// JobStore persists scraped jobs.
type JobStore interface {
	JobExists(ctx context.Context, jobID string) (bool, error)
	AddJobPosting(ctx context.Context, posting types.JobPosting) (bool, error)
}

// JobExtractor turns a scraped posting into its structured form.
type JobExtractor interface {
	ExtractJob(ctx context.Context, raw types.RawJob) (*types.JobExtraction, error)
}

// ScrapeReport counts what one ScrapeAll pass did.
type ScrapeReport struct {
	Scraped       int
	Added         int
	Duplicates    int
	Failed        int
	ScraperErrors int
	Duration      time.Duration
}

// JobsManager runs the scrapers and stores the new postings they find.
type JobsManager struct {
	scrapers  []scraper.Scraper
	store     JobStore
	extractor JobExtractor
	logger    *zap.Logger
}

// NewJobsManager returns a JobsManager.
func NewJobsManager(store JobStore, extractor JobExtractor, logger *zap.Logger, scrapers ...scraper.Scraper) *JobsManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobsManager{scrapers: scrapers, store: store, extractor: extractor, logger: logger}
}

// ScrapeAll runs every scraper and stores the postings that are not already
// known. Scrapers consult the store before fetching a posting, and known job IDs
// are checked again before any model call. A failing scraper or posting is
// logged and counted; only cancellation and store lookups abort the pass.
func (m *JobsManager) ScrapeAll(ctx context.Context) (*ScrapeReport, error) {
	start := time.Now()
	report := &ScrapeReport{}
	defer func() { report.Duration = time.Since(start) }()

	for _, s := range m.scrapers {
		log := m.logger.With(zap.String("source", s.Name()))

		var skipErr error
		skip := func(ctx context.Context, jobID string) (bool, error) {
			exists, err := m.store.JobExists(ctx, jobID)
			if err != nil {
				skipErr = err
				return false, err
			}
			if exists {
				report.Duplicates++
			}
			return exists, nil
		}

		jobs, err := s.ScrapeJobs(ctx, skip)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			if skipErr != nil {
				return report, fmt.Errorf("failed to check known jobs: %w", skipErr)
			}
			report.ScraperErrors++
			log.Warn("scraper failed", zap.Int("partial_jobs", len(jobs)), zap.Error(err))
		}
		report.Scraped += len(jobs)

		for _, raw := range jobs {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if err := m.ingest(ctx, raw, report, log); err != nil {
				return report, err
			}
		}
	}

	m.logger.Info("scrape finished",
		zap.Int("scraped", report.Scraped),
		zap.Int("added", report.Added),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// ingest stores one posting, updating report. It returns an error only when
// the pass cannot continue.
func (m *JobsManager) ingest(ctx context.Context, raw types.RawJob, report *ScrapeReport, log *zap.Logger) error {
	log = log.With(zap.String("job_id", raw.JobID))

	exists, err := m.store.JobExists(ctx, raw.JobID)
	if err != nil {
		return fmt.Errorf("failed to check job %s: %w", raw.JobID, err)
	}
	if exists {
		report.Duplicates++
		log.Debug("job already stored")
		return nil
	}

	if err := raw.Validate(); err != nil {
		report.Failed++
		log.Warn("skipping invalid job", zap.String("reason", types.DescribeValidation(err)))
		return nil
	}

	extraction, err := m.extractor.ExtractJob(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.Failed++
		log.Warn("job extraction failed", zap.Error(err))
		return nil
	}

	inserted, err := m.store.AddJobPosting(ctx, types.JobPosting{Raw: raw, Extraction: *extraction})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.Failed++
		log.Warn("failed to store job", zap.Error(err))
		return nil
	}
	if !inserted {
		report.Duplicates++
		log.Debug("job conflicted with a stored posting")
		return nil
	}

	report.Added++
	log.Info("job stored", zap.String("title", raw.Title), zap.String("company", raw.Company))
	return nil
}
