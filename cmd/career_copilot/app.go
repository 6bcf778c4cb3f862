package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/career-copilot/internal/config"
	"github.com/jonathan/career-copilot/internal/db"
	"github.com/jonathan/career-copilot/internal/fetch"
	"github.com/jonathan/career-copilot/internal/ingestion"
	"github.com/jonathan/career-copilot/internal/knowledge"
	"github.com/jonathan/career-copilot/internal/llm"
	"github.com/jonathan/career-copilot/internal/logger"
	"github.com/jonathan/career-copilot/internal/matching"
	"github.com/jonathan/career-copilot/internal/observability"
	"github.com/jonathan/career-copilot/internal/parsing"
	"github.com/jonathan/career-copilot/internal/prompts"
	"github.com/jonathan/career-copilot/internal/scraper"
	"github.com/jonathan/career-copilot/internal/vectorindex"
)

var (
	errMissingDatabaseURL = errors.New("DATABASE_URL environment variable or --db-url flag is required")
	errMissingAPIKey      = errors.New("GEMINI_API_KEY environment variable or --api-key flag is required")
)

// app holds the components a command works with.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *db.DB
	client    llm.Client
	index     vectorindex.Index
	knowledge *knowledge.Store
	prompts   *prompts.Loader
	printer   *observability.Printer
}

// newApp connects to the database and, when withModel is set, builds the model
// client and everything that depends on it.
func newApp(ctx context.Context, cfg *config.Config, out io.Writer, withModel bool) (_ *app, err error) {
	if cfg.DatabaseURL == "" {
		return nil, errMissingDatabaseURL
	}
	if withModel && cfg.APIKey == "" {
		return nil, errMissingAPIKey
	}

	log, err := logger.New(cfg.LogJSON, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	a := &app{cfg: cfg, logger: log, printer: observability.NewPrinter(out)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.db, err = db.Connect(ctx, cfg.DatabaseURL, log); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := a.db.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	if !withModel {
		return a, nil
	}

	if cfg.PromptDir != "" {
		if a.prompts, err = prompts.FromDir(cfg.PromptDir); err != nil {
			return nil, fmt.Errorf("failed to open prompt directory: %w", err)
		}
	} else {
		a.prompts = prompts.Embedded()
	}

	llmConfig := llm.DefaultConfig().
		WithModel(llm.TierStandard, cfg.GenerationModel).
		WithEmbeddingModel(cfg.EmbeddingModel)
	gemini, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	guardOpts := llm.DefaultGuardOptions()
	guardOpts.Timeout = cfg.LLMTimeout()
	guardOpts.RequestsPerMinute = cfg.RequestsPerMinute()
	guardOpts.Logger = log
	guard := llm.NewGuard(guardOpts)

	a.client = llm.NewGuardedClient(gemini, guard)
	embedder := llm.NewGuardedEmbedder(gemini, guard)

	switch cfg.VectorBackend {
	case config.BackendMemory:
		a.index = vectorindex.NewMemory(embedder)
	default:
		a.index = vectorindex.NewPostgres(a.db, embedder, cfg.Collection, log)
	}
	a.knowledge = knowledge.NewStore(a.index, knowledge.Options{SkillsSubdir: cfg.SkillsSubdir}, log)

	log.Debug("application ready",
		zap.String("vector_backend", cfg.VectorBackend),
		zap.String("collection", cfg.Collection),
		zap.String("generation_model", a.client.GetModel(llm.TierStandard)),
	)
	return a, nil
}

// Close releases the model client and database pool.
func (a *app) Close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.logger.Warn("failed to close LLM client", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

// needsKnowledgeIngest reports whether the skill collection has to be built
// before matching. The memory backend starts empty in every process.
func (a *app) needsKnowledgeIngest(ctx context.Context) (bool, error) {
	exists, err := a.index.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check skill collection: %w", err)
	}
	return !exists, nil
}

func (a *app) extractor() (*parsing.Extractor, error) {
	return parsing.NewExtractor(a.client, a.prompts, a.logger)
}

func (a *app) agent(batchSize int) (*matching.Agent, error) {
	opts := matching.DefaultOptions()
	opts.BatchSize = batchSize
	opts.Limits = matching.Limits{
		Definitions:    a.cfg.PerSkillDefinitions,
		Tools:          a.cfg.PerSkillTools,
		Manifestations: a.cfg.PerExperienceManifestations,
	}
	return matching.NewAgent(a.db, a.knowledge, a.client, a.prompts, opts, a.logger)
}

func (a *app) resumeManager() (*ingestion.ResumeManager, error) {
	extractor, err := a.extractor()
	if err != nil {
		return nil, err
	}
	return ingestion.NewResumeManager(a.db, extractor, a.logger), nil
}

func (a *app) jobsManager() (*ingestion.JobsManager, error) {
	extractor, err := a.extractor()
	if err != nil {
		return nil, err
	}

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = a.cfg.ScrapeTimeout()
	fetchOpts.Client = &http.Client{Timeout: fetchOpts.Timeout}

	opts := scraper.LinkedInOptions{
		SearchURL: a.cfg.ScrapeSearchURL,
		MaxPages:  a.cfg.ScrapeMaxPages,
		Delay:     a.cfg.ScrapeDelay(),
		Fetch:     fetchOpts,
		Logger:    a.logger,
	}
	if a.cfg.UseBrowser {
		opts.Render = scraper.BrowserRenderer(a.cfg.ScrapeTimeout(), a.logger)
	}
	linkedIn, err := scraper.NewLinkedIn(opts)
	if err != nil {
		return nil, err
	}
	return ingestion.NewJobsManager(a.db, extractor, a.logger, linkedIn), nil
}
