package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-copilot/internal/config"
	"github.com/jonathan/career-copilot/internal/pipeline"
)

func (c *cli) runCmd() *cobra.Command {
	var (
		resumeFile      string
		ingestKnowledge bool
		skipScrape      bool
		maxPages        int
		useBrowser      bool
		batchSize       int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: knowledge, resume, scraping and matching",
		Long: `Ingests the knowledge base when asked to (or when the skill collection does not exist yet),
stores --resume as the active resume when given, scrapes new postings and scores them.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&resumeFile, "resume", "r", "", "Resume file to store as the active resume before matching")
	cmd.Flags().BoolVar(&ingestKnowledge, "ingest-knowledge", false, "Rebuild the knowledge base before matching")
	cmd.Flags().BoolVar(&skipScrape, "skip-scrape", false, "Only match jobs that are already stored")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Search result pages to read (default 1)")
	cmd.Flags().BoolVar(&useBrowser, "use-browser", false, "Render postings with a headless browser when needed (requires Chrome)")
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Jobs to score in this run, negative for all (default 10)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := c.loadConfig(cmd,
			scrapeOverrides(cmd, &maxPages, &useBrowser),
			batchOverride(cmd, &batchSize),
			func(cfg *config.Config) {
				if cmd.Flags().Changed("resume") {
					cfg.ResumeFile = resumeFile
				}
			},
		)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, c.stdout, true)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := pipeline.RunOptions{ResumePath: cfg.ResumeFile, SkipScrape: skipScrape}
		missing, err := a.needsKnowledgeIngest(ctx)
		if err != nil {
			return err
		}
		if ingestKnowledge || missing {
			opts.KnowledgeDir = cfg.KnowledgeDir
		}
		if cfg.Verbose {
			opts.OnProgress = func(e pipeline.ProgressEvent) {
				_, _ = fmt.Fprintf(c.stdout, "[%s] %s\n", e.Step, e.Message)
			}
		}

		p := &pipeline.Pipeline{Logger: a.logger}
		p.Knowledge = a.knowledge
		if p.Resumes, err = a.resumeManager(); err != nil {
			return err
		}
		if p.Jobs, err = a.jobsManager(); err != nil {
			return err
		}
		if p.Matcher, err = a.agent(cfg.MatchBatchSize); err != nil {
			return err
		}

		result, err := p.Run(ctx, opts)
		if result != nil {
			a.printer.PrintIngestReport(result.Knowledge)
			a.printer.PrintResumeReport(result.Resume)
			a.printer.PrintScrapeReport(result.Scrape)
			a.printer.PrintMatchReport(result.Match)
		}
		return err
	}
	return cmd
}
