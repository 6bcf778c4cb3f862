package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-copilot/internal/config"
	"github.com/jonathan/career-copilot/internal/db"
)

func (c *cli) matchCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Score unprocessed jobs against the active resume",
		Long: `Builds a technical knowledge context for each unprocessed job, asks the model to score it
against the active resume, stores the results and prints them ranked by recommendation tier, then score.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Jobs to score in this run, negative for all (default 10)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := c.loadConfig(cmd, batchOverride(cmd, &batchSize))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, c.stdout, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ingest, err := a.needsKnowledgeIngest(ctx)
		if err != nil {
			return err
		}
		if ingest {
			report, err := a.knowledge.Ingest(ctx, cfg.KnowledgeDir)
			if err != nil {
				return err
			}
			a.printer.PrintIngestReport(report)
		}

		agent, err := a.agent(cfg.MatchBatchSize)
		if err != nil {
			return err
		}
		report, err := agent.MatchAll(ctx)
		a.printer.PrintMatchReport(report)
		return err
	}
	return cmd
}

func batchOverride(cmd *cobra.Command, batchSize *int) func(*config.Config) {
	return func(cfg *config.Config) {
		if cmd.Flags().Changed("batch-size") {
			cfg.MatchBatchSize = *batchSize
		}
	}
}

func (c *cli) resultsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List stored match results",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", db.DefaultMatchResultsLimit, "Most recent results to list")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if limit <= 0 {
			return fmt.Errorf("--limit must be positive, got %d", limit)
		}
		cfg, err := c.loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, c.stdout, false)
		if err != nil {
			return err
		}
		defer a.Close()

		matches, err := a.db.ListMatchResults(ctx, limit)
		if err != nil {
			return err
		}
		a.printer.PrintStoredMatches(matches)
		return nil
	}
	return cmd
}
