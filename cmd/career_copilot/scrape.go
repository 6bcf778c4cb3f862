package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/career-copilot/internal/config"
)

func (c *cli) scrapeCmd() *cobra.Command {
	var (
		maxPages   int
		useBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape new job postings and store them",
		Long: `Pages through the LinkedIn guest job search, reads each posting, extracts its description,
requirements and key technologies with the model, and stores the postings that are not known yet.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Search result pages to read (default 1)")
	cmd.Flags().BoolVar(&useBrowser, "use-browser", false, "Render postings with a headless browser when the description is missing (requires Chrome)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := c.loadConfig(cmd, scrapeOverrides(cmd, &maxPages, &useBrowser))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, c.stdout, true)
		if err != nil {
			return err
		}
		defer a.Close()

		manager, err := a.jobsManager()
		if err != nil {
			return err
		}
		report, err := manager.ScrapeAll(ctx)
		a.printer.PrintScrapeReport(report)
		return err
	}
	return cmd
}

func scrapeOverrides(cmd *cobra.Command, maxPages *int, useBrowser *bool) func(*config.Config) {
	return func(cfg *config.Config) {
		if cmd.Flags().Changed("max-pages") {
			cfg.ScrapeMaxPages = *maxPages
		}
		if cmd.Flags().Changed("use-browser") {
			cfg.UseBrowser = *useBrowser
		}
	}
}
