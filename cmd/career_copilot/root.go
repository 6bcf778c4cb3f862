package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-copilot/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	databaseURL string
	apiKey      string
	verbose     bool
	logJSON     bool
}

type cli struct {
	flags  globalFlags
	stdout io.Writer
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "career_copilot",
		Short: "Scrape job postings and rank them against your resume",
		Long: `career_copilot keeps a knowledge base of technical skills, scrapes job boards,
and asks a language model how well each new posting fits the active resume.

Configuration can be loaded from a JSON file using --config. Command-line flags override
config file values, and GEMINI_API_KEY and DATABASE_URL fill in missing credentials.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	pf.StringVar(&c.flags.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	pf.StringVar(&c.flags.apiKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "Print detailed debug information")
	pf.BoolVar(&c.flags.logJSON, "log-json", false, "Write logs as JSON")

	root.AddCommand(
		c.runCmd(),
		c.ingestKnowledgeCmd(),
		c.ingestResumeCmd(),
		c.scrapeCmd(),
		c.matchCmd(),
		c.resultsCmd(),
	)
	return root
}

// loadConfig resolves the configuration for cmd: config file, then flags that
// were set explicitly, then defaults, then the environment.
func (c *cli) loadConfig(cmd *cobra.Command, overrides ...func(*config.Config)) (*config.Config, error) {
	var cfg config.Config
	if c.flags.configPath != "" {
		loaded, err := config.LoadConfig(c.flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("db-url") {
		cfg.DatabaseURL = c.flags.databaseURL
	}
	if flags.Changed("api-key") {
		cfg.APIKey = c.flags.apiKey
	}
	if flags.Changed("verbose") {
		cfg.Verbose = c.flags.verbose
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = c.flags.logJSON
	}
	for _, override := range overrides {
		override(&cfg)
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
