package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/career-copilot/internal/config"
)

func (c *cli) ingestKnowledgeCmd() *cobra.Command {
	var knowledgeDir string

	cmd := &cobra.Command{
		Use:   "ingest-knowledge",
		Short: "Rebuild the skill knowledge base from YAML skill files",
		Long: `Reads every .yaml/.yml file under <knowledge-dir>/<skills_subdir>, embeds one document per
definition, tool and resume example, and replaces the skill collection with them.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&knowledgeDir, "knowledge-dir", "k", "", "Root of the knowledge base (default data/knowledge)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := c.loadConfig(cmd, func(cfg *config.Config) {
			if cmd.Flags().Changed("knowledge-dir") {
				cfg.KnowledgeDir = knowledgeDir
			}
		})
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, c.stdout, true)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.knowledge.Ingest(ctx, cfg.KnowledgeDir)
		if err != nil {
			return err
		}
		a.printer.PrintIngestReport(report)
		return nil
	}
	return cmd
}

func (c *cli) ingestResumeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "ingest-resume",
		Short: "Store a resume file as the active resume",
		Long: `Extracts the text of a PDF, .txt or .md resume, asks the model for its sections
(contact details, skills, education, experience, projects) and stores it as the only active resume.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the resume file")
	_ = cmd.MarkFlagRequired("file")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := c.loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, c.stdout, true)
		if err != nil {
			return err
		}
		defer a.Close()

		manager, err := a.resumeManager()
		if err != nil {
			return err
		}
		report, err := manager.ProcessResume(ctx, file)
		if err != nil {
			return err
		}
		a.printer.PrintResumeReport(report)
		return nil
	}
	return cmd
}
