// Package observability provides the boxed summaries printed by the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/career-copilot/internal/ingestion"
	"github.com/jonathan/career-copilot/internal/knowledge"
	"github.com/jonathan/career-copilot/internal/matching"
	"github.com/jonathan/career-copilot/internal/ranking"
	"github.com/jonathan/career-copilot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// skillsWidth bounds a joined skill list inside a box
	skillsWidth = 52
)

// Printer writes human-readable reports.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintIngestReport outputs the result of a knowledge ingestion pass.
func (p *Printer) PrintIngestReport(report *knowledge.IngestReport) {
	if report == nil {
		return
	}
	content := fmt.Sprintf("Files:      %d\nSkills:     %d\nDocuments:  %d", report.Files, report.Skills, report.Documents)
	p.printBox("KNOWLEDGE BASE INGESTED", content)
}

// PrintResumeReport outputs the stored resume.
func (p *Printer) PrintResumeReport(report *ingestion.ResumeReport) {
	if report == nil {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Resume ID:  %d\n", report.ID)
	fmt.Fprintf(&sb, "Name:       %s\n", report.Name)
	fmt.Fprintf(&sb, "File:       %s\n", report.Path)
	fmt.Fprintf(&sb, "Skills:     %d\n", report.Skills)
	fmt.Fprintf(&sb, "SHA-256:    %s", shortHash(report.Hash))
	p.printBox("ACTIVE RESUME", sb.String())
}

// PrintScrapeReport outputs the counts of a scraping pass.
func (p *Printer) PrintScrapeReport(report *ingestion.ScrapeReport) {
	if report == nil {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scraped:     %d\n", report.Scraped)
	fmt.Fprintf(&sb, "Added:       %d\n", report.Added)
	fmt.Fprintf(&sb, "Duplicates:  %d\n", report.Duplicates)
	fmt.Fprintf(&sb, "Failed:      %d", report.Failed)
	if report.ScraperErrors > 0 {
		fmt.Fprintf(&sb, "\nScraper errors: %d", report.ScraperErrors)
	}
	fmt.Fprintf(&sb, "\nTook:        %s", report.Duration.Round(time.Millisecond))
	p.printBox("JOB SCRAPE", sb.String())
}

// PrintMatchReport outputs the ranked results of a matching pass.
func (p *Printer) PrintMatchReport(report *matching.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Resume %d: scored %d of %d jobs", report.ResumeID, report.Succeeded, report.Considered)
	if report.Failed > 0 {
		fmt.Fprintf(&sb, " (%d failed)", report.Failed)
	}
	if left := report.Backlog - report.Considered; left > 0 {
		fmt.Fprintf(&sb, ", %d left for later runs", left)
	}
	sb.WriteString("\n")

	if len(report.Results) > 0 {
		sb.WriteString(tierSummary(ranking.TierCounts(report.Results)))
		sb.WriteString("\n\n")
		writeResults(&sb, report.Results, maxItemsToShow)
	}

	p.printBox("JOB MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStoredMatches outputs previously saved matches, best first.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStoredMatches(matches []types.StoredMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(p.out, "No match results stored yet.")
		return
	}

	sorted := make([]types.StoredMatch, len(matches))
	copy(sorted, matches)
	ranking.RankStored(sorted)

	results := make([]types.MatchResult, len(sorted))
	for i, m := range sorted {
		results[i] = m.MatchResult
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d stored matches\n\n", len(results))
	writeResults(&sb, results, len(results))
	p.printBox("STORED MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

func writeResults(sb *strings.Builder, results []types.MatchResult, limit int) {
	count := min(len(results), limit)
	for i := 0; i < count; i++ {
		r := results[i]
		fmt.Fprintf(sb, "#%d  %s  %.0f\n", i+1, r.Recommendation, r.TotalScore)
		fmt.Fprintf(sb, "    %s @ %s\n", r.Job.Title, r.Job.Company)
		if len(r.MatchingSkills) > 0 {
			fmt.Fprintf(sb, "    + %s\n", truncate(strings.Join(r.MatchingSkills, ", "), skillsWidth))
		}
		if len(r.MissingSkills) > 0 {
			fmt.Fprintf(sb, "    - %s\n", truncate(strings.Join(r.MissingSkills, ", "), skillsWidth))
		}
		if r.Job.URL != "" {
			fmt.Fprintf(sb, "    %s\n", r.Job.URL)
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(results) > count {
		fmt.Fprintf(sb, "\n... and %d more\n", len(results)-count)
	}
}

func tierSummary(counts map[types.Recommendation]int) string {
	var parts []string
	for tier := types.RecommendationStrong; tier <= types.RecommendationUnknown; tier++ {
		if n := counts[tier]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", tier, n))
		}
	}
	return strings.Join(parts, " | ")
}

// truncate shortens s to at most width runes, marking the cut with "...".
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func shortHash(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
