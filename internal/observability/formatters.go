// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/hunter/lead-enricher/internal/scrape"
	"github.com/hunter/lead-enricher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
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
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCompanyContext outputs a human-readable summary of the company context.
func (p *Printer) PrintCompanyContext(ctx *types.CompanyContext) {
	if ctx == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:    %s\n", ctx.Name))
	if ctx.URL != "" {
		sb.WriteString(fmt.Sprintf("URL:        %s\n", ctx.URL))
	}
	if ctx.TargetGeography != "" {
		sb.WriteString(fmt.Sprintf("Geography:  %s\n", ctx.TargetGeography))
	}
	if ctx.Confidence != "" {
		sb.WriteString(fmt.Sprintf("Confidence: %s\n", ctx.Confidence))
	}
	sb.WriteString("\n")

	desc := ctx.Description
	lines := strings.Split(desc, "\n")
	count := min(len(lines), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(lines[i])
		sb.WriteString("\n")
	}
	if len(lines) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more lines\n", len(lines)-maxItemsToShow))
	}

	if ctx.Warning != "" {
		sb.WriteString(fmt.Sprintf("\nWarning: %s\n", ctx.Warning))
	}

	p.printBox("COMPANY CONTEXT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScrapeSummary outputs the outcome of a batch scrape.
func (p *Printer) PrintScrapeSummary(summary *scrape.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Contacts:  %d\n", summary.Total))
	sb.WriteString(fmt.Sprintf("Scraped:   %d\n", summary.Scraped))
	sb.WriteString(fmt.Sprintf("Failed:    %d", summary.Failed))

	p.printBox("SCRAPE SUMMARY", sb.String())
}

// PrintAnalysisSummary outputs the outcome of a personality analysis run.
func (p *Printer) PrintAnalysisSummary(analyzed, skipped, failed int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyzed:  %d\n", analyzed))
	sb.WriteString(fmt.Sprintf("Skipped:   %d\n", skipped))
	sb.WriteString(fmt.Sprintf("Failed:    %d", failed))

	p.printBox("PERSONALITY ANALYSIS", sb.String())
}

// PrintProfileSample outputs one analyzed profile for spot checking.
func (p *Printer) PrintProfileSample(contactName string, profile *types.PersonalityProfile) {
	if profile == nil || profile.IsEmpty() {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Contact: %s\n\n", contactName))
	sb.WriteString(fmt.Sprintf("Personality: %s\n", profile.PersonalityAnalysis))
	sb.WriteString(fmt.Sprintf("Style:       %s\n", profile.ConversationStyle))
	if profile.ProfessionalInterests != "" {
		sb.WriteString(fmt.Sprintf("Interests:   %s", profile.ProfessionalInterests))
	}

	p.printBox("PROFILE SAMPLE", strings.TrimSuffix(sb.String(), "\n"))
}
