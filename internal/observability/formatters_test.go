package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hunter/lead-enricher/internal/scrape"
	"github.com/hunter/lead-enricher/internal/types"
)

func TestPrintCompanyContext(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCompanyContext(&types.CompanyContext{
		Name:            "Acme Plumbing Software",
		URL:             "https://acme.com",
		Description:     "Scheduling software for plumbing contractors.",
		TargetGeography: "North America",
		Confidence:      "High",
	})
	output := buf.String()

	assert.Contains(t, output, "COMPANY CONTEXT")
	assert.Contains(t, output, "Acme Plumbing Software")
	assert.Contains(t, output, "North America")
	assert.Contains(t, output, "High")
}

func TestPrintCompanyContext_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCompanyContext(nil)
	assert.Empty(t, buf.String())
}

func TestPrintScrapeSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintScrapeSummary(&scrape.Summary{Total: 10, Scraped: 8, Failed: 2})
	output := buf.String()

	assert.Contains(t, output, "SCRAPE SUMMARY")
	assert.Contains(t, output, "10")
	assert.Contains(t, output, "8")
	assert.Contains(t, output, "2")
}

func TestPrintAnalysisSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysisSummary(5, 2, 1)
	output := buf.String()

	assert.Contains(t, output, "PERSONALITY ANALYSIS")
	assert.Contains(t, output, "5")
}

func TestPrintProfileSample(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProfileSample("Jane Doe", &types.PersonalityProfile{
		PersonalityAnalysis:   "Pragmatic operator.",
		ConversationStyle:     "Direct.",
		ProfessionalInterests: "automation",
	})
	output := buf.String()

	assert.Contains(t, output, "Jane Doe")
	assert.Contains(t, output, "Pragmatic operator.")
}

func TestPrintProfileSample_EmptySkipped(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProfileSample("Jane", &types.PersonalityProfile{})
	assert.Empty(t, buf.String())
}
