// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/form-filler/internal/types"
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

// PrintFillReport outputs the per-field results of a fill run.
func (p *Printer) PrintFillReport(label string, outcome types.Outcome) {
	var sb strings.Builder

	if label != "" {
		sb.WriteString(fmt.Sprintf("Page:     %s\n", label))
	}
	sb.WriteString(fmt.Sprintf("Run:      %s\n", outcome.RunID))
	sb.WriteString(fmt.Sprintf("State:    %s\n", outcome.State))
	if outcome.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason:   %s\n", outcome.Reason))
	}

	report := outcome.Report
	if report == nil {
		p.printBox("FILL ABORTED", strings.TrimSuffix(sb.String(), "\n"))
		return
	}

	if report.CandidateID != "" {
		sb.WriteString(fmt.Sprintf("Candidate: %s\n", report.CandidateID))
	}
	sb.WriteString(fmt.Sprintf("Filled:   %d of %d\n", report.Filled, report.Eligible))
	sb.WriteString(fmt.Sprintf("Took:     %s\n", report.Duration.Round(time.Millisecond)))

	if len(report.Fields) > 0 {
		sb.WriteString("\n")
	}
	for _, f := range report.Fields {
		switch f.Status {
		case types.StatusFilled:
			sb.WriteString(fmt.Sprintf("✓ %s → %s (%s)\n", f.Key, f.Alias, f.Tier))
		case types.StatusOptionNotMatched:
			sb.WriteString(fmt.Sprintf("~ %s → %s (no matching option)\n", f.Key, f.Alias))
		default:
			sb.WriteString(fmt.Sprintf("✗ %s\n", f.Key))
		}
	}

	p.printBox("FILL REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidates outputs a short list of candidates with their ids.
func (p *Printer) PrintCandidates(candidates []types.Candidate) {
	if len(candidates) == 0 {
		p.printBox("CANDIDATES", "No candidates found")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total candidates: %d\n\n", len(candidates)))

	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := candidates[i].Record()
		sb.WriteString(fmt.Sprintf("[%s] %s", rec.Initials(), rec.FullName()))
		if rec.ID != "" {
			sb.WriteString(fmt.Sprintf("  #%s", rec.ID))
		}
		sb.WriteString("\n")
		if rec.Email != "" {
			sb.WriteString(fmt.Sprintf("     %s\n", rec.Email))
		}
	}

	if len(candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more candidates", len(candidates)-maxItemsToShow))
	}

	p.printBox("CANDIDATES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAliases outputs the alias table, one data key per block.
func (p *Printer) PrintAliases(keys []string, lookup func(string) []string) {
	var sb strings.Builder
	for i, key := range keys {
		sb.WriteString(fmt.Sprintf("%s\n", key))
		for _, alias := range lookup(key) {
			sb.WriteString(fmt.Sprintf("  • %s\n", alias))
		}
		if i < len(keys)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("FIELD ALIASES", strings.TrimSuffix(sb.String(), "\n"))
}
