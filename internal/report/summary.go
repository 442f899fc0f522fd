package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/web2proposal/internal/model"
)

// SummaryWriter outputs a short human-readable summary of a run for
// terminal display.
type SummaryWriter struct {
	baseWriter

	// verbose adds the list of fetched pages.
	verbose bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithVerbose enables the page listing.
func WithVerbose(verbose bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.verbose = verbose
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary.
func (w *SummaryWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Run:       %s\n", run.ID)
	fmt.Fprintf(&sb, "Title:     %s\n", run.Title)
	fmt.Fprintf(&sb, "Pages:     %d/%d fetched\n", len(run.Pages), len(run.URLs))
	mode := run.Mode()
	if run.Model != "" {
		mode += " (" + run.Model + ")"
	}
	fmt.Fprintf(&sb, "Mode:      %s\n", mode)

	if fallbacks := run.FallbackStages(); len(fallbacks) > 0 {
		fmt.Fprintf(&sb, "Fallbacks: %s\n", strings.Join(countStages(fallbacks), ", "))
	}
	if run.OutputFile != "" {
		fmt.Fprintf(&sb, "Output:    %s\n", run.OutputFile)
	}
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "Elapsed:   %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}

	if w.verbose && len(run.Pages) > 0 {
		sb.WriteString("\nPages:\n")
		for i, p := range run.Pages {
			fmt.Fprintf(&sb, "  %d. %s\n     %s\n", i+1, p.Title, p.URL)
		}
	}

	return io.WriteString(w.output, sb.String())
}

// countStages collapses repeated stage names into "name xN" entries,
// keeping first-seen order.
func countStages(stages []string) []string {
	counts := make(map[string]int, len(stages))
	var order []string
	for _, s := range stages {
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}

	out := make([]string, 0, len(order))
	for _, s := range order {
		if counts[s] > 1 {
			out = append(out, fmt.Sprintf("%s x%d", s, counts[s]))
		} else {
			out = append(out, s)
		}
	}
	return out
}
