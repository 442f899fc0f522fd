// Package writer renders a proposal plan as a markdown document.
//
// The model writes free-form prose when one is configured. The template
// strategy produces the same four sections deterministically and is used
// whenever the model is absent, fails, or returns nothing.
package writer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nao1215/web2proposal/internal/fallback"
	"github.com/nao1215/web2proposal/internal/llm"
	"github.com/nao1215/web2proposal/internal/model"
)

// StageName labels this stage in logs and fallback records.
const StageName = "write"

const temperature = 0.5

// Strategy renders a plan under a title. Implementations never fail and
// always return a document whose first line is "# " + title.
type Strategy interface {
	Write(ctx context.Context, plan model.Plan, title string) string
}

// LLMStrategy asks the model for the document text and falls back to the
// template on any failure.
type LLMStrategy struct {
	completer llm.Completer
	template  TemplateStrategy
	logger    *slog.Logger
}

// Write implements Strategy.
func (s LLMStrategy) Write(ctx context.Context, plan model.Plan, title string) string {
	return fallback.Run(ctx, s.logger, StageName,
		func(ctx context.Context) (string, error) {
			raw, err := s.completer.Complete(ctx, llm.Request{
				System:      systemPrompt,
				User:        buildPrompt(plan, title),
				Temperature: temperature,
			})
			if err != nil {
				return "", err
			}
			text := stripFence(raw)
			if text == "" {
				return "", llm.ErrEmptyResponse
			}
			return ensureTitle(text, singleLine(title)), nil
		},
		func() string {
			return s.template.Write(ctx, plan, title)
		},
	)
}

// Writer renders documents with the strategy chosen at construction.
type Writer struct {
	strategy Strategy
	logger   *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// New creates a Writer. A nil completer selects the template strategy.
func New(completer llm.Completer, opts ...Option) *Writer {
	w := &Writer{}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	if completer == nil {
		w.strategy = TemplateStrategy{}
	} else {
		w.strategy = LLMStrategy{completer: completer, logger: w.logger}
	}
	return w
}

// Strategy returns the strategy chosen at construction.
func (w *Writer) Strategy() Strategy {
	return w.strategy
}

// Write renders plan under title. It never fails.
func (w *Writer) Write(ctx context.Context, plan model.Plan, title string) string {
	return w.strategy.Write(ctx, plan.Normalize(), title)
}

// ensureTitle makes "# title" the first line of text. A leading heading of
// any level is replaced; otherwise the title is prepended. Any later
// level-one heading is demoted so the document keeps a single title.
func ensureTitle(text, title string) string {
	text = strings.TrimSpace(text)
	titleLine := "# " + title

	var body string
	if strings.HasPrefix(text, "#") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			body = text[i+1:]
		}
	} else {
		body = text
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") {
			lines[i] = "#" + line
		}
	}
	body = strings.TrimSpace(strings.Join(lines, "\n"))

	if body == "" {
		return titleLine + "\n"
	}
	return titleLine + "\n\n" + body + "\n"
}

// stripFence removes a ``` code fence wrapped around the whole reply.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		return ""
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
