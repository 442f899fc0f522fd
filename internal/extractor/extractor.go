// Package extractor turns a fetched page into facts, arguments and problems.
//
// With a language model configured, each page is summarized by the model in
// JSON mode. Without one, or whenever a model call fails, paragraphs are
// picked from the page text by position.
package extractor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/nao1215/web2proposal/internal/batch"
	"github.com/nao1215/web2proposal/internal/fallback"
	"github.com/nao1215/web2proposal/internal/llm"
	"github.com/nao1215/web2proposal/internal/model"
)

// StageName labels this stage in logs and fallback records.
const StageName = "extract"

const (
	// MaxContentRunes is how much page text is sent to the model.
	MaxContentRunes = 8000

	// MinParagraphRunes is the length a paragraph must exceed to be
	// picked by the heuristic strategy.
	MinParagraphRunes = 50

	maxFacts     = 5
	maxArguments = 5

	temperature = 0.3
)

// errUnexpectedShape is returned when a model reply has none of the
// expected keys.
var errUnexpectedShape = errors.New("reply has none of key_facts, key_arguments, problems")

// Strategy extracts findings from one page. Implementations never fail.
type Strategy interface {
	Extract(ctx context.Context, page model.Page) model.Findings
}

// HeuristicStrategy picks long paragraphs by position: the first five
// become facts, the next five arguments. It never reports problems.
type HeuristicStrategy struct{}

// Extract implements Strategy.
func (HeuristicStrategy) Extract(_ context.Context, page model.Page) model.Findings {
	paragraphs := make([]string, 0)
	for _, p := range strings.Split(page.Content, "\n\n") {
		p = strings.TrimSpace(p)
		if len([]rune(p)) > MinParagraphRunes {
			paragraphs = append(paragraphs, p)
		}
	}

	return model.Findings{
		KeyFacts:     window(paragraphs, 0, maxFacts),
		KeyArguments: window(paragraphs, maxFacts, maxFacts+maxArguments),
		Problems:     []string{},
	}
}

// LLMStrategy asks the model for findings and falls back to the
// heuristic strategy on any failure.
type LLMStrategy struct {
	completer llm.Completer
	heuristic HeuristicStrategy
	logger    *slog.Logger
}

// Extract implements Strategy.
func (s LLMStrategy) Extract(ctx context.Context, page model.Page) model.Findings {
	return fallback.Run(ctx, s.logger, StageName,
		func(ctx context.Context) (model.Findings, error) {
			return s.fromModel(ctx, page)
		},
		func() model.Findings {
			return s.heuristic.Extract(ctx, page)
		},
	)
}

func (s LLMStrategy) fromModel(ctx context.Context, page model.Page) (model.Findings, error) {
	raw, err := s.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        buildPrompt(page),
		Temperature: temperature,
		JSON:        true,
	})
	if err != nil {
		return model.Findings{}, err
	}

	var reply struct {
		KeyFacts     *[]string `json:"key_facts"`
		KeyArguments *[]string `json:"key_arguments"`
		Problems     *[]string `json:"problems"`
	}
	if err := llm.DecodeJSON(raw, &reply); err != nil {
		return model.Findings{}, err
	}
	if reply.KeyFacts == nil && reply.KeyArguments == nil && reply.Problems == nil {
		return model.Findings{}, errUnexpectedShape
	}

	return model.Findings{
		KeyFacts:     cleanItems(reply.KeyFacts),
		KeyArguments: cleanItems(reply.KeyArguments),
		Problems:     cleanItems(reply.Problems),
	}, nil
}

// Extractor runs the configured strategy over pages.
type Extractor struct {
	strategy    Strategy
	concurrency int
	logger      *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithConcurrency sets how many pages are extracted at once.
func WithConcurrency(n int) Option {
	return func(e *Extractor) {
		e.concurrency = n
	}
}

// New creates an Extractor. A nil completer selects the heuristic
// strategy for the lifetime of the Extractor.
func New(completer llm.Completer, opts ...Option) *Extractor {
	e := &Extractor{concurrency: batch.DefaultConcurrency}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	if completer == nil {
		e.strategy = HeuristicStrategy{}
	} else {
		e.strategy = LLMStrategy{completer: completer, logger: e.logger}
	}
	return e
}

// Strategy returns the strategy chosen at construction.
func (e *Extractor) Strategy() Strategy {
	return e.strategy
}

// Extract produces the extraction record for page. It never fails.
func (e *Extractor) Extract(ctx context.Context, page model.Page) model.Extraction {
	return model.NewExtraction(page, e.strategy.Extract(ctx, page))
}

// ExtractMultiple extracts every page concurrently and returns one record
// per page, in page order. A cancelled ctx does not drop pages: their model
// calls fail at once and the heuristic fills in.
func (e *Extractor) ExtractMultiple(ctx context.Context, pages []model.Page) []model.Extraction {
	processor := batch.New(
		batch.WithConcurrency(e.concurrency),
		batch.WithLogger(e.logger),
		batch.WithName(StageName),
		batch.WithRunAll(),
	)

	return batch.Map(ctx, processor, pages, func(ctx context.Context, _ int, page model.Page) (model.Extraction, bool) {
		record := e.Extract(ctx, page)
		e.logger.Debug("extracted page",
			"url", page.URL,
			"facts", len(record.Extracted.KeyFacts),
			"arguments", len(record.Extracted.KeyArguments),
			"problems", len(record.Extracted.Problems),
		)
		return record, true
	})
}

// window returns a copy of s[from:to], clamped to the bounds of s.
func window(s []string, from, to int) []string {
	if from > len(s) {
		from = len(s)
	}
	if to > len(s) {
		to = len(s)
	}
	out := make([]string, to-from)
	copy(out, s[from:to])
	return out
}

// cleanItems trims every item and drops the empty ones.
func cleanItems(items *[]string) []string {
	out := make([]string, 0)
	if items == nil {
		return out
	}
	for _, item := range *items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
