// Package merger consolidates per-page extraction records into one view.
package merger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/web2proposal/internal/fallback"
	"github.com/nao1215/web2proposal/internal/llm"
	"github.com/nao1215/web2proposal/internal/model"
)

// StageName labels this stage in logs and fallback records.
const StageName = "merge"

// Caps applied by the heuristic strategy.
const (
	MaxFacts     = 10
	MaxArguments = 10
	MaxProblems  = 5
)

const temperature = 0.3

// Strategy merges two or more extraction records. Implementations never fail.
type Strategy interface {
	Merge(ctx context.Context, records []model.Extraction) model.MergedInfo
}

// HeuristicStrategy concatenates all records, removes duplicates keeping
// the first occurrence, and caps each list. Everything lands in
// CommonInfo; UniqueInfo and Themes stay empty.
type HeuristicStrategy struct{}

// Merge implements Strategy.
func (HeuristicStrategy) Merge(_ context.Context, records []model.Extraction) model.MergedInfo {
	var facts, arguments, problems []string
	for _, r := range records {
		facts = append(facts, r.Extracted.KeyFacts...)
		arguments = append(arguments, r.Extracted.KeyArguments...)
		problems = append(problems, r.Extracted.Problems...)
	}

	return model.MergedInfo{
		CommonInfo: model.InfoSet{
			Facts:     capped(dedupe(facts), MaxFacts),
			Arguments: capped(dedupe(arguments), MaxArguments),
			Problems:  capped(dedupe(problems), MaxProblems),
		},
	}.Normalize()
}

// LLMStrategy asks the model to separate shared from page-specific
// information and to name themes. The model's reply is used as-is once
// it decodes into MergedInfo.
type LLMStrategy struct {
	completer llm.Completer
	heuristic HeuristicStrategy
	logger    *slog.Logger
}

// Merge implements Strategy.
func (s LLMStrategy) Merge(ctx context.Context, records []model.Extraction) model.MergedInfo {
	return fallback.Run(ctx, s.logger, StageName,
		func(ctx context.Context) (model.MergedInfo, error) {
			return s.fromModel(ctx, records)
		},
		func() model.MergedInfo {
			return s.heuristic.Merge(ctx, records)
		},
	)
}

func (s LLMStrategy) fromModel(ctx context.Context, records []model.Extraction) (model.MergedInfo, error) {
	raw, err := s.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        buildPrompt(records),
		Temperature: temperature,
		JSON:        true,
	})
	if err != nil {
		return model.MergedInfo{}, err
	}

	var reply struct {
		CommonInfo *model.InfoSet `json:"common_info"`
		UniqueInfo *model.InfoSet `json:"unique_info"`
		Themes     []string       `json:"themes"`
	}
	if err := llm.DecodeJSON(raw, &reply); err != nil {
		return model.MergedInfo{}, err
	}
	if reply.CommonInfo == nil && reply.UniqueInfo == nil {
		return model.MergedInfo{}, fmt.Errorf("reply has neither common_info nor unique_info")
	}

	merged := model.MergedInfo{Themes: reply.Themes}
	if reply.CommonInfo != nil {
		merged.CommonInfo = *reply.CommonInfo
	}
	if reply.UniqueInfo != nil {
		merged.UniqueInfo = *reply.UniqueInfo
	}
	return merged.Normalize(), nil
}

// Merger merges extraction records with the strategy chosen at construction.
type Merger struct {
	strategy Strategy
	logger   *slog.Logger
}

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Merger) {
		m.logger = logger
	}
}

// New creates a Merger. A nil completer selects the heuristic strategy.
func New(completer llm.Completer, opts ...Option) *Merger {
	m := &Merger{}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	if completer == nil {
		m.strategy = HeuristicStrategy{}
	} else {
		m.strategy = LLMStrategy{completer: completer, logger: m.logger}
	}
	return m
}

// Strategy returns the strategy chosen at construction.
func (m *Merger) Strategy() Strategy {
	return m.strategy
}

// Merge consolidates records. It never fails.
//
// No records give an empty MergedInfo. A single record is passed through:
// its findings become CommonInfo verbatim, with no model call and no
// capping. Two or more records go through the strategy.
func (m *Merger) Merge(ctx context.Context, records []model.Extraction) model.MergedInfo {
	switch len(records) {
	case 0:
		return model.MergedInfo{}.Normalize()
	case 1:
		return model.MergedInfo{
			CommonInfo: model.InfoSetFromFindings(records[0].Extracted),
		}.Normalize()
	}

	merged := m.strategy.Merge(ctx, records)
	m.logger.Debug("merged records",
		"records", len(records),
		"facts", len(merged.CommonInfo.Facts)+len(merged.UniqueInfo.Facts),
		"themes", len(merged.Themes),
	)
	return merged
}

// dedupe removes repeated items, keeping the first occurrence of each.
// Items are compared after trimming surrounding whitespace.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func capped(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
