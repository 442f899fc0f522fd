// Package planner turns merged information into the four-section proposal outline.
package planner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/web2proposal/internal/fallback"
	"github.com/nao1215/web2proposal/internal/llm"
	"github.com/nao1215/web2proposal/internal/model"
)

// StageName labels this stage in logs and fallback records.
const StageName = "plan"

const temperature = 0.3

var errUnexpectedShape = errors.New("reply has none of the plan sections")

// Strategy builds a Plan from non-empty merged information.
// Implementations never fail.
type Strategy interface {
	Plan(ctx context.Context, merged model.MergedInfo) model.Plan
}

// HeuristicStrategy slices the pooled facts, arguments and problems into
// plan sections by position.
type HeuristicStrategy struct{}

// Plan implements Strategy.
//
// Common and unique information are pooled, common first. Background takes
// the leading facts, the current situation the leading arguments, and the
// proposed solutions the trailing three arguments.
func (HeuristicStrategy) Plan(_ context.Context, merged model.MergedInfo) model.Plan {
	facts := pool(merged.CommonInfo.Facts, merged.UniqueInfo.Facts)
	arguments := pool(merged.CommonInfo.Arguments, merged.UniqueInfo.Arguments)
	problems := pool(merged.CommonInfo.Problems, merged.UniqueInfo.Problems)

	return model.Plan{
		Background: model.Background{
			MainPoints: head(facts, 5),
			KeyFacts:   head(facts, 3),
		},
		CurrentSituation: model.CurrentSituation{
			MainPoints: head(arguments, 5),
			Analysis:   head(arguments, 3),
		},
		KeyProblems: model.KeyProblems{
			Problems: head(problems, 5),
			Impact:   head(problems, 3),
		},
		ProposedSolutions: model.ProposedSolutions{
			Solutions: tail(arguments, 3),
			Rationale: []string{},
		},
	}.Normalize()
}

// LLMStrategy asks the model for the plan and falls back to the heuristic
// strategy on any failure.
type LLMStrategy struct {
	completer llm.Completer
	heuristic HeuristicStrategy
	logger    *slog.Logger
}

// Plan implements Strategy.
func (s LLMStrategy) Plan(ctx context.Context, merged model.MergedInfo) model.Plan {
	return fallback.Run(ctx, s.logger, StageName,
		func(ctx context.Context) (model.Plan, error) {
			return s.fromModel(ctx, merged)
		},
		func() model.Plan {
			return s.heuristic.Plan(ctx, merged)
		},
	)
}

func (s LLMStrategy) fromModel(ctx context.Context, merged model.MergedInfo) (model.Plan, error) {
	raw, err := s.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        buildPrompt(merged),
		Temperature: temperature,
		JSON:        true,
	})
	if err != nil {
		return model.Plan{}, err
	}

	var reply struct {
		Background        *model.Background        `json:"background"`
		CurrentSituation  *model.CurrentSituation  `json:"current_situation"`
		KeyProblems       *model.KeyProblems       `json:"key_problems"`
		ProposedSolutions *model.ProposedSolutions `json:"proposed_solutions"`
	}
	if err := llm.DecodeJSON(raw, &reply); err != nil {
		return model.Plan{}, err
	}
	if reply.Background == nil && reply.CurrentSituation == nil &&
		reply.KeyProblems == nil && reply.ProposedSolutions == nil {
		return model.Plan{}, errUnexpectedShape
	}

	var plan model.Plan
	if reply.Background != nil {
		plan.Background = *reply.Background
	}
	if reply.CurrentSituation != nil {
		plan.CurrentSituation = *reply.CurrentSituation
	}
	if reply.KeyProblems != nil {
		plan.KeyProblems = *reply.KeyProblems
	}
	if reply.ProposedSolutions != nil {
		plan.ProposedSolutions = *reply.ProposedSolutions
	}
	return plan.Normalize(), nil
}

// Planner builds plans with the strategy chosen at construction.
type Planner struct {
	strategy Strategy
	logger   *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// New creates a Planner. A nil completer selects the heuristic strategy.
func New(completer llm.Completer, opts ...Option) *Planner {
	p := &Planner{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	if completer == nil {
		p.strategy = HeuristicStrategy{}
	} else {
		p.strategy = LLMStrategy{completer: completer, logger: p.logger}
	}
	return p
}

// Strategy returns the strategy chosen at construction.
func (p *Planner) Strategy() Strategy {
	return p.strategy
}

// Plan builds the proposal outline. Empty merged information yields
// model.EmptyPlan without consulting the strategy. Plan never fails.
func (p *Planner) Plan(ctx context.Context, merged model.MergedInfo) model.Plan {
	if merged.IsEmpty() {
		return model.EmptyPlan()
	}
	return p.strategy.Plan(ctx, merged)
}

func pool(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// head returns a copy of the first n items of s, or all of s if shorter.
func head(s []string, n int) []string {
	if len(s) < n {
		n = len(s)
	}
	out := make([]string, n)
	copy(out, s[:n])
	return out
}

// tail returns a copy of the last n items of s in their original order,
// or all of s if shorter.
func tail(s []string, n int) []string {
	if len(s) < n {
		n = len(s)
	}
	out := make([]string, n)
	copy(out, s[len(s)-n:])
	return out
}
