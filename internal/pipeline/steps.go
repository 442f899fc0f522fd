package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/web2proposal/internal/extractor"
	"github.com/nao1215/web2proposal/internal/llm"
	"github.com/nao1215/web2proposal/internal/merger"
	"github.com/nao1215/web2proposal/internal/model"
	"github.com/nao1215/web2proposal/internal/planner"
	"github.com/nao1215/web2proposal/internal/writer"
)

// ErrNoPages is returned by the fetch step when none of the URLs produced
// a usable page. Nothing downstream runs and no document is written.
var ErrNoPages = errors.New("no page could be fetched")

// PageFetcher fetches many URLs, dropping the ones that fail.
type PageFetcher interface {
	FetchMultiple(ctx context.Context, urls []string) []model.Page
}

// PageExtractor pulls findings out of every page.
type PageExtractor interface {
	ExtractMultiple(ctx context.Context, pages []model.Page) []model.Extraction
}

// InfoMerger consolidates extraction records.
type InfoMerger interface {
	Merge(ctx context.Context, records []model.Extraction) model.MergedInfo
}

// ProposalPlanner outlines the proposal.
type ProposalPlanner interface {
	Plan(ctx context.Context, merged model.MergedInfo) model.Plan
}

// DocumentWriter renders the outline as a markdown document.
type DocumentWriter interface {
	Write(ctx context.Context, plan model.Plan, title string) string
}

// FetchStep downloads and cleans every URL of the run.
type FetchStep struct {
	fetcher PageFetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher PageFetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fills run.Pages. It fails with ErrNoPages when nothing was fetched.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	run.Pages = s.fetcher.FetchMultiple(ctx, run.URLs)
	if run.Pages == nil {
		run.Pages = []model.Page{}
	}
	if len(run.Pages) == 0 {
		return ErrNoPages
	}
	return nil
}

// Describe implements Describer.
func (s *FetchStep) Describe(run *model.Run) string {
	return fmt.Sprintf("fetched %d/%d pages", len(run.Pages), len(run.URLs))
}

// ExtractStep produces one extraction record per page.
type ExtractStep struct {
	extractor PageExtractor
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(e PageExtractor) *ExtractStep {
	return &ExtractStep{extractor: e}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return extractor.StageName
}

// Do fills run.Extractions.
func (s *ExtractStep) Do(ctx context.Context, run *model.Run) error {
	run.Extractions = s.extractor.ExtractMultiple(ctx, run.Pages)
	if run.Extractions == nil {
		run.Extractions = []model.Extraction{}
	}
	return nil
}

// Describe implements Describer.
func (s *ExtractStep) Describe(run *model.Run) string {
	var facts, args, problems int
	for _, e := range run.Extractions {
		facts += len(e.Extracted.KeyFacts)
		args += len(e.Extracted.KeyArguments)
		problems += len(e.Extracted.Problems)
	}
	return fmt.Sprintf("extracted %d facts, %d arguments, %d problems from %d pages",
		facts, args, problems, len(run.Extractions))
}

// MergeStep consolidates the extraction records.
type MergeStep struct {
	merger InfoMerger
}

// NewMergeStep creates a MergeStep.
func NewMergeStep(m InfoMerger) *MergeStep {
	return &MergeStep{merger: m}
}

// Name returns the step name.
func (s *MergeStep) Name() string {
	return merger.StageName
}

// Do fills run.Merged.
func (s *MergeStep) Do(ctx context.Context, run *model.Run) error {
	run.Merged = s.merger.Merge(ctx, run.Extractions).Normalize()
	return nil
}

// Describe implements Describer.
func (s *MergeStep) Describe(run *model.Run) string {
	c, u := run.Merged.CommonInfo, run.Merged.UniqueInfo
	return fmt.Sprintf("merged into %d common and %d unique items",
		len(c.Facts)+len(c.Arguments)+len(c.Problems),
		len(u.Facts)+len(u.Arguments)+len(u.Problems))
}

// PlanStep outlines the proposal.
type PlanStep struct {
	planner ProposalPlanner
}

// NewPlanStep creates a PlanStep.
func NewPlanStep(p ProposalPlanner) *PlanStep {
	return &PlanStep{planner: p}
}

// Name returns the step name.
func (s *PlanStep) Name() string {
	return planner.StageName
}

// Do fills run.Plan.
func (s *PlanStep) Do(ctx context.Context, run *model.Run) error {
	run.Plan = s.planner.Plan(ctx, run.Merged).Normalize()
	return nil
}

// WriteStep renders the final document under a title derived from the
// number of fetched pages.
type WriteStep struct {
	writer DocumentWriter
}

// NewWriteStep creates a WriteStep.
func NewWriteStep(w DocumentWriter) *WriteStep {
	return &WriteStep{writer: w}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return writer.StageName
}

// Do fills run.Title and run.Document.
func (s *WriteStep) Do(ctx context.Context, run *model.Run) error {
	run.Title = model.ProposalTitle(len(run.Pages))
	run.Document = s.writer.Write(ctx, run.Plan, run.Title)
	return nil
}

// Describe implements Describer.
func (s *WriteStep) Describe(run *model.Run) string {
	return fmt.Sprintf("wrote %q (%d characters)", run.Title, len([]rune(run.Document)))
}

// DefaultPipeline builds the five-step pipeline. A nil completer runs every
// stage in its deterministic mode. Stages log through the pipeline logger;
// extraction runs up to concurrency pages at a time.
func DefaultPipeline(fetcher PageFetcher, completer llm.Completer, concurrency int, opts ...Option) *Pipeline {
	p := New(opts...)
	logger := p.Logger()

	p.AddSteps(
		NewFetchStep(fetcher),
		NewExtractStep(extractor.New(completer,
			extractor.WithLogger(logger),
			extractor.WithConcurrency(concurrency),
		)),
		NewMergeStep(merger.New(completer, merger.WithLogger(logger))),
		NewPlanStep(planner.New(completer, planner.WithLogger(logger))),
		NewWriteStep(writer.New(completer, writer.WithLogger(logger))),
	)
	return p
}
