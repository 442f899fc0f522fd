// Package batch runs a function over a slice concurrently while keeping
// results in input order.
package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a Processor is created without WithConcurrency.
const DefaultConcurrency = 4

// Processor fans work out over a bounded number of goroutines.
//
// Each item writes its result into its own slot of a pre-allocated slice,
// so no locking is needed and output order always matches input order.
// Item failures never cancel sibling items: the work function reports
// failure through its second return value and the item is dropped.
type Processor struct {
	concurrency int
	logger      *slog.Logger
	name        string
	runAll      bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithConcurrency sets the maximum number of items processed at once.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger used for batch-level messages.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithName labels log messages, e.g. "fetch" or "extract".
func WithName(name string) Option {
	return func(p *Processor) {
		p.name = name
	}
}

// WithRunAll makes Map call the work function for every item even after
// ctx is cancelled. The function still receives the cancelled ctx, so it
// can take a cheap path. Use it for stages that must yield one result per item.
func WithRunAll() Option {
	return func(p *Processor) {
		p.runAll = true
	}
}

// New creates a Processor.
func New(opts ...Option) *Processor {
	p := &Processor{
		concurrency: DefaultConcurrency,
		name:        "batch",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Concurrency returns the configured concurrency limit.
func (p *Processor) Concurrency() int {
	return p.concurrency
}

// Map applies fn to every item and returns the successful results in input
// order. fn returns ok=false to drop an item. Items not yet started when ctx
// is cancelled are dropped as well, unless the Processor was built WithRunAll.
func Map[T, R any](ctx context.Context, p *Processor, items []T, fn func(ctx context.Context, index int, item T) (R, bool)) []R {
	if len(items) == 0 {
		return []R{}
	}

	p.logger.Debug("starting batch",
		"batch", p.name,
		"total", len(items),
		"concurrency", p.concurrency,
	)
	start := time.Now()

	results := make([]R, len(items))
	kept := make([]bool, len(items))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, item := range items {
		g.Go(func() error {
			if ctx.Err() != nil && !p.runAll {
				return nil
			}
			r, ok := fn(ctx, i, item)
			if ok {
				results[i] = r
				kept[i] = true
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // work functions never return errors

	out := make([]R, 0, len(items))
	for i, ok := range kept {
		if ok {
			out = append(out, results[i])
		}
	}

	p.logger.Debug("batch complete",
		"batch", p.name,
		"total", len(items),
		"kept", len(out),
		"elapsed", time.Since(start),
	)
	return out
}
