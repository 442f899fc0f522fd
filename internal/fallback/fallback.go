// Package fallback implements the "try the model, otherwise compute it"
// policy shared by every LLM-capable stage.
//
// A stage runs at most one model attempt per unit of work. Any failure
// (transport, timeout, unusable reply) is logged and the deterministic
// producer supplies the result instead, so a stage never fails because of
// the model.
package fallback

import (
	"context"
	"log/slog"
)

// Recorder is notified whenever a stage falls back. model.Run satisfies it.
type Recorder interface {
	RecordFallback(stage string)
}

type recorderKey struct{}

// WithRecorder returns a context that carries r. Stages running under that
// context report their fallbacks to it.
func WithRecorder(ctx context.Context, r Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

func recorderFrom(ctx context.Context) Recorder {
	r, _ := ctx.Value(recorderKey{}).(Recorder)
	return r
}

// Run calls primary and returns its result. If primary fails, the failure
// is logged under stage and alternate's result is returned instead.
// alternate must not fail.
func Run[T any](
	ctx context.Context,
	logger *slog.Logger,
	stage string,
	primary func(context.Context) (T, error),
	alternate func() T,
) T {
	result, err := primary(ctx)
	if err == nil {
		return result
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("llm attempt failed, using fallback",
		"stage", stage,
		"error", err,
	)
	if r := recorderFrom(ctx); r != nil {
		r.RecordFallback(stage)
	}
	return alternate()
}
