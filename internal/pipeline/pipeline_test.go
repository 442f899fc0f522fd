package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/web2proposal/internal/fallback"
	"github.com/nao1215/web2proposal/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *model.Run) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *model.Run) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// describedStep adds a progress description to mockStep.
type describedStep struct {
	mockStep
	text string
}

func (d *describedStep) Describe(_ *model.Run) string {
	return d.text
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.StepCount() != 0 {
		t.Errorf("expected 0 steps, got %d", p.StepCount())
	}
	if p.Logger() == nil {
		t.Error("expected a default logger")
	}
}

func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	if p.StepCount() != 3 {
		t.Errorf("expected 3 steps, got %d", p.StepCount())
	}

	expected := []string{"first", "second", "third"}
	for i, name := range p.StepNames() {
		if name != expected[i] {
			t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
		}
	}
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)
		record := func(name string) func(context.Context, *model.Run) error {
			return func(_ context.Context, _ *model.Run) error {
				executionOrder = append(executionOrder, name)
				return nil
			}
		}

		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{name: "step-1", doFunc: record("step-1")})
		p.AddStep(&mockStep{name: "step-2", doFunc: record("step-2")})

		run := model.NewRun(nil)
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Join(executionOrder, ",") != "step-1,step-2" {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
		if strings.Join(run.PerformedSteps, ",") != "step-1,step-2" {
			t.Errorf("expected performed steps recorded, got %v", run.PerformedSteps)
		}
		if run.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.Run) error {
				return expectedErr
			},
		})
		p.AddStep(second)

		run := model.NewRun(nil)
		err := p.Execute(context.Background(), run)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if !strings.HasPrefix(err.Error(), "failing-step: ") {
			t.Errorf("expected error to name the step, got %q", err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if len(run.PerformedSteps) != 0 {
			t.Errorf("expected no performed steps, got %v", run.PerformedSteps)
		}
		if !run.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to stay unset")
		}
	})

	t.Run("respects cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		second := &mockStep{name: "second"}

		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{
			name: "first",
			doFunc: func(_ context.Context, _ *model.Run) error {
				cancel()
				return nil
			},
		})
		p.AddStep(second)

		err := p.Execute(ctx, model.NewRun(nil))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("expected second step to be skipped")
		}
	})

	t.Run("installs the run as fallback recorder", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{
			name: "falls-back",
			doFunc: func(ctx context.Context, _ *model.Run) error {
				_ = fallback.Run(ctx, quietLogger(), "stage-x",
					func(context.Context) (int, error) { return 0, errors.New("boom") },
					func() int { return 1 },
				)
				return nil
			},
		})

		run := model.NewRun(nil)
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := run.FallbackStages(); len(got) != 1 || got[0] != "stage-x" {
			t.Errorf("expected fallback to be recorded, got %v", got)
		}
	})

	t.Run("prints progress", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		p := New(WithLogger(quietLogger()), WithProgress(&buf))
		p.AddStep(&describedStep{mockStep: mockStep{name: "alpha"}, text: "did alpha"})
		p.AddStep(&mockStep{name: "beta"})

		if err := p.Execute(context.Background(), model.NewRun(nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{"[1/2] alpha...", "did alpha", "[2/2] beta..."} {
			if !strings.Contains(out, want) {
				t.Errorf("expected progress to contain %q, got:\n%s", want, out)
			}
		}
	})
}
