package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/web2proposal/internal/llm"
	"github.com/nao1215/web2proposal/internal/model"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
	last  llm.Request
}

func (s *stubCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.calls++
	s.last = req
	return s.reply, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func numbered(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

func joined(s []string) string {
	return strings.Join(s, ",")
}

func TestPlanner_EmptyInput(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{reply: `{"background":{"main_points":["x"]}}`}
	got := New(stub, WithLogger(quietLogger())).Plan(context.Background(), model.MergedInfo{})

	if stub.calls != 0 {
		t.Errorf("expected no model call for empty input, got %d", stub.calls)
	}
	if len(got.Background.MainPoints) != 0 || got.ProposedSolutions.Rationale == nil {
		t.Errorf("expected the empty plan, got %+v", got)
	}
}

func TestHeuristicStrategy(t *testing.T) {
	t.Parallel()

	t.Run("slices pooled information", func(t *testing.T) {
		t.Parallel()

		merged := model.MergedInfo{
			CommonInfo: model.InfoSet{
				Facts:     numbered("f", 4),
				Arguments: numbered("a", 4),
				Problems:  numbered("p", 2),
			},
			UniqueInfo: model.InfoSet{
				Facts:     []string{"u1", "u2"},
				Arguments: []string{"b1"},
				Problems:  []string{"q1", "q2", "q3", "q4"},
			},
		}

		got := HeuristicStrategy{}.Plan(context.Background(), merged)

		checks := []struct {
			name string
			got  []string
			want string
		}{
			{"background.main_points", got.Background.MainPoints, "f1,f2,f3,f4,u1"},
			{"background.key_facts", got.Background.KeyFacts, "f1,f2,f3"},
			{"current_situation.main_points", got.CurrentSituation.MainPoints, "a1,a2,a3,a4,b1"},
			{"current_situation.analysis", got.CurrentSituation.Analysis, "a1,a2,a3"},
			{"key_problems.problems", got.KeyProblems.Problems, "p1,p2,q1,q2,q3"},
			{"key_problems.impact", got.KeyProblems.Impact, "p1,p2,q1"},
			{"proposed_solutions.solutions", got.ProposedSolutions.Solutions, "a3,a4,b1"},
			{"proposed_solutions.rationale", got.ProposedSolutions.Rationale, ""},
		}
		for _, c := range checks {
			if joined(c.got) != c.want {
				t.Errorf("%s: expected %q, got %q", c.name, c.want, joined(c.got))
			}
		}
	})

	t.Run("solutions are the last three arguments", func(t *testing.T) {
		t.Parallel()

		merged := model.MergedInfo{CommonInfo: model.InfoSet{Arguments: []string{"a", "b", "c", "d"}}}
		got := HeuristicStrategy{}.Plan(context.Background(), merged)

		if joined(got.ProposedSolutions.Solutions) != "b,c,d" {
			t.Errorf("expected [b c d], got %v", got.ProposedSolutions.Solutions)
		}
	})

	t.Run("fewer than three items are used whole", func(t *testing.T) {
		t.Parallel()

		merged := model.MergedInfo{CommonInfo: model.InfoSet{
			Arguments: []string{"a", "b"},
			Problems:  []string{"p"},
		}}
		got := HeuristicStrategy{}.Plan(context.Background(), merged)

		if joined(got.ProposedSolutions.Solutions) != "a,b" {
			t.Errorf("expected [a b], got %v", got.ProposedSolutions.Solutions)
		}
		if joined(got.KeyProblems.Impact) != "p" {
			t.Errorf("expected [p], got %v", got.KeyProblems.Impact)
		}
		if got.Background.MainPoints == nil {
			t.Error("expected non-nil lists")
		}
	})

	t.Run("does not alias input slices", func(t *testing.T) {
		t.Parallel()

		facts := []string{"f1", "f2", "f3"}
		merged := model.MergedInfo{CommonInfo: model.InfoSet{Facts: facts}}
		got := HeuristicStrategy{}.Plan(context.Background(), merged)

		got.Background.KeyFacts[0] = "changed"
		if facts[0] != "f1" {
			t.Error("expected plan to own its slices")
		}
	})
}

func TestLLMStrategy(t *testing.T) {
	t.Parallel()

	merged := model.MergedInfo{
		CommonInfo: model.InfoSet{Facts: []string{"f1"}, Arguments: []string{"a1"}},
		Themes:     []string{"energy"},
	}

	t.Run("uses model plan", func(t *testing.T) {
		t.Parallel()

		stub := &stubCompleter{reply: `{"background":{"main_points":["m"],"key_facts":["k"]},"proposed_solutions":{"solutions":["s1","s2"]}}`}
		got := New(stub, WithLogger(quietLogger())).Plan(context.Background(), merged)

		if joined(got.Background.KeyFacts) != "k" {
			t.Errorf("expected key facts from model, got %v", got.Background.KeyFacts)
		}
		if joined(got.ProposedSolutions.Solutions) != "s1,s2" {
			t.Errorf("expected solutions from model, got %v", got.ProposedSolutions.Solutions)
		}
		if got.KeyProblems.Problems == nil || got.ProposedSolutions.Rationale == nil {
			t.Error("expected missing sections to be normalized")
		}
		if !stub.last.JSON || stub.last.Temperature != 0.3 {
			t.Errorf("expected JSON mode at 0.3, got %+v", stub.last)
		}
		if !strings.Contains(stub.last.User, "energy") || !strings.Contains(stub.last.User, "f1") {
			t.Errorf("expected merged info in prompt, got %q", stub.last.User)
		}
	})

	fallbackCases := []struct {
		name string
		stub *stubCompleter
	}{
		{name: "error", stub: &stubCompleter{err: errors.New("rate limited")}},
		{name: "garbage", stub: &stubCompleter{reply: "```"}},
		{name: "unrelated json", stub: &stubCompleter{reply: `{"answer":42}`}},
		{name: "wrong types", stub: &stubCompleter{reply: `{"background":{"main_points":"text"}}`}},
	}

	for _, tc := range fallbackCases {
		t.Run("falls back on "+tc.name, func(t *testing.T) {
			t.Parallel()

			got := New(tc.stub, WithLogger(quietLogger())).Plan(context.Background(), merged)
			want := HeuristicStrategy{}.Plan(context.Background(), merged)

			if joined(got.Background.KeyFacts) != joined(want.Background.KeyFacts) {
				t.Errorf("expected heuristic plan, got %+v", got)
			}
			if joined(got.ProposedSolutions.Solutions) != joined(want.ProposedSolutions.Solutions) {
				t.Errorf("expected heuristic solutions, got %v", got.ProposedSolutions.Solutions)
			}
		})
	}
}
