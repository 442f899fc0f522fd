package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run accumulates the artifacts of one pipeline invocation.
// Each pipeline step reads what earlier steps left behind and adds its own
// output. Run is also what gets persisted to the history database and
// dumped by the JSON writer.
type Run struct {
	// ID uniquely identifies the run in the history database.
	ID string `json:"id"`

	// InputFile is the URL list the run was started from.
	InputFile string `json:"input_file,omitempty"`

	// OutputFile is where the document was written.
	OutputFile string `json:"output_file,omitempty"`

	// URLs are the addresses read from the input, in input order.
	URLs []string `json:"urls"`

	// Pages are the successfully fetched pages, in input order.
	Pages []Page `json:"pages"`

	// Extractions hold one record per page, in page order.
	Extractions []Extraction `json:"extractions"`

	// Merged is the consolidated information across all pages.
	Merged MergedInfo `json:"merged"`

	// Plan is the proposal outline.
	Plan Plan `json:"plan"`

	// Title is the document title.
	Title string `json:"title"`

	// Document is the final proposal in markdown.
	Document string `json:"document"`

	// LLMEnabled records whether a language model was configured.
	LLMEnabled bool `json:"llm_enabled"`

	// Model is the language model name, empty when LLMEnabled is false.
	Model string `json:"model,omitempty"`

	// Fallbacks lists the stages that fell back to their deterministic
	// variant after a failed model call. A stage appears once per failure.
	Fallbacks []string `json:"fallbacks"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	mu sync.Mutex
}

// NewRun creates a Run for the given URLs with a fresh ID.
func NewRun(urls []string) *Run {
	return &Run{
		ID:             uuid.NewString(),
		URLs:           nonNil(urls),
		Pages:          []Page{},
		Extractions:    []Extraction{},
		Merged:         MergedInfo{}.Normalize(),
		Plan:           EmptyPlan(),
		Fallbacks:      []string{},
		PerformedSteps: []string{},
		StartedAt:      time.Now(),
	}
}

// RecordFallback notes that stage fell back to its deterministic variant.
// It is safe to call from concurrent per-page work.
func (r *Run) RecordFallback(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fallbacks = append(r.Fallbacks, stage)
}

// FallbackStages returns a copy of the recorded fallback stages.
func (r *Run) FallbackStages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Fallbacks))
	copy(out, r.Fallbacks)
	return out
}

// Mode returns "llm" when a language model was configured and
// "heuristic" otherwise.
func (r *Run) Mode() string {
	if r.LLMEnabled {
		return "llm"
	}
	return "heuristic"
}

// ProposalTitle returns the document title for a run over n pages.
func ProposalTitle(n int) string {
	return fmt.Sprintf("基于 %d 个网页的方案初稿", n)
}
