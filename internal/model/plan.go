package model

// Plan is the outline the writer turns into a proposal document.
// Its four sections map one-to-one onto the document's four headings.
type Plan struct {
	Background        Background        `json:"background"`
	CurrentSituation  CurrentSituation  `json:"current_situation"`
	KeyProblems       KeyProblems       `json:"key_problems"`
	ProposedSolutions ProposedSolutions `json:"proposed_solutions"`
}

// Background is the first section of a Plan.
type Background struct {
	MainPoints []string `json:"main_points"`
	KeyFacts   []string `json:"key_facts"`
}

// CurrentSituation is the second section of a Plan.
type CurrentSituation struct {
	MainPoints []string `json:"main_points"`
	Analysis   []string `json:"analysis"`
}

// KeyProblems is the third section of a Plan.
type KeyProblems struct {
	Problems []string `json:"problems"`
	Impact   []string `json:"impact"`
}

// ProposedSolutions is the fourth section of a Plan.
type ProposedSolutions struct {
	Solutions []string `json:"solutions"`
	Rationale []string `json:"rationale"`
}

// EmptyPlan returns a Plan whose every list is empty.
func EmptyPlan() Plan {
	return Plan{}.Normalize()
}

// Normalize returns a copy of p in which every list is non-nil.
func (p Plan) Normalize() Plan {
	return Plan{
		Background: Background{
			MainPoints: nonNil(p.Background.MainPoints),
			KeyFacts:   nonNil(p.Background.KeyFacts),
		},
		CurrentSituation: CurrentSituation{
			MainPoints: nonNil(p.CurrentSituation.MainPoints),
			Analysis:   nonNil(p.CurrentSituation.Analysis),
		},
		KeyProblems: KeyProblems{
			Problems: nonNil(p.KeyProblems.Problems),
			Impact:   nonNil(p.KeyProblems.Impact),
		},
		ProposedSolutions: ProposedSolutions{
			Solutions: nonNil(p.ProposedSolutions.Solutions),
			Rationale: nonNil(p.ProposedSolutions.Rationale),
		},
	}
}
