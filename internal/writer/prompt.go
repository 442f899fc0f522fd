package writer

import (
	"fmt"
	"strings"

	"github.com/nao1215/web2proposal/internal/model"
)

const systemPrompt = `You are a professional proposal writer.
Write in a formal, objective and well-structured tone.
Use only the information in the outline. Do not invent data, names or sources.`

const userPromptTemplate = `Write a proposal in Markdown titled "%s" from the outline below.

%s
Requirements:
- Start with the title as a level-one heading.
- Use exactly these level-two headings, in this order: %s
- Under each heading, write one or two short paragraphs and, where useful, a bullet list.
- Write in the language of the outline.`

func buildPrompt(plan model.Plan, title string) string {
	headings := make([]string, 0, len(sections))
	for _, s := range sections {
		headings = append(headings, "## "+s.heading)
	}
	return fmt.Sprintf(userPromptTemplate, title, formatPlan(plan), strings.Join(headings, ", "))
}

func formatPlan(plan model.Plan) string {
	var b strings.Builder
	writeList(&b, "Background - main points", plan.Background.MainPoints)
	writeList(&b, "Background - key facts", plan.Background.KeyFacts)
	writeList(&b, "Current situation - main points", plan.CurrentSituation.MainPoints)
	writeList(&b, "Current situation - analysis", plan.CurrentSituation.Analysis)
	writeList(&b, "Key problems", plan.KeyProblems.Problems)
	writeList(&b, "Impact", plan.KeyProblems.Impact)
	writeList(&b, "Proposed solutions", plan.ProposedSolutions.Solutions)
	writeList(&b, "Rationale", plan.ProposedSolutions.Rationale)
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	fmt.Fprintf(b, "%s:\n", label)
	if len(items) == 0 {
		b.WriteString("- (none)\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
