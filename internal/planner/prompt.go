package planner

import (
	"fmt"
	"strings"

	"github.com/nao1215/web2proposal/internal/model"
)

const systemPrompt = `You plan the structure of a formal proposal.
Base every point on the information provided. Do not invent facts or figures.
Answer with a single JSON object and nothing else.`

const userPromptTemplate = `Plan a proposal from the consolidated information below.

%s
Return a JSON object with exactly this shape:
{
  "background": {"main_points": [], "key_facts": []},
  "current_situation": {"main_points": [], "analysis": []},
  "key_problems": {"problems": [], "impact": []},
  "proposed_solutions": {"solutions": [], "rationale": []}
}
Keep each list to at most five short items, in the language of the source information.`

func buildPrompt(merged model.MergedInfo) string {
	return fmt.Sprintf(userPromptTemplate, formatMerged(merged))
}

func formatMerged(merged model.MergedInfo) string {
	var b strings.Builder
	writeInfoSet(&b, "Common information", merged.CommonInfo)
	writeInfoSet(&b, "Unique information", merged.UniqueInfo)
	fmt.Fprintf(&b, "Themes: %s\n", strings.Join(merged.Themes, ", "))
	return b.String()
}

func writeInfoSet(b *strings.Builder, heading string, s model.InfoSet) {
	fmt.Fprintf(b, "%s:\n", heading)
	fmt.Fprintf(b, "- Facts: %s\n", strings.Join(s.Facts, "; "))
	fmt.Fprintf(b, "- Arguments: %s\n", strings.Join(s.Arguments, "; "))
	fmt.Fprintf(b, "- Problems: %s\n\n", strings.Join(s.Problems, "; "))
}
