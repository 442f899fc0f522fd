package merger

import (
	"fmt"
	"strings"

	"github.com/nao1215/web2proposal/internal/model"
)

const systemPrompt = `You consolidate information gathered from several web pages.
Work only with the items you are given. Do not add facts of your own.
Answer with a single JSON object and nothing else.`

const userPromptTemplate = `Below is the information extracted from %d web pages.

%s
Consolidate it:
- common_info: facts, arguments and problems that several pages share, merged into single items
- unique_info: noteworthy facts, arguments and problems that only one page contributes
- themes: short labels for the main topics across all pages

Return a JSON object with exactly this shape:
{
  "common_info": {"facts": [], "arguments": [], "problems": []},
  "unique_info": {"facts": [], "arguments": [], "problems": []},
  "themes": []
}
Keep the language of the source items.`

func buildPrompt(records []model.Extraction) string {
	return fmt.Sprintf(userPromptTemplate, len(records), formatRecords(records))
}

// formatRecords renders records as an enumerated text block, one page per
// paragraph, with each list joined on a single line.
func formatRecords(records []model.Extraction) string {
	var b strings.Builder
	for i, r := range records {
		fmt.Fprintf(&b, "Page %d (%s):\n", i+1, r.Title)
		fmt.Fprintf(&b, "Key facts: %s\n", strings.Join(r.Extracted.KeyFacts, ", "))
		fmt.Fprintf(&b, "Key arguments: %s\n", strings.Join(r.Extracted.KeyArguments, ", "))
		fmt.Fprintf(&b, "Problems: %s\n\n", strings.Join(r.Extracted.Problems, ", "))
	}
	return b.String()
}
