package extractor

import (
	"fmt"

	"github.com/nao1215/web2proposal/internal/model"
)

const systemPrompt = `You extract information from web pages.
Report only what the page itself states. Never invent facts, figures, names or sources.
Answer with a single JSON object and nothing else.`

const userPromptTemplate = `Extract the key information from the web page below.

Title: %s
URL: %s

Content:
%s

Return a JSON object with exactly these keys:
{
  "key_facts": ["concrete, verifiable facts stated by the page"],
  "key_arguments": ["claims, opinions or reasoning the page puts forward"],
  "problems": ["problems, risks or shortcomings the page describes"]
}
Write every item in the language of the page. Use an empty list when the page offers nothing for a key.`

func buildPrompt(page model.Page) string {
	return fmt.Sprintf(userPromptTemplate, page.Title, page.URL, truncateRunes(page.Content, MaxContentRunes))
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
