package crawler

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/web2proposal/internal/model"
	"golang.org/x/text/unicode/norm"
)

// MinFragmentRunes is the shortest text fragment kept in page content.
// Shorter fragments are almost always menu labels, buttons or bylines.
const MinFragmentRunes = 10

// titleSource is a selector tried when resolving a page title.
// When attr is set, the title is read from that attribute instead of the
// element text.
type titleSource struct {
	selector string
	attr     string
}

// titleSources are tried in order; the first non-empty match wins.
var titleSources = []titleSource{
	{selector: "h1"},
	{selector: "title"},
	{selector: `meta[property="og:title"]`, attr: "content"},
	{selector: `meta[name="title"]`, attr: "content"},
}

// strippedSelector matches elements removed before content is collected.
const strippedSelector = "script, style, nav, header, footer, aside, " +
	"advertisement, ad, noscript, .ad, .ads, .advertisement"

// containerSelectors locate the main content area; body is the fallback.
var containerSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	".content",
	".post-content",
	".article-content",
	"#content",
	"#main-content",
}

// fragmentSelector matches the elements whose text becomes content.
const fragmentSelector = "p, h1, h2, h3, h4, h5, h6, div"

// blockSelector matches children that disqualify a div as a fragment.
// Their text is collected through the children themselves.
const blockSelector = "p, div, h1, h2, h3, h4, h5, h6, ul, ol, table, section, article, blockquote, pre"

// ParseDocument resolves the title and main text of an HTML document.
// The title is read before any element is stripped, so a title inside a
// header or nav still counts. ParseDocument modifies doc.
func ParseDocument(doc *goquery.Document) (title, content string) {
	title = extractTitle(doc)
	content = extractContent(doc)
	return title, content
}

func extractTitle(doc *goquery.Document) string {
	for _, src := range titleSources {
		sel := doc.Find(src.selector).First()
		if sel.Length() == 0 {
			continue
		}

		var raw string
		if src.attr != "" {
			raw = sel.AttrOr(src.attr, "")
		} else {
			raw = sel.Text()
		}

		if title := CleanText(raw); title != "" {
			return title
		}
	}
	return model.UntitledPage
}

func extractContent(doc *goquery.Document) string {
	doc.Find(strippedSelector).Remove()

	container := doc.Find("body").First()
	for _, selector := range containerSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			container = sel
			break
		}
	}
	if container.Length() == 0 {
		container = doc.Selection
	}

	fragments := make([]string, 0)
	container.Find(fragmentSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Is("div") && s.Children().Filter(blockSelector).Length() > 0 {
			return
		}
		text := CleanText(s.Text())
		if utf8.RuneCountInString(text) < MinFragmentRunes {
			return
		}
		fragments = append(fragments, text)
	})

	return strings.TrimSpace(strings.Join(fragments, "\n\n"))
}

// CleanText normalizes s to NFC, collapses every whitespace run to a
// single space and trims both ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
