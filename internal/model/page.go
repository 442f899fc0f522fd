package model

// UntitledPage is the title used when a page has no usable title element.
const UntitledPage = "Untitled"

// Page is a fetched web page reduced to its title and main text.
// A Page is never modified once the fetcher has produced it.
type Page struct {
	// URL is the address the page was fetched from.
	URL string `json:"url"`

	// Title is the cleaned page title, or UntitledPage.
	Title string `json:"title"`

	// Content is the cleaned main text. Paragraphs are separated by a
	// blank line. It is never empty.
	Content string `json:"content"`
}

// Findings holds the information pulled out of a single page.
type Findings struct {
	// KeyFacts are concrete, verifiable statements from the page.
	KeyFacts []string `json:"key_facts"`

	// KeyArguments are claims, opinions or reasoning made by the page.
	KeyArguments []string `json:"key_arguments"`

	// Problems are issues or risks the page describes.
	Problems []string `json:"problems"`
}

// Normalize returns a copy of f in which every list is non-nil.
func (f Findings) Normalize() Findings {
	return Findings{
		KeyFacts:     nonNil(f.KeyFacts),
		KeyArguments: nonNil(f.KeyArguments),
		Problems:     nonNil(f.Problems),
	}
}

// Extraction pairs a page's identity with the findings extracted from it.
type Extraction struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Extracted Findings `json:"extracted"`
}

// NewExtraction builds an Extraction for page with normalized findings.
func NewExtraction(page Page, findings Findings) Extraction {
	return Extraction{
		URL:       page.URL,
		Title:     page.Title,
		Extracted: findings.Normalize(),
	}
}

// nonNil returns s, or an empty slice when s is nil.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
