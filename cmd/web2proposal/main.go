// Package main provides the entry point for the web2proposal CLI.
//
// web2proposal reads a list of URLs, fetches each page, and turns the
// collected material into a four-section proposal draft in Markdown.
//
// Usage:
//
//	web2proposal generate urls.txt
//	web2proposal generate urls.txt -o out/proposal.md --docx out/proposal.docx
//
// See --help for all available options.
package main

func main() {
	Execute()
}
