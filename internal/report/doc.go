// Package report writes the result of a run to its destinations.
//
// This package contains writers for different output formats:
//   - MarkdownWriter: The proposal document as generated
//   - DocxWriter: The same document converted to a Word file
//   - JSONWriter: The whole run, for tool integration
//   - SummaryWriter: A short human-readable summary for the terminal
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
