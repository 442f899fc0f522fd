package report

import (
	"errors"
	"io"
	"strings"

	"github.com/nao1215/web2proposal/internal/model"
)

// ErrEmptyDocument is returned when a run carries no document to write.
var ErrEmptyDocument = errors.New("run has no document")

// MarkdownWriter outputs the proposal document exactly as generated,
// terminated by a single newline.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs run.Document.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	doc := strings.TrimRight(run.Document, "\r\n")
	if strings.TrimSpace(doc) == "" {
		return 0, ErrEmptyDocument
	}
	return io.WriteString(w.output, doc+"\n")
}
