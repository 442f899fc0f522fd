package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/gingfrederik/docx"
	"github.com/nao1215/web2proposal/internal/model"
)

// Font sizes, in points, used for the converted document.
const (
	docxTitleSize   = 20
	docxHeadingSize = 16
	docxSubheadSize = 14
	docxBodySize    = 11
)

const docxHeadingColor = "1F3864"

// DocxWriter converts the markdown proposal into a Word document at path.
// Only the constructs the writer stage produces are recognized: headings,
// bullet items and plain paragraphs. Inline emphasis markers are dropped.
type DocxWriter struct {
	path string
}

// NewDocxWriter creates a DocxWriter that saves to path.
func NewDocxWriter(path string) *DocxWriter {
	return &DocxWriter{path: path}
}

// Write converts run.Document and saves it. The returned count is the
// size of the saved file.
func (w *DocxWriter) Write(run *model.Run) (int, error) {
	if strings.TrimSpace(run.Document) == "" {
		return 0, ErrEmptyDocument
	}
	if err := ensureDir(w.path); err != nil {
		return 0, err
	}

	f := docx.NewFile()
	for _, block := range parseBlocks(run.Document) {
		r := f.AddParagraph().AddText(block.text)
		switch block.kind {
		case blockTitle:
			r.Size(docxTitleSize)
			r.Color(docxHeadingColor)
		case blockHeading:
			r.Size(docxHeadingSize)
			r.Color(docxHeadingColor)
		case blockSubheading:
			r.Size(docxSubheadSize)
		default:
			r.Size(docxBodySize)
		}
	}

	if err := f.Save(w.path); err != nil {
		return 0, fmt.Errorf("failed to save docx: %w", err)
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return 0, err
	}
	return int(info.Size()), nil
}

type blockKind int

const (
	blockText blockKind = iota
	blockTitle
	blockHeading
	blockSubheading
	blockBullet
)

type block struct {
	kind blockKind
	text string
}

// parseBlocks splits a markdown document into one block per paragraph.
// Consecutive text lines are joined into a single paragraph; code fences
// and horizontal rules are skipped.
func parseBlocks(doc string) []block {
	var (
		blocks []block
		para   []string
	)
	flush := func() {
		if len(para) > 0 {
			blocks = append(blocks, block{kind: blockText, text: strings.Join(para, " ")})
			para = nil
		}
	}

	for _, raw := range strings.Split(doc, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "", strings.HasPrefix(line, "```"), line == "---", line == "***":
			flush()
		case strings.HasPrefix(line, "#"):
			flush()
			level := len(line) - len(strings.TrimLeft(line, "#"))
			text := inline(strings.TrimLeft(line, "#"))
			if text == "" {
				continue
			}
			kind := blockSubheading
			switch level {
			case 1:
				kind = blockTitle
			case 2:
				kind = blockHeading
			}
			blocks = append(blocks, block{kind: kind, text: text})
		case isBullet(line):
			flush()
			blocks = append(blocks, block{kind: blockBullet, text: "• " + inline(line[2:])})
		default:
			para = append(para, inline(line))
		}
	}
	flush()
	return blocks
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ ")
}

var emphasisReplacer = strings.NewReplacer("**", "", "__", "", "`", "")

func inline(s string) string {
	return strings.TrimSpace(emphasisReplacer.Replace(s))
}
