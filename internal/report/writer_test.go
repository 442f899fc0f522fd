package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/web2proposal/internal/model"
)

const sampleDocument = `# 基于 2 个网页的方案初稿

## 一、背景

基于收集的信息，相关背景如下：

- Solar capacity doubled
- **Grid** storage lags

## 二、现状分析

A first line
continues here.
`

// createTestRun creates a run with sample data for testing.
func createTestRun() *model.Run {
	run := model.NewRun([]string{"https://a.example.com", "https://b.example.com", "https://c.example.com"})
	run.Pages = []model.Page{
		{URL: "https://a.example.com", Title: "Page A", Content: "content a"},
		{URL: "https://b.example.com", Title: "Page B", Content: "content b"},
	}
	run.Title = model.ProposalTitle(2)
	run.Document = sampleDocument
	run.LLMEnabled = true
	run.Model = "gpt-test"
	run.RecordFallback("extract")
	run.RecordFallback("extract")
	run.RecordFallback("write")
	run.FinishedAt = run.StartedAt.Add(1500 * time.Millisecond)
	return run
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes the document with one trailing newline", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != sampleDocument {
			t.Errorf("expected document unchanged, got %q", buf.String())
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}
	})

	t.Run("rejects an empty document", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Document = "  \n"
		_, err := NewMarkdownWriter(&bytes.Buffer{}).Write(run)
		if !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("expected ErrEmptyDocument, got %v", err)
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("wraps the run with metadata", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("v1.2.3"))
		if _, err := w.Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Version string `json:"version"`
			Mode    string `json:"mode"`
			Run     struct {
				Title     string       `json:"title"`
				Pages     []model.Page `json:"pages"`
				Fallbacks []string     `json:"fallbacks"`
				Plan      model.Plan   `json:"plan"`
			} `json:"run"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if got.Version != "v1.2.3" || got.Mode != "llm" {
			t.Errorf("unexpected metadata: %+v", got)
		}
		if got.Run.Title != model.ProposalTitle(2) || len(got.Run.Pages) != 2 {
			t.Errorf("unexpected run: %+v", got.Run)
		}
		if len(got.Run.Fallbacks) != 3 {
			t.Errorf("expected 3 fallbacks, got %v", got.Run.Fallbacks)
		}
		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("expected indented output")
		}
	})

	t.Run("renders empty lists as arrays", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(model.NewRun(nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if strings.Contains(out, "null") {
			t.Errorf("expected no null values, got %s", out)
		}
		if !strings.HasSuffix(out, "}\n") || strings.Contains(strings.TrimSuffix(out, "\n"), "\n") {
			t.Errorf("expected compact output with trailing newline, got %q", out)
		}
		if !strings.Contains(out, `"mode":"heuristic"`) {
			t.Errorf("expected heuristic mode, got %s", out)
		}
	})
}

func TestSummaryWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes counts and fallbacks", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		run := createTestRun()
		run.OutputFile = "proposal.md"
		if _, err := NewSummaryWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"Pages:     2/3 fetched",
			"Mode:      llm (gpt-test)",
			"Fallbacks: extract x2, write",
			"Output:    proposal.md",
			"Elapsed:   1.5s",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Page A") {
			t.Error("expected no page listing without verbose")
		}
	})

	t.Run("lists pages when verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf, WithVerbose(true)).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "1. Page A") || !strings.Contains(buf.String(), "https://b.example.com") {
			t.Errorf("expected page listing, got:\n%s", buf.String())
		}
	})

	t.Run("omits fallbacks when there are none", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf).Write(model.NewRun(nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "Fallbacks") {
			t.Errorf("expected no fallback line, got:\n%s", buf.String())
		}
		if !strings.Contains(buf.String(), "Mode:      heuristic\n") {
			t.Errorf("expected heuristic mode, got:\n%s", buf.String())
		}
	})
}

func TestDocxWriter(t *testing.T) {
	t.Parallel()

	t.Run("saves a word document", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "proposal.docx")
		n, err := NewDocxWriter(path).Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test path
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		if !bytes.HasPrefix(data, []byte("PK")) {
			t.Error("expected a zip container")
		}
		if n != len(data) {
			t.Errorf("expected reported size %d, got %d", len(data), n)
		}
	})

	t.Run("rejects an empty document", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Document = ""
		path := filepath.Join(t.TempDir(), "out.docx")
		if _, err := NewDocxWriter(path).Write(run); !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("expected ErrEmptyDocument, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected no file to be created")
		}
	})
}

func TestParseBlocks(t *testing.T) {
	t.Parallel()

	blocks := parseBlocks(sampleDocument + "\n```\ncode\n```\n### Detail\n* star item\n")

	want := []block{
		{blockTitle, "基于 2 个网页的方案初稿"},
		{blockHeading, "一、背景"},
		{blockText, "基于收集的信息，相关背景如下："},
		{blockBullet, "• Solar capacity doubled"},
		{blockBullet, "• Grid storage lags"},
		{blockHeading, "二、现状分析"},
		{blockText, "A first line continues here."},
		{blockText, "code"},
		{blockSubheading, "Detail"},
		{blockBullet, "• star item"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(blocks), blocks)
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d: expected %+v, got %+v", i, want[i], blocks[i])
		}
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "proposal.md")
	n, err := WriteFile(path, createTestRun(), func(w io.Writer) Writer { return NewMarkdownWriter(w) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if int(info.Size()) != n {
		t.Errorf("expected %d bytes on disk, got %d", n, info.Size())
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	m := NewMultiWriter(NewMarkdownWriter(&a), NewSummaryWriter(&b))
	n, err := m.Write(createTestRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("expected total %d, got %d", a.Len()+b.Len(), n)
	}

	empty := model.NewRun(nil)
	var c bytes.Buffer
	if _, err := NewMultiWriter(NewMarkdownWriter(&bytes.Buffer{}), NewSummaryWriter(&c)).Write(empty); err == nil {
		t.Error("expected error from first writer")
	}
	if c.Len() != 0 {
		t.Error("expected later writers to be skipped after an error")
	}
}
