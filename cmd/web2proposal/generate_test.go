package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/web2proposal/internal/config"
	"github.com/nao1215/web2proposal/internal/pipeline"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestNewGenerateCmd(t *testing.T) {
	t.Parallel()

	cmd := NewGenerateCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"out", "o", config.DefaultOutputFile},
		{"timeout", "t", config.DefaultTimeout.String()},
		{"concurrency", "b", fmt.Sprint(config.DefaultConcurrency)},
		{"config", "c", ""},
		{"model", "", config.DefaultModel},
		{"no-history", "", "false"},
	}
	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		if flag == nil {
			t.Errorf("expected %s flag", tt.name)
			continue
		}
		if flag.Shorthand != tt.shorthand {
			t.Errorf("%s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
		}
		if flag.DefValue != tt.defValue {
			t.Errorf("%s: expected default %q, got %q", tt.name, tt.defValue, flag.DefValue)
		}
	}

	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("expected an error without an input file")
	}

	// Only blank lines are skipped when reading the input file.
	if strings.Contains(cmd.Long, "starting with #") {
		t.Error("expected help not to promise comment lines")
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeTempFile(t, dir, "config.yaml", `llm:
  api_key: file-key
  model: file-model
  timeout: 90s
fetch:
  timeout: 20s
  concurrency: 8
output:
  history: false
  db_dir: /tmp/w2p-history
`)

	t.Run("defaults without file or flags", func(t *testing.T) {
		t.Parallel()

		empty := writeTempFile(t, t.TempDir(), "empty.yaml", "")
		cmd := NewGenerateCmd()
		if err := cmd.ParseFlags([]string{"-c", empty}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"urls.txt"}, envMap(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.InputFile != "urls.txt" {
			t.Errorf("expected input file, got %q", cfg.InputFile)
		}
		if cfg.OutputFile != config.DefaultOutputFile || cfg.Model != config.DefaultModel {
			t.Errorf("expected defaults, got out=%q model=%q", cfg.OutputFile, cfg.Model)
		}
		if cfg.LLMEnabled() {
			t.Error("expected no API key")
		}
		if !cfg.SaveHistory {
			t.Error("expected history enabled by default")
		}
	})

	t.Run("file values apply", func(t *testing.T) {
		t.Parallel()

		cmd := NewGenerateCmd()
		if err := cmd.ParseFlags([]string{"-c", cfgPath}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"urls.txt"}, envMap(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.APIKey != "file-key" || cfg.Model != "file-model" {
			t.Errorf("expected file llm settings, got key=%q model=%q", cfg.APIKey, cfg.Model)
		}
		if cfg.Timeout != 20*time.Second || cfg.LLMTimeout != 90*time.Second || cfg.Concurrency != 8 {
			t.Errorf("expected file fetch settings, got %+v", cfg)
		}
		if cfg.SaveHistory || cfg.DBDir != "/tmp/w2p-history" {
			t.Errorf("expected file output settings, got history=%v dir=%q", cfg.SaveHistory, cfg.DBDir)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Parallel()

		cmd := NewGenerateCmd()
		if err := cmd.ParseFlags([]string{"-c", cfgPath}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"urls.txt"}, envMap(map[string]string{
			config.EnvAPIKey: "env-key",
			config.EnvModel:  "env-model",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.APIKey != "env-key" || cfg.Model != "env-model" {
			t.Errorf("expected env settings, got key=%q model=%q", cfg.APIKey, cfg.Model)
		}
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Parallel()

		cmd := NewGenerateCmd()
		if err := cmd.ParseFlags([]string{
			"-c", cfgPath,
			"--model", "flag-model",
			"-o", "out/p.md",
			"-t", "3s",
			"-b", "2",
			"--no-history",
		}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"urls.txt"}, envMap(map[string]string{
			config.EnvModel: "env-model",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Model != "flag-model" {
			t.Errorf("expected flag model, got %q", cfg.Model)
		}
		if cfg.OutputFile != "out/p.md" || cfg.Timeout != 3*time.Second || cfg.Concurrency != 2 {
			t.Errorf("expected flag values, got %+v", cfg)
		}
		// Unset flags keep the file's values.
		if cfg.LLMTimeout != 90*time.Second {
			t.Errorf("expected file llm timeout to survive, got %v", cfg.LLMTimeout)
		}
		if cfg.SaveHistory {
			t.Error("expected history disabled")
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewGenerateCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(dir, "nope.yaml")}); err != nil {
			t.Fatal(err)
		}

		_, err := buildConfig(cmd, []string{"urls.txt"}, envMap(nil))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestNewCompleter(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	completer, err := newCompleter(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completer != nil {
		t.Error("expected a nil completer without an API key")
	}

	cfg.APIKey = "sk-test"
	completer, err = newCompleter(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completer == nil {
		t.Error("expected a completer with an API key")
	}
}

func newArticleServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		topic := strings.TrimPrefix(r.URL.Path, "/")
		if topic != "solar" && topic != "wind" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><head><title>%[1]s</title></head><body><main>
<p>The %[1]s industry has grown quickly and now supplies a large share of demand.</p>
<p>Experts recommend that %[1]s subsidies be tied to measurable local benefits.</p>
<p>Grid operators report that %[1]s output is difficult to forecast during storms.</p>
</main></body></html>`, topic)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// Not parallel: t.Setenv keeps a developer's API key out of the run.
func TestGenerateCmd_EndToEnd(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")

	srv := newArticleServer(t)
	dir := t.TempDir()
	input := writeTempFile(t, dir, "urls.txt",
		srv.URL+"/solar\n\n"+srv.URL+"/missing\n"+srv.URL+"/wind\n")
	emptyCfg := writeTempFile(t, dir, "config.yaml", "")

	outPath := filepath.Join(dir, "out", "proposal.md")
	jsonPath := filepath.Join(dir, "out", "run.json")
	docxPath := filepath.Join(dir, "out", "proposal.docx")

	var stdout bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"generate", input,
		"-c", emptyCfg,
		"-o", outPath,
		"--json", jsonPath,
		"--docx", docxPath,
		"--no-history",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stdout.String())
	}

	doc, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("expected markdown output: %v", err)
	}
	if got := strings.Count(string(doc), "\n## "); got != 4 {
		t.Errorf("expected 4 sections, got %d in:\n%s", got, doc)
	}
	if !strings.HasPrefix(string(doc), "# ") {
		t.Errorf("expected a title line, got %q", strings.SplitN(string(doc), "\n", 2)[0])
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("expected json output: %v", err)
	}
	var dump struct {
		Mode string `json:"mode"`
		Run  struct {
			Pages []struct {
				URL string `json:"url"`
			} `json:"pages"`
		} `json:"run"`
	}
	if err := json.Unmarshal(raw, &dump); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if dump.Mode != "heuristic" || len(dump.Run.Pages) != 2 {
		t.Errorf("expected heuristic run over 2 pages, got mode=%q pages=%d", dump.Mode, len(dump.Run.Pages))
	}

	if info, err := os.Stat(docxPath); err != nil || info.Size() == 0 {
		t.Errorf("expected a non-empty docx file, got %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"Loaded 3 URLs", "deterministic mode", "[1/5] fetch...", "fetched 2/3 pages", "Pages:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateCmd_NoPagesFetched(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")

	srv := newArticleServer(t)
	dir := t.TempDir()
	input := writeTempFile(t, dir, "urls.txt", srv.URL+"/missing\n"+srv.URL+"/gone\n")
	emptyCfg := writeTempFile(t, dir, "config.yaml", "")
	outPath := filepath.Join(dir, "proposal.md")

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate", input, "-c", emptyCfg, "-o", outPath, "--no-history"})

	err := cmd.Execute()
	if !errors.Is(err, pipeline.ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
	if _, statErr := os.Stat(outPath); !os.IsNotExist(statErr) {
		t.Error("expected no output file")
	}
}

func TestGenerateCmd_InvalidConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTempFile(t, dir, "urls.txt", "https://example.com\n")
	emptyCfg := writeTempFile(t, dir, "config.yaml", "")

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate", input, "-c", emptyCfg, "-b", "0"})

	err := cmd.Execute()
	if !errors.Is(err, config.ErrInvalidConcurrency) {
		t.Errorf("expected ErrInvalidConcurrency, got %v", err)
	}
}
