package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/web2proposal/internal/config"
	"github.com/nao1215/web2proposal/internal/crawler"
	"github.com/nao1215/web2proposal/internal/database"
	"github.com/nao1215/web2proposal/internal/llm"
	applog "github.com/nao1215/web2proposal/internal/log"
	"github.com/nao1215/web2proposal/internal/model"
	"github.com/nao1215/web2proposal/internal/pipeline"
	"github.com/nao1215/web2proposal/internal/report"
	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <input-file>",
		Short: "Generate a proposal draft from a list of URLs",
		Long: `Generate reads one URL per line from the input file (blank lines are
ignored), fetches every page, and writes a proposal draft. Lines that are not
valid http(s) URLs are reported and skipped.

Pages that cannot be fetched are skipped. The command fails only when no page
at all could be fetched.

Examples:
  # Deterministic mode, no API key needed
  web2proposal generate urls.txt

  # Use a model and also export Word and JSON
  OPENAI_API_KEY=sk-... web2proposal generate urls.txt \
    -o out/proposal.md --docx out/proposal.docx --json out/run.json

  # Use any OpenAI-compatible endpoint
  web2proposal generate urls.txt --base-url http://localhost:11434/v1 --model llama3`,
		Args: cobra.ExactArgs(1),
		RunE: runGenerateCmd,
	}

	cmd.Flags().StringP("out", "o", config.DefaultOutputFile,
		"Markdown output file (creates directories if needed)")
	cmd.Flags().String("docx", "", "Also export the document as a Word file")
	cmd.Flags().String("json", "", "Also dump the run (pages, extractions, plan) as JSON")

	cmd.Flags().String("api-key", "", "OpenAI-compatible API key (default: $"+config.EnvAPIKey+")")
	cmd.Flags().String("base-url", config.DefaultBaseURL, "Chat completions endpoint")
	cmd.Flags().String("model", config.DefaultModel, "Model name")
	cmd.Flags().Duration("llm-timeout", config.DefaultLLMTimeout, "Timeout for each model call")

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each page fetch")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of pages fetched and extracted at once")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .web2proposal in current or home directory)")
	cmd.Flags().Bool("no-history", false, "Do not save this run to the history database")

	return cmd
}

func runGenerateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args, os.Getenv)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runGenerate(ctx, cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file, the
// environment and the command flags, each overriding the one before.
// Flags only override when they were set explicitly.
func buildConfig(cmd *cobra.Command, args []string, getenv func(string) string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	explicitConfigPath := cfg.ConfigFilePath != ""
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ApplyFile(file)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.ApplyEnv(getenv)

	if len(args) > 0 {
		cfg.InputFile = args[0]
	}

	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"out", &cfg.OutputFile},
		{"docx", &cfg.DocxFile},
		{"json", &cfg.JSONFile},
		{"api-key", &cfg.APIKey},
		{"base-url", &cfg.BaseURL},
		{"model", &cfg.Model},
	}
	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetString(f.name); err != nil {
			return nil, err
		}
	}

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("llm-timeout") {
		if cfg.LLMTimeout, err = flags.GetDuration("llm-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveHistory = false
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// newCompleter returns the model client, or nil when no API key is set.
// The nil is returned as an untyped interface so stages see "no model".
func newCompleter(cfg *config.Config, logger *slog.Logger) (llm.Completer, error) {
	if !cfg.LLMEnabled() {
		return nil, nil
	}
	client, err := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.LLMTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newFetcher(cfg *config.Config, logger *slog.Logger) *crawler.Fetcher {
	return crawler.New(
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithHeaders(cfg.Headers),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithLogger(logger),
	)
}

// runGenerate executes the whole pipeline and writes every requested output.
// Nothing is written unless the pipeline succeeded.
func runGenerate(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	urls, err := crawler.LoadURLFile(cfg.InputFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %d URLs from %s\n", len(urls), cfg.InputFile)

	completer, err := newCompleter(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	if completer == nil {
		fmt.Fprintf(out, "No API key configured (set %s or --api-key); using deterministic mode.\n", config.EnvAPIKey)
	} else {
		fmt.Fprintf(out, "Using model %s at %s\n", cfg.Model, cfg.BaseURL)
	}
	fmt.Fprintln(out)

	run := model.NewRun(urls)
	run.InputFile = cfg.InputFile
	run.OutputFile = cfg.OutputFile
	run.LLMEnabled = completer != nil
	if run.LLMEnabled {
		run.Model = cfg.Model
	}

	p := pipeline.DefaultPipeline(newFetcher(cfg, logger), completer, cfg.Concurrency,
		pipeline.WithLogger(logger),
		pipeline.WithProgress(out),
	)
	if err := p.Execute(ctx, run); err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if err := writeOutputs(cfg, run); err != nil {
		return err
	}

	if cfg.SaveHistory {
		if err := saveRun(ctx, cfg.DBDir, run); err != nil {
			logger.Error("failed to save run history", "dir", cfg.DBDir, "error", err)
		}
	}

	fmt.Fprintln(out)
	_, err = report.NewSummaryWriter(out, report.WithVerbose(cfg.Verbose)).Write(run)
	return err
}

// writeOutputs writes the markdown document and the optional Word and JSON exports.
func writeOutputs(cfg *config.Config, run *model.Run) error {
	if _, err := report.WriteFile(cfg.OutputFile, run, func(w io.Writer) report.Writer {
		return report.NewMarkdownWriter(w)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.OutputFile, err)
	}

	if cfg.DocxFile != "" {
		if _, err := report.NewDocxWriter(cfg.DocxFile).Write(run); err != nil {
			return fmt.Errorf("failed to write %s: %w", cfg.DocxFile, err)
		}
	}

	if cfg.JSONFile != "" {
		if _, err := report.WriteFile(cfg.JSONFile, run, func(w io.Writer) report.Writer {
			return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
		}); err != nil {
			return fmt.Errorf("failed to write %s: %w", cfg.JSONFile, err)
		}
	}
	return nil
}

func saveRun(ctx context.Context, dir string, run *model.Run) error {
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	return db.SaveRun(ctx, run)
}
