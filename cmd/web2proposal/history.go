package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/nao1215/web2proposal/internal/config"
	"github.com/nao1215/web2proposal/internal/database"
	"github.com/nao1215/web2proposal/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is how many runs are listed when --limit is not given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or show previously generated proposals",
		Long: `History lists the runs saved by generate, newest first.

Examples:
  # List the 20 most recent runs
  web2proposal history

  # Print the document of a run (an unambiguous ID prefix is enough)
  web2proposal history --show 3f2a

  # List the runs that fetched a given page
  web2proposal history --url https://example.com/report`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("show", "", "Print the document of the run with this ID")
	cmd.Flags().String("url", "", "Only list runs that fetched this URL")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list (0 for all)")
	cmd.Flags().String("db-dir", "", "History database directory (default: $XDG_DATA_HOME/web2proposal)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	show, err := flags.GetString("show")
	if err != nil {
		return err
	}
	url, err := flags.GetString("url")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if show != "" {
		return showRun(ctx, db, show, getVerboseFlag(cmd), out)
	}

	var runs []database.RunMetadata
	if url != "" {
		runs, err = db.RunsForURL(ctx, url)
	} else {
		runs, err = db.ListRuns(ctx, limit)
	}
	if err != nil {
		return err
	}
	return printRuns(out, runs)
}

// showRun prints the stored document of one run, preceded by its summary
// when verbose is set.
func showRun(ctx context.Context, db *database.HistoryDB, prefix string, verbose bool, out io.Writer) error {
	id, err := db.ResolveID(ctx, prefix)
	if err != nil {
		return err
	}
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: %s", database.ErrRunNotFound, id)
	}

	if verbose {
		if _, err := report.NewSummaryWriter(out, report.WithVerbose(true)).Write(run); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	_, err = report.NewMarkdownWriter(out).Write(run)
	return err
}

func printRuns(out io.Writer, runs []database.RunMetadata) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPAGES\tMODE\tFALLBACKS\tTITLE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.PageCount, r.URLCount,
			r.Mode,
			strconv.Itoa(len(r.Fallbacks)),
			r.Title,
		)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
