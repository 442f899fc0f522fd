package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for web2proposal.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "web2proposal",
		Short: "Turn a list of web pages into a proposal draft",
		Long: `web2proposal fetches every URL in a list, extracts facts, arguments and
problems from each page, merges them, and writes a four-section proposal
draft in Markdown.

With an OpenAI-compatible API key every stage asks the language model first.
Without one, or whenever a model call fails, each stage falls back to a
deterministic rule so a document is always produced.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
