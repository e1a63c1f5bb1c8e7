package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for notionscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notionscan",
		Short: "Crawl a Notion workspace tree into normalized JSON",
		Long: `notionscan crawls a Notion page or database, everything reachable below it,
and writes normalized outputs: pages, databases, media, a relationship graph,
formula definitions, optional comments and a Markdown summary.

The integration token is read from NOTION_TOKEN (or a .env file), or from the
OS keyring after 'notionscan auth login'.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewWhatIDCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewAuthCmd())
	cmd.AddCommand(NewSchemaCmd())
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
