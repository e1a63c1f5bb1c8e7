package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/notionscan/internal/config"
	"github.com/nao1215/notionscan/internal/crawler"
	"github.com/nao1215/notionscan/internal/log"
	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/notion"
	"github.com/nao1215/notionscan/internal/retry"
	"github.com/spf13/cobra"
)

// NewWhatIDCmd creates the what-id command.
func NewWhatIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "what-id [id-or-alias]",
		Short: "Tell whether an id is a page or a database",
		Long: `What-id resolves an id the same way scan does and prints its type.

For a database the title and, when it lives in a page, the parent page id are
printed as well. An id that resolves as neither prints the reason and exits
with a non-zero status.

Examples:
  notionscan what-id 0123456789abcdef0123456789abcdef
  PAGE_ID=... notionscan what-id`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWhatIDCmd,
	}
	addClientFlags(cmd)
	return cmd
}

func runWhatIDCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	id, err := cfg.RootID()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := resolveToken(cfg); err != nil {
		return err
	}

	logger := log.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return err
	}

	client, err := newNotionClient(cfg, apiURL)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	return runWhatID(cmd.Context(), cfg, id, client, cmd.OutOrStdout(), logger)
}

func runWhatID(ctx context.Context, cfg *config.Config, id model.NotionID, api notion.API, out io.Writer, logger *slog.Logger) error {
	exec := retry.NewExecutor(
		retry.WithMaxRetries(cfg.MaxRetries),
		retry.WithBaseDelay(cfg.BaseDelay),
		retry.WithLogger(logger),
	)

	root, err := crawler.Identify(ctx, api, exec, id.String())
	if err != nil {
		return err
	}

	switch root.Type {
	case model.RootPage:
		fmt.Fprintln(out, "Type: PAGE")
	case model.RootDatabase:
		fmt.Fprintln(out, "Type: DATABASE")
		fmt.Fprintf(out, "Title: %s\n", crawler.DatabaseTitle(root.Database))
		if root.Database.Parent.IsPage() {
			fmt.Fprintf(out, "Parent page: %s\n", root.Database.Parent.PageID)
		}
	}
	return nil
}
