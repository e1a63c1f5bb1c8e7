package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/notionscan/internal/config"
	"github.com/nao1215/notionscan/internal/database"
	"github.com/nao1215/notionscan/internal/history"
	"github.com/nao1215/notionscan/internal/log"
	"github.com/nao1215/notionscan/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command and its subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Record scan outputs and compare them over time",
		Long: `History keeps snapshots of the JSON outputs of a scan in a SQLite database
under the XDG data directory, keyed by the compact root id.

Examples:
  # Record the current outputs
  notionscan history snap

  # Show what changed between the latest two snapshots
  notionscan history diff

  # Same, as Markdown
  notionscan history diff --markdown > changes.md`,
	}

	cmd.PersistentFlags().StringP("output", "o", config.DefaultOutputDir,
		"Scan output directory holding scan_meta.json")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	cmd.AddCommand(newHistorySnapCmd())
	cmd.AddCommand(newHistoryDiffCmd())
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryLatestCmd())

	return cmd
}

func newHistorySnapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snap",
		Short: "Store the JSON outputs as a new snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHistoryStore(cmd, true, func(ctx context.Context, store *history.Store, outputDir string) error {
				res, err := store.Snap(ctx, outputDir)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.String())
				return nil
			})
		},
	}
}

func newHistoryDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the latest two snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asMarkdown, err := cmd.Flags().GetBool("markdown")
			if err != nil {
				return err
			}
			return withHistoryStore(cmd, false, func(ctx context.Context, store *history.Store, outputDir string) error {
				key, err := snapshotKey(cmd, outputDir)
				if err != nil {
					return err
				}
				res, err := store.DiffLatest(ctx, key)
				if err != nil {
					return err
				}
				if res == nil {
					fmt.Fprintln(cmd.OutOrStdout(), history.NotEnoughSnapshots)
					return nil
				}
				if asMarkdown {
					return history.WriteMarkdown(cmd.OutOrStdout(), res)
				}
				return history.WriteText(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().String("key", "", "Snapshot key (default: from scan_meta.json)")
	cmd.Flags().Bool("markdown", false, "Render the diff as Markdown")
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the snapshots of the current root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHistoryStore(cmd, false, func(ctx context.Context, store *history.Store, outputDir string) error {
				key, err := snapshotKey(cmd, outputDir)
				if err != nil {
					return err
				}
				labels, err := store.Labels(ctx, key)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Key: %s\n", key)
				if len(labels) == 0 {
					fmt.Fprintln(out, "  (no snapshots)")
				}
				for _, label := range labels {
					fmt.Fprintf(out, "  %s\n", label)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("key", "", "Snapshot key (default: from scan_meta.json)")
	return cmd
}

func newHistoryLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest <dir>",
		Short: "Print the most recently modified subdirectory of dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := report.LatestScanDir(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// withHistoryStore opens the history database and runs fn with a Store.
// create controls whether a missing database is created.
func withHistoryStore(cmd *cobra.Command, create bool, fn func(context.Context, *history.Store, string) error) error {
	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = create
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := log.New(cmd.ErrOrStderr(), getLogFormat(cmd), getVerboseFlag(cmd))
	return fn(cmd.Context(), history.NewStore(db, history.WithLogger(logger)), outputDir)
}

// snapshotKey returns --key or the key recorded in the output directory.
func snapshotKey(cmd *cobra.Command, outputDir string) (string, error) {
	key, err := cmd.Flags().GetString("key")
	if err != nil {
		return "", err
	}
	if key != "" {
		return key, nil
	}
	meta, err := report.ReadScanMeta(outputDir)
	if err != nil {
		return "", errors.Join(err, errors.New("run a scan first or pass --key"))
	}
	return meta.SnapshotKey, nil
}
