package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/notionscan/internal/config"
	"github.com/nao1215/notionscan/internal/crawler"
	"github.com/nao1215/notionscan/internal/credential"
	"github.com/nao1215/notionscan/internal/log"
	"github.com/nao1215/notionscan/internal/model"
	"github.com/nao1215/notionscan/internal/normalize"
	"github.com/nao1215/notionscan/internal/notion"
	"github.com/nao1215/notionscan/internal/pipeline"
	"github.com/nao1215/notionscan/internal/report"
	"github.com/nao1215/notionscan/internal/retry"
	"github.com/nao1215/notionscan/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [id-or-alias]",
		Short: "Crawl a Notion page or database and write normalized outputs",
		Long: `Scan resolves the root id as a page or a database, crawls every block,
child page and database reachable from it, and writes:

  notion_plr_extracted.json  pages.json  databases.json  media.json
  graph.json  formulas.json  formulas_audit.md  scan_meta.json  summary.md
  comments.json (with --includeComments)

The output directory is cleared once the root has been resolved.

The root id comes from --pageId, a positional id or config alias, the PAGE_ID
environment variable or .env file, or 'root' in the config file.

Examples:
  # Scan a page
  notionscan scan --pageId 0123456789abcdef0123456789abcdef

  # Scan a root alias from .notionscan, sampling database rows
  notionscan scan handbook --includeRowValues

  # Stop after 500 blocks and write metrics for node_exporter
  notionscan scan --maxBlocks 500 --metrics-file /var/lib/node_exporter/notionscan.prom`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("pageId", "p", "",
		"Root page or database id (dashed UUID or 32 hex characters)")
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Number of sibling branches crawled at once")
	cmd.Flags().Bool("includeRowValues", false,
		"Sample rows of every database")
	cmd.Flags().Bool("includeComments", false,
		"Fetch the comments of the root page")
	cmd.Flags().Int64("maxBlocks", 0,
		"Stop listing after this many blocks (0 = unlimited)")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory (cleared before writing)")
	cmd.Flags().Bool("quiet", false,
		"Suppress the progress indicator and the summary line")
	cmd.Flags().String("metrics-file", "",
		"Write prometheus metrics of the scan to this file")
	addClientFlags(cmd)

	return cmd
}

// addClientFlags adds the flags shared by commands that call the API.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "",
		"Configuration file path (default: .notionscan in current or home directory)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each API request")
	cmd.Flags().String("api-url", notion.BaseURL,
		"Notion API base URL")
	cmd.Flags().String("proxy", "",
		"Proxy URL (http, https, socks5 or socks5h; default: HTTP_PROXY environment)")
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := resolveToken(cfg); err != nil {
		return err
	}

	logger := log.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return err
	}

	client, err := newNotionClient(cfg, apiURL)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	return runScan(ctx, cfg, client, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// getLogFormat retrieves the log-format flag, defaulting to text when the
// command runs without its root.
func getLogFormat(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil || format == "" {
		return config.LogFormatText
	}
	return format
}

// buildConfig layers defaults, the config file, the environment and the
// command flags into a Config. Flags the command does not define are skipped.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.ConfigFilePath, err = stringFlag(flags, "config"); err != nil {
		return nil, err
	}
	file, err := loadConfigFile(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	if err := file.Apply(cfg); err != nil {
		return nil, err
	}

	env, err := config.LoadEnv(config.DotEnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.DotEnvFile, err)
	}
	env.Apply(cfg)

	if err := applyFlags(flags, cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogFormat = getLogFormat(cmd)

	pageID, err := stringFlag(flags, "pageId")
	if err != nil {
		return nil, err
	}
	switch {
	case pageID != "":
		cfg.PageID = pageID
		cfg.IDSource = config.SourceCLI
	case len(args) == 1:
		id, source, err := resolveRootArg(file, args[0])
		if err != nil {
			return nil, err
		}
		cfg.PageID = id
		cfg.IDSource = source
	}

	return cfg, nil
}

// applyFlags copies explicitly set flags into cfg.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	if changed(flags, "concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if changed(flags, "maxBlocks") {
		if cfg.MaxBlocks, err = flags.GetInt64("maxBlocks"); err != nil {
			return err
		}
	}
	if changed(flags, "includeRowValues") {
		if cfg.IncludeRowValues, err = flags.GetBool("includeRowValues"); err != nil {
			return err
		}
	}
	if changed(flags, "includeComments") {
		if cfg.IncludeComments, err = flags.GetBool("includeComments"); err != nil {
			return err
		}
	}
	if changed(flags, "output") {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if changed(flags, "proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if changed(flags, "timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Lookup("quiet") != nil {
		if cfg.Quiet, err = flags.GetBool("quiet"); err != nil {
			return err
		}
	}
	if cfg.MetricsFile, err = stringFlag(flags, "metrics-file"); err != nil {
		return err
	}
	return nil
}

func changed(flags *pflag.FlagSet, name string) bool {
	return flags.Lookup(name) != nil && flags.Changed(name)
}

func stringFlag(flags *pflag.FlagSet, name string) (string, error) {
	if flags.Lookup(name) == nil {
		return "", nil
	}
	return flags.GetString(name)
}

// loadConfigFile loads the config file. If the user explicitly specified a
// path, a missing file is an error; otherwise an empty File is returned.
func loadConfigFile(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
		}
		return &config.File{Roots: map[string]string{}}, nil
	}
	file, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return file, nil
}

// resolveRootArg accepts either a Notion id or a root alias from the config file.
func resolveRootArg(file *config.File, arg string) (string, string, error) {
	_, idErr := model.NewNotionID(arg)
	if idErr == nil {
		return arg, config.SourceCLI, nil
	}
	if id, err := file.ResolveRoot(arg); err == nil {
		return id, config.SourceConfig, nil
	}
	return "", "", fmt.Errorf("%q is neither a Notion id nor a root alias: %w", arg, idErr)
}

// resolveToken fills cfg.Token from the keyring when the environment did
// not provide one.
func resolveToken(cfg *config.Config) error {
	token, _, err := credential.NewStore("").Resolve(cfg.Token)
	if err != nil {
		return err
	}
	cfg.Token = token
	return nil
}

func newNotionClient(cfg *config.Config, apiURL string) (*notion.Client, error) {
	hc, err := transport.NewHTTPClient(
		transport.WithTimeout(cfg.Timeout),
		transport.WithProxy(cfg.Proxy),
	)
	if err != nil {
		return nil, err
	}

	opts := []notion.ClientOption{
		notion.WithHTTPClient(hc),
		notion.WithMinInterval(cfg.MinInterval),
		notion.WithUserAgent(cfg.UserAgent),
	}
	if apiURL != "" {
		opts = append(opts, notion.WithBaseURL(apiURL))
	}
	return notion.NewClient(cfg.Token, opts...), nil
}

// runScan executes the scan pipeline against api and prints the summary.
func runScan(ctx context.Context, cfg *config.Config, api notion.API, stdout, stderr io.Writer, logger *slog.Logger) error {
	rootID, err := cfg.RootID()
	if err != nil {
		return err
	}

	if !cfg.Quiet {
		fmt.Fprintf(stderr, "Using root %s (from %s)\n", rootID.Masked(), cfg.IDSource)
	}
	logger.Info("starting scan",
		"root", rootID.Masked(),
		"source", cfg.IDSource,
		"concurrency", cfg.Concurrency,
		"maxBlocks", cfg.MaxBlocks,
		"includeRowValues", cfg.IncludeRowValues,
		"includeComments", cfg.IncludeComments,
	)

	reg := prometheus.NewRegistry()
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "notionscan",
		Name:      "scan_duration_seconds",
		Help:      "Wall time of the last scan.",
	})
	reg.MustRegister(duration)

	exec := retry.NewExecutor(
		retry.WithMaxRetries(cfg.MaxRetries),
		retry.WithBaseDelay(cfg.BaseDelay),
		retry.WithMetrics(retry.NewMetrics(reg)),
		retry.WithLogger(logger),
	)

	prog := newProgress(stderr, cfg.Quiet)
	engine := crawler.NewEngine(api,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithMaxBlocks(cfg.MaxBlocks),
		crawler.WithRowValues(cfg.IncludeRowValues),
		crawler.WithSampleRows(cfg.SampleRows),
		crawler.WithRelationTitles(cfg.RelationTitleLimit, cfg.RelationConcurrency),
		crawler.WithExecutor(exec),
		crawler.WithProgress(prog.Update),
		crawler.WithMetrics(crawler.NewMetrics(reg)),
		crawler.WithLogger(logger),
	)

	settings := report.Settings{
		Concurrency:      cfg.Concurrency,
		IncludeRowValues: cfg.IncludeRowValues,
		IncludeComments:  cfg.IncludeComments,
		MaxBlocks:        cfg.MaxBlocks,
	}

	pcfg := pipeline.ScanPipelineConfig{
		Traverser: engine,
		Normalize: normalize.Normalize,
		Writer: report.NewDirWriter(cfg.OutputDir,
			report.WithDirSettings(settings),
			report.WithDirLogger(logger),
		),
		Logger: logger,
	}
	if cfg.IncludeComments {
		pcfg.Comments = engine
	}

	scan := model.NewScan(rootID, cfg.IDSource)
	p := pipeline.NewScanPipeline(pcfg)
	logger.Debug("starting scan", "root", rootID.Masked(), "steps", p.StepNames())
	prog.Start()
	err = p.Execute(ctx, scan)
	prog.Stop()
	duration.Set(time.Since(scan.StartedAt).Seconds())

	if cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(cfg.MetricsFile, reg); werr != nil {
			logger.Warn("failed to write metrics file", "path", cfg.MetricsFile, "error", werr)
		}
	}

	if err != nil {
		var rootErr *crawler.RootError
		if errors.As(err, &rootErr) {
			logger.Debug("root lookup failed", "root", rootID.Masked(), "kind", rootErr.Kind, "error", rootErr.Err)
			return fmt.Errorf("❌ %w", rootErr)
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	if cfg.Quiet {
		return nil
	}
	_, err = report.NewSimpleWriter(stdout,
		report.WithScanSettings(settings),
		report.WithVerbose(cfg.Verbose),
	).Write(scan)
	return err
}
