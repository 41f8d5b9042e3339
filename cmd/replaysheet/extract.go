package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/replaysheet/internal/config"
	"github.com/nao1215/replaysheet/internal/database"
	"github.com/nao1215/replaysheet/internal/export"
	"github.com/nao1215/replaysheet/internal/fetch"
	"github.com/nao1215/replaysheet/internal/model"
	"github.com/nao1215/replaysheet/internal/pipeline"
	"github.com/nao1215/replaysheet/internal/report"
)

// Report styles accepted by --report.
const (
	reportText     = "text"
	reportJSON     = "json"
	reportMarkdown = "markdown"
)

// ErrExtractionFailed is returned when at least one document could not be
// extracted. Per-document errors are logged and shown in the report.
var ErrExtractionFailed = errors.New("extraction failed")

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [sheet-url...]",
		Short: "Rebuild the table behind one or more online sheets",
		Long: `Extract downloads each sheet page, finds the embedded drawing record,
replays its text placements and rebuilds the table.

A short report with a preview of the table is printed for every document.
With --output the full table is written to a file (csv, xlsx, json or
markdown). Every extraction is also stored as a snapshot so that
"replaysheet diff" can show what changed between runs.

Examples:
  # Preview a table
  replaysheet extract https://docs.qq.com/sheet/DUnRhbGVzYXVy

  # Save it as an Excel workbook
  replaysheet extract -o sales.xlsx https://docs.qq.com/sheet/DUnRhbGVzYXVy

  # Rows split in two? Allow a larger vertical gap
  replaysheet extract --y-tolerance 8 https://docs.qq.com/sheet/DUnRhbGVzYXVy

  # Several documents, two at a time, through a SOCKS5 proxy
  replaysheet extract --batch 2 --proxy 127.0.0.1:1080 URL1 URL2 URL3

  # docs.qq.com is blocked here and there is no proxy: route through Tor
  replaysheet extract --tor https://docs.qq.com/sheet/DUnRhbGVzYXVy

Configuration file (.replaysheet) example:
  defaults:
    yTolerance: 5
  documents:
    "https://docs.qq.com/sheet/DUnRhbGVzYXVy":
      cookie: "uid=...; uid_key=..."
      output: "out/sales.csv"`,
		Args: cobra.ArbitraryArgs,
		RunE: runExtractCmd,
	}

	// Reconstruction flags
	cmd.Flags().Float64("y-tolerance", config.DefaultYTolerance,
		"Maximum vertical gap between text of the same row, in canvas units")
	cmd.Flags().Bool("no-header-filter", false,
		"Keep the sheet's own row numbers and column letters")

	// Network flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page download")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with page requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum page size in bytes")
	cmd.Flags().String("proxy", "",
		"Fetch through a SOCKS5 proxy at the given address (e.g., 127.0.0.1:1080)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and fetch through it, for networks where docs.qq.com is blocked and no SOCKS5 proxy is available (startup takes 1-3 minutes)")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().Bool("allow-any-host", false,
		"Accept any http(s) URL, not only docs.qq.com sheets")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of documents processed concurrently")

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Write the table to this file (a numeric suffix is added per document when several URLs are given)")
	cmd.Flags().StringP("format", "f", "",
		"Output file format: "+strings.Join(export.FormatNames(), ", ")+" (default: from the file extension, else csv)")
	cmd.Flags().Bool("normalize", false,
		"Apply Unicode NFC normalization to exported cells")
	cmd.Flags().StringP("report", "r", reportText,
		"Report style printed to stdout: text, json or markdown")
	cmd.Flags().Int("preview-rows", report.DefaultPreviewRows,
		"Number of table rows shown in the report preview")

	// Snapshot flags
	cmd.Flags().Bool("no-save", false,
		"Do not store the extraction in the snapshot database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the snapshot database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .replaysheet in current or home directory)")

	return cmd
}

// extractOptions are the presentation settings that do not belong in Config.
type extractOptions struct {
	reportStyle string
	previewRows int
	explicit    map[string]bool
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	switch opts.reportStyle {
	case reportText, reportJSON, reportMarkdown:
	default:
		return fmt.Errorf("configuration error: unknown report style %q (use text, json or markdown)", opts.reportStyle)
	}

	logger := setupLogger(cmd)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
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

	return runExtract(ctx, cmd.OutOrStdout(), cfg, opts, logger)
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, extractOptions, error) {
	cfg := config.NewConfig()
	opts := extractOptions{explicit: make(map[string]bool)}
	flags := cmd.Flags()

	var err error

	if cfg.YTolerance, err = flags.GetFloat64("y-tolerance"); err != nil {
		return nil, opts, err
	}

	noHeaderFilter, err := flags.GetBool("no-header-filter")
	if err != nil {
		return nil, opts, err
	}
	cfg.HeaderFilter = !noHeaderFilter

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, opts, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, opts, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, opts, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, opts, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, opts, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, opts, err
	}
	if cfg.AllowAnyHost, err = flags.GetBool("allow-any-host"); err != nil {
		return nil, opts, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, opts, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, opts, err
	}
	if cfg.OutputFormat, err = flags.GetString("format"); err != nil {
		return nil, opts, err
	}
	if cfg.Normalize, err = flags.GetBool("normalize"); err != nil {
		return nil, opts, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, opts, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, opts, err
	}
	cfg.SaveToDB = !noSave

	if opts.reportStyle, err = flags.GetString("report"); err != nil {
		return nil, opts, err
	}
	if opts.previewRows, err = flags.GetInt("preview-rows"); err != nil {
		return nil, opts, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, opts, err
	}

	// If the user named a config file it must exist. Otherwise a missing
	// file just means no per-document settings.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.Documents, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, opts, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, opts, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.Documents = &config.File{Documents: make(map[string]config.DocumentConfig)}
	}

	// Flags set on the command line win over the config file.
	for _, name := range []string{"y-tolerance", "no-header-filter", "output", "format"} {
		opts.explicit[name] = flags.Changed(name)
	}

	cfg.Targets = args

	return cfg, opts, nil
}

// extractor holds everything shared by the per-document runs.
type extractor struct {
	cfg    *config.Config
	opts   extractOptions
	client *http.Client
	db     *database.SnapshotDB
	writer report.Writer
	logger *slog.Logger

	// mu serializes report output and snapshot writes in batch mode.
	mu sync.Mutex

	failed int
}

// runExtract executes the extraction of all targets.
func runExtract(ctx context.Context, out io.Writer, cfg *config.Config, opts extractOptions, logger *slog.Logger) error {
	logger.Info("starting extraction",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	x := &extractor{
		cfg:    cfg,
		opts:   opts,
		writer: newReportWriter(out, opts, cfg.Verbose),
		logger: logger,
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		x.db = db
		logger.Info("database opened", "path", db.Path())
	}

	client, stop, err := setupHTTPClient(ctx, out, cfg, logger)
	if err != nil {
		return err
	}
	defer stop()
	x.client = client

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		err = x.runBatch(ctx, out)
	} else {
		err = x.runSequential(ctx)
	}
	if err != nil {
		return err
	}

	if x.failed > 0 {
		return fmt.Errorf("%w: %d of %d documents", ErrExtractionFailed, x.failed, len(cfg.Targets))
	}
	return nil
}

// newReportWriter returns the writer for the requested report style.
func newReportWriter(out io.Writer, opts extractOptions, verbose bool) report.Writer {
	switch opts.reportStyle {
	case reportJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case reportMarkdown:
		return report.NewMarkdownWriter(out, report.WithMarkdownPreviewRows(opts.previewRows))
	default:
		return report.NewSimpleWriter(out,
			report.WithPreviewRows(opts.previewRows),
			report.WithVerbose(verbose),
		)
	}
}

// setupHTTPClient returns the HTTP client for page downloads and a cleanup
// function. A nil client means a direct connection.
func setupHTTPClient(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) (*http.Client, func(), error) {
	noop := func() {}

	if cfg.ProxyAddress != "" {
		pc, err := fetch.NewProxyClient(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create proxy client: %w", err)
		}

		status := pc.CheckConnection(ctx)
		if status != fetch.ProxyStatusOK {
			return nil, noop, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s)",
				status, cfg.ProxyAddress)
		}

		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		return pc.HTTPClient(), noop, nil
	}

	if cfg.UseTor {
		return startEmbeddedTor(ctx, out, cfg, logger)
	}

	return nil, noop, nil
}

// startEmbeddedTor starts an embedded Tor daemon and returns a client that
// fetches through it. The returned function stops the daemon.
func startEmbeddedTor(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) (*http.Client, func(), error) {
	fmt.Fprintln(out, "Starting embedded Tor daemon...")
	fmt.Fprintf(out, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := fetch.NewEmbeddedTor(
		fetch.WithStartupTimeout(cfg.TorStartupTimeout),
	)

	if err := embeddedTor.Start(ctx); err != nil {
		return nil, func() {}, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	stop := func() {
		logger.Info("stopping embedded Tor daemon...")
		if err := embeddedTor.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}

	logger.Info("embedded Tor daemon started", "socksAddr", embeddedTor.SocksAddr())

	pc, err := embeddedTor.ProxyClient(cfg.Timeout)
	if err != nil {
		stop()
		return nil, func() {}, fmt.Errorf("failed to create Tor client: %w", err)
	}

	if status := pc.CheckConnection(ctx); status != fetch.ProxyStatusOK {
		stop()
		return nil, func() {}, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}

	return pc.HTTPClient(), stop, nil
}

// pipelineFor builds the pipeline for one document with its effective
// settings.
func (x *extractor) pipelineFor(target string) *pipeline.Pipeline {
	settings := x.cfg.ForDocument(target, x.opts.explicit)

	fetchOpts := []fetch.Option{
		fetch.WithTimeout(x.cfg.Timeout),
		fetch.WithUserAgent(x.cfg.UserAgent),
		fetch.WithLogger(x.logger),
	}
	if x.client != nil {
		fetchOpts = append(fetchOpts, fetch.WithHTTPClient(x.client))
	}
	if x.cfg.MaxBodySize > 0 {
		fetchOpts = append(fetchOpts, fetch.WithMaxBodySize(x.cfg.MaxBodySize))
	}
	if settings.Cookie != "" {
		fetchOpts = append(fetchOpts, fetch.WithCookie(settings.Cookie))
	}
	if len(settings.Headers) > 0 {
		fetchOpts = append(fetchOpts, fetch.WithHeaders(settings.Headers))
	}

	return pipeline.DefaultPipeline(
		fetch.New(fetchOpts...),
		[]pipeline.Option{pipeline.WithLogger(x.logger)},
		pipeline.WithPipelineYTolerance(settings.YTolerance),
		pipeline.WithPipelineHeaderFilter(settings.HeaderFilter),
	)
}

// runSequential extracts targets one at a time.
func (x *extractor) runSequential(ctx context.Context) error {
	for i, target := range x.cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		extraction := model.NewExtraction(target)
		_ = x.pipelineFor(target).Execute(ctx, extraction) //nolint:errcheck // Error is stored in extraction

		x.handle(ctx, extraction, i)
	}
	return nil
}

// runBatch extracts targets concurrently using BatchProcessor.
func (x *extractor) runBatch(ctx context.Context, out io.Writer) error {
	x.logger.Info("starting batch extraction",
		"targets", len(x.cfg.Targets),
		"concurrency", x.cfg.BatchSize,
	)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		x.pipelineFor,
		pipeline.WithConcurrency(x.cfg.BatchSize),
		pipeline.WithBatchLogger(x.logger),
	)

	err := bp.ProcessBatchWithCallback(ctx, x.cfg.Targets, func(extraction *model.Extraction, index int) {
		x.handle(ctx, extraction, index)
	})

	if x.opts.reportStyle == reportText {
		fmt.Fprintf(out, "Batch extraction of %d documents completed in %s\n",
			len(x.cfg.Targets), time.Since(startTime).Round(time.Millisecond))
	}

	return err
}

// handle reports, exports and stores one finished extraction.
// It is safe for concurrent use.
func (x *extractor) handle(ctx context.Context, extraction *model.Extraction, index int) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if extraction.Failed() {
		x.failed++
		x.logger.Error("extraction failed", "url", extraction.URL, "error", extraction.Error)
	}

	if _, err := x.writer.Write(extraction); err != nil {
		x.logger.Error("report failed", "url", extraction.URL, "error", err)
	}

	if extraction.Failed() {
		return
	}

	x.exportTable(extraction, index)
	x.saveSnapshot(ctx, extraction)
}

// exportTable writes the table to the document's output file, if any.
func (x *extractor) exportTable(extraction *model.Extraction, index int) {
	settings := x.cfg.ForDocument(extraction.URL, x.opts.explicit)
	if settings.OutputFile == "" {
		return
	}

	path := settings.OutputFile
	// A shared --output path gets a per-document suffix so results do not
	// overwrite each other. Paths from the config file are used as is.
	if len(x.cfg.Targets) > 1 && path == x.cfg.OutputFile {
		path = numberedPath(path, index+1)
	}

	format, err := export.WriteFile(path, settings.OutputFormat, extraction.Table,
		export.WithNormalize(x.cfg.Normalize))
	switch {
	case errors.Is(err, export.ErrEmptyTable):
		x.logger.Warn("nothing to export, output file not written", "url", extraction.URL, "path", path)
	case err != nil:
		x.logger.Error("export failed", "url", extraction.URL, "path", path, "error", err)
	default:
		x.logger.Info("table exported", "url", extraction.URL, "path", path, "format", string(format))
	}
}

// saveSnapshot stores the extraction in the database if enabled.
func (x *extractor) saveSnapshot(ctx context.Context, extraction *model.Extraction) {
	if x.db == nil {
		return
	}

	result, err := x.db.SaveSnapshot(ctx, extraction)
	if err != nil {
		x.logger.Error("failed to save snapshot", "url", extraction.URL, "error", err)
		return
	}

	x.logger.Info("snapshot saved",
		"url", extraction.URL,
		"id", result.ID,
		"changed", result.Changed,
		"previous", result.PreviousID,
	)
}

// numberedPath inserts "-n" before the extension: out.csv -> out-2.csv.
func numberedPath(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), n, ext)
}
