package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfascan/mfascan/internal/config"
	"github.com/mfascan/mfascan/internal/database"
	"github.com/mfascan/mfascan/internal/log"
	"github.com/mfascan/mfascan/internal/model"
	"github.com/mfascan/mfascan/internal/pipeline"
	"github.com/mfascan/mfascan/internal/report"
	"github.com/mfascan/mfascan/internal/signals"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [bundle-file...]",
		Short: "Audit signal bundles for MFA characteristics",
		Long: `Audit analyzes one or more signal bundle files and scores each page
for made-for-advertising characteristics.

Each bundle is run through the full analysis pipeline:
- Ad placement analysis (density, stacking, above-fold crowding)
- Viewability classification (hidden, clipped, and stuffed slots)
- Scroll heatmap (ad walls and scroll traps below the fold)
- Network traffic classification (ad refresh, traffic arbitrage)
- Ad server metrics analysis (when delivery records are supplied)
- Risk aggregation into a single MFA probability

Examples:
  # Audit a single signal bundle
  mfascan audit page.json

  # Audit several bundles concurrently
  mfascan audit site1.json site2.json site3.json

  # Attach ad server delivery records to every bundle
  mfascan audit --gam records.json page.json

  # Output JSON report to a file
  mfascan audit --json -o report.json page.json

  # Use a custom configuration file
  mfascan audit -c myconfig.yaml page.json

Configuration file (.mfascan) example:
  defaults:
    excessiveAdCount: 12
  sites:
    gallery.example:
      scrollTrapDensity: 4.0
      notes: "image gallery, dense scroll is expected"`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Analysis input flags
	cmd.Flags().StringP("gam", "g", "",
		"JSON file of ad server delivery records applied to bundles without embedded records")

	// Audit behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each individual audit")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .mfascan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Database flags
	cmd.Flags().Bool("no-save", false,
		"Do not save audit results to the local database")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with sanitization
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
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

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.GAMFilePath, err = cmd.Flags().GetString("gam")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	// Get positional arguments (signal bundle paths)
	cfg.BundlePaths = args

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The logger sanitizes sensitive values such as captured request headers.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// auditInput pairs a parsed bundle with the fingerprint of its raw bytes.
// The fingerprint keys change detection in the audit history.
type auditInput struct {
	bundle      *model.PageSignals
	fingerprint string
}

// runAudit executes the audit.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.BundlePaths) == 0 {
		return errors.New("no signal bundles provided (specify one or more bundle files as arguments)")
	}

	logger.Info("starting audit",
		"bundles", cfg.BundlePaths,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.AuditDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Load and normalize all signal bundles upfront so malformed input
	// fails before any analysis runs
	inputs, err := loadBundles(cfg, logger)
	if err != nil {
		return err
	}

	// Use batch processor for parallel auditing if multiple bundles
	if len(inputs) > 1 && cfg.BatchSize > 1 {
		return runBatchAudit(ctx, cfg, inputs, db, logger)
	}

	// Single bundle or sequential auditing
	return runSequentialAudit(ctx, cfg, inputs, db, logger)
}

// loadBundles reads, parses, and fingerprints every bundle path.
// When a GAM records file is configured, its records are attached to
// bundles that do not already embed delivery records.
func loadBundles(cfg *config.Config, logger *slog.Logger) ([]auditInput, error) {
	var gamRecords []model.GAMRecord
	if cfg.GAMFilePath != "" {
		var err error
		gamRecords, err = signals.LoadGAMRecords(cfg.GAMFilePath)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded ad server records",
			"path", cfg.GAMFilePath,
			"records", len(gamRecords),
		)
	}

	inputs := make([]auditInput, 0, len(cfg.BundlePaths))
	for _, path := range cfg.BundlePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read signal bundle: %w", err)
		}
		bundle, err := signals.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		if len(gamRecords) > 0 && !bundle.HasGAMData() {
			if bundle.External == nil {
				bundle.External = &model.ExternalScores{}
			}
			bundle.External.GAMRecords = gamRecords
		}

		inputs = append(inputs, auditInput{
			bundle:      bundle,
			fingerprint: signals.Fingerprint(data),
		})
	}
	return inputs, nil
}

// thresholdsForSite returns the analysis thresholds for a site, with
// site-specific overrides from the config file applied.
func thresholdsForSite(cfg *config.Config, site string) config.Thresholds {
	if cfg.SiteConfigs == nil {
		return cfg.Thresholds
	}
	return cfg.SiteConfigs.GetSiteConfig(site).ApplyTo(cfg.Thresholds)
}

// runSequentialAudit audits bundles one at a time.
func runSequentialAudit(ctx context.Context, cfg *config.Config, inputs []auditInput, db *database.AuditDB, logger *slog.Logger) error {
	for _, input := range inputs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Create pipeline with site-specific thresholds
		thresholds := thresholdsForSite(cfg, input.bundle.Site)
		p := pipeline.DefaultPipeline(thresholds, logger,
			pipeline.WithContinueOnError(true),
		)

		auditReport := model.NewAuditReport(input.bundle)
		auditReport.Fingerprint = input.fingerprint

		fmt.Printf("Auditing %s...\n", input.bundle.Site)
		startTime := time.Now()

		// Bound the audit; pathological bundles should not hang the run
		auditCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		err := p.Execute(auditCtx, auditReport)
		cancel()
		if err != nil {
			logger.Error("audit failed", "site", input.bundle.Site, "error", err)
			fmt.Fprintf(os.Stderr, "Audit error for %s: %v\n", input.bundle.Site, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Audit completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "site", input.bundle.Site, "error", err)
		}

		// Save to database if enabled
		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit report", "site", input.bundle.Site, "error", err)
		}
	}

	return nil
}

// runBatchAudit audits multiple bundles concurrently using BatchProcessor.
func runBatchAudit(ctx context.Context, cfg *config.Config, inputs []auditInput, db *database.AuditDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch audit of %d bundles (concurrency: %d)...\n\n",
		len(inputs), cfg.BatchSize)

	startTime := time.Now()

	// Warn user about batch processing limitation
	if cfg.SiteConfigs != nil && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("batch processing uses default thresholds only; site-specific overrides are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(os.Stderr, "Warning: Site-specific threshold overrides are ignored in batch mode. Use sequential mode (--batch 1) to apply per-site settings.\n\n")
	}

	// Create batch processor with pipeline factory
	thresholds := cfg.Thresholds
	if cfg.SiteConfigs != nil {
		thresholds = cfg.SiteConfigs.Defaults.ApplyTo(thresholds)
	}
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(thresholds, logger,
				pipeline.WithContinueOnError(true),
			)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	bundles := make([]*model.PageSignals, len(inputs))
	for i, input := range inputs {
		bundles[i] = input.bundle
	}

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, bundles, func(auditReport *model.AuditReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		auditReport.Fingerprint = inputs[index].fingerprint

		fmt.Printf("[%d/%d] Audit completed: %s\n", index+1, len(inputs), auditReport.Site)

		// Generate and output report
		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "site", auditReport.Site, "error", err)
		}

		// Save to database if enabled
		if err := saveAuditReport(ctx, db, auditReport, logger); err != nil {
			logger.Error("failed to save audit report", "site", auditReport.Site, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch audit completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport outputs the audit report in the requested format.
func outputReport(cfg *config.Config, auditReport *model.AuditReport) error {
	// Generate simple report if needed
	if auditReport.SimpleReport == nil {
		auditReport.SimpleReport = model.NewSimpleReport(auditReport)
	}

	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with owner-only permissions.
		// Reports can embed signal bundle fragments that include captured
		// request metadata.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (detailed report with all data)
	if cfg.JSONReport {
		writer := report.NewJSONWriter(output, report.WithPrettyPrint())
		_, err := writer.Write(auditReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(auditReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output)
	_, err := writer.Write(auditReport)
	return err
}

// saveAuditReport saves the audit report to the database if enabled.
// If db is nil, this function is a no-op.
func saveAuditReport(ctx context.Context, db *database.AuditDB, auditReport *model.AuditReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// Ensure SimpleReport is generated before saving
	if auditReport.SimpleReport == nil {
		auditReport.SimpleReport = model.NewSimpleReport(auditReport)
	}

	if err := db.SaveReport(ctx, auditReport); err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	logger.Info("audit report saved to database", "site", auditReport.Site)
	return nil
}
