// Command kpigen runs the KPI pipeline once: it reads the team-match, match and
// season spreadsheets, computes the indices and writes the CSV tables to the
// data directory. It prints the outcome and exits 1 when the run fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucbra21/audaxIndex/internal/config"
	"github.com/lucbra21/audaxIndex/internal/infrastructure"
	"github.com/lucbra21/audaxIndex/internal/pipeline"
)

// Exit codes
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitStartup = 3
)

type options struct {
	configFile  string
	teamMatch   string
	matches     string
	seasonStats string
	sheet       string
	dataDir     string
	logsDir     string
	logLevel    string
	noWorkbook  bool
	noParquet   bool
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("kpigen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file (defaults to KPI_CONFIG_FILE or config.yaml)")
	fs.StringVar(&opts.teamMatch, "team-match", "", "team-match statistics file (.xlsx or .csv)")
	fs.StringVar(&opts.matches, "matches", "", "match metadata file (.xlsx or .csv)")
	fs.StringVar(&opts.seasonStats, "season-stats", "", "team season statistics file (.xlsx or .csv)")
	fs.StringVar(&opts.sheet, "sheet", "", "worksheet name to read from workbooks (defaults to the first sheet)")
	fs.StringVar(&opts.dataDir, "data", "", "output directory for the generated tables")
	fs.StringVar(&opts.logsDir, "logs", "", "logs directory")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&opts.noWorkbook, "no-workbook", false, "skip the kpis.xlsx workbook export")
	fs.BoolVar(&opts.noParquet, "no-parquet", false, "skip the parquet snapshots")
	fs.BoolVar(&opts.verbose, "v", false, "print stage progress")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return nil, errors.New("unexpected arguments")
	}
	return opts, nil
}

// apply overrides the loaded configuration with the flags that were set
func (o *options) apply(cfg *config.Config) {
	overrides := []struct {
		value string
		dst   *string
	}{
		{o.teamMatch, &cfg.Inputs.TeamMatchFile},
		{o.matches, &cfg.Inputs.MatchesFile},
		{o.seasonStats, &cfg.Inputs.SeasonStatsFile},
		{o.sheet, &cfg.Inputs.Sheet},
		{o.dataDir, &cfg.Paths.DataDir},
		{o.logsDir, &cfg.Paths.LogsDir},
		{o.logLevel, &cfg.Logging.Level},
	}
	for _, ov := range overrides {
		if ov.value != "" {
			*ov.dst = ov.value
		}
	}
	if o.noWorkbook {
		cfg.Export.Workbook = false
	}
	if o.noParquet {
		cfg.Export.Parquet = false
	}
}

func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFrom(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitStartup
	}

	// Logs go to stderr so stdout carries only the outcome
	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitStartup
	}
	slog.SetDefault(logger)
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize telemetry: %v\n", err)
		return exitStartup
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create metrics: %v\n", err)
		return exitStartup
	}

	manager := pipeline.NewManager(cfg, logger)
	manager.SetMetrics(metrics)
	if opts.verbose {
		manager.SetProgressReporter(pipeline.ProgressFunc(func(p pipeline.Progress) {
			fmt.Fprintf(stderr, "[%d/%d] %-28s %s\n", p.Step, p.Total, p.Name, p.Status)
		}))
	}

	result := manager.Run(ctx)

	fmt.Fprintln(stdout, result.Reason)
	for _, w := range result.Warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	if !result.Success {
		return exitFailed
	}
	if opts.verbose {
		for _, f := range result.Files {
			fmt.Fprintf(stdout, "  %s\n", f)
		}
	}
	return exitOK
}
