package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/nvmbuild/build"
	"github.com/wippyai/nvmbuild/datasource"
	"github.com/wippyai/nvmbuild/ihex"
	"github.com/wippyai/nvmbuild/layout"
)

type config struct {
	requests  []build.Request
	xlsx      string
	mainSheet string
	opts      build.Options
	output    build.Output
	stats     bool
	compare   string
	timeout   time.Duration
}

func main() {
	var (
		xlsx        = flag.String("x", "", "Path to the .xlsx data workbook")
		mainSheet   = flag.String("main-sheet", "Main", "Main sheet name in the workbook")
		variant     = flag.String("variant", "", "Variant column to use")
		debug       = flag.Bool("debug", false, "Prefer the Debug column when it has a value")
		strict      = flag.Bool("strict", false, "Reject integers that are not exact in float fields")
		outDir      = flag.String("o", "out", "Output directory")
		prefix      = flag.String("prefix", "", "Prefix for output file names")
		suffix      = flag.String("suffix", "", "Suffix for output file names")
		recordWidth = flag.Int("record-width", ihex.DefaultRecordWidth, "Data bytes per record (1..64)")
		format      = flag.String("format", "hex", "Output format: hex or mot")
		combined    = flag.Bool("combined", false, "Write all blocks into one combined file")
		stats       = flag.Bool("stats", false, "Print build statistics")
		compare     = flag.String("compare", "", "Compare against previous HEX files in DIR")
		jobs        = flag.Int("jobs", 0, "Concurrent blocks (0 = GOMAXPROCS)")
		timeout     = flag.Duration("timeout", 0, "Fail blocks not started within this duration")
		quiet       = flag.Bool("q", false, "Only log errors")
		verbose     = flag.Bool("v", false, "Debug logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: nvmbuild [flags] block@layout.toml [block@layout.yaml ...]")
		fmt.Fprintln(os.Stderr, "       nvmbuild -x data.xlsx -variant ProdA config@blocks.toml")
		fmt.Fprintln(os.Stderr, "       nvmbuild -x data.xlsx -i config@blocks.toml  (interactive mode)")
		os.Exit(1)
	}

	reqs, err := build.ParseRequests(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	outFormat, err := build.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *recordWidth < 1 || *recordWidth > ihex.MaxRecordWidth {
		fmt.Fprintf(os.Stderr, "Error: -record-width must be 1..%d, got %d\n", ihex.MaxRecordWidth, *recordWidth)
		os.Exit(1)
	}

	cfg := config{
		requests:  reqs,
		xlsx:      *xlsx,
		mainSheet: *mainSheet,
		opts: build.Options{
			Variant: *variant,
			Debug:   *debug,
			Strict:  *strict,
			Jobs:    *jobs,
		},
		output: build.Output{
			Dir:         *outDir,
			Prefix:      *prefix,
			Suffix:      *suffix,
			Format:      outFormat,
			RecordWidth: *recordWidth,
			Combined:    *combined,
		},
		stats:   *stats,
		compare: *compare,
		timeout: *timeout,
	}

	if *interactive {
		// the TUI owns the terminal; keep library logs quiet
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := newLogger(*verbose, *quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	datasource.SetLogger(logger.Named("datasource"))
	layout.SetLogger(logger.Named("layout"))
	build.SetLogger(logger.Named("build"))

	os.Exit(run(cfg, logger))
}

func newLogger(verbose, quiet bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	switch {
	case verbose:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case quiet:
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// openSource loads the workbook when one is given. A nil Source means
// every value must come from inline literals.
func openSource(path, mainSheet string) (datasource.Source, error) {
	if path == "" {
		return nil, nil
	}
	tbl, err := datasource.OpenWorkbook(path, mainSheet)
	if err != nil {
		return nil, err
	}
	return tbl, nil
}

// run builds, compares and writes, and returns the process exit code.
func run(cfg config, logger *zap.Logger) int {
	src, err := openSource(cfg.xlsx, cfg.mainSheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	code := 0
	report, err := build.New(src, cfg.opts).Build(ctx, cfg.requests)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", e)
		}
		code = 1
	}

	// compare before writing, the previous files may live in the output dir
	if cfg.compare != "" {
		changes, err := cfg.output.Compare(cfg.compare, report)
		for _, e := range multierr.Errors(err) {
			logger.Warn("compare failed", zap.Error(e))
		}
		printChanges(os.Stdout, changes)
	}

	written, err := cfg.output.Write(report)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", e)
		}
		code = 1
	}
	for _, p := range written {
		logger.Info("wrote", zap.String("path", p))
	}

	if cfg.stats {
		printStats(os.Stdout, report.Stats(), term.IsTerminal(int(os.Stdout.Fd())))
	}
	return code
}
