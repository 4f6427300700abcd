// Package main is the latsearch CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/latsearch/internal/cli"
	"github.com/hyperjump/latsearch/internal/config"
	"github.com/hyperjump/latsearch/internal/corpus"
	"github.com/hyperjump/latsearch/internal/embedding"
	"github.com/hyperjump/latsearch/internal/metric"
	"github.com/hyperjump/latsearch/internal/models"
	"github.com/hyperjump/latsearch/internal/search"
	"github.com/hyperjump/latsearch/internal/storage"
	"github.com/hyperjump/latsearch/pkg/utils"
)

var version = "dev"

// Exit codes. Anything not listed exits with exitFailure.
const (
	exitOK                = 0
	exitFailure           = 1
	exitInvalidMetric     = 2
	exitCorpusEmpty       = 3
	exitMalformedVector   = 4
	exitDimensionMismatch = 5
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitFailure
	}
	command, rest := args[0], args[1:]
	switch command {
	case "lat":
		return runQuery(search.VectorStrategyName, rest, stdout, stderr)
	case "seq":
		return runQuery(search.SequenceStrategyName, rest, stdout, stderr)
	case "names":
		return runNames(rest, stdout, stderr)
	case "metrics":
		return runMetrics(stdout)
	case "serve", "server":
		return runServe(rest, stderr)
	case "watch":
		return runWatch(rest, stdout, stderr)
	case "history":
		return runHistory(rest, stdout, stderr)
	case "status":
		return runStatus(rest, stdout, stderr)
	case "init":
		return runInit(rest, stdout, stderr)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "latsearch version %s\n", version)
		return exitOK
	case "help", "--help", "-h":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return exitFailure
	}
}

// loadConfig loads the config at path. When path is empty it falls back to latsearch.yaml in
// the working directory, and to pure defaults when that does not exist either.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err != nil {
			return config.Default(), "", nil
		}
		path = config.DefaultFileName
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newLogger builds the CLI logger. One-shot commands pass quiet so that stdout and stderr carry
// only results and failures unless debug or an explicit level asks for more.
func newLogger(cfg *config.Config, quiet bool) (*zap.Logger, error) {
	level := cfg.LogLevel
	if level == "" && quiet && !cfg.Debug {
		level = "warn"
	}
	return utils.NewLogger(cfg.Debug, level)
}

// argsReorder moves every flag (and its value) ahead of the positional arguments so that
// flag.Parse sees them. Go's flag package stops at the first non-flag argument, so
// "latsearch lat -corpus refs query.txt -m cosine" would otherwise ignore -m.
// Arguments after "--" are left positional.
func argsReorder(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	var positional []string
	terminated := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			terminated = true
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") || !takesValue(fs, name) {
			continue
		}
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if terminated {
		flags = append(flags, "--")
	}
	return append(flags, positional...)
}

// takesValue reports whether the named flag consumes the following argument.
func takesValue(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
		return false
	}
	return true
}

// flagsSet returns the names of the flags given on the command line.
func flagsSet(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// exitCode maps a search failure to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, models.ErrInvalidMetric):
		return exitInvalidMetric
	case errors.Is(err, models.ErrCorpusEmpty):
		return exitCorpusEmpty
	case errors.Is(err, models.ErrMalformedVector):
		return exitMalformedVector
	case errors.Is(err, models.ErrDimensionMismatch):
		return exitDimensionMismatch
	default:
		return exitFailure
	}
}

func searchFailed(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Search failed: %v\n", err)
	return exitCode(err)
}

// queryOptions say where and how lat, seq and watch report results.
type queryOptions struct {
	out    string
	format cli.OutputFormat
	mode   cli.WriteMode
}

// queryFlags registers the flags shared by lat, seq and watch.
type queryFlags struct {
	configPath *string
	corpusDir  *string
	metric     *string
	p          *int
	out        *string
	format     *string
	mode       *string
	workers    *int
	debug      *bool
}

func registerQueryFlags(fs *flag.FlagSet) *queryFlags {
	return &queryFlags{
		configPath: fs.String("config", "", "config file path (default: ./"+config.DefaultFileName+" when present)"),
		corpusDir:  fs.String("corpus", "", "directory of reference vectors (overrides corpus.directory)"),
		metric:     fs.String("m", "", "distance metric (default from config, euclidean)"),
		p:          fs.Int("p", metric.DefaultP, "p-norm for the minkowski metric"),
		out:        fs.String("out", "", "output file (default: stdout)"),
		format:     fs.String("of", "", "output format: text, csv or json (default from config, text)"),
		mode:       fs.String("om", "", "output file mode: a (append) or w (overwrite) (default from config, a)"),
		workers:    fs.Int("workers", 0, "goroutines computing distances (default from config, 1)"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

// apply merges flags given on the command line over cfg.
func (f *queryFlags) apply(fs *flag.FlagSet, cfg *config.Config) {
	set := flagsSet(fs)
	if set["corpus"] {
		cfg.Corpus.Directory = *f.corpusDir
	}
	if set["m"] {
		cfg.Search.Metric = *f.metric
	}
	if set["p"] {
		cfg.Search.PNorm = float64(*f.p)
	}
	if set["of"] {
		cfg.Output.Format = *f.format
	}
	if set["om"] {
		cfg.Output.Mode = *f.mode
	}
	if set["workers"] {
		cfg.Search.Workers = *f.workers
	}
	if *f.debug {
		cfg.Debug = true
	}
}

func outputOptions(cfg *config.Config, out string) (queryOptions, error) {
	format, err := cli.ParseOutputFormat(cfg.Output.Format)
	if err != nil {
		return queryOptions{}, err
	}
	mode, err := cli.ParseWriteMode(cfg.Output.Mode)
	if err != nil {
		return queryOptions{}, err
	}
	return queryOptions{out: out, format: format, mode: mode}, nil
}

func printQueryUsage(fs *flag.FlagSet, name, what string) {
	fmt.Fprintf(fs.Output(), "Usage: latsearch %s [flags] <%s>\n\n", name, what)
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), "\nMetrics: %v\n", metric.Names())
}

// runQuery implements lat and seq: resolve the metric, load the corpus, search, report.
func runQuery(strategyName string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(strategyName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := registerQueryFlags(fs)
	what := "query-file"
	if strategyName == search.SequenceStrategyName {
		what = "sequence-file"
	}
	fs.Usage = func() { printQueryUsage(fs, strategyName, what) }
	if err := fs.Parse(argsReorder(fs, args)); err != nil {
		return exitFailure
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitFailure
	}
	queryPath := fs.Arg(0)

	cfg, _, err := loadConfig(*flags.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	flags.apply(fs, cfg)
	logger, err := newLogger(cfg, true)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	spec, err := metric.Resolve(cfg.Search.Metric, cfg.Search.PNorm)
	if err != nil {
		return searchFailed(stderr, err)
	}
	opts, err := outputOptions(cfg, *flags.out)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	strategies, closeStrategies := buildStrategies(cfg, logger)
	defer closeStrategies()
	st, err := strategies.Get(strategyName)
	if err != nil {
		return searchFailed(stderr, err)
	}

	ctx := context.Background()
	c, err := corpus.Load(ctx, cfg.Corpus.Directory,
		corpus.WithExtensions(cfg.Corpus.Extensions),
		corpus.WithLogger(logger),
	)
	if err != nil {
		return searchFailed(stderr, err)
	}
	searcher := newSearcher(cfg, logger, nil)
	res, err := searcher.SearchFile(ctx, st, queryPath, spec, c)
	if err != nil {
		return searchFailed(stderr, err)
	}
	if err := report(res, opts, stdout); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return exitFailure
	}
	recordHistory(ctx, cfg, res, logger)
	return exitOK
}

func newSearcher(cfg *config.Config, logger *zap.Logger, recorder search.Recorder) *search.Searcher {
	opts := []search.SearcherOption{
		search.WithWorkers(cfg.Search.Workers),
		search.WithBinaryCheck(cfg.Search.BinaryCheckOrDefault()),
		search.WithLogger(logger),
	}
	if recorder != nil {
		opts = append(opts, search.WithRecorder(recorder))
	}
	return search.NewSearcher(opts...)
}

// buildStrategies returns the vector strategy, plus the sequence strategy when it is enabled
// and its encoder could be created. The returned func releases the encoder.
func buildStrategies(cfg *config.Config, logger *zap.Logger) (search.Strategies, func()) {
	strategies := []search.Strategy{search.NewVectorStrategy()}
	closeFn := func() {}
	if cfg.Sequence.Enabled {
		enc, err := embedding.NewONNXEncoder(embedding.ONNXConfig{
			ModelPath:  cfg.Sequence.ModelPath,
			MaxLength:  cfg.Sequence.MaxLength,
			Dimensions: cfg.Sequence.Dimensions,
			InputName:  cfg.Sequence.InputName,
			OutputName: cfg.Sequence.OutputName,
			CacheSize:  cfg.Sequence.CacheSize,
		})
		if err != nil {
			logger.Warn("sequence encoder unavailable", zap.String("model", cfg.Sequence.ModelPath), zap.Error(err))
		} else {
			strategies = append(strategies, search.NewSequenceStrategy(enc))
			closeFn = func() { _ = enc.Close() }
		}
	}
	return search.NewStrategies(strategies...), closeFn
}

// report writes res to stdout, or to opts.out when set.
func report(res *models.SearchResult, opts queryOptions, stdout io.Writer) error {
	if opts.out == "" {
		return cli.WriteResult(stdout, res, opts.format)
	}
	return cli.Report(res, opts.out, opts.format, opts.mode)
}

// recordHistory stores res when a history database is configured. Failures are logged only.
func recordHistory(ctx context.Context, cfg *config.Config, res *models.SearchResult, logger *zap.Logger) {
	if cfg.Storage.DatabasePath == "" {
		return
	}
	store, err := openStorage(cfg)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
		return
	}
	defer store.Close()
	if _, err := store.SaveResult(ctx, res); err != nil {
		logger.Warn("failed to record result", zap.Error(err))
	}
}

func openStorage(cfg *config.Config) (*storage.SQLiteStorage, error) {
	if dir := filepath.Dir(cfg.Storage.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `latsearch - nearest reference search over latent-space vectors

Usage:
  latsearch lat [flags] <query-file>      Find the reference closest to a query vector
  latsearch seq [flags] <sequence-file>   Encode a protein sequence, then search like lat
  latsearch names [flags]                 List reference labels in corpus order
  latsearch metrics                       List supported distance metrics
  latsearch serve [flags]                 Start the HTTP API
  latsearch watch [flags] [inbox-dir]     Search every query file dropped into a directory
  latsearch history [flags]               Show recorded results
  latsearch status [flags]                Show corpus and storage status
  latsearch init [flags]                  Write a config file with default settings
  latsearch version                       Show version
  latsearch help                          Show this help

Search Flags (lat, seq, watch):
  -config string   Config file path (default: ./latsearch.yaml when present)
  -corpus string   Directory of reference vectors
  -m string        Distance metric (default: euclidean)
  -p int           p-norm for minkowski (default: 2)
  -out string      Output file (default: stdout)
  -of string       Output format: text, csv or json (default: text)
  -om string       Output file mode: a (append) or w (overwrite) (default: a)
  -workers int     Goroutines computing distances (default: 1)
  -debug           Enable debug logging

Exit status:
  0 found, 1 other failure, 2 invalid metric, 3 empty corpus,
  4 malformed vector, 5 dimension mismatch

Examples:
  latsearch lat -corpus ./latent_spaces query.txt
  latsearch lat query.txt -m minkowski -p 3
  latsearch lat -m cosine -out results.csv -of csv query.txt
  latsearch names -corpus ./latent_spaces
  latsearch watch -corpus ./latent_spaces -out results.csv ./inbox`)
}
