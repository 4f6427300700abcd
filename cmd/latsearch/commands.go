package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/latsearch/internal/cli"
	"github.com/hyperjump/latsearch/internal/config"
	"github.com/hyperjump/latsearch/internal/corpus"
	"github.com/hyperjump/latsearch/internal/extract"
	"github.com/hyperjump/latsearch/internal/metric"
	"github.com/hyperjump/latsearch/internal/metrics"
	"github.com/hyperjump/latsearch/internal/models"
	"github.com/hyperjump/latsearch/internal/search"
	"github.com/hyperjump/latsearch/internal/server"
	"github.com/hyperjump/latsearch/internal/storage"
	"github.com/hyperjump/latsearch/internal/watcher"
)

func runNames(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("names", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file path")
	corpusDir := fs.String("corpus", "", "directory of reference vectors")
	outputFormat := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(argsReorder(fs, args)); err != nil {
		return exitFailure
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	if *corpusDir != "" {
		cfg.Corpus.Directory = *corpusDir
	}
	logger, err := newLogger(cfg, true)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	c, err := corpus.Load(context.Background(), cfg.Corpus.Directory,
		corpus.WithExtensions(cfg.Corpus.Extensions),
		corpus.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load corpus: %v\n", err)
		return exitCode(err)
	}
	if err := cli.WriteNames(stdout, c.Labels(), format); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func runMetrics(stdout io.Writer) int {
	for _, name := range metric.Names() {
		fmt.Fprintln(stdout, name)
	}
	return exitOK
}

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file path")
	corpusDir := fs.String("corpus", "", "directory of reference vectors")
	host := fs.String("host", "", "listen host (default from config, localhost)")
	port := fs.Int("port", 0, "listen port (default from config, 8080)")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	if *corpusDir != "" {
		cfg.Corpus.Directory = *corpusDir
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	cfg.Debug = cfg.Debug || *debug
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid config: %v\n", err)
		return exitFailure
	}
	logger, err := newLogger(cfg, false)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath), zap.Bool("debug", cfg.Debug))

	var store storage.Storage
	if cfg.Storage.DatabasePath != "" {
		s, err := openStorage(cfg)
		if err != nil {
			logger.Error("Failed to initialize storage", zap.Error(err))
			return exitFailure
		}
		defer s.Close()
		store = s
	}

	recorder := metrics.NewRecorder()
	srv := server.NewServer(newSearcher(cfg, logger, recorder), store, cfg, logger, recorder)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			return exitFailure
		}
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
	return exitOK
}

// queryRunner searches one query file at a time for the watch command. Each query loads the
// corpus fresh, so references added to the corpus directory are picked up without a restart.
type queryRunner struct {
	cfg      *config.Config
	spec     metric.Spec
	strategy search.Strategy
	searcher *search.Searcher
	opts     queryOptions
	store    storage.Storage
	logger   *zap.Logger
	stdout   io.Writer
	stderr   io.Writer
	mu       sync.Mutex
}

// handle classifies the query at path and reports the result. Failures are reported, never fatal.
func (q *queryRunner) handle(path string) {
	ctx := context.Background()
	c, err := corpus.Load(ctx, q.cfg.Corpus.Directory,
		corpus.WithExtensions(q.cfg.Corpus.Extensions),
		corpus.WithLogger(q.logger),
	)
	if err == nil {
		var res *models.SearchResult
		res, err = q.searcher.SearchFile(ctx, q.strategy, path, q.spec, c)
		if err == nil {
			q.mu.Lock()
			err = report(res, q.opts, q.stdout)
			q.mu.Unlock()
			if err != nil {
				q.logger.Warn("watch output failed", zap.String("path", path), zap.Error(err))
				return
			}
			if q.store != nil {
				if _, err := q.store.SaveResult(ctx, res); err != nil {
					q.logger.Warn("failed to record result", zap.Error(err))
				}
			}
			return
		}
	}
	q.logger.Warn("watch search failed", zap.String("path", path), zap.Error(err))
	q.mu.Lock()
	fmt.Fprintf(q.stderr, "Search failed: %s: %v\n", path, err)
	q.mu.Unlock()
}

func runWatch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := registerQueryFlags(fs)
	syncExisting := fs.Bool("sync", true, "search files already in the inbox at startup")
	fs.Usage = func() { printQueryUsage(fs, "watch", "inbox-dir") }
	if err := fs.Parse(argsReorder(fs, args)); err != nil {
		return exitFailure
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitFailure
	}

	cfg, _, err := loadConfig(*flags.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	flags.apply(fs, cfg)
	if fs.NArg() == 1 {
		cfg.Watch.Directory = fs.Arg(0)
	}
	if cfg.Watch.Directory == "" {
		fmt.Fprintln(stderr, "No inbox directory: pass one or set watch.directory in the config")
		return exitFailure
	}
	out := cfg.Watch.OutputFile
	if *flags.out != "" {
		out = *flags.out
	}
	if out != "" && !flagsSet(fs)["of"] {
		cfg.Output.Format = string(cli.OutputCSV)
	}
	// Results accumulate, one per query.
	cfg.Output.Mode = string(cli.ModeAppend)

	logger, err := newLogger(cfg, false)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	spec, err := metric.Resolve(cfg.Search.Metric, cfg.Search.PNorm)
	if err != nil {
		return searchFailed(stderr, err)
	}
	opts, err := outputOptions(cfg, out)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	runner := &queryRunner{
		cfg:      cfg,
		spec:     spec,
		strategy: search.NewVectorStrategy(),
		searcher: newSearcher(cfg, logger, nil),
		opts:     opts,
		logger:   logger,
		stdout:   stdout,
		stderr:   stderr,
	}
	if cfg.Storage.DatabasePath != "" {
		s, err := openStorage(cfg)
		if err != nil {
			logger.Warn("history unavailable", zap.Error(err))
		} else {
			defer s.Close()
			runner.store = s
		}
	}

	watchOpts := []watcher.WatcherOption{watcher.WithLogger(logger)}
	w := watcher.NewWatcher(cfg.Watch.Directory, cfg.Watch.Extensions, runner.handle, watchOpts...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "Failed to start watcher: %v\n", err)
		return exitFailure
	}
	defer w.Stop()
	logger.Info("watching for queries",
		zap.String("inbox", w.Dir()),
		zap.String("corpus", cfg.Corpus.Directory),
		zap.String("metric", spec.Name()),
	)
	if *syncExisting {
		if err := w.SyncExisting(); err != nil {
			logger.Warn("sync existing queries failed", zap.Error(err))
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")
	return exitOK
}

func runHistory(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file path")
	limit := fs.Int("limit", 20, "number of results (0 = all)")
	id := fs.String("id", "", "show only the result with this ID")
	outputFormat := fs.String("output", "text", "output format: text, csv or json")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	if cfg.Storage.DatabasePath == "" {
		fmt.Fprintln(stderr, "History not enabled: set storage.database_path in the config")
		return exitFailure
	}
	store, err := openStorage(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}
	defer store.Close()
	var records []*models.HistoryRecord
	if *id != "" {
		rec, err := store.GetResult(context.Background(), *id)
		if err != nil {
			fmt.Fprintf(stderr, "Get result failed: %v\n", err)
			return exitFailure
		}
		records = []*models.HistoryRecord{rec}
	} else {
		records, err = store.ListResults(context.Background(), *limit)
		if err != nil {
			fmt.Fprintf(stderr, "List results failed: %v\n", err)
			return exitFailure
		}
	}
	if err := cli.WriteHistory(stdout, records, format); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.DefaultFileName, "config file to write")
	corpusDir := fs.String("corpus", "", "directory of reference vectors")
	force := fs.Bool("force", false, "overwrite an existing config file")
	if err := fs.Parse(argsReorder(fs, args)); err != nil {
		return exitFailure
	}
	if _, err := os.Stat(*configPath); err == nil && !*force {
		fmt.Fprintf(stderr, "%s already exists; use -force to overwrite\n", *configPath)
		return exitFailure
	}
	cfg := config.Default()
	cfg.Corpus.Directory = *corpusDir
	if err := config.Save(*configPath, cfg); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}
	fmt.Fprintf(stdout, "Wrote %s\n", *configPath)
	return exitOK
}

// statusResponse is what status reports, as text or JSON.
type statusResponse struct {
	CorpusDirectory string   `json:"corpus_directory"`
	Entries         int      `json:"entries"`
	Dimensions      []int    `json:"dimensions,omitempty"`
	CorpusError     string   `json:"corpus_error,omitempty"`
	Metric          string   `json:"metric"`
	Formats         []string `json:"formats"`
	DatabasePath    string   `json:"database_path,omitempty"`
	Results         *int64   `json:"results,omitempty"`
	DiskUsageBytes  *int64   `json:"disk_usage_bytes,omitempty"`
}

func runStatus(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file path")
	corpusDir := fs.String("corpus", "", "directory of reference vectors")
	outputFormat := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return exitFailure
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	if *corpusDir != "" {
		cfg.Corpus.Directory = *corpusDir
	}

	ctx := context.Background()
	status := statusResponse{
		CorpusDirectory: cfg.Corpus.Directory,
		Metric:          cfg.Search.Metric,
		Formats:         extract.SupportedExtensions(),
		DatabasePath:    cfg.Storage.DatabasePath,
	}
	if c, err := corpus.Load(ctx, cfg.Corpus.Directory, corpus.WithExtensions(cfg.Corpus.Extensions)); err == nil {
		status.Entries = c.Len()
		status.Dimensions = c.Dimensions()
	} else {
		status.CorpusError = err.Error()
	}
	if cfg.Storage.DatabasePath != "" {
		store, err := openStorage(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return exitFailure
		}
		count, err := store.CountResults(ctx)
		_ = store.Close()
		if err != nil {
			fmt.Fprintf(stderr, "Count results failed: %v\n", err)
			return exitFailure
		}
		status.Results = &count
		if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(stderr, "Output failed: %v\n", err)
			return exitFailure
		}
	case "text":
		fmt.Fprintf(stdout, "corpus_directory:  %s\n", status.CorpusDirectory)
		fmt.Fprintf(stdout, "entries:           %d   # reference vectors\n", status.Entries)
		if len(status.Dimensions) > 0 {
			fmt.Fprintf(stdout, "dimensions:        %v\n", status.Dimensions)
		}
		if status.CorpusError != "" {
			fmt.Fprintf(stdout, "corpus_error:      %s\n", status.CorpusError)
		}
		fmt.Fprintf(stdout, "metric:            %s   # default\n", status.Metric)
		fmt.Fprintf(stdout, "formats:           %s\n", strings.Join(status.Formats, " "))
		if status.DatabasePath != "" {
			fmt.Fprintf(stdout, "database_path:     %s\n", status.DatabasePath)
		}
		if status.Results != nil {
			fmt.Fprintf(stdout, "results:           %d   # recorded searches\n", *status.Results)
		}
		if status.DiskUsageBytes != nil {
			fmt.Fprintf(stdout, "disk_usage:        %s\n", cli.FormatBytes(*status.DiskUsageBytes))
		}
	default:
		fmt.Fprintf(stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		return exitFailure
	}
	return exitOK
}
