package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/latsearch/internal/cli"
	"github.com/hyperjump/latsearch/internal/metric"
	"github.com/hyperjump/latsearch/internal/models"
	"github.com/hyperjump/latsearch/internal/search"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
}

// fixture builds a corpus {A: [0 0], B: [3 4]} and returns its directory and a query directory.
func fixture(t *testing.T) (corpusDir, queryDir string) {
	t.Helper()
	corpusDir, queryDir = t.TempDir(), t.TempDir()
	writeFiles(t, corpusDir, map[string]string{"A.txt": "0 0\n", "B.txt": "3 4\n"})
	writeFiles(t, queryDir, map[string]string{
		"origin.txt": "0 0\n",
		"ones.txt":   "1 1\n",
		"three.txt":  "1 2 3\n",
		"bad.txt":    "1 x\n",
	})
	return corpusDir, queryDir
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunLat(t *testing.T) {
	corpusDir, queryDir := fixture(t)
	origin := filepath.Join(queryDir, "origin.txt")
	ones := filepath.Join(queryDir, "ones.txt")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"exact match", []string{"lat", "-corpus", corpusDir, origin},
			fmt.Sprintf("The closest reference to %s is A with euclidean distance: 0.0\n", origin)},
		{"closest of two", []string{"lat", "-corpus", corpusDir, "-m", "euclidean", ones},
			fmt.Sprintf("The closest reference to %s is A with euclidean distance: 1.4142135623730951\n", ones)},
		{"flags after query", []string{"lat", ones, "-corpus", corpusDir, "-of", "csv", "-m", "sqeuclidean"},
			fmt.Sprintf("%s,sqeuclidean,A,2.0\n", ones)},
		{"manhattan alias", []string{"lat", "-corpus", corpusDir, "-m", "Manhattan", "-of", "csv", ones},
			fmt.Sprintf("%s,cityblock,A,2.0\n", ones)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(tt.args...)
			if code != exitOK {
				t.Fatalf("exit %d, stderr: %s", code, stderr)
			}
			if stdout != tt.want {
				t.Errorf("stdout = %q, want %q", stdout, tt.want)
			}
		})
	}
}

func TestRunLat_minkowskiMatchesCityblock(t *testing.T) {
	corpusDir, queryDir := t.TempDir(), t.TempDir()
	writeFiles(t, corpusDir, map[string]string{"B.txt": "3 4\n"})
	writeFiles(t, queryDir, map[string]string{"q.txt": "0 0\n"})
	q := filepath.Join(queryDir, "q.txt")

	_, mink, _ := runCLI("lat", "-corpus", corpusDir, "-m", "minkowski", "-p", "1", "-of", "csv", q)
	_, city, _ := runCLI("lat", "-corpus", corpusDir, "-m", "cityblock", "-of", "csv", q)
	if mink != q+",minkowski,B,7.0\n" {
		t.Errorf("minkowski: %q", mink)
	}
	if city != q+",cityblock,B,7.0\n" {
		t.Errorf("cityblock: %q", city)
	}
}

func TestRunLat_failures(t *testing.T) {
	corpusDir, queryDir := fixture(t)
	emptyDir := t.TempDir()
	missingCorpus := filepath.Join(t.TempDir(), "missing")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"invalid metric before corpus access", []string{"lat", "-corpus", missingCorpus, "-m", "foo", filepath.Join(queryDir, "origin.txt")}, exitInvalidMetric},
		{"minkowski p below one", []string{"lat", "-corpus", corpusDir, "-m", "minkowski", "-p", "-1", filepath.Join(queryDir, "origin.txt")}, exitInvalidMetric},
		{"minkowski p zero", []string{"lat", "-corpus", corpusDir, "-m", "minkowski", "-p", "0", filepath.Join(queryDir, "origin.txt")}, exitInvalidMetric},
		{"empty corpus", []string{"lat", "-corpus", emptyDir, filepath.Join(queryDir, "origin.txt")}, exitCorpusEmpty},
		{"malformed query", []string{"lat", "-corpus", corpusDir, filepath.Join(queryDir, "bad.txt")}, exitMalformedVector},
		{"dimension mismatch", []string{"lat", "-corpus", corpusDir, filepath.Join(queryDir, "three.txt")}, exitDimensionMismatch},
		{"missing query file", []string{"lat", "-corpus", corpusDir, filepath.Join(queryDir, "nope.txt")}, exitFailure},
		{"missing corpus dir", []string{"lat", "-corpus", missingCorpus, filepath.Join(queryDir, "origin.txt")}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(tt.args...)
			if code != tt.code {
				t.Errorf("exit %d, want %d (stderr: %s)", code, tt.code, stderr)
			}
			if stdout != "" {
				t.Errorf("expected no result on stdout, got %q", stdout)
			}
			if !strings.Contains(stderr, "Search failed: ") {
				t.Errorf("stderr = %q, want Search failed prefix", stderr)
			}
		})
	}
}

func TestRunLat_usage(t *testing.T) {
	if code, _, stderr := runCLI("lat"); code != exitFailure || !strings.Contains(stderr, "Usage: latsearch lat") {
		t.Errorf("exit %d, stderr %q", code, stderr)
	}
	if code, _, _ := runCLI("lat", "-of", "xml", "-corpus", t.TempDir(), "q.txt"); code != exitFailure {
		t.Errorf("bad output format: exit %d", code)
	}
}

func TestRunLat_outputFile(t *testing.T) {
	corpusDir, queryDir := fixture(t)
	out := filepath.Join(t.TempDir(), "results.csv")
	q := filepath.Join(queryDir, "origin.txt")
	for i := 0; i < 2; i++ {
		if code, stdout, stderr := runCLI("lat", "-corpus", corpusDir, "-out", out, "-of", "csv", q); code != exitOK || stdout != "" {
			t.Fatalf("exit %d, stdout %q, stderr %s", code, stdout, stderr)
		}
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := strings.Repeat(q+",euclidean,A,0.0\n", 2); string(data) != want {
		t.Errorf("append: got %q, want %q", data, want)
	}

	if code, _, _ := runCLI("lat", "-corpus", corpusDir, "-out", out, "-of", "csv", "-om", "w", q); code != exitOK {
		t.Fatalf("overwrite: exit %d", code)
	}
	data, _ = os.ReadFile(out)
	if string(data) != q+",euclidean,A,0.0\n" {
		t.Errorf("overwrite: got %q", data)
	}
}

func TestRunSeq_notEnabled(t *testing.T) {
	corpusDir, queryDir := fixture(t)
	writeFiles(t, queryDir, map[string]string{"p.fasta": ">p\nMKV\n"})
	code, _, stderr := runCLI("seq", "-corpus", corpusDir, filepath.Join(queryDir, "p.fasta"))
	if code != exitFailure {
		t.Errorf("exit %d, want %d", code, exitFailure)
	}
	if !strings.Contains(stderr, models.ErrSequenceUnsupported.Error()) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunNames(t *testing.T) {
	corpusDir, _ := fixture(t)
	code, stdout, stderr := runCLI("names", "-corpus", corpusDir)
	if code != exitOK || stdout != "A\nB\n" {
		t.Errorf("exit %d, stdout %q, stderr %s", code, stdout, stderr)
	}
	if code, _, _ := runCLI("names", "-corpus", t.TempDir()); code != exitCorpusEmpty {
		t.Errorf("empty corpus: exit %d", code)
	}
}

func TestRunMetrics(t *testing.T) {
	code, stdout, _ := runCLI("metrics")
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if code != exitOK || len(lines) != 18 || lines[0] != "euclidean" {
		t.Errorf("exit %d, %d metrics: %v", code, len(lines), lines)
	}
}

func TestRunHistoryAndStatus(t *testing.T) {
	corpusDir, queryDir := fixture(t)
	cfgDir := t.TempDir()
	cfgPath := filepath.Join(cfgDir, "latsearch.yaml")
	cfgYAML := fmt.Sprintf("corpus:\n  directory: %q\nstorage:\n  database_path: data/history.db\n", corpusDir)
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0600); err != nil {
		t.Fatal(err)
	}

	for _, q := range []string{"origin.txt", "ones.txt"} {
		if code, _, stderr := runCLI("lat", "-config", cfgPath, filepath.Join(queryDir, q)); code != exitOK {
			t.Fatalf("lat %s: exit %d, stderr %s", q, code, stderr)
		}
	}

	code, stdout, stderr := runCLI("history", "-config", cfgPath, "-output", "json")
	if code != exitOK {
		t.Fatalf("history: exit %d, stderr %s", code, stderr)
	}
	var records []models.HistoryRecord
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		t.Fatalf("history json: %v\n%s", err, stdout)
	}
	if len(records) != 2 || records[0].QueryLabel != filepath.Join(queryDir, "ones.txt") {
		t.Fatalf("history = %+v", records)
	}

	code, stdout, stderr = runCLI("history", "-config", cfgPath, "-id", records[1].ID, "-output", "json")
	if code != exitOK {
		t.Fatalf("history -id: exit %d, stderr %s", code, stderr)
	}
	var one []models.HistoryRecord
	if err := json.Unmarshal([]byte(stdout), &one); err != nil {
		t.Fatalf("history -id json: %v\n%s", err, stdout)
	}
	if len(one) != 1 || one[0].ID != records[1].ID || one[0].ClosestLabel != "A" {
		t.Errorf("history -id = %+v", one)
	}
	if code, _, stderr := runCLI("history", "-config", cfgPath, "-id", "missing"); code != exitFailure || !strings.Contains(stderr, "not found") {
		t.Errorf("history -id missing: exit %d, stderr %q", code, stderr)
	}

	code, stdout, stderr = runCLI("status", "-config", cfgPath, "-output", "json")
	if code != exitOK {
		t.Fatalf("status: exit %d, stderr %s", code, stderr)
	}
	var status statusResponse
	if err := json.Unmarshal([]byte(stdout), &status); err != nil {
		t.Fatal(err)
	}
	if status.Entries != 2 || status.Results == nil || *status.Results != 2 {
		t.Errorf("status = %+v", status)
	}
	if status.DatabasePath != filepath.Join(cfgDir, "data", "history.db") {
		t.Errorf("database path = %s", status.DatabasePath)
	}
	if len(status.Formats) == 0 || status.Formats[0] != ".txt" {
		t.Errorf("formats = %v", status.Formats)
	}
}

func TestRunInit(t *testing.T) {
	corpusDir, queryDir := fixture(t)
	cfgPath := filepath.Join(t.TempDir(), "latsearch.yaml")

	code, stdout, stderr := runCLI("init", "-config", cfgPath, "-corpus", corpusDir)
	if code != exitOK || !strings.Contains(stdout, cfgPath) {
		t.Fatalf("init: exit %d, stdout %q, stderr %q", code, stdout, stderr)
	}
	if code, _, stderr := runCLI("init", "-config", cfgPath); code != exitFailure || !strings.Contains(stderr, "already exists") {
		t.Errorf("second init: exit %d, stderr %q", code, stderr)
	}

	code, stdout, stderr = runCLI("lat", "-config", cfgPath, "-of", "csv", filepath.Join(queryDir, "ones.txt"))
	if code != exitOK {
		t.Fatalf("lat with written config: exit %d, stderr %s", code, stderr)
	}
	if !strings.HasSuffix(stdout, ",euclidean,A,1.4142135623730951\n") {
		t.Errorf("stdout = %q", stdout)
	}

	if code, _, stderr := runCLI("init", "-config", cfgPath, "-force"); code != exitOK {
		t.Errorf("init -force: exit %d, stderr %q", code, stderr)
	}
}

func TestRunHistory_notEnabled(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "latsearch.yaml")
	if err := os.WriteFile(cfgPath, []byte("debug: false\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if code, _, stderr := runCLI("history", "-config", cfgPath); code != exitFailure || !strings.Contains(stderr, "History not enabled") {
		t.Errorf("exit %d, stderr %q", code, stderr)
	}
}

func TestQueryRunner_handle(t *testing.T) {
	corpusDir, queryDir := fixture(t)
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config")
	}
	cfg, _, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Corpus.Directory = corpusDir
	logger, err := newLogger(cfg, true)
	if err != nil {
		t.Fatal(err)
	}
	spec, err := metric.Resolve(cfg.Search.Metric, cfg.Search.PNorm)
	if err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	runner := &queryRunner{
		cfg:      cfg,
		spec:     spec,
		strategy: search.NewVectorStrategy(),
		searcher: newSearcher(cfg, logger, nil),
		opts:     queryOptions{format: cli.OutputCSV, mode: cli.ModeAppend},
		logger:   logger,
		stdout:   &stdout,
		stderr:   &stderr,
	}
	runner.handle(filepath.Join(queryDir, "origin.txt"))
	runner.handle(filepath.Join(queryDir, "three.txt"))
	if stdout.String() != filepath.Join(queryDir, "origin.txt")+",euclidean,A,0.0\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Search failed: "+filepath.Join(queryDir, "three.txt")) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_unknownCommand(t *testing.T) {
	if code, _, stderr := runCLI("frobnicate"); code != exitFailure || !strings.Contains(stderr, "Unknown command") {
		t.Errorf("exit %d, stderr %q", code, stderr)
	}
	if code, _, _ := runCLI(); code != exitFailure {
		t.Errorf("no args: exit %d", code)
	}
	if code, stdout, _ := runCLI("help"); code != exitOK || !strings.Contains(stdout, "latsearch lat") {
		t.Errorf("help: exit %d", code)
	}
	if code, stdout, _ := runCLI("version"); code != exitOK || !strings.HasPrefix(stdout, "latsearch version") {
		t.Errorf("version: exit %d, stdout %q", code, stdout)
	}
}

func TestArgsReorder(t *testing.T) {
	fs := flag.NewFlagSet("lat", flag.ContinueOnError)
	registerQueryFlags(fs)

	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"flags after query are moved first", []string{"q.txt", "-m", "cosine"}, []string{"-m", "cosine", "q.txt"}},
		{"flags first returns unchanged", []string{"-m", "cosine", "q.txt"}, []string{"-m", "cosine", "q.txt"}},
		{"flags on both sides", []string{"-corpus", "refs", "q.txt", "-m", "cityblock"}, []string{"-corpus", "refs", "-m", "cityblock", "q.txt"}},
		{"negative value stays with its flag", []string{"q.txt", "-p", "-1"}, []string{"-p", "-1", "q.txt"}},
		{"bool flag takes no value", []string{"-debug", "q.txt", "-of", "csv"}, []string{"-debug", "-of", "csv", "q.txt"}},
		{"inline value", []string{"q.txt", "-m=cosine"}, []string{"-m=cosine", "q.txt"}},
		{"terminator keeps the rest positional", []string{"-m", "cosine", "--", "-odd.txt"}, []string{"-m", "cosine", "--", "-odd.txt"}},
		{"query only returns unchanged", []string{"q.txt"}, []string{"q.txt"}},
		{"empty args returns unchanged", []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := argsReorder(fs, tt.args); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRunLat_flagsAroundQuery(t *testing.T) {
	corpusDir, queryDir := fixture(t)
	q := filepath.Join(queryDir, "origin.txt")
	code, stdout, stderr := runCLI("lat", "-corpus", corpusDir, q, "-m", "cityblock", "-of", "csv")
	if code != exitOK {
		t.Fatalf("exit %d (stderr: %s)", code, stderr)
	}
	if !strings.HasPrefix(stdout, q+",cityblock,") {
		t.Errorf("stdout = %q, want a cityblock csv row", stdout)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{fmt.Errorf("wrap: %w", models.ErrInvalidMetric), exitInvalidMetric},
		{models.ErrCorpusEmpty, exitCorpusEmpty},
		{models.NewMalformedVector("q", "bad"), exitMalformedVector},
		{&models.DimensionMismatchError{Label: "A", Query: 3, Entry: 2}, exitDimensionMismatch},
		{models.ErrUndefinedDistance, exitFailure},
		{errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
