// Package config provides configuration loading and structs for latsearch.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/latsearch/internal/metric"
)

// DefaultFileName is the config file looked up in the working directory when none is given.
const DefaultFileName = "latsearch.yaml"

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	LogLevel string         `yaml:"log_level"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Search   SearchConfig   `yaml:"search"`
	Output   OutputConfig   `yaml:"output"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Watch    WatchConfig    `yaml:"watch"`
	Sequence SequenceConfig `yaml:"sequence"`
}

// CorpusConfig locates the reference vectors.
type CorpusConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// SearchConfig holds metric and scan settings.
type SearchConfig struct {
	Metric      string  `yaml:"metric"`
	PNorm       float64 `yaml:"p_norm"`
	Workers     int     `yaml:"workers"`
	BinaryCheck *bool   `yaml:"binary_check"`
}

// BinaryCheckOrDefault returns whether boolean metrics check for 0/1 input; defaults to true when unset.
func (s *SearchConfig) BinaryCheckOrDefault() bool {
	if s.BinaryCheck != nil {
		return *s.BinaryCheck
	}
	return true
}

// OutputConfig holds result reporting settings.
type OutputConfig struct {
	Format string `yaml:"format"`
	Mode   string `yaml:"mode"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the result history database path. Empty disables history.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// WatchConfig holds query inbox settings.
type WatchConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
	OutputFile string   `yaml:"output_file"`
}

// SequenceConfig holds ONNX sequence encoder settings.
type SequenceConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ModelPath  string `yaml:"model_path"`
	MaxLength  int    `yaml:"max_length"`
	Dimensions int    `yaml:"dimensions"`
	InputName  string `yaml:"input_name"`
	OutputName string `yaml:"output_name"`
	CacheSize  int    `yaml:"cache_size"`
}

// Default returns a config with only default values.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.Directory = expandPath(cfg.Corpus.Directory, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	cfg.Watch.OutputFile = expandPath(cfg.Watch.OutputFile, configDir)
	cfg.Sequence.ModelPath = expandPath(cfg.Sequence.ModelPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := metric.Resolve(c.Search.Metric, c.Search.PNorm); err != nil {
		errs = append(errs, fmt.Errorf("search.metric: %w", err))
	}
	if c.Search.Workers < 0 {
		errs = append(errs, fmt.Errorf("search.workers must be >= 0, got %d", c.Search.Workers))
	}
	switch c.Output.Format {
	case "text", "csv", "json":
	default:
		errs = append(errs, fmt.Errorf("output.format must be text, csv or json, got %q", c.Output.Format))
	}
	switch c.Output.Mode {
	case "a", "w":
	default:
		errs = append(errs, fmt.Errorf("output.mode must be a or w, got %q", c.Output.Mode))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Sequence.Enabled {
		if c.Sequence.ModelPath == "" {
			errs = append(errs, errors.New("sequence.model_path is required when sequence search is enabled"))
		}
		if c.Sequence.Dimensions <= 0 {
			errs = append(errs, errors.New("sequence.dimensions must be positive when sequence search is enabled"))
		}
	}
	return errors.Join(errs...)
}

// expandPath converts a path to absolute. "~/" paths are relative to the home directory;
// other relative paths are relative to configDir. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
		return path
	}
	return filepath.Join(configDir, path)
}
