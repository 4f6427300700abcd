package config

import "github.com/hyperjump/latsearch/internal/metric"

// ApplyDefaults sets default values for any zero values in cfg.
// The corpus directory has no default and must be configured.
func ApplyDefaults(cfg *Config) {
	if cfg.Search.Metric == "" {
		cfg.Search.Metric = "euclidean"
	}
	if cfg.Search.PNorm == 0 {
		cfg.Search.PNorm = metric.DefaultP
	}
	if cfg.Search.Workers == 0 {
		cfg.Search.Workers = 1
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
	if cfg.Output.Mode == "" {
		cfg.Output.Mode = "a"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt"}
	}
	if cfg.Sequence.MaxLength == 0 {
		cfg.Sequence.MaxLength = 512
	}
	if cfg.Sequence.InputName == "" {
		cfg.Sequence.InputName = "input_ids"
	}
	if cfg.Sequence.OutputName == "" {
		cfg.Sequence.OutputName = "latent"
	}
	if cfg.Sequence.CacheSize == 0 {
		cfg.Sequence.CacheSize = 1024
	}
}
