package config

import (
	"os"
	"strings"
	"time"

	"scriptls/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read config"), "path", path)
	}
	return Parse(string(data))
}

// Parse decodes TOML text into a defaulted and validated configuration.
func Parse(text string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(text, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode config")
	}

	applyDefaults(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to DefaultConfig.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.FileExtensions) == 0 {
		cfg.FileExtensions = []string{"gs", "ms", "src"}
	}

	if strings.TrimSpace(cfg.Resolve.FallbackSuffix) == "" {
		cfg.Resolve.FallbackSuffix = ".src"
	}

	if cfg.Scheduler.Debounce <= 0 {
		cfg.Scheduler.Debounce = 100 * time.Millisecond
	}
	if cfg.Scheduler.LatestTimeout <= 0 {
		cfg.Scheduler.LatestTimeout = 5 * time.Second
	}
	if cfg.Scheduler.DocumentTTL <= 0 {
		cfg.Scheduler.DocumentTTL = 20 * time.Minute
	}
	if cfg.Scheduler.MaxDocuments == 0 {
		cfg.Scheduler.MaxDocuments = 4096
	}

	if strings.TrimSpace(cfg.TypeAnalyzer.Strategy) == "" {
		cfg.TypeAnalyzer.Strategy = "dependency"
	}
	cfg.TypeAnalyzer.Strategy = strings.ToLower(strings.TrimSpace(cfg.TypeAnalyzer.Strategy))
	if cfg.TypeAnalyzer.CacheTTL <= 0 {
		cfg.TypeAnalyzer.CacheTTL = 20 * time.Minute
	}
	if cfg.TypeAnalyzer.CacheSize == 0 {
		cfg.TypeAnalyzer.CacheSize = 1024
	}
	if cfg.TypeAnalyzer.MaxParallel == 0 {
		cfg.TypeAnalyzer.MaxParallel = 8
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 200 * time.Millisecond
	}
	if cfg.Watch.MaxEventsPerSecond == 0 {
		cfg.Watch.MaxEventsPerSecond = 200
	}
	if cfg.Watch.ExcludeDirs == nil {
		cfg.Watch.ExcludeDirs = []string{".git"}
	}
}
