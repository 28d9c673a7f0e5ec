package config

import (
	"fmt"
	"net"
	"strings"

	"scriptls/internal/core/errors"

	"github.com/gobwas/glob"
)

func invalid(field, format string, args ...interface{}) error {
	return errors.AddContext(
		errors.New(errors.CodeValidationError, fmt.Sprintf(format, args...)),
		errors.CtxField, field,
	)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return invalid("version", "unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateExtensions(cfg *Config) error {
	for i, ext := range cfg.FileExtensions {
		normalized := strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if normalized == "" {
			return invalid("file_extensions", "file_extensions[%d] must not be empty", i)
		}
		if strings.ContainsAny(normalized, "/\\*?") {
			return invalid("file_extensions", "file_extensions[%d] %q is not a plain extension", i, ext)
		}
	}
	return nil
}

func validateResolve(cfg *Config) error {
	suffix := cfg.Resolve.FallbackSuffix
	if !strings.HasPrefix(suffix, ".") || strings.ContainsAny(suffix, "/\\") {
		return invalid("resolve.fallback_suffix", "resolve.fallback_suffix must look like \".src\", got %q", suffix)
	}
	return nil
}

func validateScheduler(cfg *Config) error {
	if cfg.Scheduler.MaxDocuments < 0 {
		return invalid("scheduler.max_documents", "scheduler.max_documents must be >= 0, got %d", cfg.Scheduler.MaxDocuments)
	}
	if cfg.Scheduler.LatestTimeout < cfg.Scheduler.Debounce {
		return invalid("scheduler.latest_timeout", "scheduler.latest_timeout (%s) must not be shorter than scheduler.debounce (%s)",
			cfg.Scheduler.LatestTimeout, cfg.Scheduler.Debounce)
	}
	return nil
}

func validateTypeAnalyzer(cfg *Config) error {
	switch cfg.TypeAnalyzer.Strategy {
	case "dependency", "workspace":
	default:
		return invalid("type_analyzer.strategy", "type_analyzer.strategy must be one of: dependency, workspace")
	}
	if cfg.TypeAnalyzer.CacheSize < 0 {
		return invalid("type_analyzer.cache_size", "type_analyzer.cache_size must be >= 0, got %d", cfg.TypeAnalyzer.CacheSize)
	}
	if cfg.TypeAnalyzer.MaxParallel < 1 {
		return invalid("type_analyzer.max_parallel", "type_analyzer.max_parallel must be >= 1, got %d", cfg.TypeAnalyzer.MaxParallel)
	}
	for i, pattern := range cfg.TypeAnalyzer.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return invalid("type_analyzer.exclude", "type_analyzer.exclude[%d] %q is not a valid pattern: %v", i, pattern, err)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.MaxEventsPerSecond < 0 {
		return invalid("watch.max_events_per_second", "watch.max_events_per_second must be >= 0, got %d", cfg.Watch.MaxEventsPerSecond)
	}
	for i, pattern := range cfg.Watch.ExcludeDirs {
		if _, err := glob.Compile(pattern); err != nil {
			return invalid("watch.exclude_dirs", "watch.exclude_dirs[%d] %q is not a valid pattern: %v", i, pattern, err)
		}
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if addr := strings.TrimSpace(cfg.Observability.MetricsAddress); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return invalid("observability.metrics_address", "observability.metrics_address %q must be host:port", addr)
		}
	}
	return nil
}

// Validate returns every problem found in cfg.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateExtensions,
		validateResolve,
		validateScheduler,
		validateTypeAnalyzer,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
