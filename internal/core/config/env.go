package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: SCRIPTLS_[SECTION]_[KEY] (e.g., SCRIPTLS_TYPE_ANALYZER_STRATEGY).
func ApplyEnvOverrides(cfg *Config) {
	// Resolve
	setEnvString(&cfg.Resolve.FallbackSuffix, "SCRIPTLS_RESOLVE_FALLBACK_SUFFIX")

	// Scheduler
	setEnvDuration(&cfg.Scheduler.Debounce, "SCRIPTLS_SCHEDULER_DEBOUNCE")
	setEnvDuration(&cfg.Scheduler.LatestTimeout, "SCRIPTLS_SCHEDULER_LATEST_TIMEOUT")
	setEnvDuration(&cfg.Scheduler.DocumentTTL, "SCRIPTLS_SCHEDULER_DOCUMENT_TTL")
	setEnvInt(&cfg.Scheduler.MaxDocuments, "SCRIPTLS_SCHEDULER_MAX_DOCUMENTS")

	// Type analyzer
	setEnvString(&cfg.TypeAnalyzer.Strategy, "SCRIPTLS_TYPE_ANALYZER_STRATEGY")
	setEnvList(&cfg.TypeAnalyzer.Exclude, "SCRIPTLS_TYPE_ANALYZER_EXCLUDE")
	setEnvDuration(&cfg.TypeAnalyzer.CacheTTL, "SCRIPTLS_TYPE_ANALYZER_CACHE_TTL")
	setEnvInt(&cfg.TypeAnalyzer.CacheSize, "SCRIPTLS_TYPE_ANALYZER_CACHE_SIZE")
	setEnvInt(&cfg.TypeAnalyzer.MaxParallel, "SCRIPTLS_TYPE_ANALYZER_MAX_PARALLEL")

	// Watch
	setEnvBool(&cfg.Watch.Enabled, "SCRIPTLS_WATCH_ENABLED")
	setEnvDuration(&cfg.Watch.Debounce, "SCRIPTLS_WATCH_DEBOUNCE")
	setEnvInt(&cfg.Watch.MaxEventsPerSecond, "SCRIPTLS_WATCH_MAX_EVENTS_PER_SECOND")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddress, "SCRIPTLS_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "SCRIPTLS_OBSERVABILITY_OTLP_ENDPOINT")

	cfg.TypeAnalyzer.Strategy = strings.ToLower(strings.TrimSpace(cfg.TypeAnalyzer.Strategy))
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		var items []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = items
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
