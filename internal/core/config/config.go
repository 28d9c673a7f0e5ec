package config

import "time"

// DefaultFile is the configuration file looked up in the workspace root.
const DefaultFile = "scriptls.toml"

type Config struct {
	Version        int           `toml:"version"`
	FileExtensions []string      `toml:"file_extensions"`
	Resolve        Resolve       `toml:"resolve"`
	Scheduler      Scheduler     `toml:"scheduler"`
	TypeAnalyzer   TypeAnalyzer  `toml:"type_analyzer"`
	Watch          Watch         `toml:"watch"`
	Observability  Observability `toml:"observability"`
}

type Resolve struct {
	FallbackSuffix string `toml:"fallback_suffix"`
}

type Scheduler struct {
	Debounce      time.Duration `toml:"debounce"`
	LatestTimeout time.Duration `toml:"latest_timeout"`
	DocumentTTL   time.Duration `toml:"document_ttl"`
	MaxDocuments  int           `toml:"max_documents"`
}

type TypeAnalyzer struct {
	Strategy    string        `toml:"strategy"`
	Exclude     []string      `toml:"exclude"`
	CacheTTL    time.Duration `toml:"cache_ttl"`
	CacheSize   int           `toml:"cache_size"`
	MaxParallel int           `toml:"max_parallel"`
}

type Watch struct {
	Enabled            bool          `toml:"enabled"`
	Debounce           time.Duration `toml:"debounce"`
	MaxEventsPerSecond int           `toml:"max_events_per_second"`
	ExcludeDirs        []string      `toml:"exclude_dirs"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
