package config

import (
	"testing"
	"time"

	"scriptls/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"version", func(c *Config) { c.Version = 2 }, "version"},
		{"empty extension", func(c *Config) { c.FileExtensions = []string{"src", " "} }, "file_extensions"},
		{"glob extension", func(c *Config) { c.FileExtensions = []string{"*.src"} }, "file_extensions"},
		{"suffix", func(c *Config) { c.Resolve.FallbackSuffix = "src" }, "resolve.fallback_suffix"},
		{"latest shorter than debounce", func(c *Config) {
			c.Scheduler.Debounce = time.Second
			c.Scheduler.LatestTimeout = time.Millisecond
		}, "scheduler.latest_timeout"},
		{"strategy", func(c *Config) { c.TypeAnalyzer.Strategy = "global" }, "type_analyzer.strategy"},
		{"parallel", func(c *Config) { c.TypeAnalyzer.MaxParallel = -1 }, "type_analyzer.max_parallel"},
		{"exclude", func(c *Config) { c.TypeAnalyzer.Exclude = []string{"[abc"} }, "type_analyzer.exclude"},
		{"metrics address", func(c *Config) { c.Observability.MetricsAddress = "9464" }, "observability.metrics_address"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.edit(cfg)

			errs := Validate(cfg)
			require.Len(t, errs, 1)
			assert.True(t, errors.IsCode(errs[0], errors.CodeValidationError))

			var de *errors.DomainError
			require.ErrorAs(t, errs[0], &de)
			assert.Equal(t, tc.field, de.Context[errors.CtxField])
		})
	}
}
