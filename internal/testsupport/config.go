package testsupport

import (
	"path/filepath"
	"testing"

	"deltae/internal/ciede2000"
	"deltae/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose history lives in a per-test temp
// directory. Progress bars are disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.History.Dir = filepath.Join(base, "state")
	cfgVal.Output.Progress = "never"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithoutHistory disables the run database.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithHistoryKeep sets the number of retained runs.
func WithHistoryKeep(keep int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Keep = keep
	}
}

// WithWeights overrides the CIEDE2000 weights.
func WithWeights(w ciede2000.Weights) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metric.KL, b.cfg.Metric.KC, b.cfg.Metric.KH = w.KL, w.KC, w.KH
	}
}

// WithBlockSize overrides the read block size.
func WithBlockSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Input.BlockSize = n
	}
}

// WithOutputFormat selects text, json or table output.
func WithOutputFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Format = format
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.History.Dir)
}
