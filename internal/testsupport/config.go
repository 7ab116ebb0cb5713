package testsupport

import (
	"path/filepath"
	"testing"

	"ledgerflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Categorizer.APIKey = "test"
	cfgVal.Mailbox.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCategorizer points the categorizer section at a test server.
func WithCategorizer(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Categorizer.Enabled = true
		b.cfg.Categorizer.BaseURL = baseURL
	}
}

// WithMailbox points the mailbox section at a test server.
func WithMailbox(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mailbox.Enabled = true
		b.cfg.Mailbox.BaseURL = baseURL
		b.cfg.Mailbox.APIToken = "test"
	}
}

// WithPipeline tweaks the pipeline tunables on the test config.
func WithPipeline(queueCapacity, workers, bufferSize int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.QueueCapacity = queueCapacity
		b.cfg.Pipeline.Workers = workers
		b.cfg.Pipeline.BufferSize = bufferSize
	}
}
