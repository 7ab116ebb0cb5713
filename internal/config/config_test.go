package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledgerflow/internal/config"
	"ledgerflow/internal/services"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Pipeline.QueueCapacity != 100 || cfg.Pipeline.Workers != 4 {
		t.Fatalf("unexpected pipeline defaults: %#v", cfg.Pipeline)
	}
	if cfg.Pipeline.BufferSize != 100 || cfg.Pipeline.FlushIntervalSeconds != 30 {
		t.Fatalf("unexpected sink defaults: %#v", cfg.Pipeline)
	}
	if cfg.Categorizer.APIKey != "test-key" {
		t.Fatalf("env fallback not applied: %#v", cfg.Categorizer)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := writeConfig(t, `
[pipeline]
queue_capacity = 8
workers = 2
buffer_size = 3
flush_interval_seconds = 1
deadline_seconds = 30

[categorizer]
enabled = false

[logging]
level = "debug"
format = "json"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected resolved existing path, got %q exists=%v", resolved, exists)
	}
	if cfg.Pipeline.QueueCapacity != 8 || cfg.Pipeline.BufferSize != 3 {
		t.Fatalf("overrides not applied: %#v", cfg.Pipeline)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging overrides not applied: %#v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		fragment string
	}{
		{
			name: "zero workers",
			contents: `
[pipeline]
workers = 0
[categorizer]
enabled = false
`,
			fragment: "pipeline.workers",
		},
		{
			name: "negative buffer",
			contents: `
[pipeline]
buffer_size = -1
[categorizer]
enabled = false
`,
			fragment: "pipeline.buffer_size",
		},
		{
			name: "bad log level",
			contents: `
[categorizer]
enabled = false
[logging]
level = "loud"
`,
			fragment: "logging.level",
		},
		{
			name: "mailbox without base url",
			contents: `
[categorizer]
enabled = false
[mailbox]
enabled = true
`,
			fragment: "mailbox.base_url",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.fragment)
			}
			if !strings.Contains(err.Error(), services.ErrConfiguration.Error()) {
				t.Fatalf("error not classified as configuration error: %v", err)
			}
		})
	}
}

func TestCategorizerRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	path := writeConfig(t, `
[categorizer]
enabled = true
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "categorizer.api_key") {
		t.Fatalf("expected api key validation error, got %v", err)
	}
}

func TestSampleConfigIsNonEmpty(t *testing.T) {
	if !strings.Contains(config.SampleConfig(), "[pipeline]") {
		t.Fatal("sample config missing pipeline section")
	}
}
