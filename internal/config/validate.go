package config

import (
	"fmt"
	"strings"

	"ledgerflow/internal/services"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrConfiguration, fmt.Sprintf(format, args...))
}

// Validate ensures the configuration is usable. It runs before any pipeline
// stage starts so invalid settings never reach the runtime.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCategorizer(); err != nil {
		return err
	}
	if err := c.validateMailbox(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return invalid("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		return invalid("paths.export_dir must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.QueueCapacity <= 0 {
		return invalid("pipeline.queue_capacity must be positive, got %d", c.Pipeline.QueueCapacity)
	}
	if c.Pipeline.Workers <= 0 {
		return invalid("pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.BufferSize <= 0 {
		return invalid("pipeline.buffer_size must be positive, got %d", c.Pipeline.BufferSize)
	}
	if c.Pipeline.FlushIntervalSeconds <= 0 {
		return invalid("pipeline.flush_interval_seconds must be positive, got %d", c.Pipeline.FlushIntervalSeconds)
	}
	if c.Pipeline.DeadlineSeconds <= 0 {
		return invalid("pipeline.deadline_seconds must be positive, got %d", c.Pipeline.DeadlineSeconds)
	}
	if c.Pipeline.ShutdownGraceSeconds < 0 {
		return invalid("pipeline.shutdown_grace_seconds must not be negative, got %d", c.Pipeline.ShutdownGraceSeconds)
	}
	return nil
}

func (c *Config) validateCategorizer() error {
	if !c.Categorizer.Enabled {
		return nil
	}
	if c.Categorizer.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/ledgerflow/config.toml"
		}
		return invalid("categorizer.api_key is required when the categorizer is enabled. Set OPENROUTER_API_KEY or edit %s (create with 'ledgerflow config init')", defaultPath)
	}
	if c.Categorizer.BaseURL == "" {
		return invalid("categorizer.base_url must be set")
	}
	if c.Categorizer.Model == "" {
		return invalid("categorizer.model must be set")
	}
	return nil
}

func (c *Config) validateMailbox() error {
	if !c.Mailbox.Enabled {
		return nil
	}
	if c.Mailbox.BaseURL == "" {
		return invalid("mailbox.base_url is required when the mailbox lookup is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format must be console or json; got %q", c.Logging.Format)
	}
	return nil
}
