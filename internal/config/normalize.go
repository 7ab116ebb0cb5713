package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCategorizer()
	c.normalizeMailbox()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCategorizer() {
	c.Categorizer.APIKey = strings.TrimSpace(c.Categorizer.APIKey)
	if c.Categorizer.APIKey == "" {
		c.Categorizer.APIKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}
	c.Categorizer.BaseURL = strings.TrimRight(strings.TrimSpace(c.Categorizer.BaseURL), "/")
	if c.Categorizer.BaseURL == "" {
		c.Categorizer.BaseURL = defaultCategorizerBaseURL
	}
	c.Categorizer.Model = strings.TrimSpace(c.Categorizer.Model)
	if c.Categorizer.Model == "" {
		c.Categorizer.Model = defaultCategorizerModel
	}
	if c.Categorizer.TimeoutSeconds <= 0 {
		c.Categorizer.TimeoutSeconds = defaultCategorizerTimeoutSeconds
	}
}

func (c *Config) normalizeMailbox() {
	c.Mailbox.APIToken = strings.TrimSpace(c.Mailbox.APIToken)
	if c.Mailbox.APIToken == "" {
		c.Mailbox.APIToken = strings.TrimSpace(os.Getenv("LEDGERFLOW_MAILBOX_TOKEN"))
	}
	c.Mailbox.BaseURL = strings.TrimRight(strings.TrimSpace(c.Mailbox.BaseURL), "/")
	if c.Mailbox.TimeoutSeconds <= 0 {
		c.Mailbox.TimeoutSeconds = defaultMailboxTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
