package config

const (
	defaultDataDir   = "~/.local/share/ledgerflow"
	defaultExportDir = "~/.local/share/ledgerflow/exports"
	defaultLogDir    = "~/.local/share/ledgerflow/logs"

	defaultQueueCapacity        = 100
	defaultWorkers              = 4
	defaultBufferSize           = 100
	defaultFlushIntervalSeconds = 30
	defaultDeadlineSeconds      = 600
	defaultShutdownGraceSeconds = 5

	defaultCategorizerBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultCategorizerModel          = "google/gemini-3-flash-preview"
	defaultCategorizerTimeoutSeconds = 30

	defaultMailboxTimeoutSeconds = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ExportDir: defaultExportDir,
			LogDir:    defaultLogDir,
		},
		Pipeline: Pipeline{
			QueueCapacity:        defaultQueueCapacity,
			Workers:              defaultWorkers,
			BufferSize:           defaultBufferSize,
			FlushIntervalSeconds: defaultFlushIntervalSeconds,
			DeadlineSeconds:      defaultDeadlineSeconds,
			ShutdownGraceSeconds: defaultShutdownGraceSeconds,
		},
		Categorizer: Categorizer{
			Enabled:        true,
			BaseURL:        defaultCategorizerBaseURL,
			Model:          defaultCategorizerModel,
			TimeoutSeconds: defaultCategorizerTimeoutSeconds,
		},
		Mailbox: Mailbox{
			TimeoutSeconds: defaultMailboxTimeoutSeconds,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
