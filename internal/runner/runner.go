package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ledgerflow/internal/cleaner"
	"ledgerflow/internal/config"
	"ledgerflow/internal/export"
	"ledgerflow/internal/ingest"
	"ledgerflow/internal/logging"
	"ledgerflow/internal/pipeline"
	"ledgerflow/internal/rules"
	"ledgerflow/internal/runstore"
	"ledgerflow/internal/services"
	"ledgerflow/internal/services/categorizer"
	"ledgerflow/internal/services/mailbox"
	"ledgerflow/internal/txn"
)

// Categorizer assigns a category to one transaction.
type Categorizer interface {
	Categorize(ctx context.Context, item txn.Transaction) (categorizer.Categorization, error)
}

// MailboxLookup finds purchase-confirmation email context for one
// transaction.
type MailboxLookup interface {
	Lookup(ctx context.Context, item txn.Transaction) (*mailbox.EmailContext, error)
}

// Runner executes import runs against a fixed configuration.
type Runner struct {
	cfg    *config.Config
	store  *runstore.Store
	logger *slog.Logger

	categorizer Categorizer
	mailbox     MailboxLookup
}

// Option customizes a Runner, mainly for swapping collaborators in tests.
type Option func(*Runner)

// WithCategorizer overrides the categorization collaborator.
func WithCategorizer(c Categorizer) Option {
	return func(r *Runner) {
		r.categorizer = c
	}
}

// WithMailbox overrides the email lookup collaborator.
func WithMailbox(m MailboxLookup) Option {
	return func(r *Runner) {
		r.mailbox = m
	}
}

// New constructs a runner. Collaborators default to HTTP clients built
// from the config's categorizer and mailbox sections when those are
// enabled.
func New(cfg *config.Config, store *runstore.Store, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("runner requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "runner"),
	}
	if cfg.Categorizer.Enabled {
		r.categorizer = categorizer.NewClient(categorizer.Config{
			APIKey:         cfg.Categorizer.APIKey,
			BaseURL:        cfg.Categorizer.BaseURL,
			Model:          cfg.Categorizer.Model,
			TimeoutSeconds: cfg.Categorizer.TimeoutSeconds,
		})
	}
	if cfg.Mailbox.Enabled {
		r.mailbox = mailbox.NewClient(mailbox.Config{
			BaseURL:        cfg.Mailbox.BaseURL,
			APIToken:       cfg.Mailbox.APIToken,
			TimeoutSeconds: cfg.Mailbox.TimeoutSeconds,
		})
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Outcome reports one completed run.
type Outcome struct {
	Run     runstore.Run
	Summary pipeline.Summary
}

// Run imports one CSV file through the pipeline. Per-item failures do
// not fail the run; deadline expiry, a broken source, or a held lock
// do.
func (r *Runner) Run(ctx context.Context, sourcePath string) (Outcome, error) {
	var outcome Outcome

	if err := r.cfg.EnsureDirectories(); err != nil {
		return outcome, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(r.cfg.Paths.DataDir, "ledgerflow.lock"))
	held, err := lock.TryLock()
	if err != nil {
		return outcome, fmt.Errorf("acquire lock: %w", err)
	}
	if !held {
		return outcome, errors.New("another ledgerflow run is already in progress")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	source, err := ingest.OpenCSV(sourcePath)
	if err != nil {
		return outcome, fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	runID := uuid.NewString()
	startedAt := time.Now()
	ctx = services.WithRunID(ctx, runID)
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))
	logger.Info("run started",
		logging.String("source", sourcePath),
		logging.Duration("deadline", r.cfg.Deadline()))

	writer := export.NewWriter(r.cfg.Paths.ExportDir, startedAt)

	stages, err := r.buildStages(logger)
	if err != nil {
		return outcome, err
	}
	sink, err := pipeline.NewSink(pipeline.SinkConfig[txn.Transaction]{
		Name:          "export",
		QueueCapacity: r.cfg.Pipeline.QueueCapacity,
		BufferSize:    r.cfg.Pipeline.BufferSize,
		FlushInterval: r.cfg.FlushInterval(),
		Write: func(ctx context.Context, batch []txn.Transaction) error {
			exported := make([]txn.Transaction, len(batch))
			for i, item := range batch {
				exported[i] = item.MarkExported()
			}
			return writer.Write(ctx, exported)
		},
		Logger: logger,
	})
	if err != nil {
		return outcome, err
	}

	orch, err := pipeline.NewOrchestrator(pipeline.OrchestratorConfig[txn.Transaction]{
		Stages:        stages,
		Sink:          sink,
		ShutdownGrace: r.cfg.ShutdownGrace(),
		OnDiagnostic: func(diagErr error) {
			logger.Warn("source row rejected", logging.Error(diagErr))
			if recErr := r.store.RecordDiagnostic(ctx, runID, "ingest", diagErr.Error()); recErr != nil {
				logger.Warn("record diagnostic", logging.Error(recErr))
			}
		},
		Logger: logger,
	})
	if err != nil {
		return outcome, err
	}

	summary, runErr := orch.Run(ctx, source, r.cfg.Deadline())

	record := runstore.Run{
		ID:            runID,
		StartedAt:     summary.StartedAt,
		FinishedAt:    summary.FinishedAt,
		SourcePath:    sourcePath,
		Artifact:      writer.Path(),
		Status:        runStatus(runErr),
		Submitted:     summary.Submitted,
		Forwarded:     summary.Forwarded(),
		Fallbacks:     summary.Fallbacks(),
		Failed:        summary.Failed(),
		Dropped:       summary.Dropped(),
		Flushed:       summary.Flushed,
		Flushes:       summary.Flushes,
		WriteFailures: summary.WriteFailures,
	}
	if runErr != nil {
		record.ErrorMessage = runErr.Error()
	}
	if recErr := r.store.RecordRun(ctx, record); recErr != nil {
		logger.Warn("record run", logging.Error(recErr))
	}

	logger.Info("run finished",
		logging.String("status", record.Status),
		logging.Int64("submitted", record.Submitted),
		logging.Int64("flushed", record.Flushed),
		logging.Duration("elapsed", summary.Duration()))

	outcome = Outcome{Run: record, Summary: summary}
	return outcome, runErr
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return runstore.RunStatusCompleted
	case services.IsTimeout(err):
		return runstore.RunStatusTimeout
	default:
		return runstore.RunStatusFailed
	}
}

func (r *Runner) buildStages(logger *slog.Logger) ([]*pipeline.Stage[txn.Transaction], error) {
	markFailed := func(item txn.Transaction, cause error) txn.Transaction {
		return item.MarkFailed(cause.Error())
	}

	clean, err := pipeline.NewStage(pipeline.StageConfig[txn.Transaction]{
		Name:          "clean",
		QueueCapacity: r.cfg.Pipeline.QueueCapacity,
		Workers:       r.cfg.Pipeline.Workers,
		Transform: func(_ context.Context, item txn.Transaction) pipeline.Result[txn.Transaction] {
			cleaned, err := cleaner.Clean(item.RawDescription)
			if err != nil {
				if services.IsFatalItem(err) {
					return pipeline.Fatal[txn.Transaction](err)
				}
				return pipeline.Fail[txn.Transaction](err)
			}
			return pipeline.Ok(item.WithDescription(cleaned))
		},
		MarkFailed: markFailed,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	stages := []*pipeline.Stage[txn.Transaction]{clean}

	if r.mailbox != nil {
		enrich, err := pipeline.NewStage(pipeline.StageConfig[txn.Transaction]{
			Name:          "enrich",
			QueueCapacity: r.cfg.Pipeline.QueueCapacity,
			Workers:       r.cfg.Pipeline.Workers,
			Transform:     r.enrichTransform(logger),
			MarkFailed:    markFailed,
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		stages = append(stages, enrich)
	}

	categorize, err := pipeline.NewStage(pipeline.StageConfig[txn.Transaction]{
		Name:          "categorize",
		QueueCapacity: r.cfg.Pipeline.QueueCapacity,
		Workers:       r.cfg.Pipeline.Workers,
		Transform:     r.categorizeTransform(),
		Fallback: func(_ context.Context, item txn.Transaction, cause error) pipeline.Result[txn.Transaction] {
			if !services.IsTransient(cause) {
				return pipeline.Fail[txn.Transaction](cause)
			}
			category, confidence := rules.Categorize(item.DisplayDescription())
			return pipeline.Ok(item.WithCategory(category, confidence, txn.CategorySourceRules))
		},
		MarkFailed: markFailed,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return append(stages, categorize), nil
}

// enrichTransform is best effort: lookup misses and transient service
// failures still move the item forward without context.
func (r *Runner) enrichTransform(logger *slog.Logger) pipeline.Transform[txn.Transaction] {
	return func(ctx context.Context, item txn.Transaction) pipeline.Result[txn.Transaction] {
		if item.Failed() {
			return pipeline.Ok(item)
		}
		found, err := r.mailbox.Lookup(ctx, item)
		if err != nil {
			logger.Warn("email lookup degraded",
				logging.String(logging.FieldItemID, item.ID),
				logging.Error(err))
			return pipeline.Ok(item.WithEmailContext("", ""))
		}
		if found == nil {
			return pipeline.Ok(item.WithEmailContext("", ""))
		}
		return pipeline.Ok(item.WithEmailContext(found.Subject, found.Snippet))
	}
}

func (r *Runner) categorizeTransform() pipeline.Transform[txn.Transaction] {
	return func(ctx context.Context, item txn.Transaction) pipeline.Result[txn.Transaction] {
		if item.Failed() {
			return pipeline.Ok(item)
		}
		if r.categorizer == nil {
			category, confidence := rules.Categorize(item.DisplayDescription())
			return pipeline.Ok(item.WithCategory(category, confidence, txn.CategorySourceRules))
		}
		verdict, err := r.categorizer.Categorize(ctx, item)
		if err != nil {
			return pipeline.Fail[txn.Transaction](err)
		}
		return pipeline.Ok(item.WithCategory(verdict.Category, verdict.Confidence, txn.CategorySourceAI))
	}
}
