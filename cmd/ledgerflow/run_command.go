package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"ledgerflow/internal/logging"
	"ledgerflow/internal/runner"
	"ledgerflow/internal/runstore"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		deadlineSeconds int
		workers         int
		queueCapacity   int
		bufferSize      int
	)

	cmd := &cobra.Command{
		Use:   "run <transactions.csv>",
		Short: "Import a transaction CSV through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if deadlineSeconds > 0 {
				cfg.Pipeline.DeadlineSeconds = deadlineSeconds
			}
			if workers > 0 {
				cfg.Pipeline.Workers = workers
			}
			if queueCapacity > 0 {
				cfg.Pipeline.QueueCapacity = queueCapacity
			}
			if bufferSize > 0 {
				cfg.Pipeline.BufferSize = bufferSize
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := runstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			r, err := runner.New(cfg, store, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			outcome, runErr := r.Run(runCtx, args[0])
			if outcome.Run.ID != "" {
				printOutcome(cmd, outcome)
			}
			return runErr
		},
	}

	cmd.Flags().IntVar(&deadlineSeconds, "deadline", 0, "Overall run deadline in seconds")
	cmd.Flags().IntVar(&workers, "workers", 0, "Workers per stage")
	cmd.Flags().IntVar(&queueCapacity, "queue-capacity", 0, "Bounded queue capacity per stage")
	cmd.Flags().IntVar(&bufferSize, "buffer-size", 0, "Sink flush threshold")

	return cmd
}

func printOutcome(cmd *cobra.Command, outcome runner.Outcome) {
	out := cmd.OutOrStdout()
	run := outcome.Run

	fmt.Fprintf(out, "Run %s %s in %s\n", run.ID, run.Status, run.Duration().Round(runDurationUnit))
	rows := [][]string{
		{"Submitted", strconv.FormatInt(run.Submitted, 10)},
		{"Exported", strconv.FormatInt(run.Flushed, 10)},
		{"Fallbacks", strconv.FormatInt(run.Fallbacks, 10)},
		{"Failed", strconv.FormatInt(run.Failed, 10)},
		{"Dropped", strconv.FormatInt(run.Dropped, 10)},
		{"Batches", strconv.FormatInt(run.Flushes, 10)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Count"}, rows, 1))
	if run.Artifact != "" {
		fmt.Fprintf(out, "Artifact: %s\n", run.Artifact)
	}
}
