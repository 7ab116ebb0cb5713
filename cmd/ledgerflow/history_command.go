package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ledgerflow/internal/runstore"
)

const runDurationUnit = 100 * time.Millisecond

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.Status,
					strconv.FormatInt(run.Submitted, 10),
					strconv.FormatInt(run.Flushed, 10),
					strconv.FormatInt(run.Failed, 10),
					run.Duration().Round(runDurationUnit).String(),
				})
			}
			headers := []string{"Run", "Started", "Status", "Submitted", "Exported", "Failed", "Duration"}
			if isTerminal() {
				fmt.Fprintln(out, renderTable(headers, rows, 3, 4, 5))
			} else {
				fmt.Fprintln(out, strings.Join(headers, "\t"))
				for _, row := range rows {
					fmt.Fprintln(out, strings.Join(row, "\t"))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	cmd.AddCommand(newHistoryShowCommand(ctx))

	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			run, err := resolveRun(cmd, store, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:       %s\n", run.ID)
			fmt.Fprintf(out, "Started:   %s\n", run.StartedAt.Local().Format(time.RFC1123))
			fmt.Fprintf(out, "Status:    %s\n", run.Status)
			fmt.Fprintf(out, "Source:    %s\n", run.SourcePath)
			fmt.Fprintf(out, "Artifact:  %s\n", run.Artifact)
			fmt.Fprintf(out, "Submitted: %d  Exported: %d  Fallbacks: %d  Failed: %d  Dropped: %d\n",
				run.Submitted, run.Flushed, run.Fallbacks, run.Failed, run.Dropped)
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", run.ErrorMessage)
			}

			diagnostics, err := store.Diagnostics(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if len(diagnostics) == 0 {
				return nil
			}
			fmt.Fprintf(out, "\nDiagnostics (%d):\n", len(diagnostics))
			for _, diag := range diagnostics {
				fmt.Fprintf(out, "  [%s] %s\n", diag.Stage, diag.Message)
			}
			return nil
		},
	}
}

// resolveRun accepts either a full run id or an unambiguous prefix.
func resolveRun(cmd *cobra.Command, store *runstore.Store, arg string) (runstore.Run, error) {
	arg = strings.TrimSpace(arg)
	run, err := store.GetRun(cmd.Context(), arg)
	if err == nil {
		return run, nil
	}

	runs, listErr := store.ListRuns(cmd.Context(), 0)
	if listErr != nil {
		return runstore.Run{}, listErr
	}
	var matches []runstore.Run
	for _, candidate := range runs {
		if strings.HasPrefix(candidate.ID, arg) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return runstore.Run{}, fmt.Errorf("no run matches %q", arg)
	default:
		return runstore.Run{}, fmt.Errorf("run prefix %q is ambiguous (%d matches)", arg, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
