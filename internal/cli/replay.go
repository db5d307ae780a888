package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/collsync/internal/harness"
	"github.com/roach88/collsync/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// ReplayResult holds the outcome of a replay.
type ReplayResult struct {
	RunID         string   `json:"run_id"`
	Scenario      string   `json:"scenario"`
	Rounds        int      `json:"rounds"`
	Deterministic bool     `json:"deterministic"`
	Divergences   []string `json:"divergences,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Re-execute a scenario and compare with its journal",
		Long: `Re-execute a scenario against a fresh engine and compare every round
with a journaled run: trigger, id order and snapshot digest must match.

Exit codes:
  0 - Replay reproduced the run
  1 - Replay diverged
  2 - Command error (database or run not found, etc.)

Examples:
  collsync replay --db ./rounds.db --run 0190c6a2-... ./scenarios/lifecycle.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to compare against (required)")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	cfg, logger, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if _, err := st.ReadRun(ctx, opts.RunID); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	s, err := loadScenario(path, cfg)
	if err != nil {
		return err
	}

	runOpts := harnessOptions(cfg)
	runOpts.Logger = logger
	res, err := harness.RunWithOptions(ctx, s, runOpts)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}

	divergences, err := st.CompareRun(ctx, opts.RunID, res.Trace)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compare run", err)
	}

	result := ReplayResult{
		RunID:         opts.RunID,
		Scenario:      s.Name,
		Rounds:        len(res.Trace),
		Deterministic: len(divergences) == 0,
	}
	for _, d := range divergences {
		result.Divergences = append(result.Divergences, d.String())
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Deterministic {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeDiverged, Message: fmt.Sprintf("%d divergence(s)", len(divergences))}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Replay of %s against run %s: %d rounds\n", s.Name, opts.RunID, result.Rounds)
		for _, d := range result.Divergences {
			fmt.Fprintf(w, "✗ %s\n", d)
		}
		if result.Deterministic {
			fmt.Fprintln(w, "✓ deterministic")
		}
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, fmt.Sprintf("replay diverged in %d place(s)", len(divergences)))
	}
	return nil
}
