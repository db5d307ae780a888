package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/collsync/internal/config"
	"github.com/roach88/collsync/internal/harness"
	"github.com/roach88/collsync/internal/ir"
	"github.com/roach88/collsync/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunResult is the outcome of one scenario run.
type RunResult struct {
	Scenario string           `json:"scenario"`
	RunID    string           `json:"run_id,omitempty"`
	Pass     bool             `json:"pass"`
	Rounds   []ir.RoundRecord `json:"rounds"`
	Errors   []string         `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its rounds",
		Long: `Run a scenario against a fresh engine and print every round.

With --db (or journal.path in the config), rounds are journaled to SQLite
under a new run id that trace and replay can use later.

Examples:
  collsync run ./scenarios/lifecycle.yaml
  collsync run --db ./rounds.db ./scenarios/lifecycle.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (optional)")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	cfg, logger, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := loadScenario(path, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	runOpts := harnessOptions(cfg)
	runOpts.Logger = logger

	result := RunResult{Scenario: s.Name}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Journal.Path
	}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		run, err := st.CreateRun(ctx, s.Name, s.Collection)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create run", err)
		}
		result.RunID = run.ID
		runOpts.Journal = st.Journal(run.ID)
		logger.Info("journaling rounds", "db", dbPath, "run", run.ID)
	}

	res, err := harness.RunWithOptions(ctx, s, runOpts)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}
	result.Pass = res.Pass
	result.Rounds = res.Trace
	result.Errors = res.Errors

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeScenarioFailed, Message: fmt.Sprintf("%d expectation(s) failed", len(result.Errors))}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Scenario: %s\n", result.Scenario)
		if result.RunID != "" {
			fmt.Fprintf(w, "Run: %s\n", result.RunID)
		}
		for _, rec := range result.Rounds {
			formatter.writeRound(rec)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(w, "✗ %s\n", e)
		}
		if result.Pass {
			fmt.Fprintln(w, "✓ all expectations met")
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", len(result.Errors)))
	}
	return nil
}

// loadScenario loads path and fills unset scenario settings from cfg.
func loadScenario(path string, cfg *config.Config) (*harness.Scenario, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "scenario file not found", err)
	}
	s, err := harness.LoadScenario(path)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "invalid scenario", err)
	}
	applyDefaults(s, cfg)
	return s, nil
}

func applyDefaults(s *harness.Scenario, cfg *config.Config) {
	if s.Collection == "" {
		s.Collection = cfg.Collection
	}
	if s.CloneOn == nil {
		policy := cfg.ClonePolicy()
		s.CloneOn = &harness.CloneOn{
			Transform:   &policy.Transform,
			StateChange: &policy.StateChange,
		}
	}
}

func harnessOptions(cfg *config.Config) harness.Options {
	return harness.Options{
		Keys:   cfg.KeyGenerator(),
		Buffer: cfg.Buffer,
	}
}

// signalContext cancels on SIGINT/SIGTERM or when the command's context ends.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
