package cli

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/collsync/internal/ir"
	"github.com/roach88/collsync/internal/queryir"
	"github.com/roach88/collsync/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - list runs when empty

	// Round filters, only meaningful with RunID.
	Trigger  string
	Changed  string
	Contains string
	FromSeq  int64
	ToSeq    int64 // 0 = unbounded
}

// TraceResult holds the rounds of one journaled run.
type TraceResult struct {
	Run    store.Run        `json:"run"`
	Rounds []ir.RoundRecord `json:"rounds"`
	Stats  TraceStats       `json:"stats"`
}

// TraceStats holds summary statistics for a run.
type TraceStats struct {
	Rounds       int `json:"rounds"`
	StateChanges int `json:"state_changes"`
	Transforms   int `json:"transforms"`
	Clones       int `json:"clones"`
	Reductions   int `json:"reductions"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect journaled runs",
		Long: `Inspect the round journal.

Without --run, lists every journaled run. With --run, prints the run's
rounds in seq order with per-trigger statistics. Filters narrow the
rounds printed; statistics cover the filtered rounds only.

Examples:
  collsync trace --db ./rounds.db
  collsync trace --db ./rounds.db --run 0190c6a2-...
  collsync trace --db ./rounds.db --run 0190c6a2-... --format json
  collsync trace --db ./rounds.db --run 0190c6a2-... --trigger transform
  collsync trace --db ./rounds.db --run 0190c6a2-... --changed item-3 --from-seq 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to print")
	cmd.Flags().StringVar(&opts.Trigger, "trigger", "", "only rounds with this trigger (state_change, transform, clone)")
	cmd.Flags().StringVar(&opts.Changed, "changed", "", "only rounds that reduced this entry id")
	cmd.Flags().StringVar(&opts.Contains, "contains", "", "only rounds whose resulting ids include this id")
	cmd.Flags().Int64Var(&opts.FromSeq, "from-seq", 0, "first seq to print")
	cmd.Flags().Int64Var(&opts.ToSeq, "to-seq", 0, "last seq to print (0 = no limit)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx, cancel := signalContext(cmd)
	defer cancel()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if opts.Format == "json" {
			return formatter.JSON(CLIResponse{Status: "ok", Data: runs})
		}
		w := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs found.")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(w, "%s  %-10s %s\n", run.ID, run.Collection, run.Label)
		}
		return nil
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	filter, err := roundFilter(opts)
	if err != nil {
		return err
	}
	rounds, err := st.QueryRounds(ctx, queryir.Select{From: queryir.TableRounds, Filter: filter})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read rounds", err)
	}

	result := TraceResult{Run: run, Rounds: rounds, Stats: computeStats(rounds)}

	if opts.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run: %s (%s)\n", run.ID, run.Label)
	fmt.Fprintf(w, "Collection: %s  Engine: %s\n\n", run.Collection, run.EngineVersion)
	for _, rec := range rounds {
		formatter.writeRound(rec)
	}
	fmt.Fprintf(w, "\n%d rounds: %d state changes, %d transforms, %d clones, %d reductions\n",
		result.Stats.Rounds,
		result.Stats.StateChanges,
		result.Stats.Transforms,
		result.Stats.Clones,
		result.Stats.Reductions,
	)
	return nil
}

// roundFilter builds the journal query predicate for opts.
func roundFilter(opts *TraceOptions) (queryir.Predicate, error) {
	preds := []queryir.Predicate{
		queryir.Equals{Field: "run_id", Value: ir.IRString(opts.RunID)},
	}

	if opts.Trigger != "" {
		triggers := []string{ir.TriggerStateChange, ir.TriggerTransform, ir.TriggerClone}
		if !slices.Contains(triggers, opts.Trigger) {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("invalid --trigger %q: must be one of %v", opts.Trigger, triggers))
		}
		preds = append(preds, queryir.Equals{Field: "kind", Value: ir.IRString(opts.Trigger)})
	}
	if opts.Changed != "" {
		preds = append(preds, queryir.Contains{Field: "changed", ID: opts.Changed})
	}
	if opts.Contains != "" {
		preds = append(preds, queryir.Contains{Field: "next_ids", ID: opts.Contains})
	}

	if opts.FromSeq != 0 || opts.ToSeq != 0 {
		to := opts.ToSeq
		if to == 0 {
			to = math.MaxInt64
		}
		if opts.FromSeq < 0 || opts.FromSeq > to {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("invalid seq range: from %d, to %d", opts.FromSeq, opts.ToSeq))
		}
		preds = append(preds, queryir.Between{Field: "seq", From: opts.FromSeq, To: to})
	}

	return queryir.AllOf(preds...), nil
}

func computeStats(rounds []ir.RoundRecord) TraceStats {
	stats := TraceStats{Rounds: len(rounds)}
	for _, rec := range rounds {
		switch rec.Trigger {
		case ir.TriggerStateChange:
			stats.StateChanges++
		case ir.TriggerTransform:
			stats.Transforms++
		case ir.TriggerClone:
			stats.Clones++
		}
		stats.Reductions += len(rec.Changed)
	}
	return stats
}
