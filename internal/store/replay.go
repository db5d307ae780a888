package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/collsync/internal/ir"
)

// Divergence describes one difference between a journaled run and a
// re-execution of it.
type Divergence struct {
	Seq   int64
	Field string
	Want  string
	Got   string
}

func (d Divergence) String() string {
	return fmt.Sprintf("seq %d: %s: journal %q, replay %q", d.Seq, d.Field, d.Want, d.Got)
}

// CompareRun checks replayed rounds against the journal for runID, seq by
// seq. An empty result means the replay reproduced the run exactly.
func (s *Store) CompareRun(ctx context.Context, runID string, replayed []ir.RoundRecord) ([]Divergence, error) {
	journaled, err := s.ReadRounds(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("compare run: %w", err)
	}
	return CompareRounds(journaled, replayed), nil
}

// CompareRounds compares two round sequences by trigger, id order and digest.
func CompareRounds(want, got []ir.RoundRecord) []Divergence {
	var out []Divergence

	if len(want) != len(got) {
		out = append(out, Divergence{
			Field: "rounds",
			Want:  fmt.Sprint(len(want)),
			Got:   fmt.Sprint(len(got)),
		})
	}

	for i, n := 0, min(len(want), len(got)); i < n; i++ {
		w, g := want[i], got[i]
		if w.Seq != g.Seq {
			out = append(out, Divergence{Seq: w.Seq, Field: "seq", Want: fmt.Sprint(w.Seq), Got: fmt.Sprint(g.Seq)})
			continue
		}
		if w.Trigger != g.Trigger {
			out = append(out, Divergence{Seq: w.Seq, Field: "trigger", Want: w.Trigger, Got: g.Trigger})
		}
		if !slices.Equal(w.IDs, g.IDs) {
			out = append(out, Divergence{Seq: w.Seq, Field: "ids", Want: fmt.Sprint(w.IDs), Got: fmt.Sprint(g.IDs)})
		}
		if w.Digest != g.Digest {
			out = append(out, Divergence{Seq: w.Seq, Field: "digest", Want: w.Digest, Got: g.Digest})
		}
	}

	return out
}
