package store

import (
	"context"
	"fmt"

	"github.com/roach88/collsync/internal/ir"
	"github.com/roach88/collsync/internal/queryir"
	"github.com/roach88/collsync/internal/querysql"
)

// QueryRounds returns the journaled rounds matching q, ordered by run then
// seq. q must select from the rounds table.
func (s *Store) QueryRounds(ctx context.Context, q queryir.Select) ([]ir.RoundRecord, error) {
	if q.From != queryir.TableRounds {
		return nil, fmt.Errorf("query rounds: table %q is not %q", q.From, queryir.TableRounds)
	}

	query, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile rounds query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	records := []ir.RoundRecord{}
	for rows.Next() {
		rec, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return records, nil
}
