package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collsync/internal/ir"
	"github.com/roach88/collsync/internal/queryir"
)

func TestCompile_NoFilter(t *testing.T) {
	c := NewSQLCompiler()

	sql, params, err := c.Compile(queryir.Select{From: queryir.TableRuns})
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+RunColumns+" FROM runs ORDER BY id COLLATE BINARY ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_RoundsByRun(t *testing.T) {
	c := NewSQLCompiler()

	sql, params, err := c.Compile(queryir.Select{
		From:   queryir.TableRounds,
		Filter: queryir.Equals{Field: "run_id", Value: ir.IRString("r1")},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT "+RoundColumns+" FROM rounds WHERE run_id = ? ORDER BY run_id COLLATE BINARY ASC, seq ASC",
		sql)
	assert.Equal(t, []any{"r1"}, params)
}

func TestCompile_Predicates(t *testing.T) {
	tests := []struct {
		name   string
		filter queryir.Predicate
		where  string
		params []any
	}{
		{
			name:   "bool binds as integer",
			filter: queryir.Equals{Field: "cloned", Value: ir.IRBool(true)},
			where:  "cloned = ?",
			params: []any{int64(1)},
		},
		{
			name:   "int",
			filter: queryir.Equals{Field: "seq", Value: ir.IRInt(7)},
			where:  "seq = ?",
			params: []any{int64(7)},
		},
		{
			name:   "contains",
			filter: queryir.Contains{Field: "changed", ID: "a"},
			where:  "EXISTS (SELECT 1 FROM json_each(changed) WHERE json_each.value = ?)",
			params: []any{"a"},
		},
		{
			name:   "between",
			filter: queryir.Between{Field: "seq", From: 2, To: 4},
			where:  "seq BETWEEN ? AND ?",
			params: []any{int64(2), int64(4)},
		},
		{
			name:   "empty and",
			filter: queryir.And{},
			where:  "1 = 1",
			params: nil,
		},
		{
			name: "and keeps parameter order",
			filter: queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "run_id", Value: ir.IRString("r1")},
				queryir.Equals{Field: "kind", Value: ir.IRString("transform")},
				queryir.Between{Field: "seq", From: 1, To: 9},
			}},
			where:  "(run_id = ? AND kind = ? AND seq BETWEEN ? AND ?)",
			params: []any{"r1", "transform", int64(1), int64(9)},
		},
	}

	c := NewSQLCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := c.Compile(queryir.Select{From: queryir.TableRounds, Filter: tt.filter})
			require.NoError(t, err)

			assert.Contains(t, sql, " WHERE "+tt.where+" ORDER BY ")
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompile_NoLiteralValues(t *testing.T) {
	c := NewSQLCompiler()

	sql, _, err := c.Compile(queryir.Select{
		From: queryir.TableRounds,
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "kind", Value: ir.IRString("x'; DROP TABLE runs; --")},
			queryir.Contains{Field: "next_ids", ID: "evil'"},
		}},
	})
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP")
	assert.NotContains(t, sql, "evil")
}

func TestCompile_RejectsInvalid(t *testing.T) {
	c := NewSQLCompiler()

	_, _, err := c.Compile(queryir.Select{
		From:   queryir.TableRounds,
		Filter: queryir.Equals{Field: "entries", Value: ir.IRString("x")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
	assert.Contains(t, err.Error(), `unknown field "entries"`)
}

func TestIRValueToParam(t *testing.T) {
	p, err := irValueToParam(ir.IRBool(false))
	require.NoError(t, err)
	assert.Equal(t, int64(0), p)

	_, err = irValueToParam(ir.IRArray{})
	assert.Error(t, err)
}
