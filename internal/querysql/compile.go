package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/collsync/internal/ir"
	"github.com/roach88/collsync/internal/queryir"
)

// Column lists in scan order. store scans rows in exactly this order.
const (
	RunColumns   = "id, label, collection, engine_version, journal_version"
	RoundColumns = "seq, kind, changed, previous_ids, next_ids, entries, digest, cloned, engine_version"
)

var (
	columns = map[string]string{
		queryir.TableRuns:   RunColumns,
		queryir.TableRounds: RoundColumns,
	}
	orderBy = map[string]string{
		queryir.TableRuns:   "id COLLATE BINARY ASC",
		queryir.TableRounds: "run_id COLLATE BINARY ASC, seq ASC",
	}
)

// SQLCompiler compiles queryir queries to SQLite.
type SQLCompiler struct{}

// NewSQLCompiler creates a compiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile validates q and returns its SQL and bound parameters.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if result := queryir.Validate(q); !result.Valid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(result.Errors, "; "))
	}

	sel, ok := q.(queryir.Select)
	if !ok {
		return "", nil, fmt.Errorf("unsupported query type %T", q)
	}

	var (
		sb     strings.Builder
		params []any
	)
	fmt.Fprintf(&sb, "SELECT %s FROM %s", columns[sel.From], sel.From)

	if sel.Filter != nil {
		where, err := c.compilePredicate(sel.Filter, &params)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy[sel.From])

	return sb.String(), params, nil
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate, params *[]any) (string, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		param, err := irValueToParam(pred.Value)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", pred.Field, err)
		}
		*params = append(*params, param)
		return pred.Field + " = ?", nil

	case queryir.Contains:
		// Id-list columns hold JSON arrays of strings.
		*params = append(*params, pred.ID)
		return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)", pred.Field), nil

	case queryir.Between:
		*params = append(*params, pred.From, pred.To)
		return pred.Field + " BETWEEN ? AND ?", nil

	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil
		}
		parts := make([]string, len(pred.Predicates))
		for i, sub := range pred.Predicates {
			sql, err := c.compilePredicate(sub, params)
			if err != nil {
				return "", err
			}
			parts[i] = sql
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil

	default:
		return "", fmt.Errorf("unsupported predicate type %T", p)
	}
}

// irValueToParam converts a scalar IR value to a database/sql parameter.
// Booleans bind as 0/1 to match INTEGER columns.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %T", v)
	}
}
