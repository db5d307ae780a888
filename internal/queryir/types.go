package queryir

import "github.com/roach88/collsync/internal/ir"

// Query is a journal query.
//
// This is a sealed interface: only types in this package implement it, so
// backends can switch over it exhaustively.
type Query interface {
	queryNode()
}

// Predicate is a filter condition on one table's rows.
// Sealed like Query.
type Predicate interface {
	predicateNode()
}

// Select reads every column of From whose rows satisfy Filter.
//
// Results are always in a deterministic order: rounds by run then seq,
// runs by id.
type Select struct {
	From   string    // Table name, e.g. TableRounds
	Filter Predicate // nil = no filter
}

func (Select) queryNode() {}

// Equals matches rows whose scalar Field equals Value.
//
//	Equals{Field: "kind", Value: ir.IRString("transform")}
//
// compiles to
//
//	kind = ?
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// Contains matches rows whose id-list Field includes ID.
//
//	Contains{Field: "changed", ID: "a"}
//
// matches every round that reduced entry "a".
type Contains struct {
	Field string
	ID    string
}

func (Contains) predicateNode() {}

// Between matches rows whose int Field lies in [From, To].
type Between struct {
	Field string
	From  int64
	To    int64
}

func (Between) predicateNode() {}

// And matches rows satisfying every predicate. An empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Table names.
const (
	TableRuns   = "runs"
	TableRounds = "rounds"
)

// FieldKind is the shape of a journal column as seen by predicates.
type FieldKind int

const (
	KindText FieldKind = iota + 1
	KindInt
	KindBool
	KindIDList
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindIDList:
		return "id list"
	default:
		return "unknown"
	}
}

// Catalog lists the queryable fields of each journal table.
// Entries and digests are payload, not filter targets, except digest
// equality which replay tooling uses.
var Catalog = map[string]map[string]FieldKind{
	TableRuns: {
		"id":             KindText,
		"label":          KindText,
		"collection":     KindText,
		"engine_version": KindText,
	},
	TableRounds: {
		"run_id":         KindText,
		"seq":            KindInt,
		"kind":           KindText,
		"digest":         KindText,
		"cloned":         KindBool,
		"engine_version": KindText,
		"changed":        KindIDList,
		"previous_ids":   KindIDList,
		"next_ids":       KindIDList,
	},
}

// AllOf builds an And from the non-nil predicates. A single predicate is
// returned as is; none returns nil.
func AllOf(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
