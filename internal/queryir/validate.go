package queryir

import (
	"fmt"

	"github.com/roach88/collsync/internal/ir"
)

// ValidationResult reports whether a query can be compiled.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks q against the Catalog.
//
// Rules:
//   - From must name a known table
//   - every predicate field must exist in that table
//   - Equals needs a scalar field and a value of the matching type
//   - Contains needs an id-list field and a non-empty id
//   - Between needs an int field and From <= To
func Validate(q Query) *ValidationResult {
	result := &ValidationResult{Valid: true}
	v := &validator{result: result}
	v.validateQuery(q)
	return result
}

type validator struct {
	result *ValidationResult
	fields map[string]FieldKind
}

func (v *validator) fail(format string, args ...any) {
	v.result.Valid = false
	v.result.Errors = append(v.result.Errors, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		fields, ok := Catalog[query.From]
		if !ok {
			v.fail("unknown table %q", query.From)
			return
		}
		v.fields = fields
		if query.Filter != nil {
			v.validatePredicate(query.Filter)
		}
	case nil:
		v.fail("query is nil")
	default:
		v.fail("unsupported query type %T", q)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		kind, ok := v.field(pred.Field)
		if !ok {
			return
		}
		if kind == KindIDList {
			v.fail("field %q is an id list: use Contains", pred.Field)
			return
		}
		if !valueFits(kind, pred.Value) {
			v.fail("field %q is %s, got %s", pred.Field, kind, valueKind(pred.Value))
		}

	case Contains:
		kind, ok := v.field(pred.Field)
		if !ok {
			return
		}
		if kind != KindIDList {
			v.fail("field %q is %s: Contains needs an id list", pred.Field, kind)
		}
		if pred.ID == "" {
			v.fail("Contains on %q has an empty id", pred.Field)
		}

	case Between:
		kind, ok := v.field(pred.Field)
		if !ok {
			return
		}
		if kind != KindInt {
			v.fail("field %q is %s: Between needs int", pred.Field, kind)
		}
		if pred.From > pred.To {
			v.fail("Between on %q has from %d > to %d", pred.Field, pred.From, pred.To)
		}

	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}

	case nil:
		v.fail("predicate is nil")

	default:
		v.fail("unsupported predicate type %T", p)
	}
}

func (v *validator) field(name string) (FieldKind, bool) {
	kind, ok := v.fields[name]
	if !ok {
		v.fail("unknown field %q", name)
	}
	return kind, ok
}

func valueFits(kind FieldKind, value ir.IRValue) bool {
	switch value.(type) {
	case ir.IRString:
		return kind == KindText
	case ir.IRInt:
		return kind == KindInt
	case ir.IRBool:
		return kind == KindBool
	default:
		return false
	}
}

func valueKind(value ir.IRValue) string {
	switch value.(type) {
	case ir.IRString:
		return "string"
	case ir.IRInt:
		return "int"
	case ir.IRBool:
		return "bool"
	case ir.IRNull:
		return "null"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", value)
	}
}
