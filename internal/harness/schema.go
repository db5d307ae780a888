package harness

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// scenarioSchema is the structural contract for scenario files. Rules that
// span fields (one event kind per step, op-specific fields) live in
// validateScenario.
const scenarioSchema = `
#Scenario: {
	name:        string & !=""
	description: string & !=""
	collection?: "sequence" | "keyed"
	detector?:   "shallow" | "identity" | "never"
	clone_on?: {
		transform?:    bool
		state_change?: bool
	}
	keys?: [...string & !=""]
	steps: [#Step, ...#Step]
}

#Step: {
	states?: [...{...}]
	transform?: #Transform
	clone?:     bool
	expect?:    #Expect
}

#Transform: {
	op:      "append" | "set" | "remove" | "move" | "filter" | "replace"
	id?:     string & !=""
	value?:  _
	to?:     int
	field?:  string
	equals?: _
	entries?: [...{
		id:     string & !=""
		value?: _
	}]
}

#Expect: {
	ids?:     [...string]
	changed?: [...string]
	values?: {[string]: _}
	keys?: {[string]: string}
	pure?:        bool
	keys_stable?: bool
	cloned?:      bool
}
`

var (
	schemaMu   sync.Mutex
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error
)

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(scenarioSchema, cue.Filename("scenario.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile scenario schema: %w", err)
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Scenario"))
	})
	return schemaCtx, schemaDef, schemaErr
}

// SchemaError is a scenario file that does not satisfy the schema.
type SchemaError struct {
	Filename string
	Line     int
	Column   int
	Message  string
}

func (e *SchemaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Filename, e.Message)
}

// ValidateSchema checks scenario YAML against the CUE schema. Unknown
// fields, wrong types and bad enum values are reported with their line.
func ValidateSchema(filename string, data []byte) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	v := ctx.BuildFile(file)
	if err := v.Err(); err != nil {
		return schemaError(filename, err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return schemaError(filename, err)
	}
	return nil
}

// schemaError reduces a CUE error to its first message, positioned in the
// scenario file when CUE knows where.
func schemaError(filename string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Filename: filename, Message: err.Error()}
	}

	first := errs[0]
	se := &SchemaError{Filename: filename, Message: first.Error()}
	for _, pos := range cueerrors.Positions(first) {
		if pos.Filename() == filename {
			se.Line = pos.Line()
			se.Column = pos.Column()
			break
		}
	}
	return se
}
