package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario drives one engine through a fixed sequence of events and checks
// the round each event produces.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Collection selects the representation: "sequence" (default) or "keyed".
	Collection string `yaml:"collection,omitempty"`

	// Detector selects the change detector: "shallow" (default),
	// "identity" or "never".
	Detector string `yaml:"detector,omitempty"`

	// CloneOn overrides the clone policy; absent flags default to true.
	CloneOn *CloneOn `yaml:"clone_on,omitempty"`

	// Keys, if set, are handed out in order instead of counter keys.
	Keys []string `yaml:"keys,omitempty"`

	// Steps are applied in order; each produces exactly one round.
	Steps []Step `yaml:"steps"`
}

// CloneOn mirrors engine.ClonePolicy with optional flags.
type CloneOn struct {
	Transform   *bool `yaml:"transform,omitempty"`
	StateChange *bool `yaml:"state_change,omitempty"`
}

// Step is one event. Exactly one of States, Transform or Clone is set.
type Step struct {
	// States is a full batch of live child states, each routed by "id".
	States []map[string]any `yaml:"states,omitempty"`

	Transform *TransformOp `yaml:"transform,omitempty"`

	Clone bool `yaml:"clone,omitempty"`

	// Expect is checked against the round this step produces.
	Expect *Expect `yaml:"expect,omitempty"`
}

// TransformOp is a host rewrite of the collection.
type TransformOp struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// ID is the target entry (append, set, remove, move).
	ID string `yaml:"id,omitempty"`

	// Value is the new entry value (append, set).
	Value any `yaml:"value,omitempty"`

	// To is the destination position (move).
	To int `yaml:"to,omitempty"`

	// Field and Equals select entries to drop (filter): an entry whose
	// object value has Field equal to Equals is removed.
	Field  string `yaml:"field,omitempty"`
	Equals any    `yaml:"equals,omitempty"`

	// Entries is the complete new contents (replace).
	Entries []ReplaceEntry `yaml:"entries,omitempty"`
}

// ReplaceEntry is one entry of a replace transform.
type ReplaceEntry struct {
	ID    string `yaml:"id"`
	Value any    `yaml:"value,omitempty"`
}

// Transform op names.
const (
	OpAppend  = "append"
	OpSet     = "set"
	OpRemove  = "remove"
	OpMove    = "move"
	OpFilter  = "filter"
	OpReplace = "replace"
)

// Expect validates one round. Every field is optional.
type Expect struct {
	// IDs is the exact id order after the round.
	IDs []string `yaml:"ids,omitempty"`

	// Changed is the exact list of reduced ids, in reduction order.
	Changed []string `yaml:"changed,omitempty"`

	// Values maps ids to their exact entry values.
	Values map[string]any `yaml:"values,omitempty"`

	// Keys maps ids to their exact sync keys.
	Keys map[string]string `yaml:"keys,omitempty"`

	// Pure asserts whether the round is state-equal to the previous one.
	Pure *bool `yaml:"pure,omitempty"`

	// KeysStable asserts that every id present before and after the round
	// kept its key.
	KeysStable bool `yaml:"keys_stable,omitempty"`

	// Cloned asserts whether the store was copied.
	Cloned *bool `yaml:"cloned,omitempty"`
}

// Collection and detector names.
const (
	CollectionSequence = "sequence"
	CollectionKeyed    = "keyed"

	DetectorShallow  = "shallow"
	DetectorIdentity = "identity"
	DetectorNever    = "never"
)

// LoadScenario reads, schema-checks and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or breaks a structural rule.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(path, data)
}

// ParseScenario is LoadScenario for in-memory YAML. filename is used only
// in error positions.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	if err := ValidateSchema(filename, data); err != nil {
		return nil, err
	}

	// Strict decoding catches typos the schema might let through.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by path.
func LoadScenarios(dir string) ([]*Scenario, []string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, paths, nil
}

// validateScenario checks the rules the schema does not express.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		kinds := 0
		if step.States != nil {
			kinds++
		}
		if step.Transform != nil {
			kinds++
		}
		if step.Clone {
			kinds++
		}
		if kinds != 1 {
			return fmt.Errorf("steps[%d]: exactly one of states, transform or clone is required", i)
		}

		if step.Transform != nil {
			if err := validateTransform(s.collection(), step.Transform); err != nil {
				return fmt.Errorf("steps[%d].transform: %w", i, err)
			}
		}
	}

	return nil
}

func validateTransform(collection string, op *TransformOp) error {
	switch op.Op {
	case OpAppend, OpSet, OpRemove:
		if op.ID == "" {
			return fmt.Errorf("id is required for %s", op.Op)
		}
	case OpMove:
		if collection == CollectionKeyed {
			return fmt.Errorf("move is not supported on keyed collections")
		}
		if op.ID == "" {
			return fmt.Errorf("id is required for move")
		}
	case OpFilter:
		if op.Field == "" {
			return fmt.Errorf("field is required for filter")
		}
	case OpReplace:
		seen := make(map[string]bool, len(op.Entries))
		for _, e := range op.Entries {
			if seen[e.ID] {
				return fmt.Errorf("duplicate id %q in replace entries", e.ID)
			}
			seen[e.ID] = true
		}
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}

func (s *Scenario) collection() string {
	if s.Collection == "" {
		return CollectionSequence
	}
	return s.Collection
}
