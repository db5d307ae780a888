package ir

import (
	"encoding/json"
	"fmt"
)

// Trigger names for the three event kinds that produce a round.
const (
	TriggerStateChange = "state_change"
	TriggerTransform   = "transform"
	TriggerClone       = "clone"
)

// RoundRecord is the serializable form of one emitted round.
// Entries holds EntryRecord objects in collection order.
type RoundRecord struct {
	Seq           int64    `json:"seq"`
	Trigger       string   `json:"trigger"`
	Changed       []string `json:"changed"`
	PreviousIDs   []string `json:"previous_ids"`
	IDs           []string `json:"ids"`
	Entries       IRArray  `json:"entries"`
	Digest        string   `json:"digest"`
	Cloned        bool     `json:"cloned"`
	EngineVersion string   `json:"engine_version"`
}

// UnmarshalJSON decodes entries through UnmarshalIRValue so that entry
// values come back as IR values with integer precision intact.
func (r *RoundRecord) UnmarshalJSON(data []byte) error {
	type plain RoundRecord
	aux := struct {
		*plain
		Entries json.RawMessage `json:"entries"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Entries = nil
	if len(aux.Entries) == 0 || string(aux.Entries) == "null" {
		return nil
	}
	v, err := UnmarshalIRValue(aux.Entries)
	if err != nil {
		return fmt.Errorf("round %d entries: %w", r.Seq, err)
	}
	entries, ok := v.(IRArray)
	if !ok {
		return fmt.Errorf("round %d entries: expected array, got %T", r.Seq, v)
	}
	r.Entries = entries
	return nil
}

// EntryRecord renders one entry as {"id": ..., "key": ..., "value": ...}.
// A missing value is recorded as null.
func EntryRecord(id, key string, value IRValue) IRObject {
	if value == nil {
		value = IRNull{}
	}
	return IRObject{
		"id":    IRString(id),
		"key":   IRString(key),
		"value": value,
	}
}
