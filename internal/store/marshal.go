package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/collsync/internal/ir"
)

// marshalIDs stores an id list as a canonical JSON array of strings.
func marshalIDs(ids []string) (string, error) {
	arr := make(ir.IRArray, len(ids))
	for i, id := range ids {
		arr[i] = ir.IRString(id)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return string(data), nil
}

func unmarshalIDs(data string) ([]string, error) {
	ids := []string{}
	if data == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal ids: %w", err)
	}
	return ids, nil
}

// marshalEntries stores entry records as RFC 8785 canonical JSON so the
// digest can be recomputed from the stored text.
func marshalEntries(entries ir.IRArray) (string, error) {
	if entries == nil {
		entries = ir.IRArray{}
	}
	data, err := ir.MarshalCanonical(entries)
	if err != nil {
		return "", fmt.Errorf("marshal entries: %w", err)
	}
	return string(data), nil
}

// unmarshalEntries keeps integer precision via ir.UnmarshalIRValue.
func unmarshalEntries(data string) (ir.IRArray, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal entries: %w", err)
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("unmarshal entries: expected array, got %T", v)
	}
	return arr, nil
}
