package engine

import (
	"maps"
	"slices"
	"sort"

	"github.com/roach88/collsync/internal/ir"
)

// IDField is the child state field used to route a state to its entry.
// It is routing metadata, not payload: reducers and detectors strip it.
const IDField = "id"

// ChildState is the observed state of one live child, routed by its "id" field.
type ChildState = ir.IRObject

// Entry is one record of a collection.
//
// ID is the caller-assigned identity. Key is the engine-assigned sync token
// used for stable tracking downstream; once set it is never reassigned.
type Entry struct {
	ID    string
	Value ir.IRValue
	Key   string
}

// Record renders the entry for journals and digests.
func (e Entry) Record() ir.IRObject {
	return ir.EntryRecord(e.ID, e.Key, e.Value)
}

// Sequence is the ordered collection representation.
type Sequence []Entry

// Keyed is the map collection representation, keyed by entry id.
type Keyed map[string]Entry

// Accessor is the contract the engine uses to read and write a collection
// without knowing its concrete representation.
//
// SetValue and SetKey return the (possibly same) collection. Implementations
// may mutate c in place: the engine only calls them on a store it owns, after
// the clone policy has decided whether to copy.
type Accessor[C any] interface {
	// Clone returns a structurally distinct copy of c.
	Clone(c C) C

	// Entries lists ids, values and keys in collection order.
	Entries(c C) []Entry

	// SetValue writes the value for id, creating the entry if absent.
	SetValue(c C, id string, v ir.IRValue) C

	// SetKey writes the sync key for id, creating the entry if absent.
	SetKey(c C, id string, key string) C
}

// IDs returns the ids of c in collection order.
func IDs[C any](acc Accessor[C], c C) []string {
	entries := acc.Entries(c)
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// SequenceAccessor implements Accessor for Sequence.
type SequenceAccessor struct{}

// Clone copies the slice; entry values are shared.
func (SequenceAccessor) Clone(c Sequence) Sequence {
	if c == nil {
		return Sequence{}
	}
	return slices.Clone(c)
}

func (SequenceAccessor) Entries(c Sequence) []Entry {
	return c
}

func (SequenceAccessor) SetValue(c Sequence, id string, v ir.IRValue) Sequence {
	if i := c.Index(id); i >= 0 {
		c[i].Value = v
		return c
	}
	return append(c, Entry{ID: id, Value: v})
}

func (SequenceAccessor) SetKey(c Sequence, id string, key string) Sequence {
	if i := c.Index(id); i >= 0 {
		c[i].Key = key
		return c
	}
	return append(c, Entry{ID: id, Key: key})
}

// KeyedAccessor implements Accessor for Keyed.
// Entries are listed in id order so that id ordering is deterministic.
type KeyedAccessor struct{}

func (KeyedAccessor) Clone(c Keyed) Keyed {
	out := make(Keyed, len(c))
	maps.Copy(out, c)
	return out
}

func (KeyedAccessor) Entries(c Keyed) []Entry {
	out := make([]Entry, 0, len(c))
	for id, e := range c {
		e.ID = id
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (KeyedAccessor) SetValue(c Keyed, id string, v ir.IRValue) Keyed {
	e := c[id]
	e.ID = id
	e.Value = v
	c[id] = e
	return c
}

func (KeyedAccessor) SetKey(c Keyed, id string, key string) Keyed {
	e := c[id]
	e.ID = id
	e.Key = key
	c[id] = e
	return c
}

// Index returns the position of id, or -1.
func (s Sequence) Index(id string) int {
	for i, e := range s {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Append adds entries at the end.
func (s Sequence) Append(entries ...Entry) Sequence {
	return append(s, entries...)
}

// Remove deletes the entry with id, preserving order. Unknown ids are a no-op.
func (s Sequence) Remove(id string) Sequence {
	i := s.Index(id)
	if i < 0 {
		return s
	}
	return slices.Delete(s, i, i+1)
}

// Move relocates the entry with id to position to, clamped to the bounds.
func (s Sequence) Move(id string, to int) Sequence {
	i := s.Index(id)
	if i < 0 {
		return s
	}
	to = max(0, min(to, len(s)-1))
	e := s[i]
	s = slices.Delete(s, i, i+1)
	return slices.Insert(s, to, e)
}

// Filter keeps the entries for which keep returns true, preserving order.
func (s Sequence) Filter(keep func(Entry) bool) Sequence {
	return slices.DeleteFunc(s, func(e Entry) bool { return !keep(e) })
}

// Delete removes id from the map and returns it.
func (k Keyed) Delete(id string) Keyed {
	delete(k, id)
	return k
}
