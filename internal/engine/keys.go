package engine

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// KeyGenerator produces sync keys for entries that have none.
// Implementations must never return the same key twice.
type KeyGenerator interface {
	Generate() string
}

// CounterKeys renders a monotonic counter in base 36: "1", "2", ... "z", "10".
//
// Each engine gets its own CounterKeys unless one is injected, so independent
// engines never share hidden counter state. Share one instance between
// engines only when keys must be unique across them.
type CounterKeys struct {
	clock *Clock
}

// NewCounterKeys creates a counter starting at 0.
func NewCounterKeys() *CounterKeys {
	return &CounterKeys{clock: NewClock()}
}

// NewCounterKeysAt creates a counter that continues after start.
func NewCounterKeysAt(start int64) *CounterKeys {
	return &CounterKeys{clock: NewClockAt(start)}
}

// Generate returns the next key.
func (g *CounterKeys) Generate() string {
	return strconv.FormatInt(g.clock.Next(), 36)
}

// UUIDv7Keys generates time-sortable UUIDv7 keys.
// Stateless and safe for concurrent use.
type UUIDv7Keys struct{}

// Generate returns a hyphenated UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Keys) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedKeys returns predetermined keys in order, for tests.
//
// Panics when exhausted: a test that assigns more keys than it expected is
// misconfigured.
type FixedKeys struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewFixedKeys creates a generator that returns keys in order.
func NewFixedKeys(keys ...string) *FixedKeys {
	return &FixedKeys{keys: keys}
}

// Generate returns the next predetermined key.
func (g *FixedKeys) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.keys) {
		panic("FixedKeys: all keys exhausted")
	}
	k := g.keys[g.idx]
	g.idx++
	return k
}

// NewID returns a fresh semantic id from gen, for hosts that create entries
// inside a transform (e.g. appending a new todo).
func NewID(gen KeyGenerator) string {
	return gen.Generate()
}
