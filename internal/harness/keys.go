package harness

import (
	"sync"

	"github.com/roach88/collsync/internal/engine"
)

// scenarioKeys hands out a scenario's listed keys in order. When the list
// runs out it keeps the engine going with counter keys and counts the
// shortfall; the runner turns that into an error for the step.
type scenarioKeys struct {
	mu       sync.Mutex
	keys     []string
	next     int
	overflow *engine.CounterKeys
	short    int
}

func newScenarioKeys(keys []string) *scenarioKeys {
	return &scenarioKeys{keys: keys, overflow: engine.NewCounterKeys()}
}

func (g *scenarioKeys) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next < len(g.keys) {
		k := g.keys[g.next]
		g.next++
		return k
	}
	g.short++
	return "unlisted-" + g.overflow.Generate()
}

// shortfall is the number of keys handed out beyond the listed ones.
func (g *scenarioKeys) shortfall() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.short
}
