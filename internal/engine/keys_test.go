package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterKeys_Base36(t *testing.T) {
	g := NewCounterKeys()

	var got []string
	for i := 0; i < 37; i++ {
		got = append(got, g.Generate())
	}

	assert.Equal(t, "1", got[0])
	assert.Equal(t, "9", got[8])
	assert.Equal(t, "a", got[9])
	assert.Equal(t, "z", got[34])
	assert.Equal(t, "10", got[35])
	assert.Equal(t, "11", got[36])
}

func TestCounterKeys_IndependentInstances(t *testing.T) {
	a := NewCounterKeys()
	b := NewCounterKeys()

	a.Generate()
	a.Generate()

	assert.Equal(t, "1", b.Generate(), "engines must not share counter state")
}

func TestCounterKeys_At(t *testing.T) {
	g := NewCounterKeysAt(35)
	assert.Equal(t, "10", g.Generate())
}

func TestUUIDv7Keys(t *testing.T) {
	var g UUIDv7Keys

	k1 := g.Generate()
	k2 := g.Generate()
	assert.NotEqual(t, k1, k2)

	parsed, err := uuid.Parse(k1)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestFixedKeys(t *testing.T) {
	g := NewFixedKeys("k1", "k2")

	assert.Equal(t, "k1", g.Generate())
	assert.Equal(t, "k2", NewID(g))
	assert.Panics(t, func() { g.Generate() })
}
