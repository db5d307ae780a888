package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collsync/internal/ir"
)

func TestShallowChanged_StripsID(t *testing.T) {
	stored := ir.IRObject{"title": ir.IRString("milk"), "complete": ir.IRBool(false)}
	candidate := ir.IRObject{"id": ir.IRString("a"), "title": ir.IRString("milk"), "complete": ir.IRBool(false)}

	assert.False(t, ShallowChanged(stored, candidate))

	candidate["complete"] = ir.IRBool(true)
	assert.True(t, ShallowChanged(stored, candidate))
}

func TestShallowChanged_NewEntry(t *testing.T) {
	assert.True(t, ShallowChanged(nil, ir.IRObject{"id": ir.IRString("a")}))
	assert.True(t, ShallowChanged(nil, ir.IRInt(0)))
	assert.False(t, ShallowChanged(nil, nil))
}

func TestShallowChanged_ShapeMismatch(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, ShallowChanged(ir.IRArray{ir.IRInt(1)}, ir.IRObject{}))
		assert.True(t, ShallowChanged(ir.IRString("x"), ir.IRArray{}))
	})
}

func TestIdentityChanged(t *testing.T) {
	v := ir.IRObject{"n": ir.IRInt(1)}

	assert.False(t, IdentityChanged(v, v))
	assert.True(t, IdentityChanged(v, ir.IRObject{"n": ir.IRInt(1)}))
	assert.False(t, IdentityChanged(ir.IRInt(1), ir.IRInt(1)))
}

func TestNeverChanged(t *testing.T) {
	assert.False(t, NeverChanged(nil, ir.IRInt(1)))
}

func TestDefaultReducer(t *testing.T) {
	prev := ir.IRObject{"title": ir.IRString("old")}

	got, err := DefaultReducer(prev, Delta{
		Type:    DeltaStateChange,
		Payload: ir.IRObject{"id": ir.IRString("a"), "title": ir.IRString("new")},
	})
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"title": ir.IRString("new")}, got)

	got, err = DefaultReducer(prev, Delta{Type: DeltaStateChange})
	require.NoError(t, err)
	assert.Equal(t, prev, got, "absent state keeps previous")

	withID := ir.IRObject{"id": ir.IRString("a")}
	got, err = DefaultReducer(prev, Delta{Type: DeltaTransform, Payload: withID})
	require.NoError(t, err)
	assert.Equal(t, withID, got, "transform payload is taken verbatim")
}
