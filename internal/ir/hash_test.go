package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotDigestDeterminism(t *testing.T) {
	entries := IRArray{
		EntryRecord("a", "1", IRObject{"title": IRString("milk")}),
		EntryRecord("b", "2", IRInt(10)),
	}

	d1, err := SnapshotDigest(entries)
	require.NoError(t, err)
	d2, err := SnapshotDigest(entries)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64, "hex-encoded sha256")
	assert.Regexp(t, `^[0-9a-f]{64}$`, d1)
}

func TestSnapshotDigestChangesWithOrder(t *testing.T) {
	a := EntryRecord("a", "1", IRInt(1))
	b := EntryRecord("b", "2", IRInt(2))

	assert.NotEqual(t, MustSnapshotDigest(IRArray{a, b}), MustSnapshotDigest(IRArray{b, a}))
}

func TestSnapshotDigestChangesWithKey(t *testing.T) {
	assert.NotEqual(t,
		MustSnapshotDigest(IRArray{EntryRecord("a", "1", IRInt(1))}),
		MustSnapshotDigest(IRArray{EntryRecord("a", "2", IRInt(1))}),
	)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("[]")
	assert.NotEqual(t, hashWithDomain(DomainSnapshot, data), hashWithDomain("other/v1", data))
}

func TestEntryRecord_NilValueIsNull(t *testing.T) {
	rec := EntryRecord("a", "k", nil)
	assert.Equal(t, IRNull{}, rec["value"])

	_, err := SnapshotDigest(IRArray{rec})
	require.NoError(t, err)
}

func TestMustSnapshotDigestPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustSnapshotDigest(IRArray{IRObject{"v": nil}})
	})
}
