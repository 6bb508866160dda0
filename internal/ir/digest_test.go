package ir

import (
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestStable(t *testing.T) {
	v := NewVec(U32(1), Symbol("a"))

	d1, err := Digest(v)
	require.NoError(t, err)
	d2, err := Digest(NewVec(U32(1), Symbol("a")))
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Equal(t, digest.SHA256, d1.Algorithm())
	assert.NoError(t, d1.Validate())
}

func TestDigestDomainSeparated(t *testing.T) {
	v := U32(1)
	// Digest of the bare canonical bytes must differ from the domain-separated one
	bare := digest.FromBytes(MustMarshalCanonical(v))
	assert.NotEqual(t, bare, MustDigest(v))
}

func TestDigestIgnoresMapEntryOrder(t *testing.T) {
	a := NewMap(E(U32(2), U32(20)), E(U32(1), U32(10)))
	b := NewMap(E(U32(1), U32(10)), E(U32(2), U32(20)))
	assert.Equal(t, MustDigest(a), MustDigest(b))
}

func TestDigestDistinguishesKinds(t *testing.T) {
	assert.NotEqual(t, MustDigest(U32(1)), MustDigest(U64(1)))
	assert.NotEqual(t, MustDigest(String("a")), MustDigest(Symbol("a")))
}

func TestDigestRejectsMalformed(t *testing.T) {
	_, err := Digest(Vec{nil})
	assert.Error(t, err)
	assert.Panics(t, func() { MustDigest(nil) })
}
