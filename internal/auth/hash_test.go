package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := &BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", hash)

	assert.True(t, h.Compare(hash, "Passw0rd!"))
	assert.False(t, h.Compare(hash, "passw0rd!"))
	assert.False(t, h.Compare("", "Passw0rd!"))
}

func TestBcryptHasherSaltsEveryCall(t *testing.T) {
	h := &BcryptHasher{Cost: bcrypt.MinCost}

	h1, err := h.Hash("same-input")
	require.NoError(t, err)
	h2, err := h.Hash("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "two hashes of the same input must differ")
	assert.True(t, h.Compare(h1, "same-input"))
	assert.True(t, h.Compare(h2, "same-input"))
}

func TestHashCodeDeterministic(t *testing.T) {
	d1 := HashCode("123456")
	d2 := HashCode("123456")
	assert.Equal(t, d1, d2)

	decoded, err := hex.DecodeString(d1)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	assert.NotEqual(t, d1, HashCode("654321"))
}

func TestVerifyCode(t *testing.T) {
	digest := HashCode("424242")

	assert.True(t, VerifyCode("424242", digest))
	assert.False(t, VerifyCode("424243", digest))
	assert.False(t, VerifyCode("424242", ""))
}
