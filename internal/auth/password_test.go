package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	hash, err := HashPassword("p1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash)
	assert.NoError(t, ComparePassword(hash, "p1"))
}

func TestHashPasswordSaltsPerCall(t *testing.T) {
	first, err := HashPassword("p1", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("p1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestComparePasswordMismatch(t *testing.T) {
	hash, err := HashPassword("p1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Error(t, ComparePassword(hash, "p2"))
}
