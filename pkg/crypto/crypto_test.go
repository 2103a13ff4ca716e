package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	salt := GenerateSalt()
	hash, err := HashPassword("hunter22", salt)
	require.NoError(t, err)

	require.True(t, VerifyPassword("hunter22", salt, hash))
	require.False(t, VerifyPassword("hunter23", salt, hash))
	require.False(t, VerifyPassword("hunter22", GenerateSalt(), hash))
}

func TestHashPhone(t *testing.T) {
	a := HashPhone("13800138000", "pepper")
	require.Equal(t, a, HashPhone("13800138000", "pepper"))
	require.NotEqual(t, a, HashPhone("13800138001", "pepper"))
	require.NotEqual(t, a, HashPhone("13800138000", "other"))
	require.NotContains(t, a, "13800138000")
}

func TestGenerateRandomDigits(t *testing.T) {
	code := GenerateRandomDigits(6)
	require.Len(t, code, 6)
	for _, c := range code {
		require.True(t, c >= '0' && c <= '9')
	}
}
