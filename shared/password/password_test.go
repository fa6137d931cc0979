package password_test

import (
	"roombook/shared/password"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := password.Hash("rahasia123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.NoError(t, password.Verify("rahasia123", hash))
	assert.ErrorIs(t, password.Verify("rahasia124", hash), password.ErrInvalidPassword)
}

func TestHash_Salted(t *testing.T) {
	first, err := password.Hash("rahasia123")
	require.NoError(t, err)

	second, err := password.Hash("rahasia123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHash_Errors(t *testing.T) {
	_, err := password.Hash("")
	assert.ErrorIs(t, err, password.ErrEmptyPassword)

	// bcrypt refuses inputs longer than 72 bytes.
	_, err = password.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, password.ErrHashingPassword)
}

func TestVerify_Errors(t *testing.T) {
	tests := []struct {
		name     string
		password string
		hash     string
		want     error
	}{
		{name: "empty password", password: "", hash: "$2a$10$abc", want: password.ErrInvalidPassword},
		{name: "empty hash", password: "rahasia123", hash: "", want: password.ErrInvalidPassword},
		{name: "malformed hash", password: "rahasia123", hash: "not-a-hash", want: password.ErrVerifyingPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, password.Verify(tt.password, tt.hash), tt.want)
		})
	}
}

func TestNeedsRehash(t *testing.T) {
	current, err := password.Hash("rahasia123")
	require.NoError(t, err)

	cheap, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.False(t, password.NeedsRehash(current))
	assert.True(t, password.NeedsRehash(string(cheap)))
	assert.True(t, password.NeedsRehash("not-a-hash"))
}
