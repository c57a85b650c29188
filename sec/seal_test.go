package sec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	plaintext := []byte("SQLite format 3\x00 and then some pages")

	sealed, err := Seal("hunter2", plaintext)
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, string(sealed), "SQLite format 3")

	opened, err := Open("hunter2", sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSealIsRandomized(t *testing.T) {
	a, err := Seal("pw", []byte("same"))
	require.NoError(t, err)
	b, err := Seal("pw", []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Seal("right", []byte("data"))
	require.NoError(t, err)

	_, err = Open("wrong", sealed)
	assert.Error(t, err)
}

func TestOpenTampered(t *testing.T) {
	sealed, err := Seal("pw", []byte("data"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = Open("pw", sealed)
	assert.Error(t, err)
}

func TestOpenRejects(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		payload    []byte
		want       error
	}{
		{"empty passphrase", "", []byte(magic + "whatever"), ErrNoPassphrase},
		{"plain payload", "pw", []byte("SQLite format 3"), ErrNotSealed},
		{"truncated", "pw", []byte(magic + "short"), ErrTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.passphrase, tt.payload)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSealEmptyPassphrase(t *testing.T) {
	_, err := Seal("", []byte("data"))
	assert.ErrorIs(t, err, ErrNoPassphrase)
}
