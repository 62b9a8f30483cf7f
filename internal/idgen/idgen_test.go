package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomCode_RetriesOnCollision(t *testing.T) {
	g := New([]byte("signing-key"))
	seen := map[string]bool{"TAKEN1": true, "TAKEN2": true}
	calls := 0
	g.rnd = func(n int) (string, error) {
		calls++
		if calls <= 2 {
			return "TAKEN1", nil
		}
		return "FRESH1", nil
	}

	code, err := g.NewRoomCode(func(c string) bool { return seen[c] })
	require.NoError(t, err)
	assert.Equal(t, "FRESH1", code)
	assert.Equal(t, 3, calls, "must retry past every collision before returning")
}

func TestNewRoomCode_GivesUpAfter64Attempts(t *testing.T) {
	g := New([]byte("signing-key"))
	g.rnd = func(n int) (string, error) { return "DUPE12", nil }

	_, err := g.NewRoomCode(func(c string) bool { return true })
	assert.Error(t, err)
}

func TestNewParticipantID_ReturnsDistinctValues(t *testing.T) {
	g := New([]byte("signing-key"))
	a := g.NewParticipantID()
	b := g.NewParticipantID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}

func TestNewHostToken_ProducesDistinctNonEmptyTokensPerRoom(t *testing.T) {
	g := New([]byte("signing-key"))
	tok, err := g.NewHostToken("ABCD12")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	other, err := g.NewHostToken("WXYZ99")
	require.NoError(t, err)
	assert.NotEqual(t, tok, other, "tokens minted for different rooms must differ")
}
