package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotoplanb/kzrk/internal/game"
)

func TestSessionRoundTrip(t *testing.T) {
	s := NewSessions("secret", time.Hour)

	token, err := s.Issue("room-1", "player-1", "Amy")
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "room-1", claims.RoomID)
	assert.Equal(t, "player-1", claims.PlayerID)
	assert.Equal(t, "Amy", claims.PlayerName)
}

func TestSessionWrongSecret(t *testing.T) {
	token, err := NewSessions("secret", time.Hour).Issue("room-1", "player-1", "Amy")
	require.NoError(t, err)

	_, err = NewSessions("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestSessionExpired(t *testing.T) {
	s := NewSessions("secret", time.Millisecond)
	token, err := s.Issue("room-1", "player-1", "Amy")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestSessionGarbage(t *testing.T) {
	_, err := NewSessions("secret", time.Hour).Verify("garbage.token.here")
	assert.ErrorIs(t, err, game.ErrNotFound)
}
