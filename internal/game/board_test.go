package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardPostAndRead(t *testing.T) {
	b := NewMessageBoard(50)

	msg, err := b.Post("p1", "Amy", "ORD", "selling cheap food at MIA")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Amy", msg.AuthorName)
	assert.False(t, msg.CreatedAt.IsZero())

	_, err = b.Post("p2", "Bo", "ORD", "don't buy luxury at JFK")
	require.NoError(t, err)

	got := b.At("ORD", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "Bo", got[0].AuthorName, "newest first")
	assert.Equal(t, "Amy", got[1].AuthorName)

	assert.Empty(t, b.At("JFK", 0), "boards are per airport")
}

func TestBoardValidation(t *testing.T) {
	b := NewMessageBoard(50)

	_, err := b.Post("p1", "Amy", "ORD", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = b.Post("p1", "Amy", "ORD", strings.Repeat("x", 501))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = b.Post("p1", "Amy", "ORD", strings.Repeat("x", 500))
	assert.NoError(t, err)
}

func TestBoardEvictsOldest(t *testing.T) {
	b := NewMessageBoard(3)
	for _, content := range []string{"one", "two", "three", "four"} {
		_, err := b.Post("p1", "Amy", "ORD", content)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, b.Count("ORD"))
	got := b.At("ORD", 0)
	assert.Equal(t, "four", got[0].Content)
	assert.Equal(t, "two", got[2].Content, "oldest message evicted")
}

func TestBoardReadLimit(t *testing.T) {
	b := NewMessageBoard(50)
	for _, content := range []string{"one", "two", "three"} {
		_, err := b.Post("p1", "Amy", "ORD", content)
		require.NoError(t, err)
	}

	got := b.At("ORD", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Content)
}
