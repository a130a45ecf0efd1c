package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotoplanb/kzrk/internal/game"
	"github.com/gotoplanb/kzrk/internal/room"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRoom() *room.Room {
	now := time.Now().UTC().Truncate(time.Second)
	player := game.NewPlayer(10000, "ORD", 66, 100, 500, 10.0)
	player.Inventory["electronics"] = 3

	market := game.NewMarketState("ORD")
	market.FuelPrice = 65
	market.SetPrice("electronics", 370)
	market.Event = &game.Shock{CargoID: "electronics", Multiplier: 1.8, TurnsLeft: 3, Description: "shortage"}

	board := game.NewMessageBoard(50)
	board.Post("p1", "Amy", "ORD", "selling cheap")

	return &room.Room{
		ID:           "room-1",
		Name:         "Test Room",
		HostID:       "p1",
		MaxPlayers:   8,
		CreatedAt:    now,
		LastActivity: now,
		World: game.World{
			Turn:    4,
			Markets: map[string]*game.MarketState{"ORD": market},
		},
		Members: map[string]*room.Member{
			"p1": {ID: "p1", Name: "Amy", Player: player, Online: true, LastSeen: now, JoinedAt: now},
		},
		Board: board,
	}
}

func TestSaveAndLoadRoom(t *testing.T) {
	s := openTestStore(t)
	r := sampleRoom()
	require.NoError(t, s.SaveRoom(r))

	got, err := s.LoadRoom("room-1")
	require.NoError(t, err)

	assert.Equal(t, r.Name, got.Name)
	assert.Equal(t, r.HostID, got.HostID)
	assert.Equal(t, 4, got.World.Turn)

	member := got.Members["p1"]
	require.NotNil(t, member)
	assert.Equal(t, 10000, member.Player.Money)
	assert.Equal(t, 3, member.Player.Quantity("electronics"))

	market := got.World.Markets["ORD"]
	require.NotNil(t, market)
	assert.Equal(t, 65, market.FuelPrice)
	require.NotNil(t, market.Event)
	assert.Equal(t, 1.8, market.Event.Multiplier)
	price, ok := market.Price("electronics")
	require.True(t, ok)
	assert.Equal(t, 666, price, "shock overlay survives the round trip")

	require.NotNil(t, got.Board)
	assert.Equal(t, 1, got.Board.Count("ORD"))
}

func TestRoundTripExactDocument(t *testing.T) {
	s := openTestStore(t)
	r := sampleRoom()
	want, err := json.Marshal(r)
	require.NoError(t, err)

	require.NoError(t, s.SaveRoom(r))
	got, err := s.LoadRoom("room-1")
	require.NoError(t, err)

	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(gotJSON),
		"loaded room must reproduce the saved document field for field")
}

func TestSaveReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	r := sampleRoom()
	require.NoError(t, s.SaveRoom(r))

	r.World.Turn = 9
	require.NoError(t, s.SaveRoom(r))

	got, err := s.LoadRoom("room-1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.World.Turn)

	ids, err := s.ListRooms()
	require.NoError(t, err)
	assert.Equal(t, []string{"room-1"}, ids)
}

func TestLoadMissingRoom(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadRoom("nope")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestDeleteRoom(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveRoom(sampleRoom()))
	require.NoError(t, s.DeleteRoom("room-1"))

	_, err := s.LoadRoom("room-1")
	assert.ErrorIs(t, err, game.ErrNotFound)

	// Deleting twice is harmless.
	assert.NoError(t, s.DeleteRoom("room-1"))
}

func TestLoadNormalizesEmptyCollections(t *testing.T) {
	s := openTestStore(t)
	r := &room.Room{ID: "bare", Name: "Bare", MaxPlayers: 8}
	require.NoError(t, s.SaveRoom(r))

	got, err := s.LoadRoom("bare")
	require.NoError(t, err)
	assert.NotNil(t, got.Members)
	assert.NotNil(t, got.World.Markets)
	require.NotNil(t, got.Board)
	assert.NotNil(t, got.Board.Messages)
}
