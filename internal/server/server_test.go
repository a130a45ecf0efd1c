package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotoplanb/kzrk/internal/catalog"
	"github.com/gotoplanb/kzrk/internal/config"
	"github.com/gotoplanb/kzrk/internal/game"
	"github.com/gotoplanb/kzrk/internal/room"
)

type memStore struct{}

func (memStore) SaveRoom(_ *room.Room) error { return nil }
func (memStore) LoadRoom(id string) (*room.Room, error) {
	return nil, fmt.Errorf("room %q: %w", id, game.ErrNotFound)
}
func (memStore) ListRooms() ([]string, error) { return nil, nil }
func (memStore) DeleteRoom(_ string) error    { return nil }
func (memStore) Close() error                 { return nil }

type flatEcon struct{ cat *catalog.Catalog }

func (f flatEcon) SeedMarkets() map[string]*game.MarketState {
	markets := make(map[string]*game.MarketState)
	for _, a := range f.cat.Airports() {
		m := game.NewMarketState(a.ID)
		m.FuelPrice = a.BaseFuelPrice
		for _, ct := range f.cat.CargoTypes() {
			m.SetPrice(ct.ID, ct.BasePrice)
		}
		markets[a.ID] = m
	}
	return markets
}
func (flatEcon) TradeImpact(_ *game.MarketState, _ string, _ int, _ bool) {}
func (flatEcon) Refresh(_ *game.MarketState, _ int)                      {}

func newTestServer(t *testing.T) (*httptest.Server, *room.Manager) {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)
	mgr, err := room.NewManager(config.Default(), cat, flatEcon{cat: cat}, memStore{})
	require.NoError(t, err)

	r := mux.NewRouter()
	New(mgr).Routes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, mgr
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndJoinRoom(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/rooms", `{"name":"alpha"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var info room.RoomInfo
	decode(t, resp, &info)
	assert.Equal(t, "alpha", info.Name)

	resp = postJSON(t, ts.URL+"/rooms/"+info.ID+"/join", `{"name":"Amy"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var joined room.JoinResult
	decode(t, resp, &joined)
	assert.NotEmpty(t, joined.Token)
	require.NotNil(t, joined.Snapshot)
	assert.Equal(t, 10000, joined.Snapshot.You.Money)

	// Lobby listing reflects the join.
	listResp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	var listing struct {
		Rooms []room.RoomInfo `json:"rooms"`
	}
	decode(t, listResp, &listing)
	require.Len(t, listing.Rooms, 1)
	assert.Equal(t, 1, listing.Rooms[0].CurrentPlayers)
}

func TestJoinFullRoomStatus(t *testing.T) {
	ts, mgr := newTestServer(t)
	info, err := mgr.CreateRoom("packed")
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		_, err := mgr.Join(info.ID, fmt.Sprintf("pilot-%d", i))
		require.NoError(t, err)
	}

	resp := postJSON(t, ts.URL+"/rooms/"+info.ID+"/join", `{"name":"pilot-9"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body struct {
		Kind string `json:"kind"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "room_full", body.Kind)
}

func TestJoinUnknownRoomStatus(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/rooms/nope/join", `{"name":"Amy"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStateRequiresToken(t *testing.T) {
	ts, mgr := newTestServer(t)
	info, err := mgr.CreateRoom("")
	require.NoError(t, err)
	joined, err := mgr.Join(info.ID, "Amy")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/state", nil)
	req.Header.Set("Authorization", "Bearer "+joined.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap room.Snapshot
	decode(t, resp, &snap)
	assert.Equal(t, joined.PlayerID, snap.PlayerID)

	bare, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer bare.Body.Close()
	assert.Equal(t, http.StatusNotFound, bare.StatusCode)
}

func TestResumeEndpoint(t *testing.T) {
	ts, mgr := newTestServer(t)
	info, err := mgr.CreateRoom("")
	require.NoError(t, err)
	joined, err := mgr.Join(info.ID, "Amy")
	require.NoError(t, err)
	require.NoError(t, mgr.Leave(info.ID, joined.PlayerID, false))

	resp := postJSON(t, ts.URL+"/resume?token="+joined.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res room.JoinResult
	decode(t, resp, &res)
	assert.Equal(t, joined.PlayerID, res.PlayerID)
}

func TestStatusForKinds(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor("not_found"))
	assert.Equal(t, http.StatusConflict, statusFor("insufficient_funds"))
	assert.Equal(t, http.StatusConflict, statusFor("room_full"))
	assert.Equal(t, http.StatusBadRequest, statusFor("invalid_quantity"))
	assert.Equal(t, http.StatusTooManyRequests, statusFor("rate_limited"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("persistence_failure"))
}
