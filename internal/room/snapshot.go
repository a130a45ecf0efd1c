package room

import (
	"sort"
	"time"

	"github.com/gotoplanb/kzrk/internal/game"
)

// RoomInfo is the lobby-level view of a room. Joinable tracks total
// membership, the same count Join enforces: offline members keep their seat
// through the grace period.
type RoomInfo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	HostName       string    `json:"hostName"`
	CurrentPlayers int       `json:"currentPlayers"`
	OnlinePlayers  int       `json:"onlinePlayers"`
	MaxPlayers     int       `json:"maxPlayers"`
	CreatedAt      time.Time `json:"createdAt"`
	Joinable       bool      `json:"joinable"`
}

// PlayerSummary is what other players see about a member.
type PlayerSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Money          int    `json:"money"`
	CurrentAirport string `json:"currentAirport"`
	Fuel           int    `json:"fuel"`
	MaxFuel        int    `json:"maxFuel"`
	Online         bool   `json:"online"`
	IsHost         bool   `json:"isHost"`
}

// DestinationInfo describes one reachable airport from the viewer's
// position.
type DestinationInfo struct {
	AirportID    string  `json:"airportId"`
	AirportName  string  `json:"airportName"`
	DistanceKm   float64 `json:"distanceKm"`
	FuelRequired int     `json:"fuelRequired"`
	CanTravel    bool    `json:"canTravel"`
	FuelPrice    int     `json:"fuelPrice"`
}

// MarketView is the viewer's current airport market with shock overlays
// applied.
type MarketView struct {
	AirportID   string         `json:"airportId"`
	AirportName string         `json:"airportName"`
	FuelPrice   int            `json:"fuelPrice"`
	CargoPrices map[string]int `json:"cargoPrices"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Event       *game.Shock    `json:"event,omitempty"`
}

// Snapshot is the full post-commit view handed to one player. It is built
// under the room lock from committed state only, then served without
// blocking later dispatches.
type Snapshot struct {
	Room         RoomInfo          `json:"room"`
	Turn         int               `json:"turn"`
	PlayerID     string            `json:"playerId"`
	You          *game.Player      `json:"you"`
	CargoWeight  int               `json:"cargoWeight"`
	Players      []PlayerSummary   `json:"players"`
	Market       *MarketView       `json:"market,omitempty"`
	Destinations []DestinationInfo `json:"destinations"`
	Board        []game.Message    `json:"board"`
	Won          bool              `json:"won"`
}

// roomInfo builds the lobby view. Caller holds the room lock.
func (m *Manager) roomInfo(r *Room) RoomInfo {
	hostName := ""
	if host, ok := r.member(r.HostID); ok {
		hostName = host.Name
	}
	return RoomInfo{
		ID:             r.ID,
		Name:           r.Name,
		HostName:       hostName,
		CurrentPlayers: len(r.Members),
		OnlinePlayers:  r.onlineCount(),
		MaxPlayers:     r.MaxPlayers,
		CreatedAt:      r.CreatedAt,
		Joinable:       len(r.Members) < r.MaxPlayers,
	}
}

// snapshot builds the per-player view. Caller holds the room lock.
func (m *Manager) snapshot(r *Room, playerID string) (*Snapshot, error) {
	member, ok := r.member(playerID)
	if !ok {
		return nil, game.ErrNotFound
	}
	player := member.Player

	snap := &Snapshot{
		Room:        m.roomInfo(r),
		Turn:        r.World.Turn,
		PlayerID:    member.ID,
		You:         player.Clone(),
		CargoWeight: player.CargoWeight(m.cat),
		Board:       r.Board.At(player.CurrentAirport, 0),
		Won:         player.Money >= m.cfg.WinMoney,
	}

	for _, mem := range r.orderedMembers() {
		snap.Players = append(snap.Players, PlayerSummary{
			ID:             mem.ID,
			Name:           mem.Name,
			Money:          mem.Player.Money,
			CurrentAirport: mem.Player.CurrentAirport,
			Fuel:           mem.Player.Fuel,
			MaxFuel:        mem.Player.MaxFuel,
			Online:         mem.Online,
			IsHost:         mem.ID == r.HostID,
		})
	}

	if market, ok := r.World.Market(player.CurrentAirport); ok {
		name := market.AirportID
		if a, err := m.cat.Airport(market.AirportID); err == nil {
			name = a.Name
		}
		view := &MarketView{
			AirportID:   market.AirportID,
			AirportName: name,
			FuelPrice:   market.FuelPrice,
			CargoPrices: market.EffectivePrices(),
			LastUpdated: market.LastUpdated,
		}
		if market.Event != nil {
			ev := *market.Event
			view.Event = &ev
		}
		snap.Market = view
	}

	for _, airport := range m.cat.Airports() {
		if airport.ID == player.CurrentAirport {
			continue
		}
		dist, err := m.cat.Distance(player.CurrentAirport, airport.ID)
		if err != nil {
			continue
		}
		needed := player.FuelNeeded(dist)
		fuelPrice := 0
		if dm, ok := r.World.Market(airport.ID); ok {
			fuelPrice = dm.FuelPrice
		}
		snap.Destinations = append(snap.Destinations, DestinationInfo{
			AirportID:    airport.ID,
			AirportName:  airport.Name,
			DistanceKm:   dist,
			FuelRequired: needed,
			CanTravel:    m.cfg.UnlimitedFuel || player.Fuel >= needed,
			FuelPrice:    fuelPrice,
		})
	}
	sort.Slice(snap.Destinations, func(i, j int) bool {
		return snap.Destinations[i].DistanceKm < snap.Destinations[j].DistanceKm
	})

	return snap, nil
}
