// Package solo runs a single-player game on the same catalog, economy and
// action processor the multiplayer rooms use. No locks, no store, no
// sessions: one player, one world, one goroutine.
package solo

import (
	"github.com/gotoplanb/kzrk/internal/catalog"
	"github.com/gotoplanb/kzrk/internal/config"
	"github.com/gotoplanb/kzrk/internal/economy"
	"github.com/gotoplanb/kzrk/internal/game"
)

// Game is a self-contained single-player session.
type Game struct {
	cfg    config.Config
	cat    *catalog.Catalog
	econ   *economy.Pricer
	proc   *game.Processor
	Player *game.Player
	World  game.World
}

func New(cfg config.Config, cat *catalog.Catalog, econ *economy.Pricer) *Game {
	return &Game{
		cfg:  cfg,
		cat:  cat,
		econ: econ,
		proc: &game.Processor{
			Catalog:       cat,
			Economy:       econ,
			UnlimitedFuel: cfg.UnlimitedFuel,
		},
		Player: game.NewPlayer(
			cfg.StartingMoney,
			cfg.StartingAirport,
			cfg.StartingFuel(),
			cfg.MaxFuel,
			cfg.MaxCargoWeight,
			cfg.FuelEfficiency,
		),
		World: game.World{
			Turn:    1,
			Markets: econ.SeedMarkets(),
		},
	}
}

func (g *Game) Buy(cargoID string, qty int) (*game.TradeResult, error) {
	return g.proc.Trade(g.Player, &g.World, cargoID, qty, game.Buy)
}

func (g *Game) Sell(cargoID string, qty int) (*game.TradeResult, error) {
	return g.proc.Trade(g.Player, &g.World, cargoID, qty, game.Sell)
}

func (g *Game) Travel(destID string) (*game.TravelResult, error) {
	return g.proc.Travel(g.Player, &g.World, destID)
}

func (g *Game) BuyFuel(qty int) (*game.FuelResult, error) {
	return g.proc.BuyFuel(g.Player, &g.World, qty)
}

func (g *Game) MaxBuyable(cargoID string) int {
	return g.proc.MaxBuyable(g.Player, &g.World, cargoID)
}

func (g *Game) MaxFuelBuyable() int {
	return g.proc.MaxFuelBuyable(g.Player, &g.World)
}

// Market returns the market at the player's current airport.
func (g *Game) Market() (*game.MarketState, bool) {
	return g.World.Market(g.Player.CurrentAirport)
}

// Destination describes one reachable airport from the current position.
type Destination struct {
	Airport      *catalog.Airport
	DistanceKm   float64
	FuelRequired int
	CanTravel    bool
}

// Destinations lists every other airport with its fuel cost from here.
func (g *Game) Destinations() []Destination {
	var out []Destination
	for _, a := range g.cat.Airports() {
		if a.ID == g.Player.CurrentAirport {
			continue
		}
		dist, err := g.cat.Distance(g.Player.CurrentAirport, a.ID)
		if err != nil {
			continue
		}
		needed := g.Player.FuelNeeded(dist)
		out = append(out, Destination{
			Airport:      a,
			DistanceKm:   dist,
			FuelRequired: needed,
			CanTravel:    g.cfg.UnlimitedFuel || g.Player.Fuel >= needed,
		})
	}
	return out
}

// Won reports whether the player has hit the win threshold.
func (g *Game) Won() bool {
	return g.Player.Money >= g.cfg.WinMoney
}

// RefreshAll redraws every market at the current turn. Travel refreshes only
// the arrival airport; this is the debug lever for a full reroll.
func (g *Game) RefreshAll() {
	for _, m := range g.World.Markets {
		g.econ.Refresh(m, g.World.Turn)
	}
}
