package solo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotoplanb/kzrk/internal/catalog"
	"github.com/gotoplanb/kzrk/internal/config"
	"github.com/gotoplanb/kzrk/internal/economy"
)

func newTestGame(t *testing.T, cfg config.Config) *Game {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)
	return New(cfg, cat, economy.NewPricer(cat, cfg, 42))
}

func TestNewGame(t *testing.T) {
	cfg := config.Default()
	g := newTestGame(t, cfg)

	assert.Equal(t, cfg.StartingMoney, g.Player.Money)
	assert.Equal(t, "ORD", g.Player.CurrentAirport)
	assert.Equal(t, cfg.StartingFuel(), g.Player.Fuel)
	assert.Equal(t, 1, g.World.Turn)
	assert.Len(t, g.World.Markets, 6)
	assert.False(t, g.Won())

	m, ok := g.Market()
	require.True(t, ok)
	assert.Equal(t, "ORD", m.AirportID)
}

func TestBuyThenSell(t *testing.T) {
	g := newTestGame(t, config.Default())
	start := g.Player.Money

	res, err := g.Buy("food", 5)
	require.NoError(t, err)
	assert.Equal(t, start-res.Total, g.Player.Money)
	assert.Equal(t, 5, g.Player.Quantity("food"))

	_, err = g.Sell("food", 5)
	require.NoError(t, err)
	assert.Zero(t, g.Player.Quantity("food"))
}

func TestDestinationsExcludeCurrent(t *testing.T) {
	g := newTestGame(t, config.Default())
	dests := g.Destinations()
	require.Len(t, dests, 5)
	for _, d := range dests {
		assert.NotEqual(t, g.Player.CurrentAirport, d.Airport.ID)
		assert.Greater(t, d.DistanceKm, 0.0)
		assert.Equal(t, g.Player.FuelNeeded(d.DistanceKm), d.FuelRequired)
	}
}

func TestUnlimitedFuelTravel(t *testing.T) {
	cfg := config.Default()
	cfg.UnlimitedFuel = true
	g := newTestGame(t, cfg)
	g.Player.Fuel = 0

	res, err := g.Travel("SEA")
	require.NoError(t, err)
	assert.Zero(t, res.FuelConsumed)
	assert.Equal(t, "SEA", g.Player.CurrentAirport)
	assert.Equal(t, 2, g.World.Turn)
}

func TestWin(t *testing.T) {
	cfg := config.Default()
	g := newTestGame(t, cfg)
	g.Player.Money = cfg.WinMoney
	assert.True(t, g.Won())
}
