package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotoplanb/kzrk/internal/catalog"
	"github.com/gotoplanb/kzrk/internal/config"
	"github.com/gotoplanb/kzrk/internal/game"
)

func newShock(cargoID string, mult float64, turns int) *game.Shock {
	return &game.Shock{CargoID: cargoID, Multiplier: mult, TurnsLeft: turns, Description: "test shock"}
}

func newTestPricer(t *testing.T, seed int64) (*Pricer, *catalog.Catalog, config.Config) {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)
	cfg := config.Default()
	return NewPricer(cat, cfg, seed), cat, cfg
}

func TestSeedMarketsWithinBounds(t *testing.T) {
	p, cat, cfg := newTestPricer(t, 1)

	for seed := int64(0); seed < 20; seed++ {
		p = NewPricer(cat, cfg, seed)
		markets := p.SeedMarkets()
		require.Len(t, markets, len(cat.Airports()))

		for _, airport := range cat.Airports() {
			m := markets[airport.ID]
			require.NotNil(t, m)
			assert.GreaterOrEqual(t, m.FuelPrice, 1)

			for _, ct := range cat.CargoTypes() {
				price, ok := m.Price(ct.ID)
				require.True(t, ok)
				lo, hi := p.clampBand(ct)
				assert.GreaterOrEqual(t, price, lo, "%s at %s", ct.ID, airport.ID)
				assert.LessOrEqual(t, price, hi, "%s at %s", ct.ID, airport.ID)
			}
		}
	}
}

func TestProducerCheaperThanConsumerOnAverage(t *testing.T) {
	_, cat, cfg := newTestPricer(t, 1)

	// ORD produces food, DEN consumes food.
	var producerSum, consumerSum int
	const rounds = 200
	for seed := int64(0); seed < rounds; seed++ {
		p := NewPricer(cat, cfg, seed)
		markets := p.SeedMarkets()
		prodPrice, _ := markets["ORD"].Price("food")
		consPrice, _ := markets["DEN"].Price("food")
		producerSum += prodPrice
		consumerSum += consPrice
	}
	assert.Less(t, producerSum, consumerSum,
		"producer airports should quote lower prices than consumers over many draws")
}

func TestFuelPriceTracksModifier(t *testing.T) {
	_, cat, cfg := newTestPricer(t, 1)

	// SEA has the highest fuel modifier (1.3), DEN the lowest (0.8).
	var seaSum, denSum int
	for seed := int64(0); seed < 100; seed++ {
		p := NewPricer(cat, cfg, seed)
		markets := p.SeedMarkets()
		seaSum += markets["SEA"].FuelPrice
		denSum += markets["DEN"].FuelPrice
	}
	assert.Greater(t, seaSum, denSum)
}

func TestTradeImpactMonotonic(t *testing.T) {
	p, _, _ := newTestPricer(t, 7)
	markets := p.SeedMarkets()
	m := markets["ORD"]

	prev, _ := m.Price("electronics")
	for i := 0; i < 50; i++ {
		p.TradeImpact(m, "electronics", 3, true)
		cur, _ := m.Price("electronics")
		assert.GreaterOrEqual(t, cur, prev, "buying must never lower the price")
		prev = cur
	}

	for i := 0; i < 50; i++ {
		p.TradeImpact(m, "electronics", 3, false)
		cur, _ := m.Price("electronics")
		assert.LessOrEqual(t, cur, prev, "selling must never raise the price")
		prev = cur
	}
}

func TestTradeImpactStaysClamped(t *testing.T) {
	p, cat, _ := newTestPricer(t, 7)
	markets := p.SeedMarkets()
	m := markets["ORD"]
	ct, err := cat.Cargo("electronics")
	require.NoError(t, err)
	lo, hi := p.clampBand(ct)

	for i := 0; i < 500; i++ {
		p.TradeImpact(m, "electronics", 100, true)
	}
	price := m.CargoPrices["electronics"]
	assert.Equal(t, hi, price, "heavy buying should saturate at the clamp ceiling")

	for i := 0; i < 500; i++ {
		p.TradeImpact(m, "electronics", 100, false)
	}
	price = m.CargoPrices["electronics"]
	assert.Equal(t, lo, price, "heavy selling should saturate at the clamp floor")
}

func TestRefreshAgesAndExpiresShock(t *testing.T) {
	cat, err := catalog.Load("")
	require.NoError(t, err)
	cfg := config.Default()
	cfg.EventChance = 0 // no new shocks while aging the existing one
	p := NewPricer(cat, cfg, 3)

	markets := p.SeedMarkets()
	m := markets["ORD"]
	m.Event = newShock("electronics", 2.0, 2)

	p.Refresh(m, 2)
	require.NotNil(t, m.Event)
	assert.Equal(t, 1, m.Event.TurnsLeft)

	p.Refresh(m, 3)
	assert.Nil(t, m.Event, "shock should expire after its turns run out")
}

func TestRefreshRollsShockWhenForced(t *testing.T) {
	cat, err := catalog.Load("")
	require.NoError(t, err)
	cfg := config.Default()
	cfg.EventChance = 1.0
	p := NewPricer(cat, cfg, 3)

	markets := p.SeedMarkets()
	m := markets["ORD"]
	require.Nil(t, m.Event)

	p.Refresh(m, 2)
	require.NotNil(t, m.Event)
	assert.GreaterOrEqual(t, m.Event.Multiplier, cfg.EventMultMin)
	assert.LessOrEqual(t, m.Event.Multiplier, cfg.EventMultMax)
	assert.GreaterOrEqual(t, m.Event.TurnsLeft, cfg.EventTurnsMin)
	assert.LessOrEqual(t, m.Event.TurnsLeft, cfg.EventTurnsMax)
	assert.NotEmpty(t, m.Event.Description)
	assert.Equal(t, 2, m.LastRefreshTurn)
}

func TestShockOverlayKeepsStoredPriceClamped(t *testing.T) {
	p, cat, _ := newTestPricer(t, 11)
	markets := p.SeedMarkets()
	m := markets["ORD"]
	ct, err := cat.Cargo("luxury")
	require.NoError(t, err)
	lo, hi := p.clampBand(ct)

	m.Event = newShock("luxury", 2.5, 5)
	stored := m.CargoPrices["luxury"]
	assert.GreaterOrEqual(t, stored, lo)
	assert.LessOrEqual(t, stored, hi)

	effective, ok := m.Price("luxury")
	require.True(t, ok)
	assert.Equal(t, int(float64(stored)*2.5), effective)
}
