// Package economy derives and evolves per-airport market prices: initial
// generation, arrival refreshes, trade-impact mutation and shock events.
// Every price it writes stays inside the volatility clamp band, so the
// invariants hold no matter how many trades or refreshes run.
package economy

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/gotoplanb/kzrk/internal/catalog"
	"github.com/gotoplanb/kzrk/internal/config"
	"github.com/gotoplanb/kzrk/internal/game"
)

// Pricer implements game.Economy. Safe for use from multiple rooms; the rng
// is the only shared mutable piece and is guarded.
type Pricer struct {
	cat *catalog.Catalog
	cfg config.Config

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPricer(cat *catalog.Catalog, cfg config.Config, seed int64) *Pricer {
	return &Pricer{
		cat: cat,
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// clampBand is the hard invariant range for one cargo's stored price.
func (p *Pricer) clampBand(ct *catalog.CargoType) (int, int) {
	base := float64(ct.BasePrice)
	lo := int(base * (1 - ct.Volatility*p.cfg.ClampK))
	hi := int(base * (1 + ct.Volatility*p.cfg.ClampK))
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// generatePrice draws a fresh price for one cargo at one airport: a random
// swing scaled by volatility, then the airport's producer discount or
// consumer premium, then the invariant clamp.
func (p *Pricer) generatePrice(airport *catalog.Airport, ct *catalog.CargoType) int {
	swing := ct.Volatility * (p.cfg.SwingMin + p.rng.Float64()*(p.cfg.SwingMax-p.cfg.SwingMin))
	mod := 1 + (p.rng.Float64()*2-1)*swing

	var profile float64
	switch {
	case airport.Produces(ct.ID):
		profile = 0.7 + p.rng.Float64()*0.2
	case airport.Consumes(ct.ID):
		profile = 1.1 + p.rng.Float64()*0.3
	default:
		profile = 0.9 + p.rng.Float64()*0.2
	}

	price := int(math.Round(float64(ct.BasePrice) * mod * profile))
	lo, hi := p.clampBand(ct)
	return clamp(price, lo, hi)
}

func (p *Pricer) generateFuelPrice(airport *catalog.Airport) int {
	mod := 0.85 + p.rng.Float64()*0.3
	price := int(math.Round(float64(airport.BaseFuelPrice) * airport.Profile.FuelModifier * mod))
	if price < 1 {
		price = 1
	}
	return price
}

// SeedMarkets builds one freshly priced market per known airport. Used at
// room creation and solo game start.
func (p *Pricer) SeedMarkets() map[string]*game.MarketState {
	p.mu.Lock()
	defer p.mu.Unlock()

	markets := make(map[string]*game.MarketState)
	for _, airport := range p.cat.Airports() {
		m := game.NewMarketState(airport.ID)
		m.FuelPrice = p.generateFuelPrice(airport)
		for _, ct := range p.cat.CargoTypes() {
			m.SetPrice(ct.ID, p.generatePrice(airport, ct))
		}
		markets[airport.ID] = m
	}
	return markets
}

// Refresh redraws one airport's prices, ages any active shock and may roll
// a new one. Only the arrival airport is refreshed on travel; everywhere
// else keeps its last-seen prices.
func (p *Pricer) Refresh(m *game.MarketState, turn int) {
	airport, err := p.cat.Airport(m.AirportID)
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ct := range p.cat.CargoTypes() {
		m.SetPrice(ct.ID, p.generatePrice(airport, ct))
	}
	m.FuelPrice = p.generateFuelPrice(airport)
	m.LastRefreshTurn = turn

	if m.Event != nil {
		m.Event.TurnsLeft--
		if m.Event.TurnsLeft <= 0 {
			m.Event = nil
		}
	}
	if m.Event == nil && p.rng.Float64() < p.cfg.EventChance {
		m.Event = p.rollShock(airport)
	}
}

// rollShock picks one cargo and a bounded multiplier. Caller holds p.mu.
func (p *Pricer) rollShock(airport *catalog.Airport) *game.Shock {
	types := p.cat.CargoTypes()
	if len(types) == 0 {
		return nil
	}
	ct := types[p.rng.Intn(len(types))]
	mult := p.cfg.EventMultMin + p.rng.Float64()*(p.cfg.EventMultMax-p.cfg.EventMultMin)
	turns := p.cfg.EventTurnsMin
	if span := p.cfg.EventTurnsMax - p.cfg.EventTurnsMin; span > 0 {
		turns += p.rng.Intn(span + 1)
	}

	desc := fmt.Sprintf("Supply disruption drives up %s prices at %s", ct.Name, airport.Name)
	if mult < 1 {
		desc = fmt.Sprintf("Oversupply of %s floods the %s market", ct.Name, airport.Name)
	}
	return &game.Shock{
		CargoID:     ct.ID,
		Multiplier:  mult,
		TurnsLeft:   turns,
		Description: desc,
	}
}

// TradeImpact nudges the stored price after an executed trade: buys push it
// up, sells push it down, scaled by quantity against the soft cap and
// clamped to the invariant band. Repeated identical buys therefore cost a
// non-decreasing amount per unit, and repeated sells yield non-increasing
// returns.
func (p *Pricer) TradeImpact(m *game.MarketState, cargoID string, qty int, isBuy bool) {
	ct, err := p.cat.Cargo(cargoID)
	if err != nil {
		return
	}
	current, ok := m.CargoPrices[cargoID]
	if !ok {
		return
	}

	softCap := p.cfg.TradeSoftCap
	if softCap < 1 {
		softCap = 1
	}
	step := int(math.Round(float64(current) * p.cfg.ImpactRate * float64(qty) / float64(softCap)))
	if step < 1 {
		step = 1
	}
	if !isBuy {
		step = -step
	}

	lo, hi := p.clampBand(ct)
	m.SetPrice(cargoID, clamp(current+step, lo, hi))
}
