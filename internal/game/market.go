package game

import "time"

// Shock is a temporary price event overlaying one cargo's price at one
// airport. The stored price stays inside the volatility band; the overlay
// multiplies it at read time, so expiry is a pure data check.
type Shock struct {
	CargoID     string  `json:"cargoId"`
	Multiplier  float64 `json:"multiplier"`
	TurnsLeft   int     `json:"turnsLeft"`
	Description string  `json:"description"`
}

// MarketState is the per-airport, per-room mutable market.
type MarketState struct {
	AirportID       string         `json:"airportId"`
	FuelPrice       int            `json:"fuelPrice"`
	CargoPrices     map[string]int `json:"cargoPrices"`
	LastRefreshTurn int            `json:"lastRefreshTurn"`
	LastUpdated     time.Time      `json:"lastUpdated"`
	Event           *Shock         `json:"event,omitempty"`
}

func NewMarketState(airportID string) *MarketState {
	return &MarketState{
		AirportID:   airportID,
		CargoPrices: make(map[string]int),
		LastUpdated: time.Now().UTC(),
	}
}

// Price returns the effective unit price: the stored price with any active
// shock applied. The second return is false for cargo with no quote here.
func (m *MarketState) Price(cargoID string) (int, bool) {
	p, ok := m.CargoPrices[cargoID]
	if !ok {
		return 0, false
	}
	if m.Event != nil && m.Event.CargoID == cargoID && m.Event.TurnsLeft > 0 {
		p = int(float64(p) * m.Event.Multiplier)
	}
	if p < 1 {
		p = 1
	}
	return p, true
}

// SetPrice stores a base price and stamps the refresh time.
func (m *MarketState) SetPrice(cargoID string, price int) {
	if price < 1 {
		price = 1
	}
	m.CargoPrices[cargoID] = price
	m.LastUpdated = time.Now().UTC()
}

// EffectivePrices materializes all quotes with overlays applied, for
// snapshots.
func (m *MarketState) EffectivePrices() map[string]int {
	out := make(map[string]int, len(m.CargoPrices))
	for id := range m.CargoPrices {
		p, _ := m.Price(id)
		out[id] = p
	}
	return out
}

// Clone deep-copies the market for snapshot building.
func (m *MarketState) Clone() *MarketState {
	cp := *m
	cp.CargoPrices = make(map[string]int, len(m.CargoPrices))
	for k, v := range m.CargoPrices {
		cp.CargoPrices[k] = v
	}
	if m.Event != nil {
		ev := *m.Event
		cp.Event = &ev
	}
	return &cp
}

// World is the shared mutable state one room owns: the turn counter and one
// market per airport. The solo game embeds the same structure.
type World struct {
	Turn    int                     `json:"turn"`
	Markets map[string]*MarketState `json:"markets"`
}

func (w *World) Market(airportID string) (*MarketState, bool) {
	m, ok := w.Markets[airportID]
	return m, ok
}
