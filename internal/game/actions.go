package game

import (
	"fmt"

	"github.com/gotoplanb/kzrk/internal/catalog"
)

// Economy is the pricing engine invoked after trades and on arrival. The
// concrete implementation lives in internal/economy.
type Economy interface {
	// TradeImpact nudges the stored price after an executed trade.
	TradeImpact(m *MarketState, cargoID string, qty int, isBuy bool)
	// Refresh redraws an airport's prices and rolls/expires shock events.
	Refresh(m *MarketState, turn int)
}

// Side distinguishes the two trade directions.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Processor validates and applies the three action kinds against one
// player + world pair. It holds no mutable state of its own; callers provide
// whatever exclusivity the world requires.
type Processor struct {
	Catalog       *catalog.Catalog
	Economy       Economy
	UnlimitedFuel bool
}

type TradeResult struct {
	Side      Side   `json:"side"`
	CargoID   string `json:"cargoId"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unitPrice"`
	Total     int    `json:"total"`
	NewMoney  int    `json:"newMoney"`
	Summary   string `json:"summary"`
}

// Trade executes a buy or sell at the player's current airport. All checks
// run before any mutation; a failure leaves player and market untouched.
func (p *Processor) Trade(player *Player, w *World, cargoID string, qty int, side Side) (*TradeResult, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	ct, err := p.Catalog.Cargo(cargoID)
	if err != nil {
		return nil, fmt.Errorf("cargo %q: %w", cargoID, ErrNotFound)
	}
	market, ok := w.Market(player.CurrentAirport)
	if !ok {
		return nil, fmt.Errorf("market %q: %w", player.CurrentAirport, ErrNotFound)
	}
	unitPrice, ok := market.Price(cargoID)
	if !ok {
		return nil, fmt.Errorf("no quote for %q at %s: %w", cargoID, market.AirportID, ErrNotFound)
	}
	total := unitPrice * qty

	switch side {
	case Buy:
		if !player.CanAfford(total) {
			return nil, fmt.Errorf("need $%d, have $%d: %w", total, player.Money, ErrInsufficientFunds)
		}
		if !player.CanCarry(p.Catalog, ct.WeightPerUnit*qty) {
			return nil, fmt.Errorf("%d kg over limit: %w", ct.WeightPerUnit*qty, ErrCapacityExceeded)
		}
		player.Money -= total
		player.addCargo(cargoID, qty)
		player.Stats.recordCargoPurchase(total)
		p.Economy.TradeImpact(market, cargoID, qty, true)
	case Sell:
		if player.Quantity(cargoID) < qty {
			return nil, fmt.Errorf("have %d of %s: %w", player.Quantity(cargoID), cargoID, ErrInsufficientCargo)
		}
		player.removeCargo(cargoID, qty)
		player.Money += total
		player.Stats.recordSale(cargoID, total)
		p.Economy.TradeImpact(market, cargoID, qty, false)
	default:
		return nil, fmt.Errorf("unknown trade side %q: %w", side, ErrNotFound)
	}

	player.Stats.UpdateEfficiency(player.Turn)
	verb := "Bought"
	if side == Sell {
		verb = "Sold"
	}
	return &TradeResult{
		Side:      side,
		CargoID:   cargoID,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Total:     total,
		NewMoney:  player.Money,
		Summary:   fmt.Sprintf("%s %d x %s for $%d ($%d/unit)", verb, qty, ct.Name, total, unitPrice),
	}, nil
}

type TravelResult struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	DistanceKm    float64 `json:"distanceKm"`
	FuelConsumed  int     `json:"fuelConsumed"`
	RemainingFuel int     `json:"remainingFuel"`
	Summary       string  `json:"summary"`
}

// Travel moves the player, advances the world turn and refreshes the
// arrival market. Markets at other airports keep their last-seen prices.
func (p *Processor) Travel(player *Player, w *World, destID string) (*TravelResult, error) {
	if destID == player.CurrentAirport {
		return nil, ErrSameLocation
	}
	dest, err := p.Catalog.Airport(destID)
	if err != nil {
		return nil, fmt.Errorf("destination %q: %w", destID, ErrNotFound)
	}
	dist, err := p.Catalog.Distance(player.CurrentAirport, destID)
	if err != nil {
		return nil, fmt.Errorf("distance %s-%s: %w", player.CurrentAirport, destID, ErrNotFound)
	}

	fuelNeeded := player.FuelNeeded(dist)
	if p.UnlimitedFuel {
		fuelNeeded = 0
	}
	if player.Fuel < fuelNeeded {
		return nil, fmt.Errorf("need %d fuel, have %d: %w", fuelNeeded, player.Fuel, ErrInsufficientFuel)
	}

	from := player.CurrentAirport
	player.Fuel -= fuelNeeded
	player.CurrentAirport = destID
	player.Turn++
	w.Turn++
	player.Stats.recordTravel(destID, dist)
	player.Stats.UpdateEfficiency(player.Turn)

	if market, ok := w.Market(destID); ok {
		p.Economy.Refresh(market, w.Turn)
	}

	return &TravelResult{
		From:          from,
		To:            destID,
		DistanceKm:    dist,
		FuelConsumed:  fuelNeeded,
		RemainingFuel: player.Fuel,
		Summary:       fmt.Sprintf("Traveled to %s (%.0f km, %d fuel)", dest.Name, dist, fuelNeeded),
	}, nil
}

type FuelResult struct {
	Quantity int    `json:"quantity"`
	Cost     int    `json:"cost"`
	NewFuel  int    `json:"newFuel"`
	NewMoney int    `json:"newMoney"`
	Summary  string `json:"summary"`
}

// BuyFuel purchases whole fuel units at the current airport's fuel price.
func (p *Processor) BuyFuel(player *Player, w *World, qty int) (*FuelResult, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	market, ok := w.Market(player.CurrentAirport)
	if !ok {
		return nil, fmt.Errorf("market %q: %w", player.CurrentAirport, ErrNotFound)
	}
	if player.Fuel+qty > player.MaxFuel {
		return nil, fmt.Errorf("tank holds %d more units: %w", player.MaxFuel-player.Fuel, ErrFuelCapacityExceeded)
	}
	cost := market.FuelPrice * qty
	if !player.CanAfford(cost) {
		return nil, fmt.Errorf("need $%d, have $%d: %w", cost, player.Money, ErrInsufficientFunds)
	}

	player.Money -= cost
	player.Fuel += qty
	player.Stats.recordFuelPurchase(qty, cost)
	player.Stats.UpdateEfficiency(player.Turn)

	return &FuelResult{
		Quantity: qty,
		Cost:     cost,
		NewFuel:  player.Fuel,
		NewMoney: player.Money,
		Summary:  fmt.Sprintf("Purchased %d fuel for $%d", qty, cost),
	}, nil
}

// MaxBuyable reports how many units of a cargo the player could buy right
// now, limited by money and remaining weight capacity.
func (p *Processor) MaxBuyable(player *Player, w *World, cargoID string) int {
	ct, err := p.Catalog.Cargo(cargoID)
	if err != nil {
		return 0
	}
	market, ok := w.Market(player.CurrentAirport)
	if !ok {
		return 0
	}
	unitPrice, ok := market.Price(cargoID)
	if !ok || unitPrice <= 0 {
		return 0
	}
	byMoney := player.Money / unitPrice
	if ct.WeightPerUnit <= 0 {
		return byMoney
	}
	headroom := player.MaxCargoWeight - player.CargoWeight(p.Catalog)
	if headroom < 0 {
		headroom = 0
	}
	byWeight := headroom / ct.WeightPerUnit
	if byWeight < byMoney {
		return byWeight
	}
	return byMoney
}

// MaxFuelBuyable reports how many fuel units fit in both wallet and tank.
func (p *Processor) MaxFuelBuyable(player *Player, w *World) int {
	market, ok := w.Market(player.CurrentAirport)
	if !ok || market.FuelPrice <= 0 {
		return 0
	}
	byMoney := player.Money / market.FuelPrice
	byCapacity := player.MaxFuel - player.Fuel
	if byCapacity < byMoney {
		return byCapacity
	}
	return byMoney
}
