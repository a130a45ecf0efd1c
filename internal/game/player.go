package game

import (
	"math"

	"github.com/gotoplanb/kzrk/internal/catalog"
)

// Player is the mutable per-player simulation state. All mutation goes
// through the action processor; these methods only validate and compute.
type Player struct {
	Money           int            `json:"money"`
	CurrentAirport  string         `json:"currentAirport"`
	Fuel            int            `json:"fuel"`
	MaxFuel         int            `json:"maxFuel"`
	Inventory       map[string]int `json:"inventory"`
	MaxCargoWeight  int            `json:"maxCargoWeight"`
	FuelEfficiency  float64        `json:"fuelEfficiency"`
	Turn            int            `json:"turn"`
	Stats           Stats          `json:"stats"`
}

func NewPlayer(money int, airport string, fuel, maxFuel, maxCargoWeight int, fuelEfficiency float64) *Player {
	return &Player{
		Money:          money,
		CurrentAirport: airport,
		Fuel:           fuel,
		MaxFuel:        maxFuel,
		Inventory:      make(map[string]int),
		MaxCargoWeight: maxCargoWeight,
		FuelEfficiency: fuelEfficiency,
		Turn:           1,
	}
}

func (p *Player) CanAfford(cost int) bool {
	return p.Money >= cost
}

// CargoWeight sums the weight of everything in the hold. Unknown cargo ids
// (from older saves) weigh nothing rather than failing.
func (p *Player) CargoWeight(cat *catalog.Catalog) int {
	total := 0
	for id, qty := range p.Inventory {
		if ct, err := cat.Cargo(id); err == nil {
			total += ct.WeightPerUnit * qty
		}
	}
	return total
}

func (p *Player) CanCarry(cat *catalog.Catalog, additionalWeight int) bool {
	return p.CargoWeight(cat)+additionalWeight <= p.MaxCargoWeight
}

// FuelNeeded converts a distance to whole fuel units, rounding up.
func (p *Player) FuelNeeded(distanceKm float64) int {
	return int(math.Ceil(distanceKm / p.FuelEfficiency))
}

func (p *Player) Quantity(cargoID string) int {
	return p.Inventory[cargoID]
}

func (p *Player) addCargo(cargoID string, qty int) {
	p.Inventory[cargoID] += qty
}

func (p *Player) removeCargo(cargoID string, qty int) {
	p.Inventory[cargoID] -= qty
	if p.Inventory[cargoID] <= 0 {
		delete(p.Inventory, cargoID)
	}
}

// Clone deep-copies the player for snapshot building.
func (p *Player) Clone() *Player {
	cp := *p
	cp.Inventory = make(map[string]int, len(p.Inventory))
	for k, v := range p.Inventory {
		cp.Inventory[k] = v
	}
	cp.Stats = p.Stats.clone()
	return &cp
}
