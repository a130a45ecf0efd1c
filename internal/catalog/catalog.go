// Package catalog holds the immutable reference tables for airports and
// cargo types. It is loaded once at process start and shared read-only by
// every room; nothing here mutates after Load.
package catalog

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MarketProfile describes how an airport's local economy skews prices.
type MarketProfile struct {
	Produces     []string `json:"produces" yaml:"produces"`
	Consumes     []string `json:"consumes" yaml:"consumes"`
	FuelModifier float64  `json:"fuelModifier" yaml:"fuel_modifier"`
}

type Airport struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Latitude      float64       `json:"lat" yaml:"lat"`
	Longitude     float64       `json:"lon" yaml:"lon"`
	BaseFuelPrice int           `json:"baseFuelPrice" yaml:"base_fuel_price"`
	Profile       MarketProfile `json:"profile" yaml:"profile"`
}

// Produces reports whether this airport's economy produces the cargo.
func (a *Airport) Produces(cargoID string) bool {
	for _, id := range a.Profile.Produces {
		if id == cargoID {
			return true
		}
	}
	return false
}

func (a *Airport) Consumes(cargoID string) bool {
	for _, id := range a.Profile.Consumes {
		if id == cargoID {
			return true
		}
	}
	return false
}

type CargoType struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	BasePrice     int     `json:"basePrice" yaml:"base_price"`
	WeightPerUnit int     `json:"weightPerUnit" yaml:"weight_per_unit"`
	Volatility    float64 `json:"volatility" yaml:"volatility"`
}

// Catalog is the read-only lookup surface shared by all rooms.
type Catalog struct {
	airports  map[string]*Airport
	cargo     map[string]*CargoType
	airportBy []string // sorted ids for stable listings
	cargoBy   []string
	distances map[pairKey]float64
}

type pairKey struct{ a, b string }

// NotFoundError identifies an unknown airport or cargo id.
type NotFoundError struct {
	Kind string // "airport" or "cargo"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Load builds the catalog from the built-in tables, or from a YAML file when
// path is non-empty.
func Load(path string) (*Catalog, error) {
	airports := defaultAirports()
	cargo := defaultCargoTypes()

	if path != "" {
		var file struct {
			Airports   []Airport   `yaml:"airports"`
			CargoTypes []CargoType `yaml:"cargo_types"`
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse catalog file: %w", err)
		}
		if len(file.Airports) > 0 {
			airports = file.Airports
		}
		if len(file.CargoTypes) > 0 {
			cargo = file.CargoTypes
		}
	}

	c := &Catalog{
		airports:  make(map[string]*Airport, len(airports)),
		cargo:     make(map[string]*CargoType, len(cargo)),
		distances: make(map[pairKey]float64),
	}
	for i := range airports {
		a := airports[i]
		c.airports[a.ID] = &a
		c.airportBy = append(c.airportBy, a.ID)
	}
	for i := range cargo {
		ct := cargo[i]
		c.cargo[ct.ID] = &ct
		c.cargoBy = append(c.cargoBy, ct.ID)
	}
	sort.Strings(c.airportBy)
	sort.Strings(c.cargoBy)

	// Pre-compute every pair once; distance lookups are on the hot path of
	// travel validation and snapshot building.
	for i, idA := range c.airportBy {
		for _, idB := range c.airportBy[i:] {
			d := haversineKm(c.airports[idA], c.airports[idB])
			c.distances[pairKey{idA, idB}] = d
			c.distances[pairKey{idB, idA}] = d
		}
	}
	return c, nil
}

func (c *Catalog) Airport(id string) (*Airport, error) {
	a, ok := c.airports[id]
	if !ok {
		return nil, &NotFoundError{Kind: "airport", ID: id}
	}
	return a, nil
}

func (c *Catalog) Cargo(id string) (*CargoType, error) {
	ct, ok := c.cargo[id]
	if !ok {
		return nil, &NotFoundError{Kind: "cargo", ID: id}
	}
	return ct, nil
}

// Airports returns all airports ordered by id.
func (c *Catalog) Airports() []*Airport {
	out := make([]*Airport, 0, len(c.airportBy))
	for _, id := range c.airportBy {
		out = append(out, c.airports[id])
	}
	return out
}

// CargoTypes returns all cargo types ordered by id.
func (c *Catalog) CargoTypes() []*CargoType {
	out := make([]*CargoType, 0, len(c.cargoBy))
	for _, id := range c.cargoBy {
		out = append(out, c.cargo[id])
	}
	return out
}

// Distance returns the cached great-circle distance in kilometers.
func (c *Catalog) Distance(fromID, toID string) (float64, error) {
	d, ok := c.distances[pairKey{fromID, toID}]
	if !ok {
		missing := fromID
		if _, err := c.Airport(fromID); err == nil {
			missing = toID
		}
		return 0, &NotFoundError{Kind: "airport", ID: missing}
	}
	return d, nil
}

const earthRadiusKm = 6371.0

func haversineKm(a, b *Airport) float64 {
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
