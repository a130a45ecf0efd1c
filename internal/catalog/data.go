package catalog

// Built-in reference tables. A YAML catalog file can replace these at load
// time; at runtime they are never touched.

func defaultAirports() []Airport {
	return []Airport{
		{
			ID: "JFK", Name: "New York JFK",
			Latitude: 40.6413, Longitude: -73.7781, BaseFuelPrice: 80,
			Profile: MarketProfile{
				Produces:     []string{"electronics", "luxury"},
				Consumes:     []string{"food", "materials"},
				FuelModifier: 1.2,
			},
		},
		{
			ID: "LAX", Name: "Los Angeles LAX",
			Latitude: 33.9425, Longitude: -118.4081, BaseFuelPrice: 75,
			Profile: MarketProfile{
				Produces:     []string{"electronics", "textiles"},
				Consumes:     []string{"industrial", "materials"},
				FuelModifier: 1.1,
			},
		},
		{
			ID: "MIA", Name: "Miami MIA",
			Latitude: 25.7959, Longitude: -80.2870, BaseFuelPrice: 70,
			Profile: MarketProfile{
				Produces:     []string{"food", "luxury"},
				Consumes:     []string{"electronics", "textiles"},
				FuelModifier: 0.9,
			},
		},
		{
			ID: "ORD", Name: "Chicago O'Hare",
			Latitude: 41.9742, Longitude: -87.9073, BaseFuelPrice: 65,
			Profile: MarketProfile{
				Produces:     []string{"industrial", "food"},
				Consumes:     []string{"luxury", "electronics"},
				FuelModifier: 1.0,
			},
		},
		{
			ID: "DEN", Name: "Denver DEN",
			Latitude: 39.8561, Longitude: -104.6737, BaseFuelPrice: 60,
			Profile: MarketProfile{
				Produces:     []string{"materials", "industrial"},
				Consumes:     []string{"luxury", "food"},
				FuelModifier: 0.8,
			},
		},
		{
			ID: "SEA", Name: "Seattle SEA",
			Latitude: 47.4502, Longitude: -122.3088, BaseFuelPrice: 85,
			Profile: MarketProfile{
				Produces:     []string{"electronics", "food"},
				Consumes:     []string{"textiles", "materials"},
				FuelModifier: 1.3,
			},
		},
	}
}

func defaultCargoTypes() []CargoType {
	return []CargoType{
		{ID: "electronics", Name: "Electronics", BasePrice: 500, WeightPerUnit: 1, Volatility: 0.4},
		{ID: "food", Name: "Food & Beverages", BasePrice: 100, WeightPerUnit: 2, Volatility: 0.2},
		{ID: "textiles", Name: "Textiles", BasePrice: 200, WeightPerUnit: 3, Volatility: 0.25},
		{ID: "industrial", Name: "Industrial Parts", BasePrice: 300, WeightPerUnit: 5, Volatility: 0.3},
		{ID: "luxury", Name: "Luxury Goods", BasePrice: 1000, WeightPerUnit: 1, Volatility: 0.5},
		{ID: "materials", Name: "Raw Materials", BasePrice: 50, WeightPerUnit: 4, Volatility: 0.15},
	}
}
