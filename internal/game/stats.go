package game

// Stats accrues per-player lifetime numbers. Never reset on rejoin.
type Stats struct {
	TotalRevenue        int      `json:"totalRevenue"`
	TotalExpenses       int      `json:"totalExpenses"`
	NetProfit           int      `json:"netProfit"`
	CargoTrades         int      `json:"cargoTrades"`
	FuelPurchased       int      `json:"fuelPurchased"`
	DistanceTraveled    float64  `json:"distanceTraveled"`
	AirportsVisited     []string `json:"airportsVisited"`
	BestSingleTrade     int      `json:"bestSingleTrade"`
	MostProfitableCargo string   `json:"mostProfitableCargo"`
	EfficiencyScore     float64  `json:"efficiencyScore"`
}

func (s *Stats) recordSale(cargoID string, revenue int) {
	s.TotalRevenue += revenue
	s.CargoTrades++
	s.recalc()
	if revenue > s.BestSingleTrade {
		s.BestSingleTrade = revenue
		s.MostProfitableCargo = cargoID
	}
}

func (s *Stats) recordCargoPurchase(expense int) {
	s.TotalExpenses += expense
	s.CargoTrades++
	s.recalc()
}

func (s *Stats) recordFuelPurchase(fuelUnits, cost int) {
	s.FuelPurchased += fuelUnits
	s.TotalExpenses += cost
	s.recalc()
}

func (s *Stats) recordTravel(airportID string, distanceKm float64) {
	s.DistanceTraveled += distanceKm
	for _, v := range s.AirportsVisited {
		if v == airportID {
			return
		}
	}
	s.AirportsVisited = append(s.AirportsVisited, airportID)
}

func (s *Stats) recalc() {
	s.NetProfit = s.TotalRevenue - s.TotalExpenses
	if s.NetProfit < 0 {
		s.NetProfit = 0
	}
}

// UpdateEfficiency recomputes net profit per turn.
func (s *Stats) UpdateEfficiency(turns int) {
	if turns > 0 {
		s.EfficiencyScore = float64(s.NetProfit) / float64(turns)
	}
}

func (s Stats) clone() Stats {
	cp := s
	cp.AirportsVisited = append([]string(nil), s.AirportsVisited...)
	return cp
}
