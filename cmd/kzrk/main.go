// Command kzrk runs a single-player game in the terminal.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gotoplanb/kzrk/internal/catalog"
	"github.com/gotoplanb/kzrk/internal/config"
	"github.com/gotoplanb/kzrk/internal/economy"
	"github.com/gotoplanb/kzrk/internal/solo"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}
	econ := economy.NewPricer(cat, cfg, time.Now().UnixNano())
	g := solo.New(cfg, cat, econ)

	fmt.Printf("Cargo trading from %s. Reach $%d to win. Type 'help' for commands.\n",
		g.Player.CurrentAirport, cfg.WinMoney)
	look(g, cat)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(strings.ToLower(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			fmt.Println("commands: look, market, buy <cargo> <qty|max>, sell <cargo> <qty|all>, fly <airport>, fuel <qty|max>, stats, quit")
		case "look":
			look(g, cat)
		case "market":
			market(g, cat)
		case "buy":
			trade(g, fields, true)
		case "sell":
			trade(g, fields, false)
		case "fly":
			if len(fields) < 2 {
				fmt.Println("usage: fly <airport>")
				continue
			}
			res, err := g.Travel(strings.ToUpper(fields[1]))
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println(res.Summary)
			look(g, cat)
		case "fuel":
			if len(fields) < 2 {
				fmt.Println("usage: fuel <qty|max>")
				continue
			}
			qty := parseQty(fields[1], g.MaxFuelBuyable())
			res, err := g.BuyFuel(qty)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println(res.Summary)
		case "stats":
			st := g.Player.Stats
			fmt.Printf("revenue $%d, expenses $%d, net $%d, trades %d, distance %.0f km, airports visited %d\n",
				st.TotalRevenue, st.TotalExpenses, st.NetProfit, st.CargoTrades, st.DistanceTraveled, len(st.AirportsVisited))
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command; try 'help'")
		}

		if g.Won() {
			fmt.Printf("You win! $%d in %d turns.\n", g.Player.Money, g.Player.Turn)
			return
		}
	}
}

func parseQty(arg string, max int) int {
	if arg == "max" || arg == "all" {
		return max
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0
	}
	return n
}

func trade(g *solo.Game, fields []string, buy bool) {
	if len(fields) < 3 {
		fmt.Printf("usage: %s <cargo> <qty>\n", fields[0])
		return
	}
	cargoID := fields[1]
	max := g.Player.Quantity(cargoID)
	if buy {
		max = g.MaxBuyable(cargoID)
	}
	qty := parseQty(fields[2], max)

	var err error
	var summary string
	if buy {
		res, e := g.Buy(cargoID, qty)
		if e == nil {
			summary = res.Summary
		}
		err = e
	} else {
		res, e := g.Sell(cargoID, qty)
		if e == nil {
			summary = res.Summary
		}
		err = e
	}
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(summary)
}

func look(g *solo.Game, cat *catalog.Catalog) {
	p := g.Player
	a, err := cat.Airport(p.CurrentAirport)
	name := p.CurrentAirport
	if err == nil {
		name = fmt.Sprintf("%s (%s)", a.Name, a.ID)
	}
	fmt.Printf("turn %d | %s | $%d | fuel %d/%d | cargo %d/%d kg\n",
		p.Turn, name, p.Money, p.Fuel, p.MaxFuel, p.CargoWeight(cat), p.MaxCargoWeight)

	if len(p.Inventory) > 0 {
		ids := make([]string, 0, len(p.Inventory))
		for id := range p.Inventory {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Print("hold:")
		for _, id := range ids {
			fmt.Printf(" %s x%d", id, p.Inventory[id])
		}
		fmt.Println()
	}

	fmt.Println("destinations:")
	for _, d := range g.Destinations() {
		marker := " "
		if !d.CanTravel {
			marker = "!"
		}
		fmt.Printf("  %s %-4s %-28s %6.0f km, %d fuel\n",
			marker, d.Airport.ID, d.Airport.Name, d.DistanceKm, d.FuelRequired)
	}
}

func market(g *solo.Game, cat *catalog.Catalog) {
	m, ok := g.Market()
	if !ok {
		fmt.Println("no market here")
		return
	}
	fmt.Printf("fuel: $%d/unit\n", m.FuelPrice)
	if m.Event != nil {
		fmt.Println("event:", m.Event.Description)
	}
	prices := m.EffectivePrices()
	ids := make([]string, 0, len(prices))
	for id := range prices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		weight := 0
		if ct, err := cat.Cargo(id); err == nil {
			weight = ct.WeightPerUnit
		}
		fmt.Printf("  %-12s $%-6d %d kg/unit (have %d, can buy %d)\n",
			id, prices[id], weight, g.Player.Quantity(id), g.MaxBuyable(id))
	}
}
