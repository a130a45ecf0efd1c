// Package config resolves all game tunables from the environment. Balance
// parameters (volatility band, trade impact, event odds) are deliberately
// configuration rather than constants so they can be tuned without code
// changes.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Player starting state.
	StartingMoney   int
	StartingAirport string
	MaxFuel         int
	StartingFuelPct float64
	MaxCargoWeight  int
	FuelEfficiency  float64
	WinMoney        int

	// Room limits.
	MaxPlayers  int
	GracePeriod time.Duration

	// Cheat toggle: travel never consumes or requires fuel.
	UnlimitedFuel bool

	// Economy tuning.
	SwingMin      float64 // random price swing band, fraction of volatility
	SwingMax      float64
	ClampK        float64 // prices stay within base*(1 ± volatility*ClampK)
	ImpactRate    float64 // trade-impact step as a fraction of current price
	TradeSoftCap  int     // quantity at which one trade moves price by ImpactRate
	EventChance   float64 // per-refresh shock probability
	EventMultMin  float64
	EventMultMax  float64
	EventTurnsMin int
	EventTurnsMax int

	// Message board.
	BoardMaxMessages int
	BoardRemotePosts bool
	BoardPostsPerMin float64

	// Infrastructure.
	DBPath        string
	SessionSecret string
	CatalogPath   string
}

func Default() Config {
	return Config{
		StartingMoney:   10000,
		StartingAirport: "ORD",
		MaxFuel:         100,
		StartingFuelPct: 0.66,
		MaxCargoWeight:  500,
		FuelEfficiency:  10.0,
		WinMoney:        100000,

		MaxPlayers:  8,
		GracePeriod: 60 * time.Second,

		SwingMin:      0.15,
		SwingMax:      0.5,
		ClampK:        1.0,
		ImpactRate:    0.04,
		TradeSoftCap:  10,
		EventChance:   0.15,
		EventMultMin:  0.5,
		EventMultMax:  2.5,
		EventTurnsMin: 2,
		EventTurnsMax: 8,

		BoardMaxMessages: 50,
		BoardPostsPerMin: 10,

		DBPath:        "kzrk.db",
		SessionSecret: "dev-secret-change-me",
	}
}

// FromEnv builds the config from KZRK_* variables layered over a difficulty
// preset. Call godotenv.Load beforehand if a .env file should apply.
func FromEnv() Config {
	cfg := Default()
	switch os.Getenv("KZRK_DIFFICULTY") {
	case "easy":
		cfg.StartingMoney = 16000
		cfg.StartingFuelPct = 1.0
		cfg.WinMoney = 50000
	case "hard":
		cfg.StartingMoney = 6000
		cfg.StartingFuelPct = 0.5
		cfg.WinMoney = 150000
		cfg.SwingMax = 0.75
	}

	cfg.StartingMoney = envInt("KZRK_STARTING_MONEY", cfg.StartingMoney)
	cfg.StartingAirport = envStr("KZRK_STARTING_AIRPORT", cfg.StartingAirport)
	cfg.MaxFuel = envInt("KZRK_MAX_FUEL", cfg.MaxFuel)
	cfg.StartingFuelPct = envFloat("KZRK_STARTING_FUEL_PCT", cfg.StartingFuelPct)
	cfg.MaxCargoWeight = envInt("KZRK_MAX_CARGO_WEIGHT", cfg.MaxCargoWeight)
	cfg.FuelEfficiency = envFloat("KZRK_FUEL_EFFICIENCY", cfg.FuelEfficiency)
	cfg.WinMoney = envInt("KZRK_WIN_MONEY", cfg.WinMoney)

	cfg.MaxPlayers = envInt("KZRK_MAX_PLAYERS", cfg.MaxPlayers)
	cfg.GracePeriod = envDuration("KZRK_GRACE_PERIOD", cfg.GracePeriod)
	cfg.UnlimitedFuel = envBool("KZRK_UNLIMITED_FUEL", cfg.UnlimitedFuel)

	cfg.SwingMin = envFloat("KZRK_SWING_MIN", cfg.SwingMin)
	cfg.SwingMax = envFloat("KZRK_SWING_MAX", cfg.SwingMax)
	cfg.ClampK = envFloat("KZRK_CLAMP_K", cfg.ClampK)
	cfg.ImpactRate = envFloat("KZRK_IMPACT_RATE", cfg.ImpactRate)
	cfg.TradeSoftCap = envInt("KZRK_TRADE_SOFT_CAP", cfg.TradeSoftCap)
	cfg.EventChance = envFloat("KZRK_EVENT_CHANCE", cfg.EventChance)
	cfg.EventMultMin = envFloat("KZRK_EVENT_MULT_MIN", cfg.EventMultMin)
	cfg.EventMultMax = envFloat("KZRK_EVENT_MULT_MAX", cfg.EventMultMax)
	cfg.EventTurnsMin = envInt("KZRK_EVENT_TURNS_MIN", cfg.EventTurnsMin)
	cfg.EventTurnsMax = envInt("KZRK_EVENT_TURNS_MAX", cfg.EventTurnsMax)

	cfg.BoardMaxMessages = envInt("KZRK_BOARD_MAX_MESSAGES", cfg.BoardMaxMessages)
	cfg.BoardRemotePosts = envBool("KZRK_BOARD_REMOTE", cfg.BoardRemotePosts)
	cfg.BoardPostsPerMin = envFloat("KZRK_BOARD_POSTS_PER_MIN", cfg.BoardPostsPerMin)

	cfg.DBPath = envStr("KZRK_DB_PATH", cfg.DBPath)
	cfg.SessionSecret = envStr("KZRK_SESSION_SECRET", cfg.SessionSecret)
	cfg.CatalogPath = envStr("KZRK_CATALOG", cfg.CatalogPath)
	return cfg
}

// StartingFuel returns the initial tank level (a fraction of the max tank).
func (c Config) StartingFuel() int {
	f := int(float64(c.MaxFuel) * c.StartingFuelPct)
	if f > c.MaxFuel {
		f = c.MaxFuel
	}
	return f
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
