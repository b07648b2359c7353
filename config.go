package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// MatchConfig holds settings for a match
type MatchConfig struct {
	Columns          int
	Rows             int
	CellSide         float64 // world units per cell
	VisibilityRadius int     // cells
	MaxPlayers       int
	TickInterval     time.Duration
	Terrain          TerrainConfig
	Seed             int64 // 0 picks a fresh seed per match
	// CheckInvariants verifies occupancy bookkeeping after every tick
	CheckInvariants bool
}

// DefaultConfig returns the settings used for regular matches
func DefaultConfig() MatchConfig {
	return MatchConfig{
		Columns:          20,
		Rows:             20,
		CellSide:         20,
		VisibilityRadius: VisibilityRadius,
		MaxPlayers:       4,
		TickInterval:     time.Second,
		Terrain:          DefaultTerrain(),
	}
}

// Validate rejects configurations a match cannot run with
func (c MatchConfig) Validate() error {
	switch {
	case c.Columns <= 0 || c.Rows <= 0:
		return fmt.Errorf("grid must have at least one cell, got %dx%d", c.Columns, c.Rows)
	case c.CellSide <= 0:
		return fmt.Errorf("cell side must be positive, got %v", c.CellSide)
	case c.VisibilityRadius < 0:
		return fmt.Errorf("visibility radius must not be negative, got %d", c.VisibilityRadius)
	case c.MaxPlayers <= 0:
		return fmt.Errorf("max players must be positive, got %d", c.MaxPlayers)
	case c.TickInterval <= 0:
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	return nil
}

// Config is the process configuration. Every flag can also be set through
// the environment variable named in its usage; flags win.
type Config struct {
	Addr       string
	DBPath     string
	ClientDir  string // static client files, empty disables
	PublicURL  string // base of invite links, empty uses the request host
	MaxMatches int
	DumpSchema bool
	Match      MatchConfig
}

// LoadConfig parses args on top of environment defaults
func LoadConfig(args []string) (Config, error) {
	cfg := Config{Match: DefaultConfig()}

	fs := flag.NewFlagSet("strategy-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", envString("STRATEGY_ADDR", ":8080"), "HTTP listen address (STRATEGY_ADDR)")
	fs.StringVar(&cfg.DBPath, "db", envString("STRATEGY_DB", "strategy.db"), "SQLite account database (STRATEGY_DB)")
	fs.StringVar(&cfg.ClientDir, "client", envString("STRATEGY_CLIENT", ""), "static client directory (STRATEGY_CLIENT)")
	fs.StringVar(&cfg.PublicURL, "public-url", envString("STRATEGY_PUBLIC_URL", ""), "base URL used in invite links (STRATEGY_PUBLIC_URL)")
	fs.IntVar(&cfg.MaxMatches, "max-matches", envInt("STRATEGY_MAX_MATCHES", 100), "concurrent match limit (STRATEGY_MAX_MATCHES)")
	fs.IntVar(&cfg.Match.MaxPlayers, "max-players", envInt("STRATEGY_MAX_PLAYERS", cfg.Match.MaxPlayers), "players per match (STRATEGY_MAX_PLAYERS)")
	fs.IntVar(&cfg.Match.Columns, "columns", envInt("STRATEGY_COLUMNS", cfg.Match.Columns), "map columns (STRATEGY_COLUMNS)")
	fs.IntVar(&cfg.Match.Rows, "rows", envInt("STRATEGY_ROWS", cfg.Match.Rows), "map rows (STRATEGY_ROWS)")
	fs.Int64Var(&cfg.Match.Seed, "seed", int64(envInt("STRATEGY_SEED", 0)), "terrain seed, 0 for random (STRATEGY_SEED)")
	fs.DurationVar(&cfg.Match.TickInterval, "tick", envDuration("STRATEGY_TICK", cfg.Match.TickInterval), "movement tick interval (STRATEGY_TICK)")
	fs.BoolVar(&cfg.Match.CheckInvariants, "check-invariants", envBool("STRATEGY_CHECK_INVARIANTS", false), "verify occupancy after every tick (STRATEGY_CHECK_INVARIANTS)")
	fs.BoolVar(&cfg.DumpSchema, "dump-schema", false, "print the client protocol JSON Schema and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.MaxMatches <= 0 {
		return Config{}, fmt.Errorf("max matches must be positive, got %d", cfg.MaxMatches)
	}
	if err := cfg.Match.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		Log.Warnf("ignoring %s=%q: not an integer", key, v)
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		Log.Warnf("ignoring %s=%q: not a boolean", key, v)
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		Log.Warnf("ignoring %s=%q: not a duration", key, v)
	}
	return def
}
