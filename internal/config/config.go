// Package config loads and validates the simulator configuration from YAML
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the paper trading simulator.
type Config struct {
	Symbols    []SymbolConfig   `yaml:"symbols"`
	Strategy   StrategyConfig   `yaml:"strategy"`
	Simulation SimulationConfig `yaml:"simulation"`
	Portfolio  PortfolioConfig  `yaml:"portfolio"`
	Server     Server           `yaml:"server"`
	Logging    Logging          `yaml:"logging"`
	Storage    Storage          `yaml:"storage"`
}

// SymbolConfig declares one tracked instrument and its seed price.
type SymbolConfig struct {
	Name      string  `yaml:"name"`
	SeedPrice float64 `yaml:"seed_price"`
}

// StrategyConfig selects and parameterises the trading strategy.
type StrategyConfig struct {
	Name         string `yaml:"name"`
	ShortWindow  int    `yaml:"short_window"`
	LongWindow   int    `yaml:"long_window"`
	HistoryLimit int    `yaml:"history_limit"`
	WarmupTicks  int    `yaml:"warmup_ticks"`
}

// SimulationConfig controls the price generator and tick clock.
type SimulationConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
	// Seed for the price generator random streams. 0 means time-based.
	Seed       int64   `yaml:"seed"`
	Volatility float64 `yaml:"volatility"`
	Reversion  float64 `yaml:"reversion"`
}

// PortfolioConfig defines the paper account and trade sizing.
type PortfolioConfig struct {
	InitialCash float64 `yaml:"initial_cash"`
	// TradeQty sizes buys as a fixed quantity. 0 means size from
	// RiskPerTrade instead.
	TradeQty     float64 `yaml:"trade_qty"`
	RiskPerTrade float64 `yaml:"risk_per_trade"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Storage holds paths for observational persistence. Either may be empty to
// disable the corresponding store; simulated state itself is never persisted.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Duration wraps time.Duration for YAML decoding of values like "1s".
type Duration time.Duration

// UnmarshalYAML parses a duration string such as "500ms" or "2s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ---------------------------------------------------------------------------
// Defaults and loading
// ---------------------------------------------------------------------------

// Default returns the built-in configuration: five instruments seeded at
// 100..140, a 7/21 SMA crossover, 1s ticks, and a 10,000 cash account.
func Default() *Config {
	return &Config{
		Symbols: []SymbolConfig{
			{Name: "SHINCHAN", SeedPrice: 100},
			{Name: "KAZAMA", SeedPrice: 110},
			{Name: "MASAO", SeedPrice: 120},
			{Name: "BOCHAN", SeedPrice: 130},
			{Name: "NENE", SeedPrice: 140},
		},
		Strategy: StrategyConfig{
			Name:         "sma-cross",
			ShortWindow:  7,
			LongWindow:   21,
			HistoryLimit: 200,
			WarmupTicks:  80,
		},
		Simulation: SimulationConfig{
			TickInterval: Duration(time.Second),
			Volatility:   0.008,
			Reversion:    0.003,
		},
		Portfolio: PortfolioConfig{
			InitialCash:  10_000,
			RiskPerTrade: 0.12,
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML configuration file at the given path over the defaults,
// then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadOrDefault loads the file at path when it exists and falls back to the
// built-in defaults when path is empty or missing. Environment overrides
// apply in both cases.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	cfg := Default()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAPERSIM_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
			// A platform-assigned port implies an external listener.
			cfg.Server.Host = "0.0.0.0"
		}
	}
	if v := os.Getenv("PAPERSIM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = seed
		}
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the configuration for fatal startup errors. A Config that
// fails validation must not be used to start the simulation.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	seen := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		if s.Name == "" {
			return fmt.Errorf("symbol name must not be empty")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate symbol %q", s.Name)
		}
		seen[s.Name] = true
		if s.SeedPrice <= 0 {
			return fmt.Errorf("symbol %s: seed_price must be positive, got %v", s.Name, s.SeedPrice)
		}
	}

	st := c.Strategy
	if st.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if st.ShortWindow <= 0 || st.LongWindow <= 0 {
		return fmt.Errorf("strategy windows must be positive, got short=%d long=%d", st.ShortWindow, st.LongWindow)
	}
	if st.ShortWindow >= st.LongWindow {
		return fmt.Errorf("strategy.short_window (%d) must be less than long_window (%d)", st.ShortWindow, st.LongWindow)
	}
	if st.HistoryLimit < st.LongWindow {
		return fmt.Errorf("strategy.history_limit (%d) must be at least long_window (%d)", st.HistoryLimit, st.LongWindow)
	}
	if st.WarmupTicks < 0 {
		return fmt.Errorf("strategy.warmup_ticks must not be negative, got %d", st.WarmupTicks)
	}

	sim := c.Simulation
	if sim.TickInterval.Std() <= 0 {
		return fmt.Errorf("simulation.tick_interval must be positive, got %s", sim.TickInterval.Std())
	}
	if sim.Volatility <= 0 || sim.Volatility >= 0.5 {
		return fmt.Errorf("simulation.volatility must be in (0, 0.5), got %v", sim.Volatility)
	}
	if sim.Reversion < 0 || sim.Reversion >= 1 {
		return fmt.Errorf("simulation.reversion must be in [0, 1), got %v", sim.Reversion)
	}

	pf := c.Portfolio
	if pf.InitialCash < 0 {
		return fmt.Errorf("portfolio.initial_cash must not be negative, got %v", pf.InitialCash)
	}
	if pf.TradeQty < 0 {
		return fmt.Errorf("portfolio.trade_qty must not be negative, got %v", pf.TradeQty)
	}
	if pf.TradeQty == 0 && (pf.RiskPerTrade <= 0 || pf.RiskPerTrade > 1) {
		return fmt.Errorf("portfolio.risk_per_trade must be in (0, 1] when trade_qty is unset, got %v", pf.RiskPerTrade)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	return nil
}

// SymbolNames returns the configured symbol names in declaration order. The
// tick loop processes symbols in exactly this order.
func (c *Config) SymbolNames() []string {
	names := make([]string, len(c.Symbols))
	for i, s := range c.Symbols {
		names[i] = s.Name
	}
	return names
}
