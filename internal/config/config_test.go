package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papersim.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
	if len(cfg.Symbols) != 5 {
		t.Errorf("Default() has %d symbols, want 5", len(cfg.Symbols))
	}
	if cfg.Strategy.ShortWindow != 7 || cfg.Strategy.LongWindow != 21 {
		t.Errorf("default windows = %d/%d, want 7/21", cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow)
	}
	if cfg.Simulation.TickInterval.Std() != time.Second {
		t.Errorf("default tick interval = %s, want 1s", cfg.Simulation.TickInterval.Std())
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
symbols:
  - name: "AAA"
    seed_price: 50
  - name: "BBB"
    seed_price: 75
strategy:
  name: "sma-cross"
  short_window: 3
  long_window: 9
  history_limit: 40
  warmup_ticks: 0
simulation:
  tick_interval: 250ms
  seed: 42
  volatility: 0.01
  reversion: 0.002
portfolio:
  initial_cash: 5000
  risk_per_trade: 0.2
server:
  host: "0.0.0.0"
  port: 9191
logging:
  level: "debug"
  format: "text"
`)

	os.Unsetenv("PORT")
	os.Unsetenv("PAPERSIM_SEED")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if len(cfg.Symbols) != 2 {
		t.Fatalf("len(Symbols) = %d, want 2", len(cfg.Symbols))
	}
	if cfg.Symbols[1].Name != "BBB" || cfg.Symbols[1].SeedPrice != 75 {
		t.Errorf("Symbols[1] = %+v, want {BBB 75}", cfg.Symbols[1])
	}
	if cfg.Strategy.ShortWindow != 3 || cfg.Strategy.LongWindow != 9 {
		t.Errorf("windows = %d/%d, want 3/9", cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow)
	}
	if cfg.Simulation.TickInterval.Std() != 250*time.Millisecond {
		t.Errorf("TickInterval = %s, want 250ms", cfg.Simulation.TickInterval.Std())
	}
	if cfg.Simulation.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Simulation.Seed)
	}
	if cfg.Portfolio.InitialCash != 5000 {
		t.Errorf("InitialCash = %v, want 5000", cfg.Portfolio.InitialCash)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want debug/text", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() returned error: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 8080
storage:
  sqlite_path: "/original/journal.db"
`)

	os.Setenv("PORT", "3000")
	os.Setenv("SQLITE_PATH", "/env/journal.db")
	os.Setenv("PAPERSIM_SEED", "99")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("SQLITE_PATH")
	defer os.Unsetenv("PAPERSIM_SEED")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000 (env override)", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 when PORT is set", cfg.Server.Host)
	}
	if cfg.Storage.SQLitePath != "/env/journal.db" {
		t.Errorf("Storage.SQLitePath = %q, want env override", cfg.Storage.SQLitePath)
	}
	if cfg.Simulation.Seed != 99 {
		t.Errorf("Simulation.Seed = %d, want 99 (env override)", cfg.Simulation.Seed)
	}
}

func TestLoadOrDefault(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("PAPERSIM_SEED")

	// Missing path falls back to defaults.
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault on missing file: %v", err)
	}
	if len(cfg.Symbols) != 5 {
		t.Errorf("fallback config has %d symbols, want defaults (5)", len(cfg.Symbols))
	}

	// Existing path is loaded.
	path := writeConfig(t, "server:\n  port: 7171\n")
	cfg, err = LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault on existing file: %v", err)
	}
	if cfg.Server.Port != 7171 {
		t.Errorf("Server.Port = %d, want 7171 from file", cfg.Server.Port)
	}

	// Env overrides still apply in the fallback path.
	os.Setenv("PAPERSIM_SEED", "311")
	defer os.Unsetenv("PAPERSIM_SEED")
	cfg, err = LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault(\"\"): %v", err)
	}
	if cfg.Simulation.Seed != 311 {
		t.Errorf("Simulation.Seed = %d, want 311 (env override)", cfg.Simulation.Seed)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no symbols", func(c *Config) { c.Symbols = nil }, "at least one symbol"},
		{"bad seed price", func(c *Config) { c.Symbols[0].SeedPrice = 0 }, "seed_price"},
		{"duplicate symbol", func(c *Config) { c.Symbols[1].Name = c.Symbols[0].Name }, "duplicate"},
		{"zero short window", func(c *Config) { c.Strategy.ShortWindow = 0 }, "windows must be positive"},
		{"short >= long", func(c *Config) { c.Strategy.ShortWindow = 21 }, "less than long_window"},
		{"history too small", func(c *Config) { c.Strategy.HistoryLimit = 5 }, "history_limit"},
		{"zero tick interval", func(c *Config) { c.Simulation.TickInterval = 0 }, "tick_interval"},
		{"bad volatility", func(c *Config) { c.Simulation.Volatility = 0.9 }, "volatility"},
		{"negative cash", func(c *Config) { c.Portfolio.InitialCash = -1 }, "initial_cash"},
		{"no sizing", func(c *Config) { c.Portfolio.TradeQty = 0; c.Portfolio.RiskPerTrade = 0 }, "risk_per_trade"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Validate() error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestSymbolNamesOrder(t *testing.T) {
	cfg := Default()
	names := cfg.SymbolNames()
	want := []string{"SHINCHAN", "KAZAMA", "MASAO", "BOCHAN", "NENE"}
	if len(names) != len(want) {
		t.Fatalf("SymbolNames() len = %d, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("SymbolNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
