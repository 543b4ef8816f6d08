package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"papersim/internal/config"
	"papersim/internal/engine"
	"papersim/internal/strategy/builtins"
	"papersim/internal/util"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (default: built-in defaults)")
	ticks := flag.Int("ticks", 1000, "number of ticks to simulate")
	seed := flag.Int64("seed", 1, "price generator seed (0 = time-based)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.Simulation.Seed = *seed
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	strat, err := builtins.NewSMACross(cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow)
	if err != nil {
		log.Fatalf("building strategy: %v", err)
	}

	res, err := engine.Replay(cfg, strat, *ticks, logger)
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	fmt.Printf("replay: %d ticks, seed %d, %s %d/%d\n",
		res.Ticks, *seed, strat.Name(), cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow)
	fmt.Printf("  final equity:  %10.2f (return %+.2f%%)\n", res.FinalEquity, res.TotalReturn*100)
	fmt.Printf("  final cash:    %10.2f\n", res.FinalCash)
	fmt.Printf("  realized pnl:  %10.2f\n", res.RealizedPnL)
	fmt.Printf("  trades:        %d (win rate %.0f%%)\n", res.TotalTrades, res.WinRate*100)

	symbols := make([]string, 0, len(res.LastPrices))
	for sym := range res.LastPrices {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	fmt.Println("  last prices:")
	for _, sym := range symbols {
		fmt.Printf("    %-10s %10.2f\n", sym, res.LastPrices[sym])
	}
}
