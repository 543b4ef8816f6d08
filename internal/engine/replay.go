package engine

import (
	"fmt"
	"log/slog"

	"papersim/internal/config"
	"papersim/internal/domain"
	"papersim/internal/live"
	"papersim/internal/strategy"
)

// ReplayResult holds the summary metrics produced by an offline replay run.
type ReplayResult struct {
	Ticks       int
	FinalCash   float64
	FinalEquity float64
	TotalReturn float64
	RealizedPnL float64
	TotalTrades int
	WinRate     float64
	LastPrices  map[string]float64
}

// Replay runs the simulation synchronously for n ticks with no wall-clock
// pacing and returns summary metrics. With a fixed cfg.Simulation.Seed the
// run is fully deterministic: two replays of the same configuration produce
// identical results.
func Replay(cfg *config.Config, strat strategy.Strategy, n int, log *slog.Logger) (*ReplayResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("tick count must be positive, got %d", n)
	}

	pub := live.NewPublisher()
	e, err := New(cfg, strat, pub, log)
	if err != nil {
		return nil, err
	}

	// One event per tick, plus room for control publishes.
	subID, events := pub.Subscribe(n + 4)
	defer pub.Unsubscribe(subID)

	var snap domain.Snapshot
	for i := 0; i < n; i++ {
		snap = e.Step()
	}

	trades := 0
	wins := 0
	sells := 0
drain:
	for {
		select {
		case evt := <-events:
			for _, ex := range evt.NewExecutions {
				trades++
				if ex.Side == domain.OrderSideSell {
					sells++
					if ex.RealizedPnL > 0 {
						wins++
					}
				}
			}
		default:
			break drain
		}
	}

	res := &ReplayResult{
		Ticks:       n,
		FinalCash:   snap.Cash,
		FinalEquity: snap.Equity,
		RealizedPnL: snap.RealizedPnL,
		TotalTrades: trades,
		LastPrices:  snap.Prices,
	}
	if cfg.Portfolio.InitialCash > 0 {
		res.TotalReturn = (snap.Equity - cfg.Portfolio.InitialCash) / cfg.Portfolio.InitialCash
	}
	if sells > 0 {
		res.WinRate = float64(wins) / float64(sells)
	}
	return res, nil
}
