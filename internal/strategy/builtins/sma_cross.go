// Package builtins provides built-in strategy implementations that ship with
// the simulator.
package builtins

import (
	"context"
	"fmt"

	"papersim/internal/domain"
	"papersim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross implements a simple moving average crossover strategy. It emits a
// buy signal on the tick where the short-period SMA first rises above the
// long-period SMA (golden cross) and a sell signal where it first falls below
// (death cross). Signals are edge-triggered: while an ordering persists, no
// further signals fire.
type SMACross struct {
	shortPeriod int
	longPeriod  int

	// shortAboveLong records the previous tick's SMA ordering per symbol. A
	// symbol is absent until longPeriod points of history exist.
	shortAboveLong map[string]bool
}

// NewSMACross creates a new SMACross strategy with the specified short and
// long moving average periods. Requires 0 < short < long.
func NewSMACross(short, long int) (*SMACross, error) {
	if short <= 0 || long <= 0 {
		return nil, fmt.Errorf("sma periods must be positive, got short=%d long=%d", short, long)
	}
	if short >= long {
		return nil, fmt.Errorf("short period (%d) must be less than long period (%d)", short, long)
	}
	return &SMACross{
		shortPeriod:    short,
		longPeriod:     long,
		shortAboveLong: make(map[string]bool),
	}, nil
}

// Name returns "sma-cross".
func (s *SMACross) Name() string {
	return "sma-cross"
}

// Init performs any setup required by the SMA crossover strategy.
func (s *SMACross) Init(_ context.Context) error {
	return nil
}

// OnPrice evaluates the crossover for the new point's symbol.
func (s *SMACross) OnPrice(_ context.Context, point domain.PricePoint, history []domain.PricePoint) (domain.Signal, error) {
	if len(history) < s.longPeriod {
		// Not enough data to establish an ordering yet. Leave the per-symbol
		// state unset so the first complete evaluation can still fire.
		delete(s.shortAboveLong, point.Symbol)
		return domain.SignalHold, nil
	}

	shortSMA := sma(history, s.shortPeriod)
	longSMA := sma(history, s.longPeriod)

	prev, known := s.shortAboveLong[point.Symbol]
	s.shortAboveLong[point.Symbol] = shortSMA > longSMA

	switch {
	case shortSMA == longSMA:
		return domain.SignalHold, nil
	case shortSMA > longSMA && (!known || !prev):
		return domain.SignalBuy, nil
	case shortSMA < longSMA && known && prev:
		return domain.SignalSell, nil
	default:
		return domain.SignalHold, nil
	}
}

// Reset clears all per-symbol crossover state.
func (s *SMACross) Reset() {
	s.shortAboveLong = make(map[string]bool)
}

// sma returns the unweighted arithmetic mean of the last n prices. The caller
// guarantees len(history) >= n.
func sma(history []domain.PricePoint, n int) float64 {
	sum := 0.0
	for _, p := range history[len(history)-n:] {
		sum += p.Price
	}
	return sum / float64(n)
}
