// Package portfolio implements the simulated paper account: cash, long-only
// positions, and order execution against generated prices. No real capital or
// market interaction is involved.
package portfolio

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"papersim/internal/domain"
)

// Portfolio tracks simulated cash and per-symbol positions. It is owned by
// the tick loop; all mutation happens through Execute during a tick.
type Portfolio struct {
	initialCash float64
	cash        float64
	positions   map[string]*domain.Position
	realized    float64
}

// New creates a Portfolio with the given starting cash and a flat position
// for every symbol.
func New(initialCash float64, symbols []string) (*Portfolio, error) {
	if initialCash < 0 {
		return nil, fmt.Errorf("initial cash must not be negative, got %v", initialCash)
	}
	p := &Portfolio{
		initialCash: initialCash,
		cash:        initialCash,
		positions:   make(map[string]*domain.Position, len(symbols)),
	}
	for _, sym := range symbols {
		p.positions[sym] = &domain.Position{Symbol: sym}
	}
	return p, nil
}

// Execute applies a strategy signal as a simulated order at the given price.
// Insufficient cash and selling with no position are expected admission
// outcomes reported as rejections, never errors. For buys, qty is the
// quantity to purchase; sells always close the full held quantity.
func (p *Portfolio) Execute(tick int64, now time.Time, symbol string, sig domain.Signal, price, qty float64, reason string) domain.ExecutionResult {
	switch sig {
	case domain.SignalHold:
		return domain.ExecutionResult{Outcome: domain.OutcomeHold}
	case domain.SignalBuy:
		return p.buy(tick, now, symbol, price, qty, reason)
	case domain.SignalSell:
		return p.sell(tick, now, symbol, price, reason)
	default:
		return domain.ExecutionResult{
			Outcome: domain.OutcomeRejected,
			Reason:  fmt.Sprintf("unknown signal %q", sig),
		}
	}
}

func (p *Portfolio) buy(tick int64, now time.Time, symbol string, price, qty float64, reason string) domain.ExecutionResult {
	if price <= 0 {
		return domain.ExecutionResult{Outcome: domain.OutcomeRejected, Reason: "non-positive price"}
	}
	if qty <= 0 {
		return domain.ExecutionResult{Outcome: domain.OutcomeRejected, Reason: "zero quantity"}
	}

	cost := qty * price
	if cost > p.cash {
		return domain.ExecutionResult{
			Outcome: domain.OutcomeRejected,
			Reason:  fmt.Sprintf("insufficient cash: need %.2f, have %.2f", cost, p.cash),
		}
	}

	pos := p.position(symbol)
	newQty := pos.Qty + qty
	if pos.Qty > 0 {
		pos.AvgEntryPrice = (pos.AvgEntryPrice*pos.Qty + price*qty) / newQty
	} else {
		pos.AvgEntryPrice = price
	}
	pos.Qty = newQty
	p.cash -= cost

	return domain.ExecutionResult{
		Outcome: domain.OutcomeFilled,
		Execution: &domain.Execution{
			ID:     uuid.NewString(),
			Tick:   tick,
			Time:   now,
			Symbol: symbol,
			Side:   domain.OrderSideBuy,
			Qty:    qty,
			Price:  price,
			Reason: reason,
		},
	}
}

func (p *Portfolio) sell(tick int64, now time.Time, symbol string, price float64, reason string) domain.ExecutionResult {
	if price <= 0 {
		return domain.ExecutionResult{Outcome: domain.OutcomeRejected, Reason: "non-positive price"}
	}

	pos := p.position(symbol)
	if pos.Qty <= 0 {
		return domain.ExecutionResult{Outcome: domain.OutcomeRejected, Reason: "no position to sell"}
	}

	qty := pos.Qty
	proceeds := qty * price
	pnl := (price - pos.AvgEntryPrice) * qty

	p.cash += proceeds
	p.realized += pnl
	pos.Qty = 0
	pos.AvgEntryPrice = 0

	return domain.ExecutionResult{
		Outcome: domain.OutcomeFilled,
		Execution: &domain.Execution{
			ID:          uuid.NewString(),
			Tick:        tick,
			Time:        now,
			Symbol:      symbol,
			Side:        domain.OrderSideSell,
			Qty:         qty,
			Price:       price,
			RealizedPnL: pnl,
			Reason:      reason,
		},
	}
}

func (p *Portfolio) position(symbol string) *domain.Position {
	pos, ok := p.positions[symbol]
	if !ok {
		pos = &domain.Position{Symbol: symbol}
		p.positions[symbol] = pos
	}
	return pos
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	return p.cash
}

// RealizedPnL returns the cumulative realized profit and loss.
func (p *Portfolio) RealizedPnL() float64 {
	return p.realized
}

// Position returns a copy of the position for a symbol.
func (p *Portfolio) Position(symbol string) domain.Position {
	if pos, ok := p.positions[symbol]; ok {
		return *pos
	}
	return domain.Position{Symbol: symbol}
}

// Positions returns copies of all positions keyed by symbol.
func (p *Portfolio) Positions() map[string]domain.Position {
	out := make(map[string]domain.Position, len(p.positions))
	for sym, pos := range p.positions {
		out[sym] = *pos
	}
	return out
}

// Equity returns cash plus the market value of all positions at the given
// prices.
func (p *Portfolio) Equity(prices map[string]float64) float64 {
	total := p.cash
	for sym, pos := range p.positions {
		total += pos.MarketValue(prices[sym])
	}
	return total
}

// UnrealizedPnL returns the open profit and loss of all positions at the
// given prices. It is recomputed from positions each call, never stored.
func (p *Portfolio) UnrealizedPnL(prices map[string]float64) float64 {
	total := 0.0
	for sym, pos := range p.positions {
		if pos.Qty > 0 {
			total += pos.UnrealizedPnL(prices[sym])
		}
	}
	return total
}

// Reset restores the portfolio to its starting state: initial cash, flat
// positions, zero realized P&L.
func (p *Portfolio) Reset() {
	p.cash = p.initialCash
	p.realized = 0
	for sym := range p.positions {
		p.positions[sym] = &domain.Position{Symbol: sym}
	}
}
