// Package domain defines the core types shared across the paper trading
// simulator: price points, signals, executions, positions, and snapshots.
package domain

import "time"

// Signal is the discrete output of a strategy evaluation.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// OrderSide identifies the direction of an executed paper trade.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// ExecutionOutcome classifies the result of applying a signal to the
// portfolio. Rejections are expected admission-control outcomes, not errors.
type ExecutionOutcome string

const (
	// OutcomeFilled means a simulated order was executed and state changed.
	OutcomeFilled ExecutionOutcome = "filled"

	// OutcomeRejected means the order could not be admitted (insufficient
	// cash, no position to sell). State is unchanged.
	OutcomeRejected ExecutionOutcome = "rejected"

	// OutcomeHold means the signal required no action.
	OutcomeHold ExecutionOutcome = "hold"
)

// EngineStatus is the lifecycle state of the simulation loop.
type EngineStatus string

const (
	StatusRunning EngineStatus = "running"
	StatusStopped EngineStatus = "stopped"
)

// PricePoint is a single simulated price observation. Tick is a monotonic
// per-process index with no gaps; points are never mutated after creation.
type PricePoint struct {
	Symbol string    `json:"symbol"`
	Tick   int64     `json:"tick"`
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
}

// Execution records a filled paper trade.
type Execution struct {
	ID          string    `json:"id"`
	Tick        int64     `json:"tick"`
	Time        time.Time `json:"time"`
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Qty         float64   `json:"qty"`
	Price       float64   `json:"price"`
	RealizedPnL float64   `json:"realized_pnl"`
	Reason      string    `json:"reason"`
}

// ExecutionResult is the outcome of one portfolio execution step. Execution
// is non-nil only when Outcome is OutcomeFilled.
type ExecutionResult struct {
	Outcome   ExecutionOutcome `json:"outcome"`
	Execution *Execution       `json:"execution,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

// SignalEvent records a signal emitted for a symbol at a tick.
type SignalEvent struct {
	Tick   int64     `json:"tick"`
	Time   time.Time `json:"time"`
	Symbol string    `json:"symbol"`
	Signal Signal    `json:"signal"`
}

// Position holds the simulated long-only position for one symbol.
type Position struct {
	Symbol        string  `json:"symbol"`
	Qty           float64 `json:"qty"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
}

// MarketValue returns the position's value at the given price.
func (p Position) MarketValue(lastPrice float64) float64 {
	return p.Qty * lastPrice
}

// UnrealizedPnL returns the open profit or loss at the given price.
func (p Position) UnrealizedPnL(lastPrice float64) float64 {
	return (lastPrice - p.AvgEntryPrice) * p.Qty
}

// EquityPoint is one sample of the portfolio equity curve.
type EquityPoint struct {
	Tick   int64     `json:"tick"`
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// Params echoes the simulation parameters in published snapshots.
type Params struct {
	ShortWindow  int     `json:"short_window"`
	LongWindow   int     `json:"long_window"`
	TickSeconds  float64 `json:"tick_seconds"`
	RiskPerTrade float64 `json:"risk_per_trade"`
	TradeQty     float64 `json:"trade_qty"`
}

// Snapshot is a deep, immutable copy of the simulation state published after
// each tick. Consumers may read it concurrently; the engine never mutates a
// published snapshot.
type Snapshot struct {
	Tick          int64                 `json:"tick"`
	Time          time.Time             `json:"time"`
	Status        EngineStatus          `json:"status"`
	Cash          float64               `json:"cash"`
	Equity        float64               `json:"equity"`
	RealizedPnL   float64               `json:"realized_pnl"`
	UnrealizedPnL float64               `json:"unrealized_pnl"`
	Prices        map[string]float64    `json:"prices"`
	Positions     map[string]Position   `json:"positions"`
	LastSignals   map[string]Signal     `json:"last_signals"`
	History       map[string][]float64  `json:"history"`
	Trades        []Execution           `json:"trades"`
	Logs          []string              `json:"logs"`
	EquityCurve   []EquityPoint         `json:"equity_curve"`
	Params        Params                `json:"params"`
}

// Clone returns a deep copy of the snapshot, safe to hand to another
// goroutine.
func (s Snapshot) Clone() Snapshot {
	out := s

	out.Prices = make(map[string]float64, len(s.Prices))
	for k, v := range s.Prices {
		out.Prices[k] = v
	}
	out.Positions = make(map[string]Position, len(s.Positions))
	for k, v := range s.Positions {
		out.Positions[k] = v
	}
	out.LastSignals = make(map[string]Signal, len(s.LastSignals))
	for k, v := range s.LastSignals {
		out.LastSignals[k] = v
	}
	out.History = make(map[string][]float64, len(s.History))
	for k, v := range s.History {
		out.History[k] = append([]float64(nil), v...)
	}
	out.Trades = append([]Execution(nil), s.Trades...)
	out.Logs = append([]string(nil), s.Logs...)
	out.EquityCurve = append([]EquityPoint(nil), s.EquityCurve...)

	return out
}
