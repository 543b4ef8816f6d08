// Package store persists the simulation's observable outputs: a SQLite
// journal of executions and signals, and a Parquet archive of generated
// prices. Storage is strictly downstream of the engine; nothing in this
// package feeds back into the tick loop.
package store

import (
	"context"

	"papersim/internal/domain"
)

// ExecutionStore persists and retrieves filled paper trades.
type ExecutionStore interface {
	// SaveExecutions persists a batch of executions.
	SaveExecutions(ctx context.Context, execs []domain.Execution) error

	// ListExecutions returns the most recent executions for a symbol, newest
	// first, up to limit. An empty symbol matches all symbols.
	ListExecutions(ctx context.Context, symbol string, limit int) ([]domain.Execution, error)
}

// SignalStore persists and retrieves emitted strategy signals.
type SignalStore interface {
	// SaveSignals persists a batch of signal events.
	SaveSignals(ctx context.Context, sigs []domain.SignalEvent) error

	// ListSignals returns the most recent signals for a symbol, newest first,
	// up to limit. An empty symbol matches all symbols.
	ListSignals(ctx context.Context, symbol string, limit int) ([]domain.SignalEvent, error)
}

// PriceStore persists and retrieves simulated price points.
type PriceStore interface {
	// WritePoints persists a batch of price points.
	WritePoints(ctx context.Context, points []domain.PricePoint) error

	// ReadPoints returns all archived points for a symbol ordered by tick.
	ReadPoints(ctx context.Context, symbol string) ([]domain.PricePoint, error)

	// ListSymbols returns all symbols with archived price data.
	ListSymbols(ctx context.Context) ([]string, error)
}
