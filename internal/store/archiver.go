package store

import (
	"context"
	"log/slog"

	"papersim/internal/domain"
	"papersim/internal/live"
)

// defaultFlushEvery is how many buffered points trigger a Parquet flush.
// Rewriting the per-symbol files every tick would thrash the disk.
const defaultFlushEvery = 256

// Archiver consumes engine events and appends generated prices to a Parquet
// archive. Points are buffered in memory and flushed in batches; Run flushes
// whatever remains when the context is cancelled.
type Archiver struct {
	prices     PriceStore
	flushEvery int
	buf        []domain.PricePoint
	log        *slog.Logger
}

// NewArchiver builds an archiver writing to the given price store.
// flushEvery <= 0 selects the default batch size.
func NewArchiver(prices PriceStore, flushEvery int, log *slog.Logger) *Archiver {
	if flushEvery <= 0 {
		flushEvery = defaultFlushEvery
	}
	return &Archiver{prices: prices, flushEvery: flushEvery, log: log}
}

// Run consumes events until ctx is cancelled or the channel closes, then
// flushes the remaining buffer.
func (a *Archiver) Run(ctx context.Context, events <-chan live.Event) error {
	for {
		select {
		case <-ctx.Done():
			// ctx is done; flush with a fresh context so shutdown still
			// reaches disk.
			return a.Flush(context.Background())
		case evt, ok := <-events:
			if !ok {
				return a.Flush(context.Background())
			}
			a.buf = append(a.buf, evt.NewPoints...)
			if len(a.buf) >= a.flushEvery {
				if err := a.Flush(ctx); err != nil {
					a.log.Warn("archiver: flush failed", "buffered", len(a.buf), "error", err)
				}
			}
		}
	}
}

// Flush writes all buffered points to the store. The buffer is kept on
// failure so a later flush can retry.
func (a *Archiver) Flush(ctx context.Context) error {
	if len(a.buf) == 0 {
		return nil
	}
	if err := a.prices.WritePoints(ctx, a.buf); err != nil {
		return err
	}
	a.buf = a.buf[:0]
	return nil
}
