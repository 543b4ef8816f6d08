package store

import (
	"context"
	"log/slog"
	"time"

	"papersim/internal/live"
	"papersim/internal/util"
)

// Journal consumes engine events and records executions and signals. It runs
// on its own goroutine behind a buffered subscription, so a slow or failing
// database never stalls the tick loop. A failed write is retried a few times
// and then dropped with a warning; the journal is an audit trail, not the
// source of truth.
type Journal struct {
	execs ExecutionStore
	sigs  SignalStore
	log   *slog.Logger
}

// NewJournal builds a journal writing to the given stores.
func NewJournal(execs ExecutionStore, sigs SignalStore, log *slog.Logger) *Journal {
	return &Journal{execs: execs, sigs: sigs, log: log}
}

// Run consumes events until ctx is cancelled or the channel closes.
func (j *Journal) Run(ctx context.Context, events <-chan live.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			j.record(ctx, evt)
		}
	}
}

func (j *Journal) record(ctx context.Context, evt live.Event) {
	if len(evt.NewExecutions) > 0 {
		err := util.Retry(ctx, 3, 50*time.Millisecond, func() error {
			return j.execs.SaveExecutions(ctx, evt.NewExecutions)
		})
		if err != nil {
			j.log.Warn("journal: dropping executions", "count", len(evt.NewExecutions), "error", err)
		}
	}
	if len(evt.NewSignals) > 0 {
		err := util.Retry(ctx, 3, 50*time.Millisecond, func() error {
			return j.sigs.SaveSignals(ctx, evt.NewSignals)
		})
		if err != nil {
			j.log.Warn("journal: dropping signals", "count", len(evt.NewSignals), "error", err)
		}
	}
}
