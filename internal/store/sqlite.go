package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"papersim/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ ExecutionStore = (*SQLiteStore)(nil)
var _ SignalStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id           TEXT PRIMARY KEY,
	tick         INTEGER NOT NULL,
	ts           INTEGER NOT NULL,
	symbol       TEXT NOT NULL,
	side         TEXT NOT NULL,
	qty          REAL NOT NULL,
	price        REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	reason       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executions_symbol_tick ON executions(symbol, tick);

CREATE TABLE IF NOT EXISTS signals (
	tick   INTEGER NOT NULL,
	ts     INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	signal TEXT NOT NULL,
	PRIMARY KEY (tick, symbol)
);
`

// SQLiteStore implements ExecutionStore and SignalStore backed by a SQLite
// database. A single engine writes; readers are the HTTP API and tooling.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", dbPath, err)
	}
	// SQLite serialises writers; a single connection avoids lock contention.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveExecutions inserts a batch of executions in one transaction. Replaying
// an already-journaled execution is a no-op.
func (s *SQLiteStore) SaveExecutions(ctx context.Context, execs []domain.Execution) error {
	if len(execs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO executions (id, tick, ts, symbol, side, qty, price, realized_pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ex := range execs {
		if _, err := stmt.ExecContext(ctx,
			ex.ID, ex.Tick, ex.Time.UnixMilli(), ex.Symbol, string(ex.Side),
			ex.Qty, ex.Price, ex.RealizedPnL, ex.Reason,
		); err != nil {
			return fmt.Errorf("inserting execution %s: %w", ex.ID, err)
		}
	}
	return tx.Commit()
}

// ListExecutions returns the most recent executions, newest first.
func (s *SQLiteStore) ListExecutions(ctx context.Context, symbol string, limit int) ([]domain.Execution, error) {
	query := `
		SELECT id, tick, ts, symbol, side, qty, price, realized_pnl, reason
		FROM executions`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY tick DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []domain.Execution
	for rows.Next() {
		var ex domain.Execution
		var ts int64
		var side string
		if err := rows.Scan(&ex.ID, &ex.Tick, &ts, &ex.Symbol, &side,
			&ex.Qty, &ex.Price, &ex.RealizedPnL, &ex.Reason); err != nil {
			return nil, err
		}
		ex.Time = time.UnixMilli(ts).UTC()
		ex.Side = domain.OrderSide(side)
		execs = append(execs, ex)
	}
	return execs, rows.Err()
}

// SaveSignals inserts a batch of signal events in one transaction.
func (s *SQLiteStore) SaveSignals(ctx context.Context, sigs []domain.SignalEvent) error {
	if len(sigs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO signals (tick, ts, symbol, signal)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sig := range sigs {
		if _, err := stmt.ExecContext(ctx,
			sig.Tick, sig.Time.UnixMilli(), sig.Symbol, string(sig.Signal),
		); err != nil {
			return fmt.Errorf("inserting signal %s@%d: %w", sig.Symbol, sig.Tick, err)
		}
	}
	return tx.Commit()
}

// ListSignals returns the most recent signals, newest first.
func (s *SQLiteStore) ListSignals(ctx context.Context, symbol string, limit int) ([]domain.SignalEvent, error) {
	query := `SELECT tick, ts, symbol, signal FROM signals`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY tick DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sigs []domain.SignalEvent
	for rows.Next() {
		var sig domain.SignalEvent
		var ts int64
		var raw string
		if err := rows.Scan(&sig.Tick, &ts, &sig.Symbol, &raw); err != nil {
			return nil, err
		}
		sig.Time = time.UnixMilli(ts).UTC()
		sig.Signal = domain.Signal(raw)
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}
