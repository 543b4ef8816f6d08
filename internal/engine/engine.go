// Package engine drives the simulation: each tick it generates prices,
// appends history, evaluates the strategy, and executes the resulting orders
// against the paper portfolio, then publishes an immutable snapshot.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"papersim/internal/config"
	"papersim/internal/domain"
	"papersim/internal/live"
	"papersim/internal/market"
	"papersim/internal/portfolio"
	"papersim/internal/strategy"
)

const (
	maxTrades      = 250
	maxLogs        = 200
	maxEquityCurve = 600

	// Published snapshots carry bounded slices of the retained rings.
	publishTrades = 30
	publishLogs   = 30
	publishEquity = 240
)

type command int

const (
	cmdStart command = iota
	cmdStop
	cmdReset
)

// Engine owns all simulation state. The tick loop is the sole writer; the
// outside world observes published snapshots and steers the loop through
// Start, Stop, and Reset commands applied at tick boundaries.
type Engine struct {
	log *slog.Logger
	pub *live.Publisher

	symbols  []string
	interval time.Duration
	warmup   int
	params   domain.Params

	gen   *market.Generator
	hist  *market.History
	strat strategy.Strategy
	pf    *portfolio.Portfolio
	sizer *portfolio.Sizer

	tick        int64
	lastSignals map[string]domain.Signal
	trades      []domain.Execution // newest first
	logs        []string           // newest first
	equityCurve []domain.EquityPoint

	cmds chan command

	statusMu sync.RWMutex
	state    domain.EngineStatus
}

// New builds an Engine from the validated configuration. The strategy is
// initialised here; a strategy that fails Init is a fatal startup condition.
func New(cfg *config.Config, strat strategy.Strategy, pub *live.Publisher, log *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	gen, err := market.NewGenerator(cfg.Symbols, seed, cfg.Simulation.Volatility, cfg.Simulation.Reversion)
	if err != nil {
		return nil, err
	}

	hist, err := market.NewHistory(cfg.Strategy.HistoryLimit)
	if err != nil {
		return nil, err
	}

	pf, err := portfolio.New(cfg.Portfolio.InitialCash, cfg.SymbolNames())
	if err != nil {
		return nil, err
	}

	sizer, err := portfolio.NewSizer(cfg.Portfolio.TradeQty, cfg.Portfolio.RiskPerTrade)
	if err != nil {
		return nil, err
	}

	if err := strat.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("initialising strategy %s: %w", strat.Name(), err)
	}

	e := &Engine{
		log:      log,
		pub:      pub,
		symbols:  cfg.SymbolNames(),
		interval: cfg.Simulation.TickInterval.Std(),
		warmup:   cfg.Strategy.WarmupTicks,
		params: domain.Params{
			ShortWindow:  cfg.Strategy.ShortWindow,
			LongWindow:   cfg.Strategy.LongWindow,
			TickSeconds:  cfg.Simulation.TickInterval.Std().Seconds(),
			RiskPerTrade: cfg.Portfolio.RiskPerTrade,
			TradeQty:     cfg.Portfolio.TradeQty,
		},
		gen:         gen,
		hist:        hist,
		strat:       strat,
		pf:          pf,
		sizer:       sizer,
		lastSignals: make(map[string]domain.Signal, len(cfg.Symbols)),
		cmds:        make(chan command, 8),
		state:       domain.StatusStopped,
	}

	e.seedState()
	return e, nil
}

// seedState prefills history with warmup points at the seed prices and
// records the initial equity sample, so the strategy can evaluate from the
// first live tick and the dashboard starts with a curve.
func (e *Engine) seedState() {
	now := time.Now()
	for i := 0; i < e.warmup; i++ {
		for _, sym := range e.symbols {
			e.hist.Append(domain.PricePoint{
				Symbol: sym,
				Tick:   e.tick,
				Time:   now,
				Price:  e.gen.SeedPrice(sym),
			})
		}
		e.tick++
	}
	e.pushEquity(now)
	e.pushLog("engine initialized, paper trading only (simulated prices)")
}

// Status returns the current lifecycle state.
func (e *Engine) Status() domain.EngineStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.state
}

func (e *Engine) setStatus(s domain.EngineStatus) {
	e.statusMu.Lock()
	e.state = s
	e.statusMu.Unlock()
}

// Start requests that ticking begin. Safe to call from any goroutine; the
// command is applied by the loop at the next opportunity.
func (e *Engine) Start() { e.send(cmdStart) }

// Stop requests that ticking halt. The loop goroutine itself keeps running
// so the engine can be started again.
func (e *Engine) Stop() { e.send(cmdStop) }

// Reset requests that all simulated state return to its seed values.
func (e *Engine) Reset() { e.send(cmdReset) }

func (e *Engine) send(c command) {
	select {
	case e.cmds <- c:
	default:
		e.log.Warn("engine command dropped, queue full", "command", int(c))
	}
}

// Run executes the tick loop until ctx is cancelled. The engine starts in
// the running state. Run must be called at most once.
func (e *Engine) Run(ctx context.Context) error {
	e.setStatus(domain.StatusRunning)
	e.log.Info("engine started",
		"symbols", len(e.symbols),
		"interval", e.interval,
		"short_window", e.params.ShortWindow,
		"long_window", e.params.LongWindow,
	)
	e.publish(e.snapshot(time.Now()), nil, nil, nil)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.setStatus(domain.StatusStopped)
			e.log.Info("engine stopped")
			return nil
		case cmd := <-e.cmds:
			e.handle(cmd)
		case <-ticker.C:
			if e.Status() == domain.StatusRunning {
				e.Step()
			}
		}
	}
}

// handle applies a control command between ticks, then republishes so state
// consumers see the status change without waiting for the next tick.
func (e *Engine) handle(cmd command) {
	switch cmd {
	case cmdStart:
		if e.Status() == domain.StatusRunning {
			e.pushLog("start ignored: already running")
		} else {
			e.setStatus(domain.StatusRunning)
			e.pushLog("engine started")
		}
	case cmdStop:
		if e.Status() == domain.StatusStopped {
			e.pushLog("stop ignored: already stopped")
		} else {
			e.setStatus(domain.StatusStopped)
			e.pushLog("engine stopped")
		}
	case cmdReset:
		e.reset()
	}
	e.publish(e.snapshot(time.Now()), nil, nil, nil)
}

// reset restores cash, positions, prices, history, and rings to seed state.
// Random streams keep advancing; reset is a fresh account, not a replay.
func (e *Engine) reset() {
	e.gen.Reset()
	e.hist.Reset()
	e.strat.Reset()
	e.pf.Reset()
	e.tick = 0
	e.lastSignals = make(map[string]domain.Signal, len(e.symbols))
	e.trades = nil
	e.logs = nil
	e.equityCurve = nil
	e.seedState()
	e.pushLog("engine reset")
	e.log.Info("engine reset")
}

// Step advances the simulation by one tick: for every symbol in the
// configured order, generate a price, append it to history, evaluate the
// strategy, and execute the signal. The published snapshot is returned.
func (e *Engine) Step() domain.Snapshot {
	ctx := context.Background()
	now := time.Now()
	tick := e.tick
	e.tick++

	var (
		newPoints []domain.PricePoint
		newExecs  []domain.Execution
		newSigs   []domain.SignalEvent
	)

	for _, sym := range e.symbols {
		price := e.gen.Next(sym)
		point := domain.PricePoint{Symbol: sym, Tick: tick, Time: now, Price: price}
		e.hist.Append(point)
		newPoints = append(newPoints, point)

		sig, err := e.strat.OnPrice(ctx, point, e.hist.Window(sym, e.hist.Limit()))
		if err != nil {
			e.log.Warn("strategy error, holding", "symbol", sym, "error", err)
			sig = domain.SignalHold
		}
		e.lastSignals[sym] = sig

		if sig != domain.SignalHold {
			newSigs = append(newSigs, domain.SignalEvent{Tick: tick, Time: now, Symbol: sym, Signal: sig})
		}

		var qty float64
		if sig == domain.SignalBuy {
			qty = e.sizer.BuyQty(e.pf.Cash(), price)
		}

		reason := e.signalReason(sig)
		res := e.pf.Execute(tick, now, sym, sig, price, qty, reason)
		switch res.Outcome {
		case domain.OutcomeFilled:
			ex := *res.Execution
			newExecs = append(newExecs, ex)
			e.pushTrade(ex)
			e.pushLog(fmt.Sprintf("%s %s qty=%.2f @ %.2f (%s)",
				strings.ToUpper(string(ex.Side)), sym, ex.Qty, ex.Price, reason))
		case domain.OutcomeRejected:
			e.pushLog(fmt.Sprintf("%s %s skipped: %s", strings.ToUpper(string(sig)), sym, res.Reason))
		case domain.OutcomeHold:
			// No state change.
		}
	}

	e.pushEquity(now)

	snap := e.snapshot(now)
	e.publish(snap, newPoints, newExecs, newSigs)
	return snap
}

func (e *Engine) signalReason(sig domain.Signal) string {
	switch sig {
	case domain.SignalBuy:
		return fmt.Sprintf("SMA cross UP (%d/%d)", e.params.ShortWindow, e.params.LongWindow)
	case domain.SignalSell:
		return fmt.Sprintf("SMA cross DOWN (%d/%d)", e.params.ShortWindow, e.params.LongWindow)
	default:
		return ""
	}
}

// snapshot builds a deep copy of the current state. Everything in the result
// is freshly allocated; mutating engine state afterwards cannot affect it.
func (e *Engine) snapshot(now time.Time) domain.Snapshot {
	prices := make(map[string]float64, len(e.symbols))
	history := make(map[string][]float64, len(e.symbols))
	signals := make(map[string]domain.Signal, len(e.lastSignals))
	for _, sym := range e.symbols {
		prices[sym] = e.gen.Price(sym)
		history[sym] = e.hist.Prices(sym, e.params.LongWindow)
	}
	for sym, sig := range e.lastSignals {
		signals[sym] = sig
	}

	return domain.Snapshot{
		Tick:          e.tick,
		Time:          now,
		Status:        e.Status(),
		Cash:          e.pf.Cash(),
		Equity:        e.pf.Equity(prices),
		RealizedPnL:   e.pf.RealizedPnL(),
		UnrealizedPnL: e.pf.UnrealizedPnL(prices),
		Prices:        prices,
		Positions:     e.pf.Positions(),
		LastSignals:   signals,
		History:       history,
		Trades:        headExecs(e.trades, publishTrades),
		Logs:          headStrings(e.logs, publishLogs),
		EquityCurve:   tailEquity(e.equityCurve, publishEquity),
		Params:        e.params,
	}
}

func (e *Engine) publish(snap domain.Snapshot, points []domain.PricePoint, execs []domain.Execution, sigs []domain.SignalEvent) {
	if e.pub == nil {
		return
	}
	e.pub.Publish(live.Event{
		Snapshot:      snap,
		NewPoints:     points,
		NewExecutions: execs,
		NewSignals:    sigs,
	})
}

func (e *Engine) pushTrade(ex domain.Execution) {
	e.trades = append([]domain.Execution{ex}, e.trades...)
	if len(e.trades) > maxTrades {
		e.trades = e.trades[:maxTrades]
	}
}

func (e *Engine) pushLog(msg string) {
	line := time.Now().UTC().Format(time.RFC3339) + "  " + msg
	e.logs = append([]string{line}, e.logs...)
	if len(e.logs) > maxLogs {
		e.logs = e.logs[:maxLogs]
	}
}

func (e *Engine) pushEquity(now time.Time) {
	prices := make(map[string]float64, len(e.symbols))
	for _, sym := range e.symbols {
		prices[sym] = e.gen.Price(sym)
	}
	e.equityCurve = append(e.equityCurve, domain.EquityPoint{
		Tick:   e.tick,
		Time:   now,
		Equity: e.pf.Equity(prices),
	})
	if len(e.equityCurve) > maxEquityCurve {
		e.equityCurve = e.equityCurve[len(e.equityCurve)-maxEquityCurve:]
	}
}

func headExecs(s []domain.Execution, n int) []domain.Execution {
	if len(s) > n {
		s = s[:n]
	}
	return append([]domain.Execution(nil), s...)
}

func headStrings(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string(nil), s...)
}

func tailEquity(s []domain.EquityPoint, n int) []domain.EquityPoint {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return append([]domain.EquityPoint(nil), s...)
}
