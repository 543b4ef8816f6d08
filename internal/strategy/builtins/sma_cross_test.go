package builtins

import (
	"context"
	"testing"

	"papersim/internal/domain"
)

// feed appends each price to a running history and returns the emitted
// signal sequence.
func feed(t *testing.T, s *SMACross, symbol string, prices []float64) []domain.Signal {
	t.Helper()
	ctx := context.Background()

	var history []domain.PricePoint
	var signals []domain.Signal
	for i, price := range prices {
		point := domain.PricePoint{Symbol: symbol, Tick: int64(i), Price: price}
		history = append(history, point)
		sig, err := s.OnPrice(ctx, point, history)
		if err != nil {
			t.Fatalf("OnPrice(tick %d): %v", i, err)
		}
		signals = append(signals, sig)
	}
	return signals
}

func count(signals []domain.Signal, want domain.Signal) int {
	n := 0
	for _, s := range signals {
		if s == want {
			n++
		}
	}
	return n
}

func TestNewSMACrossValidation(t *testing.T) {
	if _, err := NewSMACross(0, 5); err == nil {
		t.Error("NewSMACross(0, 5) accepted non-positive short period")
	}
	if _, err := NewSMACross(5, 5); err == nil {
		t.Error("NewSMACross(5, 5) accepted short >= long")
	}
	if _, err := NewSMACross(7, 3); err == nil {
		t.Error("NewSMACross(7, 3) accepted short >= long")
	}
}

func TestHoldBeforeEnoughData(t *testing.T) {
	s, _ := NewSMACross(2, 5)

	// Rising prices, but fewer than longPeriod points: always hold.
	signals := feed(t, s, "AAA", []float64{100, 110, 120, 130})
	for i, sig := range signals {
		if sig != domain.SignalHold {
			t.Errorf("tick %d with insufficient data: signal = %q, want hold", i, sig)
		}
	}
}

func TestGoldenCrossFiresOnce(t *testing.T) {
	s, _ := NewSMACross(2, 4)

	// Flat, then a sustained rise: short SMA moves above long SMA and stays
	// there. The buy must fire exactly once, on the first tick the ordering
	// becomes true, not on every tick it persists.
	prices := []float64{100, 100, 100, 100, 110, 120, 130, 140, 150}
	signals := feed(t, s, "AAA", prices)

	if got := count(signals, domain.SignalBuy); got != 1 {
		t.Fatalf("buy fired %d times, want exactly 1 (signals: %v)", got, signals)
	}
	if signals[4] != domain.SignalBuy {
		t.Errorf("buy fired at the wrong tick: %v", signals)
	}
	if got := count(signals, domain.SignalSell); got != 0 {
		t.Errorf("sell fired %d times during a rise, want 0", got)
	}
}

func TestDeathCrossAfterGoldenCross(t *testing.T) {
	s, _ := NewSMACross(2, 4)

	// Rise then sustained fall: one buy, then one sell, nothing after.
	prices := []float64{100, 100, 100, 100, 110, 120, 130, 120, 100, 80, 60, 50, 40}
	signals := feed(t, s, "AAA", prices)

	if got := count(signals, domain.SignalBuy); got != 1 {
		t.Errorf("buy fired %d times, want 1 (signals: %v)", got, signals)
	}
	if got := count(signals, domain.SignalSell); got != 1 {
		t.Errorf("sell fired %d times, want 1 (signals: %v)", got, signals)
	}

	// The sell comes after the buy.
	buyAt, sellAt := -1, -1
	for i, sig := range signals {
		switch sig {
		case domain.SignalBuy:
			buyAt = i
		case domain.SignalSell:
			sellAt = i
		}
	}
	if sellAt <= buyAt {
		t.Errorf("sell at tick %d not after buy at tick %d", sellAt, buyAt)
	}
}

func TestNoSellWithoutPriorOrdering(t *testing.T) {
	s, _ := NewSMACross(2, 4)

	// Prices fall from the start: the short SMA is below the long SMA on the
	// first complete evaluation. With no previous "above" state, no sell may
	// fire.
	prices := []float64{100, 95, 90, 85, 80, 75, 70}
	signals := feed(t, s, "AAA", prices)

	if got := count(signals, domain.SignalSell); got != 0 {
		t.Errorf("sell fired %d times without a prior golden cross, want 0", got)
	}
}

func TestTieIsHold(t *testing.T) {
	s, _ := NewSMACross(2, 4)

	// Constant prices: short SMA == long SMA forever. Always hold.
	prices := []float64{100, 100, 100, 100, 100, 100, 100, 100}
	signals := feed(t, s, "AAA", prices)

	for i, sig := range signals {
		if sig != domain.SignalHold {
			t.Errorf("tick %d with tied SMAs: signal = %q, want hold", i, sig)
		}
	}
}

func TestPerSymbolStateIsIndependent(t *testing.T) {
	s, _ := NewSMACross(2, 4)

	rising := []float64{100, 100, 100, 100, 110, 120, 130}
	signalsA := feed(t, s, "AAA", rising)
	signalsB := feed(t, s, "BBB", rising)

	if count(signalsA, domain.SignalBuy) != 1 || count(signalsB, domain.SignalBuy) != 1 {
		t.Errorf("each symbol should cross independently: AAA=%v BBB=%v", signalsA, signalsB)
	}
}

func TestResetClearsState(t *testing.T) {
	s, _ := NewSMACross(2, 4)

	rising := []float64{100, 100, 100, 100, 110, 120, 130}
	first := feed(t, s, "AAA", rising)
	s.Reset()
	second := feed(t, s, "AAA", rising)

	if count(first, domain.SignalBuy) != 1 || count(second, domain.SignalBuy) != 1 {
		t.Errorf("after Reset the same series should cross again: first=%v second=%v", first, second)
	}
}
