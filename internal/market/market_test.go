package market

import (
	"testing"

	"papersim/internal/config"
	"papersim/internal/domain"
)

func testSymbols() []config.SymbolConfig {
	return []config.SymbolConfig{
		{Name: "AAA", SeedPrice: 100},
		{Name: "BBB", SeedPrice: 50},
	}
}

func TestGeneratorPositivity(t *testing.T) {
	// High volatility to stress the clamp and the price floor.
	g, err := NewGenerator(testSymbols(), 1, 0.4, 0)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	for i := 0; i < 10_000; i++ {
		for _, sym := range []string{"AAA", "BBB"} {
			if got := g.Next(sym); got <= 0 {
				t.Fatalf("tick %d: Next(%s) = %v, want > 0", i, sym, got)
			}
		}
	}
}

func TestGeneratorDeterministicReplay(t *testing.T) {
	g1, _ := NewGenerator(testSymbols(), 42, 0.01, 0.003)
	g2, _ := NewGenerator(testSymbols(), 42, 0.01, 0.003)

	for i := 0; i < 500; i++ {
		for _, sym := range []string{"AAA", "BBB"} {
			p1 := g1.Next(sym)
			p2 := g2.Next(sym)
			if p1 != p2 {
				t.Fatalf("tick %d %s: %v != %v (same seed must replay identically)", i, sym, p1, p2)
			}
		}
	}
}

func TestGeneratorIndependentStreams(t *testing.T) {
	// Generating for AAA must not perturb BBB's stream: interleaving order
	// does not change each symbol's series.
	g1, _ := NewGenerator(testSymbols(), 7, 0.01, 0)
	g2, _ := NewGenerator(testSymbols(), 7, 0.01, 0)

	var seq1 []float64
	for i := 0; i < 100; i++ {
		g1.Next("AAA")
		seq1 = append(seq1, g1.Next("BBB"))
	}

	var seq2 []float64
	for i := 0; i < 100; i++ {
		seq2 = append(seq2, g2.Next("BBB"))
	}
	for i := 0; i < 100; i++ {
		g2.Next("AAA")
	}

	for i := range seq1 {
		if seq1[i] != seq2[i] {
			t.Fatalf("BBB series diverged at %d: %v != %v", i, seq1[i], seq2[i])
		}
	}
}

func TestGeneratorRejectsBadSeedPrice(t *testing.T) {
	_, err := NewGenerator([]config.SymbolConfig{{Name: "AAA", SeedPrice: 0}}, 1, 0.01, 0)
	if err == nil {
		t.Fatal("NewGenerator accepted non-positive seed price")
	}
}

func TestHistoryBound(t *testing.T) {
	h, err := NewHistory(10)
	if err != nil {
		t.Fatalf("NewHistory: %v", err)
	}

	for i := 0; i < 100; i++ {
		h.Append(domain.PricePoint{Symbol: "AAA", Tick: int64(i), Price: float64(i + 1)})
		if h.Len("AAA") > 10 {
			t.Fatalf("after %d appends: Len = %d, want <= 10", i+1, h.Len("AAA"))
		}
	}

	if h.Len("AAA") != 10 {
		t.Fatalf("Len = %d, want 10", h.Len("AAA"))
	}

	// Retained points are the newest ones, in tick order with no gaps.
	w := h.Window("AAA", 10)
	for i, p := range w {
		wantTick := int64(90 + i)
		if p.Tick != wantTick {
			t.Errorf("Window[%d].Tick = %d, want %d", i, p.Tick, wantTick)
		}
	}
}

func TestHistoryWindowInsufficientData(t *testing.T) {
	h, _ := NewHistory(50)

	for i := 0; i < 3; i++ {
		h.Append(domain.PricePoint{Symbol: "AAA", Tick: int64(i), Price: 100})
	}

	w := h.Window("AAA", 10)
	if len(w) != 3 {
		t.Errorf("Window(AAA, 10) with 3 points returned %d points, want 3", len(w))
	}

	if w := h.Window("UNKNOWN", 10); len(w) != 0 {
		t.Errorf("Window for unknown symbol returned %d points, want 0", len(w))
	}
}

func TestHistoryLast(t *testing.T) {
	h, _ := NewHistory(5)

	if _, ok := h.Last("AAA"); ok {
		t.Error("Last on empty history returned ok")
	}

	h.Append(domain.PricePoint{Symbol: "AAA", Tick: 0, Price: 101})
	h.Append(domain.PricePoint{Symbol: "AAA", Tick: 1, Price: 102})

	last, ok := h.Last("AAA")
	if !ok || last.Price != 102 || last.Tick != 1 {
		t.Errorf("Last = %+v ok=%v, want tick 1 price 102", last, ok)
	}
}

func TestHistoryPricesCopy(t *testing.T) {
	h, _ := NewHistory(5)
	h.Append(domain.PricePoint{Symbol: "AAA", Tick: 0, Price: 100})

	prices := h.Prices("AAA", 5)
	prices[0] = -1

	if p, _ := h.Last("AAA"); p.Price != 100 {
		t.Error("mutating Prices() result changed internal storage")
	}
}
