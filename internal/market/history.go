package market

import (
	"fmt"

	"papersim/internal/domain"
)

// History is an append-only, bounded-length price series per symbol. The
// oldest points are evicted once the retention limit is exceeded. It is owned
// by the tick loop and must not be shared across goroutines.
type History struct {
	limit  int
	series map[string][]domain.PricePoint
}

// NewHistory creates a History retaining at most limit points per symbol.
// The limit must cover the longest SMA window a strategy will ask for.
func NewHistory(limit int) (*History, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("history limit must be positive, got %d", limit)
	}
	return &History{
		limit:  limit,
		series: make(map[string][]domain.PricePoint),
	}, nil
}

// Limit returns the retention bound.
func (h *History) Limit() int {
	return h.limit
}

// Append adds a point to the symbol's series, evicting the oldest point when
// the retention limit is exceeded. Points must arrive in tick order.
func (h *History) Append(p domain.PricePoint) {
	s := append(h.series[p.Symbol], p)
	if len(s) > h.limit {
		s = s[1:]
	}
	h.series[p.Symbol] = s
}

// Window returns the last n points for a symbol, or all available points if
// fewer than n exist. The returned slice aliases internal storage and must
// not be retained across ticks.
func (h *History) Window(symbol string, n int) []domain.PricePoint {
	s := h.series[symbol]
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Len returns the number of retained points for a symbol.
func (h *History) Len(symbol string) int {
	return len(h.series[symbol])
}

// Last returns the most recent point for a symbol.
func (h *History) Last(symbol string) (domain.PricePoint, bool) {
	s := h.series[symbol]
	if len(s) == 0 {
		return domain.PricePoint{}, false
	}
	return s[len(s)-1], true
}

// Prices returns the last n prices for a symbol as a plain slice, copied out
// of internal storage. Used to build snapshot history samples.
func (h *History) Prices(symbol string, n int) []float64 {
	w := h.Window(symbol, n)
	out := make([]float64, len(w))
	for i := range w {
		out[i] = w[i].Price
	}
	return out
}

// Reset drops all retained points for all symbols.
func (h *History) Reset() {
	h.series = make(map[string][]domain.PricePoint)
}
