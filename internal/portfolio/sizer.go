package portfolio

import (
	"fmt"
	"math"
)

// Sizer decides the quantity for a buy order. Two modes: a fixed quantity
// per trade, or a fraction of the current cash balance deployed per trade
// (quantity floored to 2 decimals so cost never exceeds the budget).
type Sizer struct {
	fixedQty     float64
	riskPerTrade float64
}

// NewSizer creates a Sizer. fixedQty > 0 selects fixed sizing; otherwise
// riskPerTrade (a fraction in (0, 1]) of cash is deployed per buy.
func NewSizer(fixedQty, riskPerTrade float64) (*Sizer, error) {
	if fixedQty < 0 {
		return nil, fmt.Errorf("fixed quantity must not be negative, got %v", fixedQty)
	}
	if fixedQty == 0 && (riskPerTrade <= 0 || riskPerTrade > 1) {
		return nil, fmt.Errorf("risk per trade must be in (0, 1] when no fixed quantity is set, got %v", riskPerTrade)
	}
	return &Sizer{fixedQty: fixedQty, riskPerTrade: riskPerTrade}, nil
}

// BuyQty returns the quantity to buy at the given price with the given cash
// balance. May return 0 when the budget cannot afford a minimum lot.
func (s *Sizer) BuyQty(cash, price float64) float64 {
	if price <= 0 {
		return 0
	}
	if s.fixedQty > 0 {
		return s.fixedQty
	}
	budget := cash * s.riskPerTrade
	if budget <= 0 {
		return 0
	}
	return math.Floor(budget/price*100) / 100
}
