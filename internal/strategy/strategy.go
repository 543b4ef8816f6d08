// Package strategy defines the Strategy interface for trading strategies and
// provides a Registry for managing multiple strategy implementations.
package strategy

import (
	"context"
	"sort"

	"papersim/internal/domain"
)

// Strategy is the interface that all trading strategies must implement.
// OnPrice is called once per symbol per tick by the simulation loop; a
// strategy owns whatever per-symbol state it needs across calls.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Init performs any one-time setup required before the strategy begins
	// processing prices.
	Init(ctx context.Context) error

	// OnPrice is called with the newest price point and the retained history
	// window for its symbol (newest last, the new point included). It returns
	// exactly one signal; data insufficiency is reported as SignalHold, never
	// as an error.
	OnPrice(ctx context.Context, point domain.PricePoint, history []domain.PricePoint) (domain.Signal, error)

	// Reset clears all per-symbol state, returning the strategy to its
	// just-initialised condition.
	Reset()
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
