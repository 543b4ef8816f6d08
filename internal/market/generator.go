// Package market provides the simulated price generator and the bounded
// per-symbol price history that feeds the strategy.
package market

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"papersim/internal/config"
)

// maxShock bounds a single multiplicative perturbation so one tick can never
// push a price to or below zero.
const maxShock = 0.5

// minPrice is the floor a simulated price is clamped to.
const minPrice = 0.01

// Generator produces the next simulated price for each tracked symbol using
// a random walk with mild mean reversion toward the seed price. Each symbol
// owns an independent random stream so symbols evolve independently and a
// fixed seed reproduces the exact same series.
type Generator struct {
	volatility float64
	reversion  float64

	seeds  map[string]float64
	prices map[string]float64
	rngs   map[string]*rand.Rand
}

// NewGenerator creates a Generator for the configured symbols. A seed of 0
// must be resolved by the caller (e.g. from the clock) before construction if
// non-deterministic runs are wanted.
func NewGenerator(symbols []config.SymbolConfig, seed int64, volatility, reversion float64) (*Generator, error) {
	g := &Generator{
		volatility: volatility,
		reversion:  reversion,
		seeds:      make(map[string]float64, len(symbols)),
		prices:     make(map[string]float64, len(symbols)),
		rngs:       make(map[string]*rand.Rand, len(symbols)),
	}

	for _, s := range symbols {
		if s.SeedPrice <= 0 {
			return nil, fmt.Errorf("symbol %s: seed price must be positive, got %v", s.Name, s.SeedPrice)
		}
		g.seeds[s.Name] = s.SeedPrice
		g.prices[s.Name] = s.SeedPrice
		g.rngs[s.Name] = rand.New(rand.NewSource(streamSeed(seed, s.Name)))
	}

	return g, nil
}

// streamSeed derives an independent per-symbol seed from the run seed.
func streamSeed(seed int64, symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return seed ^ int64(h.Sum64())
}

// Next advances the price for a symbol and returns the new value. The result
// is always strictly positive and rounded to cents.
func (g *Generator) Next(symbol string) float64 {
	last := g.prices[symbol]
	if last == 0 {
		// Unknown symbol; nothing sensible to generate.
		return 0
	}

	eps := g.rngs[symbol].NormFloat64() * g.volatility
	if eps > maxShock {
		eps = maxShock
	} else if eps < -maxShock {
		eps = -maxShock
	}

	drift := (g.seeds[symbol] - last) * g.reversion
	next := last*(1+eps) + drift

	next = math.Round(next*100) / 100
	if next < minPrice {
		next = minPrice
	}

	g.prices[symbol] = next
	return next
}

// Price returns the current price for a symbol (the seed price before the
// first call to Next).
func (g *Generator) Price(symbol string) float64 {
	return g.prices[symbol]
}

// SeedPrice returns the configured seed price for a symbol.
func (g *Generator) SeedPrice(symbol string) float64 {
	return g.seeds[symbol]
}

// Reset restores all prices to their seed values. Random streams are not
// re-seeded; a fresh Generator is needed for an identical replay.
func (g *Generator) Reset() {
	for sym, seed := range g.seeds {
		g.prices[sym] = seed
	}
}
