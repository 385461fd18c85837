package pricebook

import (
	"fmt"
	"sync"
)

// NoData is printed for a symbol that has not received an update yet.
const NoData = "<no data>"

// Snapshot holds the latest observed price per tracked symbol. The tick
// apply loop is the sole writer; the print loop reads concurrently. Display
// order is fixed at construction (loader order) and only grows.
type Snapshot struct {
	mu      sync.RWMutex
	order   []string
	tracked map[string]bool
	prices  map[string]string
}

// New creates a snapshot tracking the given symbols in order. Duplicates
// collapse to their first occurrence.
func New(symbols []string) *Snapshot {
	s := &Snapshot{
		tracked: make(map[string]bool, len(symbols)),
		prices:  make(map[string]string, len(symbols)),
	}
	for _, sym := range symbols {
		if s.tracked[sym] {
			continue
		}
		s.tracked[sym] = true
		s.order = append(s.order, sym)
	}
	return s
}

// Update overwrites the latest price for symbol. A symbol not known at
// construction is appended to the display order.
func (s *Snapshot) Update(symbol, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracked[symbol] {
		s.tracked[symbol] = true
		s.order = append(s.order, symbol)
	}
	s.prices[symbol] = price
}

// Price returns the latest price for symbol, and whether an update has been
// received for it.
func (s *Snapshot) Price(symbol string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[symbol]
	return price, ok
}

// Symbols returns the display order.
func (s *Snapshot) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Lines renders one "SYMBOL: price" line per tracked symbol in display
// order. Output is identical across calls when no update arrived in between.
func (s *Snapshot) Lines() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]string, 0, len(s.order))
	for _, sym := range s.order {
		price, ok := s.prices[sym]
		if !ok {
			price = NoData
		}
		lines = append(lines, fmt.Sprintf("%s: %s", sym, price))
	}
	return lines
}
