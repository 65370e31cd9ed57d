// Package store holds the two per-Engine in-memory containers: the latest
// order-book snapshot per symbol, and a bounded, insertion-ordered trade
// history per symbol. Both are exclusive-access containers guarded by a
// single mutex each, keyed per symbol, with FIFO-on-overflow eviction for
// trade history.
package store

import (
	"sync"

	"github.com/ofisentinel/sentinel/internal/model"
)

// OrderBookStore holds the latest snapshot per symbol. update_book
// replaces the entry wholesale — no level-diff merging.
type OrderBookStore struct {
	mu   sync.Mutex
	byID map[string]model.OrderBookSnapshot
}

// NewOrderBookStore creates an empty store.
func NewOrderBookStore() *OrderBookStore {
	return &OrderBookStore{byID: make(map[string]model.OrderBookSnapshot)}
}

// Update replaces the snapshot for snapshot.Symbol with its own copy, so
// later changes to the caller's slices do not reach the store. No failure
// modes.
func (s *OrderBookStore) Update(snapshot model.OrderBookSnapshot) {
	snapshot = snapshot.Clone()
	s.mu.Lock()
	s.byID[snapshot.Symbol] = snapshot
	s.mu.Unlock()
}

// Get returns the latest snapshot for symbol and whether one exists.
func (s *OrderBookStore) Get(symbol string) (model.OrderBookSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.byID[symbol]
	return snap, ok
}

// Lock and Unlock expose the store's mutex directly so Engine.Analyze can
// take book and trade locks in a fixed order (book then trades) around a
// single read-then-clone sequence, per the engine's bounded-critical-
// section contract.
func (s *OrderBookStore) Lock()   { s.mu.Lock() }
func (s *OrderBookStore) Unlock() { s.mu.Unlock() }

// GetLocked is Get without re-acquiring the mutex — callers must hold it
// via Lock/Unlock.
func (s *OrderBookStore) GetLocked(symbol string) (model.OrderBookSnapshot, bool) {
	snap, ok := s.byID[symbol]
	return snap, ok
}

// TradeStore holds a bounded, arrival-ordered trade history per symbol.
// Invariant: len(trades[symbol]) <= limit; on overflow the oldest trade is
// evicted before the new one is appended — the literal semantics of the
// original's add_trade, not ring-buffer wraparound order.
type TradeStore struct {
	mu     sync.Mutex
	trades map[string][]model.TradeData
}

// NewTradeStore creates an empty store.
func NewTradeStore() *TradeStore {
	return &TradeStore{trades: make(map[string][]model.TradeData)}
}

// Add appends trade to its symbol's history, evicting the oldest entries
// while the resulting length exceeds limit.
func (s *TradeStore) Add(trade model.TradeData, limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.trades[trade.Symbol]
	list = append(list, trade)
	for len(list) > limit {
		list = list[1:]
	}
	s.trades[trade.Symbol] = list
}

// RecentTrades returns the last n trades for symbol in reverse-chronological
// order (most recent first), or nil if the symbol is unknown.
func (s *TradeStore) RecentTrades(symbol string, n int) []model.TradeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentLocked(symbol, n)
}

func (s *TradeStore) recentLocked(symbol string, n int) []model.TradeData {
	list := s.trades[symbol]
	if len(list) == 0 {
		return nil
	}
	if n > len(list) {
		n = len(list)
	}
	out := make([]model.TradeData, n)
	for i := 0; i < n; i++ {
		out[i] = list[len(list)-1-i]
	}
	return out
}

// Lock, Unlock, RecentTradesLocked mirror OrderBookStore's locked
// accessors for Engine.Analyze's fixed-order critical section.
func (s *TradeStore) Lock()   { s.mu.Lock() }
func (s *TradeStore) Unlock() { s.mu.Unlock() }

func (s *TradeStore) RecentTradesLocked(symbol string, n int) []model.TradeData {
	return s.recentLocked(symbol, n)
}
