// Package engine composes a symbol's stores with the signal rule engine.
// Each Engine exclusively owns its OrderBookStore and TradeStore; the
// snapshot is cloned under both store locks and the rule engine only ever
// runs on that clone after both locks are released, keeping critical
// sections bounded and the book-then-trades lock order fixed.
package engine

import (
	"fmt"

	"github.com/ofisentinel/sentinel/internal/model"
	"github.com/ofisentinel/sentinel/internal/signal"
	"github.com/ofisentinel/sentinel/internal/store"
)

// maxAnalyzeTrades bounds how many recent trades Analyze hands to the
// rule engine, matching the "last <=100 trades" contract.
const maxAnalyzeTrades = 100

// Engine is the per-symbol composition of the two stores, strategy
// parameters, confidence constants, and trade-storage limit.
type Engine struct {
	book   *store.OrderBookStore
	trades *store.TradeStore

	params            model.StrategyParams
	confidences       signal.Confidences
	tradeStorageLimit int
}

// New constructs an Engine with its own private stores.
func New(params model.StrategyParams, confidences signal.Confidences, tradeStorageLimit int) *Engine {
	return &Engine{
		book:              store.NewOrderBookStore(),
		trades:            store.NewTradeStore(),
		params:            params,
		confidences:       confidences,
		tradeStorageLimit: tradeStorageLimit,
	}
}

// UpdateBook replaces the stored snapshot for snapshot.Symbol.
func (e *Engine) UpdateBook(snapshot model.OrderBookSnapshot) {
	e.book.Update(snapshot)
}

// AddTrade appends trade to its symbol's bounded history.
func (e *Engine) AddTrade(trade model.TradeData) {
	e.trades.Add(trade, e.tradeStorageLimit)
}

// Analyze acquires both stores in a fixed order (book then trades),
// clones the snapshot and collects up to 100 most-recent trades, releases
// both locks, then invokes the rule engine on the copy. The rule engine
// never runs while holding a store lock.
func (e *Engine) Analyze(symbol string) (model.TradingSignal, error) {
	e.book.Lock()
	e.trades.Lock()
	snapshot, ok := e.book.GetLocked(symbol)
	var recent []model.TradeData
	if ok {
		snapshot = snapshot.Clone()
		recent = e.trades.RecentTradesLocked(symbol, maxAnalyzeTrades)
	}
	e.trades.Unlock()
	e.book.Unlock()

	if !ok {
		return model.TradingSignal{}, fmt.Errorf("engine: no book snapshot for symbol %q", symbol)
	}

	return signal.Detect(snapshot, recent, e.params, e.confidences), nil
}
