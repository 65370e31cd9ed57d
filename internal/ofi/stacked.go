package ofi

import (
	"github.com/shopspring/decimal"

	"github.com/ofisentinel/sentinel/internal/model"
)

// StackedLevels and StackedCount: check the top 5 levels on one side,
// require at least 3 of them to each dwarf the opposing top-of-book
// notional by threshold.
const (
	StackedLevels = 5
	StackedCount  = 3
)

// BuyStacked reports whether the bid side shows a stacked imbalance
// against the best ask: at least StackedCount of the top StackedLevels
// bid levels each have notional >= threshold * ask top-of-book notional.
func BuyStacked(snapshot model.OrderBookSnapshot, threshold decimal.Decimal) bool {
	if len(snapshot.Bids) < StackedLevels || len(snapshot.Asks) < 1 {
		return false
	}
	denom := snapshot.Asks[0].Notional()
	if denom.IsZero() {
		return false
	}
	count := 0
	for i := 0; i < StackedLevels; i++ {
		ratio := snapshot.Bids[i].Notional().Div(denom)
		if ratio.GreaterThanOrEqual(threshold) {
			count++
		}
	}
	return count >= StackedCount
}

// SellStacked is BuyStacked's mirror: checks the ask side against the
// best bid's notional.
func SellStacked(snapshot model.OrderBookSnapshot, threshold decimal.Decimal) bool {
	if len(snapshot.Asks) < StackedLevels || len(snapshot.Bids) < 1 {
		return false
	}
	denom := snapshot.Bids[0].Notional()
	if denom.IsZero() {
		return false
	}
	count := 0
	for i := 0; i < StackedLevels; i++ {
		ratio := snapshot.Asks[i].Notional().Div(denom)
		if ratio.GreaterThanOrEqual(threshold) {
			count++
		}
	}
	return count >= StackedCount
}
