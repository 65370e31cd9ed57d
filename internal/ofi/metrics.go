// Package ofi computes Order Flow Imbalance metrics and the two pattern
// detectors built on top of them — stacked imbalance and absorption. Every
// function here is pure: given identical inputs it returns identical
// output, and none of them touch store locks, keeping strategy logic
// strictly separate from storage.
package ofi

import (
	"github.com/shopspring/decimal"

	"github.com/ofisentinel/sentinel/internal/model"
)

// Metrics computes delta, cumulative delta, and book-side imbalances for
// one analysis cycle.
//
// delta is the lookback-filtered signed notional flow: trades is filtered
// to those with TimestampMS >= now - lookbackMS before signing and summing.
// cumulativeDelta intentionally uses the *entire* supplied trades slice,
// unfiltered — it is the aggregate since the oldest retained trade, not a
// windowed figure. The exhaustion rule in the signal package depends on
// this asymmetry.
func Metrics(snapshot model.OrderBookSnapshot, trades []model.TradeData, lookbackMS int64) model.OFIMetrics {
	now := snapshot.TimestampMS
	cutoff := now - lookbackMS
	if cutoff < 0 {
		cutoff = 0
	}

	delta := decimal.Zero
	for _, t := range trades {
		if t.TimestampMS < cutoff {
			continue
		}
		delta = signedAdd(delta, t)
	}

	cumulative := decimal.Zero
	for _, t := range trades {
		cumulative = signedAdd(cumulative, t)
	}

	return model.OFIMetrics{
		Symbol:          snapshot.Symbol,
		Delta:           delta,
		CumulativeDelta: cumulative,
		BuyImbalance:    buyImbalance(snapshot),
		SellImbalance:   sellImbalance(snapshot),
		TimestampMS:     now,
	}
}

func signedAdd(acc decimal.Decimal, t model.TradeData) decimal.Decimal {
	notional := t.Notional()
	if t.Side == model.SideBuy {
		return acc.Add(notional)
	}
	return acc.Sub(notional)
}

// buyImbalance = S_bid / S_ask if S_ask > 0, else 0.
func buyImbalance(snapshot model.OrderBookSnapshot) decimal.Decimal {
	sBid := sumNotional(snapshot.Bids)
	sAsk := sumNotional(snapshot.Asks)
	if sAsk.IsZero() {
		return decimal.Zero
	}
	return sBid.Div(sAsk)
}

// sellImbalance = S_ask / S_bid if S_bid > 0, else 0.
func sellImbalance(snapshot model.OrderBookSnapshot) decimal.Decimal {
	sBid := sumNotional(snapshot.Bids)
	sAsk := sumNotional(snapshot.Asks)
	if sBid.IsZero() {
		return decimal.Zero
	}
	return sAsk.Div(sBid)
}

func sumNotional(levels []model.OrderBookLevel) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range levels {
		sum = sum.Add(l.Notional())
	}
	return sum
}
