// Package signal implements the rule engine that turns a snapshot, a
// trade tape, and OFI metrics into a single TradingSignal, using a fixed
// first-match-wins priority order across the five signal cases.
package signal

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ofisentinel/sentinel/internal/model"
	"github.com/ofisentinel/sentinel/internal/ofi"
)

// Confidences bundles the three confidence constants the rule engine
// assigns per signal class.
type Confidences struct {
	Strong     decimal.Decimal // C_strong
	Reversal   decimal.Decimal // C_reversal
	Exhaustion decimal.Decimal // C_exhaustion
}

var two = decimal.NewFromInt(2)

// Detect evaluates the rule engine on one snapshot + trade tape and
// returns exactly one TradingSignal. trades is expected to already be the
// last <=100 trades, most-recent-first, matching the Engine.Analyze
// contract — Detect itself does not truncate or reorder them beyond what
// Metrics needs.
func Detect(snapshot model.OrderBookSnapshot, trades []model.TradeData, params model.StrategyParams, conf Confidences) model.TradingSignal {
	bestBid := snapshot.BestBid()
	bestAsk := snapshot.BestAsk()

	if len(snapshot.Bids) == 0 || len(snapshot.Asks) == 0 {
		return noSignal(snapshot.Symbol, decimal.Zero, snapshot.TimestampMS, "Order book is empty")
	}

	midPrice := midPrice(bestBid, bestAsk)
	metrics := ofi.Metrics(snapshot, trades, params.LookbackPeriodMS)

	imbThreshold := params.EffectiveImbalanceThreshold()
	deltaThreshold := params.EffectiveDeltaThreshold()

	buyStacked := ofi.BuyStacked(snapshot, imbThreshold)
	sellStacked := ofi.SellStacked(snapshot, imbThreshold)

	// Rule 1: buy-stacked AND delta > delta' -> StrongBuy.
	if buyStacked && metrics.Delta.GreaterThan(deltaThreshold) {
		return signalFrom(snapshot.Symbol, model.SignalStrongBuy, midPrice, conf.Strong, metrics.TimestampMS, "stacked buy imbalance with positive delta")
	}

	// Rule 2: sell-stacked AND delta < -delta' -> StrongSell.
	if sellStacked && metrics.Delta.LessThan(deltaThreshold.Neg()) {
		return signalFrom(snapshot.Symbol, model.SignalStrongSell, midPrice, conf.Strong, metrics.TimestampMS, "stacked sell imbalance with negative delta")
	}

	// Rule 3: absorption detector verdict.
	switch ofi.Absorption(snapshot, trades, metrics, params) {
	case ofi.AbsorptionBuy:
		return signalFrom(snapshot.Symbol, model.SignalBuy, midPrice, conf.Reversal, metrics.TimestampMS, "buy absorption")
	case ofi.AbsorptionSell:
		return signalFrom(snapshot.Symbol, model.SignalSell, midPrice, conf.Reversal, metrics.TimestampMS, "sell absorption")
	}

	// Rule 4: exhaustion. delta < -delta' AND cumulative_delta > 2*delta'.
	if metrics.Delta.LessThan(deltaThreshold.Neg()) && metrics.CumulativeDelta.GreaterThan(deltaThreshold.Mul(two)) {
		return signalFrom(snapshot.Symbol, model.SignalSell, midPrice, conf.Exhaustion, metrics.TimestampMS, "delta exhaustion after strong prior flow")
	}

	return noSignal(snapshot.Symbol, midPrice, metrics.TimestampMS, "no qualifying pattern")
}

// midPrice = (best_bid+best_ask)/2 if both > 0, else max(best_bid, best_ask).
func midPrice(bestBid, bestAsk decimal.Decimal) decimal.Decimal {
	if bestBid.IsPositive() && bestAsk.IsPositive() {
		return bestBid.Add(bestAsk).Div(two)
	}
	if bestBid.GreaterThan(bestAsk) {
		return bestBid
	}
	return bestAsk
}

func signalFrom(symbol string, signalType model.SignalType, price, confidence decimal.Decimal, timestampMS int64, reason string) model.TradingSignal {
	return model.TradingSignal{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		SignalType:  signalType,
		Price:       price,
		Confidence:  confidence,
		Reason:      reason,
		TimestampMS: timestampMS,
	}
}

func noSignal(symbol string, price decimal.Decimal, timestampMS int64, reason string) model.TradingSignal {
	return signalFrom(symbol, model.SignalNoSignal, price, decimal.Zero, timestampMS, reason)
}
