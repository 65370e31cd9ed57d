// Package model holds the data types shared across the order-flow
// pipeline: order-book levels and snapshots, trades, strategy parameters,
// derived metrics, and the trading signals the pipeline emits.
package model

import (
	"github.com/shopspring/decimal"
)

// Side is the taker side of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderBookLevel is one price level of a book side.
// Invariant: Price > 0, Quantity >= 0.
type OrderBookLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Notional returns Price*Quantity.
func (l OrderBookLevel) Notional() decimal.Decimal {
	return l.Price.Mul(l.Quantity)
}

// OrderBookSnapshot is a full depth snapshot for one symbol, replaced
// atomically on every update — no level-diff merging.
// Invariant: when both sides are non-empty, Bids[0].Price < Asks[0].Price.
// Bids are ordered by descending price, Asks by ascending price.
type OrderBookSnapshot struct {
	Symbol      string
	Bids        []OrderBookLevel
	Asks        []OrderBookLevel
	TimestampMS int64
}

// BestBid returns Bids[0].Price, or zero if the book side is empty.
func (s OrderBookSnapshot) BestBid() decimal.Decimal {
	if len(s.Bids) == 0 {
		return decimal.Zero
	}
	return s.Bids[0].Price
}

// BestAsk returns Asks[0].Price, or zero if the book side is empty.
func (s OrderBookSnapshot) BestAsk() decimal.Decimal {
	if len(s.Asks) == 0 {
		return decimal.Zero
	}
	return s.Asks[0].Price
}

// Clone deep-copies the snapshot so it can be handed to the rule engine
// outside of any store lock.
func (s OrderBookSnapshot) Clone() OrderBookSnapshot {
	out := OrderBookSnapshot{
		Symbol:      s.Symbol,
		TimestampMS: s.TimestampMS,
	}
	if s.Bids != nil {
		out.Bids = append([]OrderBookLevel(nil), s.Bids...)
	}
	if s.Asks != nil {
		out.Asks = append([]OrderBookLevel(nil), s.Asks...)
	}
	return out
}

// TradeData is one taker-side trade print for a symbol.
type TradeData struct {
	Symbol      string
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	Side        Side
	TimestampMS int64
}

// Notional returns Price*Quantity.
func (t TradeData) Notional() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

// StrategyParams is immutable once an Engine is constructed from it.
type StrategyParams struct {
	ImbalanceThreshold        decimal.Decimal
	AbsorptionThreshold       decimal.Decimal
	DeltaThreshold            decimal.Decimal
	LookbackPeriodMS          int64
	MarketConditionMultiplier decimal.Decimal
}

// EffectiveImbalanceThreshold applies the market-condition multiplier.
func (p StrategyParams) EffectiveImbalanceThreshold() decimal.Decimal {
	return p.ImbalanceThreshold.Mul(p.MarketConditionMultiplier)
}

// EffectiveDeltaThreshold applies the market-condition multiplier.
func (p StrategyParams) EffectiveDeltaThreshold() decimal.Decimal {
	return p.DeltaThreshold.Mul(p.MarketConditionMultiplier)
}

// EffectiveAbsorptionThreshold applies the market-condition multiplier.
// Reserved: no detector currently consults it (see absorption_threshold in
// the configuration table) — validated and plumbed through, never used.
func (p StrategyParams) EffectiveAbsorptionThreshold() decimal.Decimal {
	return p.AbsorptionThreshold.Mul(p.MarketConditionMultiplier)
}

// OFIMetrics is derived per analysis cycle; it is never stored.
type OFIMetrics struct {
	Symbol          string
	Delta           decimal.Decimal
	CumulativeDelta decimal.Decimal
	BuyImbalance    decimal.Decimal
	SellImbalance   decimal.Decimal
	TimestampMS     int64
}

// SignalType is the tagged variant the rule engine emits.
type SignalType string

const (
	SignalStrongBuy  SignalType = "StrongBuy"
	SignalStrongSell SignalType = "StrongSell"
	SignalBuy        SignalType = "Buy"
	SignalSell       SignalType = "Sell"
	SignalNoSignal   SignalType = "NoSignal"
)

// TradingSignal is the timestamped verdict handed to the executor
// collaborator. ID is an added correlation field (see DOMAIN STACK); it
// has no bearing on dedup-gate semantics, which key on (Symbol, SignalType).
type TradingSignal struct {
	ID          string
	Symbol      string
	SignalType  SignalType
	Price       decimal.Decimal
	Confidence  decimal.Decimal
	Reason      string
	TimestampMS int64
}

// IsActionable reports whether the signal is anything other than NoSignal.
func (s TradingSignal) IsActionable() bool {
	return s.SignalType != SignalNoSignal
}
