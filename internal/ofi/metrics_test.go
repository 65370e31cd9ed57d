package ofi

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ofisentinel/sentinel/internal/model"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func level(price, qty int64) model.OrderBookLevel {
	return model.OrderBookLevel{Price: d(price), Quantity: d(qty)}
}

func trade(ts int64, side model.Side, price, qty int64) model.TradeData {
	return model.TradeData{Symbol: "BTCUSDT", Price: d(price), Quantity: d(qty), Side: side, TimestampMS: ts}
}

func TestMetrics_DeltaIgnoresTradesBeforeLookback(t *testing.T) {
	snap := model.OrderBookSnapshot{Symbol: "BTCUSDT", TimestampMS: 10000}
	trades := []model.TradeData{
		trade(5000, model.SideBuy, 100, 10), // notional 1000, outside 1000ms lookback
		trade(9500, model.SideBuy, 100, 5),  // notional 500, inside
	}

	m := Metrics(snap, trades, 1000)
	assert.True(t, m.Delta.Equal(d(500)), "delta=%s", m.Delta)
}

func TestMetrics_CumulativeDeltaIgnoresLookback(t *testing.T) {
	snap := model.OrderBookSnapshot{Symbol: "BTCUSDT", TimestampMS: 10000}
	trades := []model.TradeData{
		trade(1, model.SideBuy, 100, 10),  // notional 1000, well outside lookback
		trade(9500, model.SideSell, 100, 5), // notional 500, inside
	}

	m := Metrics(snap, trades, 1000)
	// delta: only the inside trade counts -> -500
	assert.True(t, m.Delta.Equal(d(-500)))
	// cumulative: both trades count -> 1000 - 500 = 500
	assert.True(t, m.CumulativeDelta.Equal(d(500)))
}

func TestMetrics_IsPure(t *testing.T) {
	snap := model.OrderBookSnapshot{
		Symbol:      "BTCUSDT",
		Bids:        []model.OrderBookLevel{level(100, 2)},
		Asks:        []model.OrderBookLevel{level(101, 1)},
		TimestampMS: 1000,
	}
	trades := []model.TradeData{trade(999, model.SideBuy, 100, 3)}

	a := Metrics(snap, trades, 500)
	b := Metrics(snap, trades, 500)
	assert.Equal(t, a, b)
}

func TestMetrics_BuyAndSellImbalance(t *testing.T) {
	snap := model.OrderBookSnapshot{
		Symbol:      "BTCUSDT",
		Bids:        []model.OrderBookLevel{level(100, 4)}, // notional 400
		Asks:        []model.OrderBookLevel{level(101, 2)}, // notional 202
		TimestampMS: 1000,
	}

	m := Metrics(snap, nil, 1000)
	assert.True(t, m.BuyImbalance.Equal(d(400).Div(d(202))))
	assert.True(t, m.SellImbalance.Equal(d(202).Div(d(400))))
}

func TestMetrics_ImbalanceZeroWhenOppositeSideEmpty(t *testing.T) {
	snap := model.OrderBookSnapshot{
		Symbol:      "BTCUSDT",
		Bids:        []model.OrderBookLevel{level(100, 4)},
		TimestampMS: 1000,
	}

	m := Metrics(snap, nil, 1000)
	assert.True(t, m.BuyImbalance.IsZero())
}
