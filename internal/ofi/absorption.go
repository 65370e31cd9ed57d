package ofi

import (
	"github.com/ofisentinel/sentinel/internal/model"
)

// AbsorptionVerdict is the outcome of the absorption detector.
type AbsorptionVerdict string

const (
	AbsorptionNone AbsorptionVerdict = "none"
	AbsorptionBuy  AbsorptionVerdict = "buy"
	AbsorptionSell AbsorptionVerdict = "sell"
)

// Absorption detects large opposing trade flow that failed to move the
// best quote in that direction.
//
// prevBestBid is taken from bids[1] of the SAME snapshot, not from a
// prior snapshot in time. This is deliberate, not an oversight — absorption
// compares levels within one snapshot rather than across two points in
// time.
func Absorption(snapshot model.OrderBookSnapshot, trades []model.TradeData, metrics model.OFIMetrics, params model.StrategyParams) AbsorptionVerdict {
	if len(snapshot.Bids) < 1 || len(trades) < 1 {
		return AbsorptionNone
	}

	bestBid := snapshot.Bids[0].Price
	prevBestBid := bestBid
	if len(snapshot.Bids) >= 2 {
		prevBestBid = snapshot.Bids[1].Price
	}

	deltaThreshold := params.EffectiveDeltaThreshold()
	negThreshold := deltaThreshold.Neg()

	if metrics.Delta.LessThan(negThreshold) && bestBid.GreaterThanOrEqual(prevBestBid) {
		return AbsorptionBuy
	}
	if metrics.Delta.GreaterThan(deltaThreshold) && bestBid.LessThanOrEqual(prevBestBid) {
		return AbsorptionSell
	}
	return AbsorptionNone
}
