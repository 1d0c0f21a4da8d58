package schema

import "github.com/shopspring/decimal"

// PriceLevel pairs a quantity with its rate. Both values are exact decimals;
// monetary comparisons must never pass through binary floating point.
type PriceLevel struct {
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
}

// Orderbook is a full snapshot of market depth plus the fee schedule.
// It is reconstructed wholesale on every fetch; there is no partial update.
type Orderbook struct {
	Bids             []PriceLevel    `json:"bids"`
	Asks             []PriceLevel    `json:"asks"`
	MinOrderSize     decimal.Decimal `json:"minOrderSize"`
	BaseWithdrawFee  decimal.Decimal `json:"baseWithdrawFee"`
	QuoteWithdrawFee decimal.Decimal `json:"quoteWithdrawFee"`
	BrokerFee        decimal.Decimal `json:"brokerFee"`
}

// BestBid returns the highest-rate bid, if any.
func (o Orderbook) BestBid() (PriceLevel, bool) {
	return bestLevel(o.Bids, func(candidate, current decimal.Decimal) bool {
		return candidate.GreaterThan(current)
	})
}

// BestAsk returns the lowest-rate ask, if any.
func (o Orderbook) BestAsk() (PriceLevel, bool) {
	return bestLevel(o.Asks, func(candidate, current decimal.Decimal) bool {
		return candidate.LessThan(current)
	})
}

func bestLevel(levels []PriceLevel, better func(candidate, current decimal.Decimal) bool) (PriceLevel, bool) {
	if len(levels) == 0 {
		return PriceLevel{}, false
	}
	best := levels[0]
	for _, level := range levels[1:] {
		if better(level.Rate, best.Rate) {
			best = level
		}
	}
	return best, true
}
