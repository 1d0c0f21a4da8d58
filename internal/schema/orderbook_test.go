package schema

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestOrderbookDecimalFidelity(t *testing.T) {
	payload := []byte(`{
		"bids": [{"quantity": "0.00000001", "rate": "54123.01"}],
		"asks": [{"quantity": "0.00000002", "rate": "54124.99"}],
		"minOrderSize": "0.0001",
		"baseWithdrawFee": "0.00005",
		"quoteWithdrawFee": "0.25",
		"brokerFee": "0.0075"
	}`)

	var book Orderbook
	require.NoError(t, json.Unmarshal(payload, &book))

	require.Equal(t, "0.00000001", book.Bids[0].Quantity.String())
	require.True(t, book.Bids[0].Quantity.LessThan(book.Asks[0].Quantity))
	require.True(t, book.Asks[0].Quantity.Equal(decimal.RequireFromString("0.00000002")))

	// Round trip must not drift.
	out, err := json.Marshal(book.Bids[0])
	require.NoError(t, err)
	var back PriceLevel
	require.NoError(t, json.Unmarshal(out, &back))
	require.True(t, back.Quantity.Equal(book.Bids[0].Quantity))
}

func TestBestBidAndAsk(t *testing.T) {
	book := Orderbook{
		Bids: []PriceLevel{
			{Quantity: decimal.NewFromInt(1), Rate: decimal.RequireFromString("99.5")},
			{Quantity: decimal.NewFromInt(2), Rate: decimal.RequireFromString("100.1")},
		},
		Asks: []PriceLevel{
			{Quantity: decimal.NewFromInt(1), Rate: decimal.RequireFromString("101.2")},
			{Quantity: decimal.NewFromInt(3), Rate: decimal.RequireFromString("100.9")},
		},
	}

	bid, ok := book.BestBid()
	require.True(t, ok)
	require.Equal(t, "100.1", bid.Rate.String())

	ask, ok := book.BestAsk()
	require.True(t, ok)
	require.Equal(t, "100.9", ask.Rate.String())
}

func TestBestBidEmptyBook(t *testing.T) {
	var book Orderbook
	_, ok := book.BestBid()
	require.False(t, ok)
	_, ok = book.BestAsk()
	require.False(t, ok)
}
