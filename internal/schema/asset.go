package schema

import "github.com/shopspring/decimal"

// Asset describes a currency supported by the brokerage.
// Values are immutable once parsed; identity is the symbol.
type Asset struct {
	Symbol           string `json:"symbol"`
	Name             string `json:"name"`
	CoinType         string `json:"coinType"`
	Status           string `json:"status"`
	MinConfirmations int    `json:"minConfirmations"`
	StatusMessage    string `json:"statusMessage"`
	Precision        int32  `json:"precision"`
}

// Market describes a tradeable pair. Identity is the symbol.
type Market struct {
	Symbol         string          `json:"symbol"`
	BaseSymbol     string          `json:"baseSymbol"`
	QuoteSymbol    string          `json:"quoteSymbol"`
	PricePrecision int32           `json:"pricePrecision"`
	Status         string          `json:"status"`
	MinTradeSize   decimal.Decimal `json:"minTradeSize"`
	StatusMessage  string          `json:"statusMessage"`
}
