package api

import (
	"github.com/shopspring/decimal"
)

// PriceData represents the spot price of an asset
type PriceData struct {
	Symbol string          `json:"symbol"`
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
}

// tickerResponse is the body of /api/v3/ticker/price
type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// apiError is returned by the exchange on non-200 responses
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
