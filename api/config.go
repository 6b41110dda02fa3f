package api

import "time"

// Price API defaults
const (
	DefaultPriceAPI = "https://api.binance.com"
	DefaultTimeout  = 30 * time.Second

	// quote asset prices are expressed in
	quoteAsset = "USDT"
)

// symbols priced at one dollar without a lookup
var stablecoins = map[string]bool{
	"USDT":   true,
	"USDC":   true,
	"USDC.E": true,
	"BUSD":   true,
	"DAI":    true,
}

// wrapped and renamed assets map onto the ticker of the underlying coin
var priceAliases = map[string]string{
	"WETH":   "ETH",
	"WBTC":   "BTC",
	"BTC.B":  "BTC",
	"WAVAX":  "AVAX",
	"WBNB":   "BNB",
	"MATIC":  "POL",
	"WMATIC": "POL",
	"WPOL":   "POL",
}
