package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// GetPrice fetches the current USD price of a coin or token symbol
func (c *Client) GetPrice(ctx context.Context, symbol string) (*PriceData, error) {
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	if stablecoins[normalized] {
		return &PriceData{Symbol: symbol, Ticker: normalized, Price: decimal.NewFromInt(1)}, nil
	}

	ticker := normalized + quoteAsset
	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.baseURL, url.QueryEscape(ticker))

	var result tickerResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch %s price: %w", symbol, err)
	}

	price, err := decimal.NewFromString(result.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid %s price %q: %w", ticker, result.Price, err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("price not found for symbol: %s", symbol)
	}

	return &PriceData{Symbol: symbol, Ticker: ticker, Price: price}, nil
}

// TokenPrice returns only the USD price of symbol
func (c *Client) TokenPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	data, err := c.GetPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return data.Price, nil
}

// NormalizeSymbol maps token symbols onto the exchange ticker of their
// underlying asset.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if alias, ok := priceAliases[s]; ok {
		return alias
	}
	return s
}
