package api

// API Client-
//
// Files:
//   config.go - price API endpoint, stablecoins and symbol aliases
//   types.go  - response structs (priceData, ticker, api errors)
//   base.go   - core client (client struct, newClient, proxy-aware http client, helpers)
//   price.go  - spot prices for coins and tokens
//   cache.go  - optional redis cache in front of any price source
//
// Usage:
//   client := api.NewClient(api.WithHTTPClient(httpClient))
//   price, err := client.TokenPrice(ctx, "ETH")
//   prices, err := api.NewCachedPrices(client, api.CacheConfig{Addr: "localhost:6379"})
