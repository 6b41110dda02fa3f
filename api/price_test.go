package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPriceServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/api/v3/ticker/price" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.URL.Query().Get("symbol") {
		case "ETHUSDT":
			_, _ = w.Write([]byte(`{"symbol":"ETHUSDT","price":"3012.55000000"}`))
		case "BTCUSDT":
			_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"64000.10000000"}`))
		case "ZEROUSDT":
			_, _ = w.Write([]byte(`{"symbol":"ZEROUSDT","price":"0"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetPrice(t *testing.T) {
	var hits int32
	srv := newPriceServer(t, &hits)
	client := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	ctx := context.Background()

	data, err := client.GetPrice(ctx, "eth")
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", data.Ticker)
	assert.True(t, data.Price.Equal(decimal.RequireFromString("3012.55")))

	// wrapped tokens are priced as their underlying coin
	price, err := client.TokenPrice(ctx, "WBTC")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("64000.1")))

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetPriceStablecoins(t *testing.T) {
	var hits int32
	srv := newPriceServer(t, &hits)
	client := NewClient(WithBaseURL(srv.URL))

	for _, symbol := range []string{"USDC", "usdt", "USDC.e"} {
		price, err := client.TokenPrice(context.Background(), symbol)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromInt(1)), symbol)
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestGetPriceErrors(t *testing.T) {
	var hits int32
	srv := newPriceServer(t, &hits)
	client := NewClient(WithBaseURL(srv.URL))
	ctx := context.Background()

	_, err := client.GetPrice(ctx, "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol.")

	_, err = client.GetPrice(ctx, "ZERO")
	assert.Error(t, err)

	_, err = client.GetPrice(ctx, "  ")
	assert.Error(t, err)
}

func TestParseProxy(t *testing.T) {
	u, err := ParseProxy("user:pass@10.0.0.1:8080")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "10.0.0.1:8080", u.Host)
	assert.Equal(t, "user", u.User.Username())

	u, err = ParseProxy("socks5://127.0.0.1:1080")
	require.NoError(t, err)
	assert.Equal(t, "socks5", u.Scheme)

	hc, err := NewHTTPClient("127.0.0.1:3128", 0)
	require.NoError(t, err)
	assert.NotNil(t, hc.Transport)
	assert.Equal(t, DefaultTimeout, hc.Timeout)

	hc, err = NewHTTPClient("", 0)
	require.NoError(t, err)
	assert.Nil(t, hc.Transport)
}

type countingSource struct {
	calls int
	price decimal.Decimal
	err   error
}

func (s *countingSource) TokenPrice(context.Context, string) (decimal.Decimal, error) {
	s.calls++
	return s.price, s.err
}

func TestCachedPricesDisabled(t *testing.T) {
	source := &countingSource{price: decimal.NewFromInt(20)}
	prices, err := NewCachedPrices(source, CacheConfig{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		price, err := prices.TokenPrice(context.Background(), "AVAX")
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromInt(20)))
	}
	assert.Equal(t, 3, source.calls)
	assert.NoError(t, prices.Close())

	source.err = errors.New("boom")
	_, err = prices.TokenPrice(context.Background(), "AVAX")
	assert.Error(t, err)

	_, err = NewCachedPrices(nil, CacheConfig{})
	assert.Error(t, err)
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "ETH", NormalizeSymbol(" weth "))
	assert.Equal(t, "POL", NormalizeSymbol("MATIC"))
	assert.Equal(t, "ARB", NormalizeSymbol("arb"))
}
