package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	priceCacheKeyPrefix = "hopper:price:"
	defaultPriceTTL     = 30 * time.Second
)

// PriceSource is anything that can quote a USD price for a symbol.
type PriceSource interface {
	TokenPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type CacheConfig struct {
	Addr string
	TTL  time.Duration
}

// CachedPrices keeps recent quotes in redis so batch runs do not hit the
// price API for every account.
type CachedPrices struct {
	source PriceSource
	cache  *redis.Client
	ttl    time.Duration
}

// NewCachedPrices wraps source. With an empty address the cache is disabled
// and every call goes to source.
func NewCachedPrices(source PriceSource, cfg CacheConfig) (*CachedPrices, error) {
	if source == nil {
		return nil, errors.New("price source is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return &CachedPrices{source: source}, nil
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultPriceTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &CachedPrices{source: source, cache: client, ttl: cfg.TTL}, nil
}

func (p *CachedPrices) TokenPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p.cache == nil {
		return p.source.TokenPrice(ctx, symbol)
	}

	key := priceCacheKeyPrefix + NormalizeSymbol(symbol)
	if cached, err := p.cache.Get(ctx, key).Result(); err == nil {
		if price, err := decimal.NewFromString(cached); err == nil {
			return price, nil
		}
	}

	price, err := p.source.TokenPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	// a failed write only costs a refetch next time
	_ = p.cache.Set(ctx, key, price.String(), p.ttl).Err()
	return price, nil
}

func (p *CachedPrices) Close() error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Close()
}
