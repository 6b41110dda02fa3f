// Package config loads hopper's settings from flags, HOPPER_* environment
// variables, .env files and <data_dir>/config.yaml, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/chinmay1088/hopper/chains/ethereum"
)

const (
	EnvPrefix  = "HOPPER"
	configName = "config.yaml"
)

// Keys
const (
	KeyNetwork              = "network"
	KeyPrivateKey           = "private_key"
	KeyPrivateKeys          = "private_keys"
	KeyProxy                = "proxy"
	KeyRPCURL               = "rpc_url"
	KeySlippage             = "slippage"
	KeyMaxFee               = "max_fee"
	KeyReceiptTimeout       = "receipt_timeout"
	KeyBridgeReceiptTimeout = "bridge_receipt_timeout"
	KeyPollInterval         = "poll_interval"
	KeyLogLevel             = "log_level"
	KeyPriceAPI             = "price_api"
	KeyRedisAddr            = "redis_addr"
	KeyPriceCacheTTL        = "price_cache_ttl"
	KeyOtelEndpoint         = "otel_endpoint"
	KeyDataDir              = "data_dir"
)

var defaults = map[string]interface{}{
	KeyNetwork:              ethereum.Arbitrum.Name,
	KeySlippage:             "1",
	KeyMaxFee:               "1",
	KeyReceiptTimeout:       "200s",
	KeyBridgeReceiptTimeout: "300s",
	KeyPollInterval:         "2s",
	KeyLogLevel:             "info",
	KeyPriceAPI:             "https://api.binance.com",
	KeyPriceCacheTTL:        "30s",
}

// Config is the resolved configuration
type Config struct {
	Network              ethereum.Network
	PrivateKey           string
	PrivateKeys          []string
	Proxy                string
	RPCURL               string
	Slippage             decimal.Decimal
	MaxFee               decimal.Decimal
	ReceiptTimeout       time.Duration
	BridgeReceiptTimeout time.Duration
	PollInterval         time.Duration
	LogLevel             string
	PriceAPI             string
	RedisAddr            string
	PriceCacheTTL        time.Duration
	OtelEndpoint         string
	DataDir              string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetDefault(KeyDataDir, DefaultDataDir())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultDataDir is ~/.hopper, or ./.hopper when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hopper"
	}
	return filepath.Join(home, ".hopper")
}

// LoadEnvFiles loads .env from the working directory when present, then
// every extra file. Variables already set in the environment win.
func LoadEnvFiles(extra ...string) error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	if len(extra) == 0 {
		return nil
	}
	if err := godotenv.Load(extra...); err != nil {
		return fmt.Errorf("failed to load env files %v: %w", extra, err)
	}
	return nil
}

// ReadFile merges <data_dir>/config.yaml into v when it exists.
func ReadFile(v *viper.Viper) error {
	path := filepath.Join(v.GetString(KeyDataDir), configName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// SaveNetwork persists the active network to <data_dir>/config.yaml.
func SaveNetwork(v *viper.Viper, network string) error {
	n, err := ethereum.NetworkByName(network)
	if err != nil {
		return err
	}

	dir := v.GetString(KeyDataDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file := viper.New()
	path := filepath.Join(dir, configName)
	file.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	file.Set(KeyNetwork, n.Name)
	if err := file.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	v.Set(KeyNetwork, n.Name)
	return nil
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	network, err := ethereum.NetworkByName(v.GetString(KeyNetwork))
	if err != nil {
		return nil, err
	}

	slippage, err := parseDecimal(v, KeySlippage)
	if err != nil {
		return nil, err
	}
	if slippage.IsNegative() || slippage.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("invalid %s: %s is outside [0, 100)", KeySlippage, slippage)
	}

	maxFee, err := parseDecimal(v, KeyMaxFee)
	if err != nil {
		return nil, err
	}
	if !maxFee.IsPositive() {
		return nil, fmt.Errorf("invalid %s: must be positive", KeyMaxFee)
	}

	durations := map[string]*time.Duration{}
	cfg := &Config{
		Network:      network,
		PrivateKey:   strings.TrimSpace(v.GetString(KeyPrivateKey)),
		PrivateKeys:  parseList(v.GetString(KeyPrivateKeys)),
		Proxy:        strings.TrimSpace(v.GetString(KeyProxy)),
		RPCURL:       strings.TrimSpace(v.GetString(KeyRPCURL)),
		Slippage:     slippage,
		MaxFee:       maxFee,
		LogLevel:     v.GetString(KeyLogLevel),
		PriceAPI:     v.GetString(KeyPriceAPI),
		RedisAddr:    strings.TrimSpace(v.GetString(KeyRedisAddr)),
		OtelEndpoint: strings.TrimSpace(v.GetString(KeyOtelEndpoint)),
		DataDir:      v.GetString(KeyDataDir),
	}
	durations[KeyReceiptTimeout] = &cfg.ReceiptTimeout
	durations[KeyBridgeReceiptTimeout] = &cfg.BridgeReceiptTimeout
	durations[KeyPollInterval] = &cfg.PollInterval
	durations[KeyPriceCacheTTL] = &cfg.PriceCacheTTL

	for key, dst := range durations {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", key)
		}
		*dst = d
	}

	if cfg.DataDir == "" {
		return nil, errors.New("data_dir is required")
	}
	return cfg, nil
}

// Keys returns every signing key configured, the single key first.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.PrivateKeys)+1)
	if c.PrivateKey != "" {
		keys = append(keys, c.PrivateKey)
	}
	for _, k := range c.PrivateKeys {
		if k != c.PrivateKey {
			keys = append(keys, k)
		}
	}
	return keys
}

func parseDecimal(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func parseList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
