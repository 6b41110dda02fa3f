package cmd

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"github.com/chinmay1088/hopper/api"
	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/storage"
	"github.com/chinmay1088/hopper/tasks"
	"github.com/chinmay1088/hopper/wallet"
)

const (
	journalFile = "journal.db"
	httpTimeout = 30 * time.Second
)

// account index of the wallet, --account
var accountIndex uint32

func init() {
	rootCmd.PersistentFlags().Uint32Var(&accountIndex, "account", 0, "wallet account index (m/44'/60'/0'/0/<index>)")
}

func newManager() *wallet.Manager {
	return wallet.NewManager(cfg.DataDir)
}

// signingKey prefers a configured private key over the wallet vault.
func signingKey() (*ecdsa.PrivateKey, error) {
	if cfg.PrivateKey != "" {
		return ethereum.ParsePrivateKey(cfg.PrivateKey)
	}
	manager := newManager()
	if !manager.VaultExists() {
		return nil, wallet.ErrNoWallet
	}
	return manager.PrivateKey(accountIndex)
}

func httpClient() (*http.Client, error) {
	return api.NewHTTPClient(cfg.Proxy, httpTimeout)
}

// dial connects to the active network. A nil key gives a watch-only client
// for address.
func dial(ctx context.Context, key *ecdsa.PrivateKey, address common.Address) (*ethereum.Client, error) {
	hc, err := httpClient()
	if err != nil {
		return nil, err
	}
	return ethereum.Dial(ctx, ethereum.Config{
		Network:      cfg.Network,
		RPCURL:       cfg.RPCURL,
		HTTPClient:   hc,
		PrivateKey:   key,
		Address:      address,
		PollInterval: cfg.PollInterval,
	})
}

func priceOracle() (*api.CachedPrices, error) {
	hc, err := httpClient()
	if err != nil {
		return nil, err
	}
	source := api.NewClient(api.WithHTTPClient(hc), api.WithBaseURL(cfg.PriceAPI))
	prices, err := api.NewCachedPrices(source, api.CacheConfig{Addr: cfg.RedisAddr, TTL: cfg.PriceCacheTTL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to price cache %s: %w", cfg.RedisAddr, err)
	}
	return prices, nil
}

func openJournal() (*storage.Journal, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return storage.Open(filepath.Join(cfg.DataDir, journalFile))
}

// record journals the outcome of an operation. A journal error is logged
// and never hides the outcome itself.
func record(ctx context.Context, kind string, account common.Address, res *tasks.Result, opErr error) {
	entry := storage.Entry{
		Network: cfg.Network.Name,
		Kind:    kind,
		Account: account.Hex(),
		Status:  storage.StatusSuccess,
	}
	if res != nil {
		entry.Summary = res.Summary
		entry.TxHash = res.TxHash.Hex()
	}
	if opErr != nil {
		entry.Status = storage.StatusFailed
		entry.Error = opErr.Error()
		entry.Summary = opErr.Error()
		var failure *tasks.Failure
		if errors.As(opErr, &failure) {
			entry.Summary = failure.Action
			if failure.TxHash != (common.Hash{}) {
				entry.TxHash = failure.TxHash.Hex()
			}
		}
	}

	journal, err := openJournal()
	if err != nil {
		logger.Warn("journal unavailable", "err", err)
		return
	}
	defer journal.Close()
	if _, err := journal.Record(ctx, entry); err != nil {
		logger.Warn("failed to journal operation", "err", err)
	}
}

// spin shows a spinner on stderr until the returned func is called.
func spin(description string) func() {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
		_ = bar.Finish()
	}
}

// report prints a confirmed operation. Failures are returned and printed by main.
func report(res *tasks.Result, err error) error {
	if err != nil {
		var failure *tasks.Failure
		if errors.As(err, &failure) && failure.TxHash != (common.Hash{}) {
			fmt.Printf("🔗 Explorer: %s\n", cfg.Network.TxURL(failure.TxHash.Hex()))
		}
		return err
	}
	color.Green("✅ %s", res.Summary)
	fmt.Printf("📝 Transaction Hash: %s\n", res.TxHash.Hex())
	fmt.Printf("🔗 Explorer: %s\n", res.Explorer)
	return nil
}

func confirm(skip bool) bool {
	if skip {
		return true
	}
	fmt.Println()
	fmt.Printf("🚨 You are on %s. By confirming this transaction real funds will be sent.\n", cfg.Network.Title)
	fmt.Printf("Press y to confirm or n to stop (y/n): ")

	var response string
	fmt.Scanln(&response)

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// optionalDecimal parses s, returning nil for an empty string.
func optionalDecimal(name, s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid %s %q: %w", name, s, ethereum.ErrNegativeAmount)
	}
	return &d, nil
}

// decimalOr parses s, falling back to def for an empty string.
func decimalOr(name, s string, def decimal.Decimal) (decimal.Decimal, error) {
	d, err := optionalDecimal(name, s)
	if err != nil || d == nil {
		return def, err
	}
	return *d, nil
}

func taskBase(client *ethereum.Client, prices tasks.PriceOracle, timeout time.Duration) tasks.Base {
	return tasks.Base{
		Wallet:         client,
		Prices:         prices,
		Logger:         logger,
		ReceiptTimeout: timeout,
	}
}
