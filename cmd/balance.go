package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/hopper/api"
	"github.com/chinmay1088/hopper/balance"
	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/contracts"
	"github.com/chinmay1088/hopper/tasks"
)

var (
	balanceToken     string
	balanceRepeat    int
	balanceAllKeys   bool
	balanceStrategy  string
	balanceAddresses []string
	balanceUSD       bool
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check native or token balances",
	Long: `Check the native coin balance, or a token balance, of one or more
accounts on the active network.

Accounts come from the unlocked wallet (or HOPPER_PRIVATE_KEY), every key in
HOPPER_PRIVATE_KEYS with --all-keys, and any --address given.

Without --strategy the accounts are checked one after another. With
--strategy gather every account is checked at once and the first failure
stops the batch; with --strategy wait every account is checked at once and
failures are reported per account.

Examples:
  hopper balance                              # Native balance
  hopper balance --token USDC --usd           # USDC balance with USD value
  hopper balance --all-keys --strategy wait   # Every configured key at once
  hopper balance --address 0x... --repeat 3   # Watch an address three times`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

func init() {
	balanceCmd.Flags().StringVarP(&balanceToken, "token", "t", "", "token symbol or address (default native coin)")
	balanceCmd.Flags().IntVarP(&balanceRepeat, "repeat", "r", 1, "check each account this many times (sequential only)")
	balanceCmd.Flags().BoolVar(&balanceAllKeys, "all-keys", false, "check every configured private key")
	balanceCmd.Flags().StringVar(&balanceStrategy, "strategy", "", "concurrent batch: gather or wait")
	balanceCmd.Flags().StringSliceVarP(&balanceAddresses, "address", "a", nil, "extra addresses to check")
	balanceCmd.Flags().BoolVar(&balanceUSD, "usd", false, "show USD values")
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	addresses, err := accountsToCheck()
	if err != nil {
		return err
	}

	client, err := dial(ctx, nil, common.Address{})
	if err != nil {
		return err
	}
	defer client.Close()

	var token *common.Address
	if balanceToken != "" {
		addr, err := tasks.ResolveToken(cfg.Network, balanceToken)
		if err != nil {
			return err
		}
		if !contracts.IsNative(addr) {
			token = &addr
		}
	}

	sources := make([]balance.Source, len(addresses))
	for i, addr := range addresses {
		sources[i] = client.WithAddress(addr)
	}
	checker := balance.NewChecker(token, logger)

	fmt.Println("💰 Wallet Balances")
	fmt.Printf("🌐 Network: %s\n", cfg.Network.Title)
	fmt.Println()

	var results []balance.Result
	var batchErr error
	if balanceStrategy == "" || strings.EqualFold(balanceStrategy, "sequential") {
		results = checker.Sequential(ctx, sources, balanceRepeat)
	} else {
		strategy, err := balance.ParseStrategy(balanceStrategy)
		if err != nil {
			return err
		}
		results, batchErr = checker.Concurrent(ctx, sources, strategy)
	}

	printBalances(ctx, results)
	return batchErr
}

// accountsToCheck collects the addresses selected by the flags, in order and
// without duplicates.
func accountsToCheck() ([]common.Address, error) {
	var out []common.Address
	seen := map[common.Address]bool{}
	add := func(addr common.Address) {
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}

	var keys []string
	switch {
	case balanceAllKeys:
		keys = cfg.Keys()
	case cfg.PrivateKey != "":
		keys = []string{cfg.PrivateKey}
	}
	for _, raw := range keys {
		key, err := ethereum.ParsePrivateKey(raw)
		if err != nil {
			return nil, err
		}
		add(ethcrypto.PubkeyToAddress(key.PublicKey))
	}

	if len(keys) == 0 {
		manager := newManager()
		if manager.VaultExists() && manager.IsUnlocked() {
			addr, err := manager.Address(accountIndex)
			if err != nil {
				return nil, err
			}
			add(addr)
		}
	}

	for _, raw := range balanceAddresses {
		addr, err := ethereum.ParseAddress(raw)
		if err != nil {
			return nil, err
		}
		add(addr)
	}

	if len(out) == 0 {
		return nil, errors.New("no account to check. Unlock the wallet, set HOPPER_PRIVATE_KEY or pass --address")
	}
	return out, nil
}

func printBalances(ctx context.Context, results []balance.Result) {
	var oracle *api.CachedPrices
	if balanceUSD {
		p, err := priceOracle()
		if err != nil {
			logger.Warn("prices unavailable", "err", err)
		} else {
			oracle = p
			defer p.Close()
		}
	}

	// each symbol is priced once
	prices := map[string]*decimal.Decimal{}
	for _, res := range results {
		if res.Err != nil {
			color.Red("❌ %s: Error - %v", res.Address.Hex(), res.Err)
			continue
		}
		fmt.Printf("🔷 %s: %s %s\n", res.Address.Hex(), res.Amount, res.Symbol)
		if oracle == nil {
			continue
		}

		price, ok := prices[res.Symbol]
		if !ok {
			p, err := oracle.TokenPrice(ctx, res.Symbol)
			if err != nil {
				fmt.Printf("   💵 USD: Error fetching price - %v\n", err)
			} else {
				price = &p
			}
			prices[res.Symbol] = price
		}
		if price != nil {
			fmt.Printf("   💵 USD: $%s\n", res.Amount.Ether().Mul(*price).StringFixed(2))
		}
	}
}
