package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/storage"
	"github.com/chinmay1088/hopper/tasks"
)

var (
	sendUSD bool
	sendYes bool
)

var sendCmd = &cobra.Command{
	Use:   "send [amount] [address]",
	Short: "Send the native coin",
	Long: `Send the active network's native coin to another address.

Examples:
  hopper send 0.1 0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6
  hopper -n avalanche send 5 0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6
  hopper send 20 0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6 --usd`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendUSD, "usd", false, "amount is in USD")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "do not ask for confirmation")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	network := cfg.Network

	recipient, err := ethereum.ParseAddress(args[1])
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	value, err := optionalDecimal("amount", args[0])
	if err != nil {
		return err
	}
	if value == nil || value.IsZero() {
		return tasks.ErrZeroAmount
	}

	key, err := signingKey()
	if err != nil {
		return err
	}
	client, err := dial(ctx, key, common.Address{})
	if err != nil {
		return err
	}
	defer client.Close()

	prices, err := priceOracle()
	if err != nil {
		return err
	}
	defer prices.Close()

	price, priceErr := prices.TokenPrice(ctx, network.CoinSymbol)
	if sendUSD {
		if priceErr != nil {
			return fmt.Errorf("failed to get %s price: %w", network.CoinSymbol, priceErr)
		}
		if !price.IsPositive() {
			return fmt.Errorf("no price for %s", network.CoinSymbol)
		}
		converted := value.Div(price)
		value = &converted
	}
	amount := ethereum.NewAmount(*value, network.Decimals)

	fmt.Printf("🔷 Sending %s\n", network.CoinSymbol)
	fmt.Println()

	balance, err := client.NativeBalance(ctx)
	if err != nil {
		return fmt.Errorf("failed to check balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: you're trying to send %s %s but your balance is only %s %s",
			tasks.ErrInsufficientBalance, amount, network.CoinSymbol, balance, network.CoinSymbol)
	}

	req := ethereum.TransferRequest(recipient, amount)
	tx, err := client.BuildTransaction(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction: %w", err)
	}
	maxFee := ethereum.AmountFromWei(new(big.Int).Sub(tx.Cost(), tx.Value()), network.Decimals)
	if balance.Wei().Cmp(tx.Cost()) < 0 {
		return fmt.Errorf("%w: sending %s %s with up to %s %s in gas fees exceeds your balance of %s %s",
			tasks.ErrInsufficientBalance, amount, network.CoinSymbol, maxFee, network.CoinSymbol, balance, network.CoinSymbol)
	}

	fmt.Printf("📊 Transaction Details:\n")
	fmt.Printf("   From:    %s\n", client.Address().Hex())
	fmt.Printf("   To:      %s\n", recipient.Hex())
	if priceErr == nil {
		fmt.Printf("   Amount:  %s %s (~$%s)\n", amount, network.CoinSymbol, amount.Ether().Mul(price).StringFixed(2))
		fmt.Printf("   Max Fee: ~%s %s (~$%s)\n", maxFee, network.CoinSymbol, maxFee.Ether().Mul(price).StringFixed(2))
	} else {
		fmt.Printf("   Amount:  %s %s\n", amount, network.CoinSymbol)
		fmt.Printf("   Max Fee: ~%s %s\n", maxFee, network.CoinSymbol)
	}
	fmt.Printf("   Gas:     %d units\n", tx.Gas())
	fmt.Printf("   Network: %s\n", network.Title)

	if !confirm(sendYes) {
		fmt.Println("❌ Transaction cancelled by user")
		return nil
	}

	action := fmt.Sprintf("send %s %s to %s", amount, network.CoinSymbol, recipient.Hex())
	stop := spin("Waiting for confirmation...")
	res, err := transfer(cmd, client, req, action)
	stop()

	record(ctx, storage.KindTransfer, client.Address(), res, err)
	return report(res, err)
}

func transfer(cmd *cobra.Command, client *ethereum.Client, req ethereum.TxRequest, action string) (*tasks.Result, error) {
	hash, err := client.Send(cmd.Context(), req)
	if err != nil {
		return nil, &tasks.Failure{Action: action, Err: err}
	}
	logger.Info("sent", "account", client.Address().Hex(), "tx", hash.Hex())

	if _, err := client.WaitForReceipt(cmd.Context(), hash, cfg.ReceiptTimeout); err != nil {
		return nil, &tasks.Failure{Action: action, TxHash: hash, Err: err}
	}
	return &tasks.Result{
		Summary:  action,
		TxHash:   hash,
		Explorer: client.Network().TxURL(hash.Hex()),
	}, nil
}
