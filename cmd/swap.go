package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/hopper/storage"
	"github.com/chinmay1088/hopper/tasks"
)

var (
	swapFrom     string
	swapTo       string
	swapAmount   string
	swapSlippage string
	swapYes      bool
)

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Swap tokens through a DEX router",
}

var swapWooFiCmd = &cobra.Command{
	Use:   "woofi",
	Short: "Swap through the WooFi router (Arbitrum)",
	Long: `Swap one token for another through the WooFi V2 router.

The minimum output is the spot price conversion less the slippage
tolerance. A token (non-native) source is approved for the router first when
the allowance is short. Without --amount half the native balance, or the
whole token balance, is swapped.

Examples:
  hopper swap woofi --from ETH --to USDC
  hopper swap woofi --from USDC --to ETH --amount 25 --slippage 0.5
  hopper swap woofi --from USDC.e --to WBTC`,
	Args: cobra.NoArgs,
	RunE: runSwapWooFi,
}

func init() {
	flags := swapWooFiCmd.Flags()
	flags.StringVar(&swapFrom, "from", "", "source token symbol or address")
	flags.StringVar(&swapTo, "to", "", "destination token symbol or address")
	flags.StringVar(&swapAmount, "amount", "", "amount of the source token")
	flags.StringVar(&swapSlippage, "slippage", "", "slippage tolerance in percent (default from config)")
	flags.BoolVarP(&swapYes, "yes", "y", false, "do not ask for confirmation")
	_ = swapWooFiCmd.MarkFlagRequired("from")
	_ = swapWooFiCmd.MarkFlagRequired("to")

	swapCmd.AddCommand(swapWooFiCmd)
}

func runSwapWooFi(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	from, err := tasks.ResolveToken(cfg.Network, swapFrom)
	if err != nil {
		return err
	}
	to, err := tasks.ResolveToken(cfg.Network, swapTo)
	if err != nil {
		return err
	}
	amount, err := optionalDecimal("amount", swapAmount)
	if err != nil {
		return err
	}
	slippage, err := decimalOr("slippage", swapSlippage, cfg.Slippage)
	if err != nil {
		return err
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

	fmt.Printf("🔁 Swap %s → %s via WooFi\n", swapFrom, swapTo)
	fmt.Printf("   Account:  %s\n", client.Address().Hex())
	fmt.Printf("   Network:  %s\n", cfg.Network.Title)
	if amount != nil {
		fmt.Printf("   Amount:   %s %s\n", amount, swapFrom)
	}
	fmt.Printf("   Slippage: %s%%\n", slippage)
	if !confirm(swapYes) {
		fmt.Println("❌ Swap cancelled by user")
		return nil
	}

	swapper := tasks.NewSwapper(taskBase(client, prices, cfg.ReceiptTimeout), tasks.WooFi{})
	stop := spin("Swapping...")
	res, err := swapper.Swap(ctx, tasks.SwapParams{
		From:     from,
		To:       to,
		Amount:   amount,
		Slippage: slippage,
	})
	stop()

	record(ctx, storage.KindSwap, client.Address(), res, err)
	return report(res, err)
}
