package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/storage"
	"github.com/chinmay1088/hopper/tasks"
)

var (
	bridgeTo       string
	bridgeAmount   string
	bridgeSlippage string
	bridgeMaxFee   string
	bridgeDestGas  string
	bridgeYes      bool
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Move stablecoins between networks",
}

var bridgeStargateCmd = &cobra.Command{
	Use:   "stargate",
	Short: "Bridge the network's stablecoin through Stargate",
	Long: `Send the active network's Stargate stablecoin (USDC, or USDT on BSC) to
another network through the Stargate router.

The LayerZero fee is quoted first. The transfer is refused when the native
balance cannot pay it, or when its USD value exceeds --max-fee. With
--dest-gas part of the fee is delivered as native coin on the destination
network and its value is subtracted from the fee.

Supported networks: arbitrum, avalanche, polygon, bsc

Examples:
  hopper bridge stargate --to polygon
  hopper bridge stargate --to bsc --amount 0.5 --max-fee 1.1
  hopper -n avalanche bridge stargate --to bsc --dest-gas 0.003`,
	Args: cobra.NoArgs,
	RunE: runBridgeStargate,
}

func init() {
	flags := bridgeStargateCmd.Flags()
	flags.StringVar(&bridgeTo, "to", "", "destination network")
	flags.StringVar(&bridgeAmount, "amount", "", "amount to send (default whole balance)")
	flags.StringVar(&bridgeSlippage, "slippage", "", "slippage tolerance in percent (default from config)")
	flags.StringVar(&bridgeMaxFee, "max-fee", "", "maximum LayerZero fee in USD (default from config)")
	flags.StringVar(&bridgeDestGas, "dest-gas", "", "native coin to receive on the destination network")
	flags.BoolVarP(&bridgeYes, "yes", "y", false, "do not ask for confirmation")
	_ = bridgeStargateCmd.MarkFlagRequired("to")

	bridgeCmd.AddCommand(bridgeStargateCmd)
}

func runBridgeStargate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dst, err := ethereum.NetworkByName(bridgeTo)
	if err != nil {
		return err
	}
	amount, err := optionalDecimal("amount", bridgeAmount)
	if err != nil {
		return err
	}
	slippage, err := decimalOr("slippage", bridgeSlippage, cfg.Slippage)
	if err != nil {
		return err
	}
	maxFee, err := decimalOr("max-fee", bridgeMaxFee, cfg.MaxFee)
	if err != nil {
		return err
	}
	destGas, err := optionalDecimal("dest-gas", bridgeDestGas)
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

	fmt.Printf("🌉 Bridge %s → %s via Stargate\n", cfg.Network.Title, dst.Title)
	fmt.Printf("   Account:  %s\n", client.Address().Hex())
	if amount != nil {
		fmt.Printf("   Amount:   %s\n", amount)
	}
	fmt.Printf("   Max fee:  $%s\n", maxFee)
	if destGas != nil {
		fmt.Printf("   Dest gas: %s %s\n", destGas, dst.CoinSymbol)
	}
	if !confirm(bridgeYes) {
		fmt.Println("❌ Bridge cancelled by user")
		return nil
	}

	stargate := tasks.NewStargate(taskBase(client, prices, cfg.BridgeReceiptTimeout))
	stop := spin("Bridging...")
	res, err := stargate.Send(ctx, tasks.BridgeParams{
		To:         dst.Name,
		Amount:     amount,
		Slippage:   slippage,
		MaxFee:     maxFee,
		DestNative: destGas,
	})
	stop()

	record(ctx, storage.KindBridge, client.Address(), res, err)
	return report(res, err)
}
