package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/hopper/chains/ethereum"
)

var addressCount uint32

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show wallet addresses",
	Long: `Show the address of the active account. The same address is used on
every supported network.

Examples:
  hopper address              # Account selected by --account (default 0)
  hopper address --count 5    # First five wallet accounts`,
	Args: cobra.NoArgs,
	RunE: runAddress,
}

func init() {
	addressCmd.Flags().Uint32Var(&addressCount, "count", 1, "number of wallet accounts to list")
}

func runAddress(cmd *cobra.Command, args []string) error {
	fmt.Println("🔑 Your wallet addresses:")
	fmt.Printf("🌐 Network: %s\n", cfg.Network.Title)
	fmt.Println()

	if cfg.PrivateKey != "" {
		key, err := ethereum.ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return err
		}
		printAddress("configured key", ethcrypto.PubkeyToAddress(key.PublicKey))
		return nil
	}

	manager := newManager()
	if !manager.VaultExists() {
		return fmt.Errorf("no wallet found. Run 'hopper init' or set HOPPER_PRIVATE_KEY")
	}
	for i := uint32(0); i < max(addressCount, 1); i++ {
		index := accountIndex + i
		address, err := manager.Address(index)
		if err != nil {
			return fmt.Errorf("failed to get address: %w", err)
		}
		printAddress(fmt.Sprintf("account %d", index), address)
	}
	return nil
}

func printAddress(label string, address common.Address) {
	fmt.Printf("%s: %s\n", label, address.Hex())
	fmt.Printf("   📍 %s\n", cfg.Network.AddressURL(address.Hex()))
}
