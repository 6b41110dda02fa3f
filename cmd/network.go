package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/config"
	"github.com/chinmay1088/hopper/tasks"
)

var networkCmd = &cobra.Command{
	Use:   "network [name]",
	Short: "Show or change network",
	Long: `Show the active network or switch to another one. The choice is saved
to config.yaml in the data directory.

Examples:
  hopper network            # Show the active network
  hopper network avalanche  # Switch to Avalanche
  hopper network bsc        # Switch to BNB Smart Chain`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNetwork,
}

func runNetwork(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		showNetworks()
		return nil
	}

	network, err := ethereum.NetworkByName(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s. Use one of: %s", err, args[0], networkNames())
	}
	if err := config.SaveNetwork(v, network.Name); err != nil {
		return err
	}
	cfg.Network = network

	fmt.Printf("🌐 Switched to %s\n", color.GreenString(network.Title))
	printNetworkDetails(network)
	return nil
}

func showNetworks() {
	fmt.Printf("🌐 Current network: %s\n", color.GreenString(cfg.Network.Title))
	printNetworkDetails(cfg.Network)
	fmt.Println()
	fmt.Println("Available networks:")
	for _, n := range ethereum.Networks() {
		marker := "  "
		if n.Name == cfg.Network.Name {
			marker = "➜ "
		}
		fmt.Printf("  %s%-10s %s (chain %s)\n", marker, n.Name, n.Title, n.ChainID)
	}
}

func printNetworkDetails(n ethereum.Network) {
	fmt.Println()
	fmt.Println("Network details:")
	fmt.Printf("   - Chain ID: %s\n", n.ChainID)
	fmt.Printf("   - Coin: %s\n", n.CoinSymbol)
	fmt.Printf("   - RPC: %s\n", n.RPC)
	fmt.Printf("   - Explorer: %s\n", n.Explorer)

	var venues []string
	if _, ok := (tasks.WooFi{}).Router(n.Name); ok {
		venues = append(venues, "WooFi swaps")
	}
	if _, ok := tasks.StargatePoolFor(n.Name); ok {
		venues = append(venues, "Stargate bridge")
	}
	if len(venues) == 0 {
		fmt.Printf("   - %s\n", color.YellowString("Balance checks and transfers only"))
		return
	}
	fmt.Printf("   - Available: %s\n", strings.Join(venues, ", "))
}

func networkNames() string {
	var names []string
	for _, n := range ethereum.Networks() {
		names = append(names, n.Name)
	}
	return strings.Join(names, ", ")
}
