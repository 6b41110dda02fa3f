package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/hopper/storage"
)

var (
	pageFlag       int
	limitFlag      int
	historyKind    string
	historyAllNets bool
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"transactions"},
	Short:   "Show operations submitted by hopper",
	Long: `Show the swaps, bridges and transfers hopper submitted, newest first,
from the local journal.

Examples:
  hopper history                 # Page 1 on the active network
  hopper history --page 2        # Page 2
  hopper history --kind bridge   # Bridges only
  hopper history --all-networks  # Every network`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&pageFlag, "page", "p", 1, "page number")
	historyCmd.Flags().IntVarP(&limitFlag, "limit", "l", 10, "operations per page (1-100)")
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "swap, bridge or transfer")
	historyCmd.Flags().BoolVar(&historyAllNets, "all-networks", false, "include every network")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if pageFlag < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	if limitFlag < 1 || limitFlag > 100 {
		return fmt.Errorf("limit must be between 1 and 100")
	}
	switch historyKind {
	case "", storage.KindSwap, storage.KindBridge, storage.KindTransfer:
	default:
		return fmt.Errorf("unknown kind %q", historyKind)
	}

	journal, err := openJournal()
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer journal.Close()

	filter := storage.Filter{Kind: historyKind}
	if !historyAllNets {
		filter.Network = cfg.Network.Name
	}

	total, err := journal.Count(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to count operations: %w", err)
	}
	pages := max((total+limitFlag-1)/limitFlag, 1)

	filter.Limit = limitFlag
	filter.Offset = (pageFlag - 1) * limitFlag
	entries, err := journal.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	scope := cfg.Network.Title
	if historyAllNets {
		scope = "all networks"
	}
	fmt.Printf("📜 Operation history (Page %d/%d):\n", pageFlag, pages)
	fmt.Printf("🌐 Network: %s\n", scope)
	fmt.Println()

	if len(entries) == 0 {
		fmt.Println("   No operations found")
		return nil
	}
	for _, e := range entries {
		printEntry(e)
	}

	if pageFlag < pages {
		fmt.Printf("💡 Use 'hopper history --page %d' to see more\n", pageFlag+1)
	}
	return nil
}

func printEntry(e storage.Entry) {
	status := color.GreenString("✅")
	if e.Status != storage.StatusSuccess {
		status = color.RedString("❌")
	}
	fmt.Printf("%s %s  %-8s %s\n", status, e.CreatedAt.Local().Format(time.DateTime), strings.ToUpper(e.Kind), e.Summary)
	fmt.Printf("   Account: %s  Network: %s\n", truncateAddress(e.Account), e.Network)
	if e.TxHash != "" {
		fmt.Printf("   Hash: %s\n", e.TxHash)
	}
	if e.Error != "" {
		fmt.Printf("   Error: %s\n", color.RedString(e.Error))
	}
	fmt.Println()
}

func truncateAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
