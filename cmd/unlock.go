package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chinmay1088/hopper/wallet"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock wallet for session",
	Long: `Unlock your Hopper wallet for the current session.
The vault is decrypted and the wallet stays unlocked for 30 minutes or until
you run 'hopper lock'.`,
	Args: cobra.NoArgs,
	RunE: runUnlock,
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the wallet and end the session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		newManager().Lock()
		fmt.Println("🔒 Wallet locked")
	},
}

func runUnlock(cmd *cobra.Command, args []string) error {
	manager := newManager()

	if !manager.VaultExists() {
		return wallet.ErrNoWallet
	}

	if manager.IsUnlocked() {
		fmt.Println("✅ Wallet is already unlocked")
		return nil
	}

	fmt.Print("Enter your wallet password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Println("Unlocking wallet...")
	if err := manager.Unlock(string(password)); err != nil {
		return fmt.Errorf("failed to unlock wallet: %w", err)
	}

	fmt.Printf("✅ Wallet unlocked for %s\n", wallet.SessionDuration)
	fmt.Println("💡 Use 'hopper address' to see your address")
	fmt.Println("💡 Use 'hopper balance' to check your balance")

	return nil
}
