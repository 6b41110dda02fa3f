package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const minPasswordLength = 8

var initImportKey bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new wallet",
	Long: `Initialize a new Hopper wallet.

This command will:
  - Generate a new 24-word recovery phrase (or import a private key with --import-key)
  - Create an encrypted vault in the data directory
  - Unlock the wallet for the current session`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initImportKey, "import-key", false, "import an existing private key instead of generating a phrase")
}

func runInit(cmd *cobra.Command, args []string) error {
	manager := newManager()

	if manager.VaultExists() {
		return fmt.Errorf("wallet already exists. Remove %s/wallet.vault to create a new wallet", cfg.DataDir)
	}

	fmt.Println("🚀 Initializing Hopper Wallet")
	fmt.Println()

	var privateKey string
	if initImportKey {
		fmt.Print("Enter private key: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read private key: %w", err)
		}
		fmt.Println()
		privateKey = string(raw)
	}

	password, err := readNewPassword()
	if err != nil {
		return err
	}

	if initImportKey {
		if err := manager.ImportPrivateKey(privateKey, password); err != nil {
			return fmt.Errorf("failed to import key: %w", err)
		}
		address, err := manager.Address(0)
		if err != nil {
			return err
		}
		fmt.Println("✅ Private key imported successfully!")
		fmt.Printf("🔑 Address: %s\n", address.Hex())
		return nil
	}

	fmt.Println("Generating wallet...")
	mnemonic, err := manager.Initialize(password)
	if err != nil {
		return fmt.Errorf("failed to initialize wallet: %w", err)
	}

	fmt.Println("✅ Wallet initialized successfully!")
	fmt.Println()
	fmt.Println("🔐 Recovery Phrase (24 words):")
	fmt.Println()
	fmt.Printf("   %s\n", mnemonic)
	fmt.Println()
	fmt.Println("⚠️  IMPORTANT:")
	fmt.Println("   - Write down this recovery phrase and store it securely")
	fmt.Println("   - Anyone with this phrase can access your funds")
	fmt.Println("   - Keep it offline and never share it with anyone")
	fmt.Println()
	fmt.Println("🔑 Next steps:")
	fmt.Println("   - Run 'hopper address' to see your address")
	fmt.Println("   - Run 'hopper balance' to check your balance")

	return nil
}

// readNewPassword prompts for a password twice.
func readNewPassword() (string, error) {
	fmt.Print("Enter a password for your wallet: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}

	fmt.Print("Confirm password: ")
	confirmPassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}
	fmt.Println()

	if string(password) != string(confirmPassword) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(password), nil
}
