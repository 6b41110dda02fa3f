package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chinmay1088/hopper/config"
	"github.com/chinmay1088/hopper/telemetry"
)

var (
	version = "0.3.0"
)

// state shared by every command, set up in PersistentPreRunE
var (
	v              = config.New()
	cfg            *config.Config
	logger         = log.New(os.Stderr)
	envFiles       []string
	shutdownTracer telemetry.ShutdownFunc
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hopper",
	Short: "EVM wallet for swaps, bridges and balance checks",
	Long: `Hopper is a command-line EVM wallet. It checks native and token
balances, swaps tokens through WooFi and bridges stablecoins between chains
through Stargate.

Networks: Ethereum, Arbitrum, Optimism, Avalanche, Polygon, BSC

Configuration is read from flags, HOPPER_* environment variables, .env files
and ~/.hopper/config.yaml.

Examples:
  hopper init                                  # Create a new wallet
  hopper unlock                                # Unlock for 30 minutes
  hopper balance --token USDC                  # USDC balance on the active network
  hopper swap woofi --from ETH --to USDC       # Swap half the ETH balance
  hopper bridge stargate --to bsc --amount 10  # Send 10 USDC to BSC
  hopper network avalanche                     # Switch network`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// initTracer is replaced in tests.
var initTracer = telemetry.InitTracer

// Execute adds all child commands to the root command and runs it. Spans are
// flushed whether or not the command fails, since cobra skips post-run hooks
// after a RunE error.
func Execute(ctx context.Context) error {
	defer flushTracer()
	return rootCmd.ExecuteContext(ctx)
}

func flushTracer() {
	if shutdownTracer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(ctx); err != nil {
		logger.Debug("tracer shutdown", "err", err)
	}
	shutdownTracer = nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("network", "n", "", "network to use (default from config)")
	flags.String("rpc-url", "", "override the network RPC endpoint")
	flags.String("proxy", "", "proxy for RPC and price requests (user:pass@host:port)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("data-dir", "", "directory for the vault, journal and config")
	flags.StringSliceVar(&envFiles, "env-file", nil, "extra .env files to load")

	bindFlag(flags, "network", config.KeyNetwork)
	bindFlag(flags, "rpc-url", config.KeyRPCURL)
	bindFlag(flags, "proxy", config.KeyProxy)
	bindFlag(flags, "log-level", config.KeyLogLevel)
	bindFlag(flags, "data-dir", config.KeyDataDir)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(recoveryPhraseCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return err
	}
	if err := config.ReadFile(v); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = newLogger(cfg.LogLevel)

	shutdownTracer, err = initTracer(cmd.Context(), "hopper", version, cfg.OtelEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "endpoint", cfg.OtelEndpoint, "err", err)
	}
	return nil
}

func newLogger(level string) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "hopper",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		l.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// bindFlag ties a flag to a viper key. It fails only for a misspelled flag name.
func bindFlag(flags *pflag.FlagSet, name, key string) {
	if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(err)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Hopper v%s\n", version)
	},
}
