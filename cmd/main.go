// Command walletd runs the wallet session layer behind a JSON API and offers
// one-shot commands for quotes, balances and transfers.
//
// Usage:
//
//	walletd serve --config config.yaml
//	walletd price
//	walletd balance <address>
//	walletd send <recipient> <amount>
//	walletd setup
//
// Environment overrides: WALLET_NETWORK, WALLET_RPC_URL, WALLET_PRICE_URL, WALLET_FALLBACK_PRICE.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vadiminshakov/passkeywallet/config"
	"github.com/vadiminshakov/passkeywallet/internal"
	"github.com/vadiminshakov/passkeywallet/internal/clients"
	"github.com/vadiminshakov/passkeywallet/internal/metrics"
	"github.com/vadiminshakov/passkeywallet/internal/providers/localkey"
)

var rootCmd = &cobra.Command{
	Use:           "walletd",
	Short:         "Smart wallet session daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to yaml config (defaults are used when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(serveCmd, priceCmd, balanceCmd, sendCmd, setupCmd)
}

// loadConfig reads the config named by the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "failed to load config")
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	var zcfg zap.Config
	if lvl == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// newWallet builds the wallet with the keypair provider. m may be nil.
func newWallet(cfg config.Config, logger *zap.Logger, m *metrics.Metrics) (*internal.Wallet, error) {
	provider := localkey.New(cfg.Provider.KeypairPath, clients.NewSolanaRPC(cfg.RPCURL), logger.Named("provider"))
	return internal.NewWallet(cfg, provider, logger, m)
}
