package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/setup"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Print the current native asset quote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		wallet, err := newWallet(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer wallet.Close()

		quote := wallet.Price(cmd.Context())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s $%s (%s%% 24h)", domain.NativeSymbol, domain.FormatStable(quote.PriceUSD), quote.Change24hPct.StringFixed(2))
		if quote.Fallback {
			fmt.Fprint(out, " [fallback]")
		}
		fmt.Fprintln(out)
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Print the balance and usd value of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		wallet, err := newWallet(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer wallet.Close()

		token, err := wallet.Balance(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s ($%s)\n", domain.FormatNative(token.Balance), token.Symbol, domain.FormatStable(token.USDValue))
		fmt.Fprintln(out, wallet.Links().AddressURL(args[0]))
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <recipient> <amount>",
	Short: "Sign and submit a native transfer with the configured keypair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		amount, err := domain.ParseAmount(args[1])
		if err != nil {
			return err
		}
		feeToken, _ := cmd.Flags().GetString("fee-token")

		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		wallet, err := newWallet(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer wallet.Close()

		signature, err := wallet.Pay(cmd.Context(), args[0], amount, domain.FeeToken(strings.ToUpper(feeToken)))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, signature)
		fmt.Fprintln(out, wallet.Links().TxURL(signature))
		return nil
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("out")
		return setup.RunTUI(out)
	},
}

func init() {
	sendCmd.Flags().String("fee-token", "", "NATIVE or STABLE (defaults to config)")
	setupCmd.Flags().String("out", setup.DefaultFilename, "file to write")
}
