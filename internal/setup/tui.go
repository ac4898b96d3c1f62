package setup

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/passkeywallet/config"
	"github.com/vadiminshakov/passkeywallet/internal/domain"
)

// DefaultFilename file written by the wizard.
const DefaultFilename = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers raw wizard input.
type answers struct {
	network       string
	rpcURL        string
	priceSource   string
	fallbackPrice string
	feeToken      string
	keypairPath   string
	httpAddr      string
}

func defaultAnswers() answers {
	d := config.Default()
	return answers{
		network:       d.Network.String(),
		priceSource:   d.Price.Source,
		fallbackPrice: d.Price.Fallback.PriceUSD.String(),
		feeToken:      string(d.Transfer.FeeToken),
		keypairPath:   defaultKeypairPath(),
		httpAddr:      d.HTTP.Addr,
	}
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	if path == "" {
		path = DefaultFilename
	}
	a := defaultAnswers()
	var confirm bool

	// step 1: welcome
	clear()
	fmt.Println(headerStyle.Render("WALLET CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point the wallet at a cluster and a price feed.\n"))

	fmt.Println(stepStyle.Render("STEP 1: NETWORK"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Cluster").
				Options(
					huh.NewOption("Devnet (faucet available)", string(domain.NetworkDevnet)),
					huh.NewOption("Mainnet", string(domain.NetworkMainnet)),
				).
				Value(&a.network),
			huh.NewInput().
				Title("RPC URL").
				Description("Leave empty for the public endpoint of the cluster").
				Value(&a.rpcURL).
				Validate(validateURL),
		),
	).Run()
	if err != nil {
		return err
	}

	clear()
	fmt.Println(headerStyle.Render("WALLET CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: PRICE FEED"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Price source").
				Options(
					huh.NewOption("CoinGecko", config.PriceSourceCoinGecko),
					huh.NewOption("Binance", config.PriceSourceBinance),
					huh.NewOption("Bybit", config.PriceSourceBybit),
				).
				Value(&a.priceSource),
			huh.NewInput().
				Title("Fallback price (USD)").
				Description("Shown while the feed is unreachable").
				Value(&a.fallbackPrice).
				Validate(validateFallbackPrice),
		),
	).Run()
	if err != nil {
		return err
	}

	clear()
	fmt.Println(headerStyle.Render("WALLET CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: SIGNING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Pay network fees in").
				Options(
					huh.NewOption("Stablecoin (sponsored)", string(domain.FeeTokenStable)),
					huh.NewOption("Native SOL", string(domain.FeeTokenNative)),
				).
				Value(&a.feeToken),
			huh.NewInput().
				Title("Keypair file").
				Description("solana-keygen JSON used by the local provider").
				Value(&a.keypairPath).
				Validate(validateKeypairPath),
			huh.NewInput().
				Title("HTTP listen address").
				Value(&a.httpAddr).
				Validate(validateListenAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg, err := buildConfig(a)
	if err != nil {
		return err
	}

	// confirmation
	clear()
	fmt.Println(headerStyle.Render("WALLET CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Network: %s\nRPC: %s\nPrice: %s (fallback $%s)\nFees: %s\nKeypair: %s\nListen: %s\n",
		cfg.Network, cfg.RPCURL, cfg.Price.Source, cfg.Price.Fallback.PriceUSD,
		cfg.Transfer.FeeToken, cfg.Provider.KeypairPath, cfg.HTTP.Addr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := config.Write(path, cfg); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	time.Sleep(800 * time.Millisecond)
	return nil
}

// buildConfig turns wizard answers into a validated config.
func buildConfig(a answers) (config.Config, error) {
	tmp := config.ConfigTmp{
		Network:          a.network,
		RPCURL:           strings.TrimSpace(a.rpcURL),
		PriceSource:      a.priceSource,
		FallbackPriceStr: strings.TrimSpace(a.fallbackPrice),
		FeeToken:         a.feeToken,
		KeypairPath:      strings.TrimSpace(a.keypairPath),
		HTTPAddr:         strings.TrimSpace(a.httpAddr),
	}
	cfg, err := config.Parse(tmp)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func validateFallbackPrice(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("must start with http:// or https://")
	}
	return nil
}

func validateKeypairPath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("keypair path cannot be empty")
	}
	info, err := os.Stat(s)
	if err != nil {
		return fmt.Errorf("keypair file not found: %s", s)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", s)
	}
	return nil
}

func validateListenAddr(s string) error {
	if _, _, err := net.SplitHostPort(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("must be host:port (e.g. :8080)")
	}
	return nil
}

func defaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.config/solana/id.json"
}

func clear() {
	fmt.Print("\033[H\033[2J")
}
