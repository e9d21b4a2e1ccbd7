package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/pools"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/registry"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/rpc"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/store"
	"github.com/Cogwheel-Validator/spectra-swap/quoter/tradein"
)

var (
	quoteChainID   string
	quoteSender    string
	quoteLcdURLs   []string
	quoteMaxRoutes int
	quoteMax       bool
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <token-in-denom> <token-out-denom>",
	Short: "Quote a swap once",
	Long: `Quote a swap against the static pools of the chain config, or against the
live pools when --lcd is given. With --sender the balance is checked as well.

Examples:
  quoter quote 10 uosmo uatom
  quoter quote 10 uosmo uatom --lcd https://lcd.osmosis.zone --sender osmo1...
  quoter quote 0 uosmo uatom --max --sender osmo1... --lcd https://lcd.osmosis.zone --json`,
	Args: cobra.ExactArgs(3),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteChainID, "chain-id", "osmosis-1", "Chain to swap on")
	quoteCmd.Flags().StringVar(&quoteSender, "sender", "", "Sender address, enables the balance check")
	quoteCmd.Flags().StringSliceVar(&quoteLcdURLs, "lcd", nil, "LCD endpoints to fetch pools and balances from, the first is the primary")
	quoteCmd.Flags().IntVar(&quoteMaxRoutes, "max-routes", tradein.DefaultMaxRoutes, "Number of routes the swap may be split across")
	quoteCmd.Flags().BoolVar(&quoteMax, "max", false, "Send the whole balance of the sender")
}

func runQuote(cmd *cobra.Command, args []string) error {
	amount, inDenom, outDenom := args[0], args[1], args[2]
	ctx := cmd.Context()

	cfg, err := newCLIConfig(ctx, quoteChainID, quoteSender, quoteLcdURLs, tradein.WithMaxRoutes(quoteMaxRoutes))
	if err != nil {
		return err
	}

	in, ok := cfg.registry.FindCurrency(quoteChainID, inDenom)
	if !ok {
		return fmt.Errorf("denom %s is not a currency of %s", inDenom, quoteChainID)
	}
	out, ok := cfg.registry.FindCurrency(quoteChainID, outDenom)
	if !ok {
		return fmt.Errorf("denom %s is not a currency of %s", outDenom, quoteChainID)
	}

	cfg.trade.SetSendCurrency(&in)
	cfg.trade.SetOutCurrency(&out)
	if quoteMax {
		cfg.trade.SetIsMax(true)
	} else {
		cfg.trade.SetAmount(amount)
	}

	resp, quoteErr := rpc.NewQuoteResponse(cfg.trade)
	if jsonOutput {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode quote: %w", err)
		}
		fmt.Println(string(data))
	} else {
		displayQuote(resp)
	}
	return quoteErr
}

// cliConfig is what quote and currencies need to build a tradein.Config
type cliConfig struct {
	registry *registry.Registry
	trade    *tradein.Config
}

// newCLIConfig loads the chain config and the pools. Pools are fetched from
// lcdURLs when given, otherwise the static pools of the chain config are used.
func newCLIConfig(ctx context.Context, chainID, sender string, lcdURLs []string, opts ...tradein.Option) (*cliConfig, error) {
	chains, poolList, err := loadChains(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := registry.New(chains)
	if err != nil {
		return nil, err
	}
	if _, err := reg.GetChain(chainID); err != nil {
		return nil, err
	}

	var balances tradein.BalanceQuerier
	if len(lcdURLs) > 0 {
		client, err := newLcdClient(lcdURLs)
		if err != nil {
			return nil, err
		}
		defer client.Close()

		poolList, err = withSpinner(" Fetching pools...", func() ([]pools.Pool, error) {
			return client.GetPools(ctx)
		})
		if err != nil {
			return nil, err
		}

		if sender != "" {
			bs := store.NewBalanceStore(map[string]store.BalanceFetcher{chainID: client}, time.Minute)
			if err := bs.Refresh(ctx, chainID, sender); err != nil {
				return nil, err
			}
			balances = bs
		}
	}

	opts = append(opts, tradein.WithLogger(log))
	return &cliConfig{
		registry: reg,
		trade:    tradein.NewConfig(reg, balances, chainID, sender, nil, poolList, opts...),
	}, nil
}

func withSpinner(suffix string, fn func() ([]pools.Pool, error)) ([]pools.Pool, error) {
	if jsonOutput {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = suffix
	s.Start()
	defer s.Stop()
	return fn()
}

func displayQuote(resp models.QuoteResponse) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                              SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 70))

	amount := resp.Amount
	if amount == "" {
		amount = "0"
	}
	fmt.Printf("  %-22s %s %s\n", "Send:", amount, color.YellowString(resp.SendCurrency.CoinDenom))
	fmt.Printf("  %-22s %s %s\n", "Receive (expected):", resp.Result.Amount, color.YellowString(resp.OutCurrency.CoinDenom))
	fmt.Printf("  %-22s %s\n", "Effective price:", resp.Result.EffectivePriceInOverOut)
	fmt.Printf("  %-22s %s\n", "Spot price before:", resp.Result.BeforeSpotPriceInOverOut)
	fmt.Printf("  %-22s %s\n", "Spot price after:", resp.Result.AfterSpotPriceInOverOut)
	fmt.Printf("  %-22s %s\n", "Swap fee:", resp.Result.SwapFee)
	fmt.Printf("  %-22s %s\n", "Slippage:", resp.Result.Slippage)

	if len(resp.Routes) > 0 {
		color.Cyan("\nROUTES")
		fmt.Println(strings.Repeat("-", 70))
		for _, r := range resp.Routes {
			hops := r.TokenInDenom
			for i, id := range r.PoolIDs {
				hops += color.HiBlackString(" -(%s)-> ", id) + r.TokenOutDenoms[i]
			}
			fmt.Printf("  %s  %s\n", color.YellowString(r.Amount), hops)
		}
	}

	if resp.ErrorKind != "" {
		fmt.Printf("\n  %s %s\n", color.RedString("["+resp.ErrorKind+"]"), resp.ErrorMessage)
	}
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
