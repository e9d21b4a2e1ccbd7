package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Cogwheel-Validator/spectra-swap/quoter/models"
)

var currenciesLcdURLs []string

var currenciesCmd = &cobra.Command{
	Use:     "currencies <chain-id>",
	Aliases: []string{"ls"},
	Short:   "List the currencies that can be swapped on a chain",
	Long: `List the chain currencies that appear in at least one pool, in chain order.

Examples:
  quoter currencies osmosis-1
  quoter currencies osmosis-1 --lcd https://lcd.osmosis.zone --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCurrencies,
}

func init() {
	rootCmd.AddCommand(currenciesCmd)

	currenciesCmd.Flags().StringSliceVar(&currenciesLcdURLs, "lcd", nil, "LCD endpoints to fetch pools from")
}

func runCurrencies(cmd *cobra.Command, args []string) error {
	cfg, err := newCLIConfig(cmd.Context(), args[0], "", currenciesLcdURLs)
	if err != nil {
		return err
	}

	sendable := cfg.trade.SendableCurrencies()
	if jsonOutput {
		if sendable == nil {
			sendable = []models.Currency{}
		}
		data, err := json.MarshalIndent(sendable, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode currencies: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(sendable) == 0 {
		fmt.Println("\nNo currency of this chain is in a pool.")
		return nil
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     SENDABLE CURRENCIES  %s", args[0])
	fmt.Println(strings.Repeat("=", 70))
	for _, c := range sendable {
		fmt.Printf("  %-10s  %2d decimals  %s\n",
			color.YellowString(c.CoinDenom),
			c.CoinDecimals,
			color.HiBlackString(c.CoinMinimalDenom))
	}
	fmt.Printf("\nTotal: %d currencies\n\n", len(sendable))
	return nil
}
