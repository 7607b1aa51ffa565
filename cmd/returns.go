package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var returnsCmd = &cobra.Command{
	Use:   "returns <symbol>",
	Short: "Show daily return statistics for a ticker or index",
	Example: `  returns HSBC.L
  returns ^FTSE --range 1y`,
	Args: cobra.ExactArgs(1),
	RunE: runReturns,
}

func init() {
	returnsCmd.Flags().String("range", "3mo", "history range (1mo, 3mo, 6mo, 1y, 2y, 5y)")
	rootCmd.AddCommand(returnsCmd)
}

func runReturns(cmd *cobra.Command, args []string) error {
	rng, _ := cmd.Flags().GetString("range")

	env, err := initApp(cfg)
	if err != nil {
		return err
	}

	s, err := env.Market.Returns(cmd.Context(), args[0], rng)
	if err != nil {
		return err
	}

	fmt.Printf("%s over %s (%d daily returns)\n", args[0], rng, s.Observations)
	fmt.Printf("  Mean daily return:     %.3f%%\n", s.MeanDailyReturnPct)
	fmt.Printf("  Daily std deviation:   %.3f%%\n", s.StdDevPct)
	fmt.Printf("  Annualized return:     %.2f%%\n", s.AnnualizedReturnPct)
	fmt.Printf("  Annualized volatility: %.2f%%\n", s.AnnualizedVolatilityPct)
	fmt.Printf("  Sharpe ratio:          %.2f\n", s.SharpeRatio)
	fmt.Printf("  Worst / best day:      %.2f%% / %.2f%%\n", s.MinDailyReturnPct, s.MaxDailyReturnPct)
	fmt.Printf("  Total return:          %.2f%%\n", s.TotalReturnPct)
	return nil
}
