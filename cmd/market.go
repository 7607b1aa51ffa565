package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Show the latest UK market indices and sterling rates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cfg)
		if err != nil {
			return err
		}

		quotes := env.Market.Overview(cmd.Context(), env.Catalog.Indices())

		fmt.Printf("%-22s %-10s %12s %8s\n", "Index", "Symbol", "Last", "Change")
		fmt.Println(strings.Repeat("-", 55))
		for _, q := range quotes {
			if q.Error != "" {
				fmt.Printf("%-22s %-10s %12s  (%s)\n", q.Name, q.Symbol, "n/a", q.Error)
				continue
			}
			fmt.Printf("%-22s %-10s %12.4f %+7.2f%%\n", q.Name, q.Symbol, q.Last, q.ChangePct)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(marketCmd)
}
