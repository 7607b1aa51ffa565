package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/strategy-cli/internal/catalog"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Print strategic recommendations and risk mitigation guidance",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		c := cat.Commentary()

		fmt.Println("Strategic recommendations")
		for _, g := range c.Recommendations {
			fmt.Printf("\n  %s\n", g.Level)
			for _, item := range g.Items {
				fmt.Printf("    - %s\n", item)
			}
		}

		fmt.Println("\nRisk mitigation")
		for _, g := range c.Mitigation {
			fmt.Printf("\n  %s\n", g.Risk)
			for _, s := range g.Strategies {
				fmt.Printf("    - %s\n", s)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategyCmd)
}
