package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/strategy-cli/internal/model"
	"github.com/sells-group/strategy-cli/internal/scorer"
)

var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "List sector outlook scores",
	Long: `Score every catalog sector on its risk profile alone. With --sector,
print the factors behind one sector's score and its tracked indicators.`,
	RunE: runSectors,
}

func init() {
	sectorsCmd.Flags().String("sector", "", "show factor detail for one sector")
	rootCmd.AddCommand(sectorsCmd)
}

func runSectors(cmd *cobra.Command, _ []string) error {
	env, err := initApp(cfg)
	if err != nil {
		return err
	}

	if name, _ := cmd.Flags().GetString("sector"); name != "" {
		return printSectorDetail(env, name)
	}

	fmt.Printf("%-24s %6s %6s %6s %7s %s\n", "Sector", "Geo", "Supply", "Flow", "Overall", "Rec")
	fmt.Println(strings.Repeat("-", 60))
	for _, sec := range env.Catalog.Sectors() {
		profile, err := env.Catalog.Profile(sec.Name)
		if err != nil {
			return err
		}
		res, err := env.Engine.Evaluate(model.CompanyRecord{Sector: sec.Name}, profile, nil)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s %6.2f %6.2f %6.2f %7.3f %s %s\n",
			sec.Name, res.SubScores.Geopolitical, res.SubScores.SupplyChain, res.SubScores.CapitalFlow,
			res.Overall, recommendationMark(res.Recommendation), res.Recommendation)
	}
	return nil
}

func printSectorDetail(env *appEnv, name string) error {
	sec, ok := env.Catalog.Sector(name)
	if !ok {
		return eris.Wrapf(scorer.ErrUnknownSector, "sectors: %q (known: %s)", name,
			strings.Join(env.Catalog.SectorNames(), ", "))
	}
	profile, err := env.Catalog.Profile(sec.Name)
	if err != nil {
		return err
	}

	w := os.Stdout
	fmt.Fprintf(w, "%s\n", sec.Name)
	if sec.SupplyChainGroup != "" {
		fmt.Fprintf(w, "  Supply chain group: %s\n", sec.SupplyChainGroup)
	}
	for _, d := range model.Dimensions() {
		fmt.Fprintf(w, "\n  %s (adjustment x%.2f)\n", d.Label(), sec.Adjustment(d))
		for _, f := range profile.FactorsFor(d) {
			fmt.Fprintf(w, "    %-36s weight %.2f  value %.3f\n", f.Name, f.Weight, f.Value)
		}
	}
	if len(sec.Indicators) > 0 {
		fmt.Fprintln(w, "\n  Indicators")
		for _, f := range sec.Indicators {
			fmt.Fprintf(w, "    %-36s %.2f\n", f.Name, f.Value)
		}
	}
	return nil
}
