package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/strategy-cli/internal/analysis"
	"github.com/sells-group/strategy-cli/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <company> [company...]",
	Short: "Score one or more companies",
	Long: `Resolve each company against the catalog, fetch recent market data and
print its sub-scores, overall score, recommendation and insights.

Examples:
  analyze "Rolls-Royce"
  analyze HSBC.L tesco --format json
  analyze "BAE Systems" --no-market`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("format", "text", "output format: text or json")
	f.Bool("no-market", false, "skip market data and score on sector outlook only")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := zap.L().With(zap.String("command", "analyze"))

	env, err := initApp(cfg)
	if err != nil {
		return err
	}
	svc := env.Analysis
	if noMarket, _ := cmd.Flags().GetBool("no-market"); noMarket {
		svc = analysis.NewService(env.Engine, env.Catalog, env.Catalog, nil)
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return eris.Errorf("analyze: unsupported format %q", format)
	}

	var results []*analysis.Analysis
	for _, q := range args {
		a, err := svc.Analyze(cmd.Context(), q)
		if err != nil {
			return eris.Wrapf(err, "analyze: %s", q)
		}
		log.Debug("analyze: scored",
			zap.String("ticker", a.Company.Ticker),
			zap.Float64("overall", a.Result.Overall),
		)
		results = append(results, a)
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for i, a := range results {
		if i > 0 {
			fmt.Println()
		}
		printAnalysis(os.Stdout, a)
	}
	return nil
}

func printAnalysis(w io.Writer, a *analysis.Analysis) {
	res := a.Result
	fmt.Fprintf(w, "%s (%s)\n", a.Company.Name, a.Company.Ticker)
	fmt.Fprintf(w, "  Sector:         %s\n", res.Sector)
	fmt.Fprintf(w, "  Geopolitical:   %.3f\n", res.SubScores.Geopolitical)
	fmt.Fprintf(w, "  Supply chain:   %.3f\n", res.SubScores.SupplyChain)
	fmt.Fprintf(w, "  Capital flow:   %.3f\n", res.SubScores.CapitalFlow)
	fmt.Fprintf(w, "  Overall:        %.3f\n", res.Overall)
	fmt.Fprintf(w, "  Recommendation: %s (%s confidence)\n", res.Recommendation, res.Confidence)

	if m := a.Metrics; m != nil {
		fmt.Fprintf(w, "  Price:          %.2f (%+.2f%%)\n", m.CurrentPrice, m.PriceChangePct)
		printOptional(w, "Volatility", m.VolatilityPct, "%.2f%% daily")
		printOptional(w, "Ann. return", m.AnnualizedReturnPct, "%.1f%%")
		printOptional(w, "Sharpe", m.SharpeRatio, "%.2f")
		printOptional(w, "Max drawdown", m.MaxDrawdownPct, "%.1f%%")
	}
	if a.MetricsError != "" {
		fmt.Fprintf(w, "  Market data:    unavailable (%s)\n", a.MetricsError)
	}
	if len(res.Insights) > 0 {
		fmt.Fprintln(w, "  Insights:")
		for _, s := range res.Insights {
			fmt.Fprintf(w, "    - %s\n", s)
		}
	}
}

func printOptional(w io.Writer, label string, v *float64, format string) {
	if v == nil {
		return
	}
	pad := strings.Repeat(" ", max(0, 15-len(label)))
	fmt.Fprintf(w, "  %s:%s"+format+"\n", label, pad, *v)
}

// recommendationMark is a one-character marker for table output.
func recommendationMark(r model.Recommendation) string {
	switch r {
	case model.RecommendationBuy:
		return "+"
	case model.RecommendationSell:
		return "-"
	default:
		return "="
	}
}
