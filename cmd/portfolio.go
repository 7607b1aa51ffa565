package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/strategy-cli/internal/report"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Score a list of companies and summarize recommendations",
	Long: `Score many companies in parallel. Companies come from --companies, a
--file (.xlsx, .csv or one name per line, first column used) or both.
Entries that cannot be resolved are reported as failures.

Examples:
  portfolio --companies "HSBC,Tesco,BP,Rolls-Royce"
  portfolio --file holdings.xlsx --format xlsx --output scores.xlsx
  portfolio --file watchlist.txt --format csv`,
	RunE: runPortfolio,
}

func init() {
	f := portfolioCmd.Flags()
	f.String("companies", "", "comma-separated company names or tickers")
	f.String("file", "", "file listing companies (.xlsx, .csv or text)")
	f.String("format", report.FormatTable, "output format: "+strings.Join(report.Formats(), ", "))
	f.String("output", "", "output file path (default: stdout)")
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, _ []string) error {
	companiesFlag, _ := cmd.Flags().GetString("companies")
	filePath, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	queries := splitAndTrim(companiesFlag)
	if filePath != "" {
		fromFile, err := report.ReadQueries(filePath)
		if err != nil {
			return eris.Wrap(err, "portfolio: read companies")
		}
		queries = append(queries, fromFile...)
	}
	if len(queries) == 0 {
		return eris.New("portfolio: no companies given, use --companies or --file")
	}
	if format == report.FormatXLSX && outputPath == "" {
		return eris.New("portfolio: xlsx output requires --output")
	}

	env, err := initApp(cfg)
	if err != nil {
		return err
	}

	rep, err := env.Analysis.AnalyzePortfolio(cmd.Context(), queries)
	if err != nil {
		return err
	}

	w, err := openOutput(outputPath)
	if err != nil {
		return eris.Wrap(err, "portfolio")
	}
	defer w.Close() //nolint:errcheck

	if err := report.Write(w, rep, format); err != nil {
		return err
	}
	if outputPath != "" {
		zap.L().Info("portfolio: report written",
			zap.String("path", outputPath),
			zap.String("report_id", rep.ID),
		)
	}
	return nil
}
