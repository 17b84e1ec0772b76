package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/internal/analysis"
	"github.com/wonny/tradelens/internal/breakdown"
	"github.com/wonny/tradelens/internal/report"
	"github.com/wonny/tradelens/internal/table"
)

// breakdownCmd represents the breakdown command
var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "연도/월별 성과",
	Long: `거래 로그를 연도 또는 월 단위로 나눠 성과를 요약합니다.

Example:
  go run ./cmd/quant breakdown years trades.csv
  go run ./cmd/quant breakdown yearly trades.csv --xlsx breakdown.xlsx
  go run ./cmd/quant breakdown monthly trades.csv --year 2024`,
}

var breakdownYearlyCmd = &cobra.Command{
	Use:   "yearly <trades-file>",
	Short: "연도별 요약",
	Args:  cobra.ExactArgs(1),
	RunE:  runBreakdownYearly,
}

var breakdownMonthlyCmd = &cobra.Command{
	Use:   "monthly <trades-file>",
	Short: "월별 요약 (--year)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBreakdownMonthly,
}

var breakdownYearsCmd = &cobra.Command{
	Use:   "years <trades-file>",
	Short: "데이터에 있는 연도 목록",
	Args:  cobra.ExactArgs(1),
	RunE:  runBreakdownYears,
}

var (
	breakdownYear int
	breakdownXLSX string
)

func init() {
	rootCmd.AddCommand(breakdownCmd)
	breakdownCmd.AddCommand(breakdownYearlyCmd, breakdownMonthlyCmd, breakdownYearsCmd)

	// Flags
	breakdownYearlyCmd.Flags().StringVar(&breakdownXLSX, "xlsx", "", "write yearly and monthly sheets to an Excel workbook")
	breakdownMonthlyCmd.Flags().IntVar(&breakdownYear, "year", 0, "calendar year")
	_ = breakdownMonthlyCmd.MarkFlagRequired("year")
}

// loadBreakdown prepares the app and the request shared by the subcommands
func loadBreakdown(cmd *cobra.Command, path string) (*app, analysis.Request, error) {
	a, err := newApp(cmd.Context())
	if err != nil {
		return nil, analysis.Request{}, err
	}
	t, err := table.LoadFile(path)
	if err != nil {
		a.close()
		return nil, analysis.Request{}, fmt.Errorf("load %s: %w", path, err)
	}
	return a, analysis.Request{Table: t, StartingCapital: a.profile.StartingCapital}, nil
}

func runBreakdownYearly(cmd *cobra.Command, args []string) error {
	a, req, err := loadBreakdown(cmd, args[0])
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	yearly, err := a.backend.Yearly(ctx, req)
	if err != nil {
		return err
	}

	if breakdownXLSX != "" {
		monthly := make(map[int][]breakdown.Summary, len(yearly))
		for _, y := range yearly {
			m, err := a.backend.Monthly(ctx, req, y.Period)
			if err != nil {
				return err
			}
			monthly[y.Period] = m
		}
		if err := report.WriteBreakdownXLSX(breakdownXLSX, yearly, monthly); err != nil {
			return err
		}
	}

	if jsonOutput {
		return printJSON(yearly)
	}
	report.Breakdown(stdout, "YEARLY BREAKDOWN", false, yearly)
	if breakdownXLSX != "" {
		PrintSuccess("Workbook written: " + breakdownXLSX)
	}
	return nil
}

func runBreakdownMonthly(cmd *cobra.Command, args []string) error {
	a, req, err := loadBreakdown(cmd, args[0])
	if err != nil {
		return err
	}
	defer a.close()

	monthly, err := a.backend.Monthly(cmd.Context(), req, breakdownYear)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(monthly)
	}
	if len(monthly) == 0 {
		PrintWarning(fmt.Sprintf("No trades in %d", breakdownYear))
		return nil
	}
	report.Breakdown(stdout, fmt.Sprintf("MONTHLY BREAKDOWN %d", breakdownYear), true, monthly)
	return nil
}

func runBreakdownYears(cmd *cobra.Command, args []string) error {
	a, req, err := loadBreakdown(cmd, args[0])
	if err != nil {
		return err
	}
	defer a.close()

	years, err := a.backend.Years(cmd.Context(), req)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(years)
	}
	report.Years(stdout, years)
	return nil
}
