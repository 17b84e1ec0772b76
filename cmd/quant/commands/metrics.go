package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/internal/analysis"
	"github.com/wonny/tradelens/internal/report"
	"github.com/wonny/tradelens/internal/table"
)

// metricsCmd represents the metrics command
var metricsCmd = &cobra.Command{
	Use:   "metrics <trades-file>",
	Short: "포트폴리오 지표",
	Long: `거래 로그의 자산 곡선에서 위험/성과 지표를 계산합니다.

CAGR, Sharpe, Sortino, Calmar, 최대 낙폭, 승률, Profit Factor,
t-통계량, VaR/CVaR, 일/주/월 수익률 통계.

Example:
  go run ./cmd/quant metrics trades.csv
  go run ./cmd/quant metrics trades.csv --capital 50000 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	t, err := table.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}

	m, err := a.backend.PortfolioReport(ctx, analysis.Request{Table: t, StartingCapital: a.profile.StartingCapital})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(m)
	}
	report.Metrics(stdout, m)
	return nil
}
