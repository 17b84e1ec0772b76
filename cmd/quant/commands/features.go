package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/internal/analysis"
	"github.com/wonny/tradelens/internal/exclusion"
	"github.com/wonny/tradelens/internal/report"
	"github.com/wonny/tradelens/internal/table"
)

// featuresCmd represents the features command
var featuresCmd = &cobra.Command{
	Use:   "features <trades-file>",
	Short: "피처 영향도 순위",
	Long: `각 수치형 피처 컬럼의 최적 임계값과 영향도 점수를 계산합니다.

이 명령어는:
- 승률 차이를 최대화하는 임계값 탐색
- 기대값/승률 lift, 상관계수, 표본 크기로 점수 산출
- 저장된 제외 목록 적용 (quant exclusions)

Example:
  go run ./cmd/quant features trades.csv
  go run ./cmd/quant features trades.csv --gain return_pct --exclude atr,volume --top 10
  go run ./cmd/quant features trades.csv --xlsx features.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runFeatures,
}

var (
	featuresGain    string
	featuresExclude []string
	featuresTop     int
	featuresNoSaved bool
	featuresXLSX    string
)

func init() {
	rootCmd.AddCommand(featuresCmd)

	// Flags
	featuresCmd.Flags().StringVar(&featuresGain, "gain", "", "outcome column (default from profile)")
	featuresCmd.Flags().StringSliceVar(&featuresExclude, "exclude", nil, "extra columns to skip")
	featuresCmd.Flags().IntVar(&featuresTop, "top", 0, "show only the N best features (0 = all)")
	featuresCmd.Flags().BoolVar(&featuresNoSaved, "no-saved", false, "ignore saved exclusions")
	featuresCmd.Flags().StringVar(&featuresXLSX, "xlsx", "", "also write the ranking to an Excel workbook")
}

func runFeatures(cmd *cobra.Command, args []string) error {
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

	req := analysis.FeatureRequest{
		Request:    analysis.Request{Table: t},
		GainColumn: featuresGain,
		Exclude:    featuresExclude,
	}
	if !featuresNoSaved {
		// 원격 서버에서도 같은 키가 나오도록 절대 경로로 전달
		resolved, err := exclusion.Resolve(args[0])
		if err != nil {
			return err
		}
		req.SourceFile = resolved
	}

	rep, err := a.backend.RankFeatures(ctx, req)
	if err != nil {
		return err
	}

	if featuresXLSX != "" {
		if err := report.WriteFeaturesXLSX(featuresXLSX, rep.Features); err != nil {
			return err
		}
	}

	ranked := rep.Features
	if featuresTop > 0 && featuresTop < len(ranked) {
		ranked = ranked[:featuresTop]
	}

	if jsonOutput {
		rep.Features = ranked
		return printJSON(rep)
	}

	report.Features(stdout, ranked)
	if len(rep.Excluded) > 0 {
		PrintKeyValue("Excluded", fmt.Sprint(rep.Excluded), 8)
	}
	if featuresXLSX != "" {
		PrintSuccess("Workbook written: " + featuresXLSX)
	}
	return nil
}
