package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	capital     float64
	jsonOutput  bool
	verbose     bool
	serverURL   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "tradelens - 트레이딩 전략 분석 도구",
	Long: `tradelens CLI

거래 로그에서 피처 영향도, 포트폴리오 지표, 기간별 성과를 계산합니다.
입력: CSV 또는 XLSX (첫 번째 시트), 헤더 포함.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant features trades.csv --top 10
  go run ./cmd/quant metrics trades.csv --capital 50000
  go run ./cmd/quant compare baseline.csv combined.csv
  go run ./cmd/quant breakdown yearly trades.csv --xlsx breakdown.xlsx
  go run ./cmd/quant exclusions set trades.csv atr volume
  go run ./cmd/quant api --port 8090`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "analysis profile (YAML)")
	rootCmd.PersistentFlags().Float64Var(&capital, "capital", 0, "starting capital (overrides profile)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "run the analysis on a remote API server (e.g. http://localhost:8090)")
}
