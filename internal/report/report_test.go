package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/tradelens/internal/breakdown"
	"github.com/wonny/tradelens/internal/features"
	"github.com/wonny/tradelens/internal/metrics"
)

func f(v float64) *float64 { return &v }

func sampleRanked() []features.Ranked {
	return []features.Ranked{
		{
			Result: features.Result{
				Feature: "rsi", OptimalThreshold: 30, ThresholdDirection: features.DirectionBelow,
				BelowWinRate: 72.5, WinRateLift: 12.5, TradesBelow: 40, TradesTotal: 120,
			},
			Score: 0.812,
		},
		{
			Result: features.Result{
				Feature: "volume", OptimalThreshold: 1e6, ThresholdDirection: features.DirectionAbove,
				AboveWinRate: 61, TradesAbove: 70, TradesTotal: 120,
			},
			Score: 0.2,
		},
	}
}

func sampleYears() []breakdown.Summary {
	return []breakdown.Summary{
		{Period: 2023, TotalGainPct: 12.5, TotalGain: 1250, AccountGrowthPct: 1.25, Trades: 40},
		{Period: 2024, TotalGainPct: -3, TotalGain: -300, AccountGrowthPct: -0.3, Trades: 12},
	}
}

func TestFeatures_Console(t *testing.T) {
	var buf bytes.Buffer
	Features(&buf, sampleRanked())

	out := buf.String()
	assert.Contains(t, out, "FEATURE IMPACT")
	assert.Contains(t, out, "rsi")
	assert.Contains(t, out, "0.812")
	assert.Contains(t, out, "72.5%")
	assert.Contains(t, out, "40/120")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("rsi")), bytes.Index(buf.Bytes(), []byte("volume")))
}

func TestMetrics_Console(t *testing.T) {
	m := metrics.PortfolioMetrics{
		StartingCapital: 100_000,
		MaxDrawdownPct:  f(20),
		ProfitFactor:    &metrics.ProfitFactor{Unbounded: true},
		VaRConfidence:   0.95,
	}

	var buf bytes.Buffer
	Metrics(&buf, m)

	out := buf.String()
	assert.Contains(t, out, "$100000.00")
	assert.Contains(t, out, "20.00%")
	assert.Contains(t, out, "∞")
	assert.Contains(t, out, "VaR / CVaR (95%)")
	assert.Contains(t, out, na, "missing metrics render as n/a")
	assert.Contains(t, out, "PERIOD RETURNS")
}

func TestComparison_Console(t *testing.T) {
	c := metrics.Comparison{
		Correlation: f(0.42),
		Marginal: metrics.Marginal{
			Sharpe: metrics.Delta{Baseline: f(1.1), Combined: f(1.4), Improvement: f(0.3)},
		},
		Tickers:       &metrics.TickerOverlap{Overlapping: 1, CombinedTickers: 3, OverlapPct: 33.33},
		CombinedDecay: &metrics.EdgeDecay{Window: 20, EarlySharpe: f(2), RecentSharpe: f(1), SharpeDecayPct: f(-50)},
	}

	var buf bytes.Buffer
	Comparison(&buf, c)

	out := buf.String()
	assert.Contains(t, out, "0.42")
	assert.Contains(t, out, "0.30")
	assert.Contains(t, out, "1/3 (33.3%)")
	assert.Contains(t, out, "COMBINED EDGE DECAY")
	assert.NotContains(t, out, "BASELINE EDGE DECAY")
	assert.Contains(t, out, "-50.00%")
}

func TestBreakdown_Console(t *testing.T) {
	var buf bytes.Buffer
	Breakdown(&buf, "2024", true, []breakdown.Summary{{Period: 3, TotalGain: 10, Trades: 2}})
	assert.Contains(t, buf.String(), "Mar")
	assert.Contains(t, buf.String(), "MONTH", "headers render upper case")

	buf.Reset()
	Breakdown(&buf, "YEARLY", false, sampleYears())
	assert.Contains(t, buf.String(), "2023")
	assert.Contains(t, buf.String(), "-300.00")
}

func TestExclusions_Console(t *testing.T) {
	var buf bytes.Buffer
	Exclusions(&buf, "/data/trades.csv", nil)
	assert.Contains(t, buf.String(), "(none)")

	buf.Reset()
	Exclusions(&buf, "/data/trades.csv", []string{"atr", "rsi"})
	assert.Contains(t, buf.String(), "atr")
	assert.Contains(t, buf.String(), "/data/trades.csv")
}

func TestWriteBreakdownXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "breakdown.xlsx")
	monthly := map[int][]breakdown.Summary{
		2024: {{Period: 1, TotalGain: -300, Trades: 12}},
		2023: {{Period: 6, TotalGain: 1250, Trades: 40}},
	}
	require.NoError(t, WriteBreakdownXLSX(path, sampleYears(), monthly))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.Equal(t, []string{"Yearly", "2023", "2024"}, fx.GetSheetList())

	v, err := fx.GetCellValue("Yearly", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Year", v)
	v, _ = fx.GetCellValue("Yearly", "A3")
	assert.Equal(t, "2024", v)
	v, _ = fx.GetCellValue("Yearly", "C2")
	assert.Equal(t, "1250", v)

	v, _ = fx.GetCellValue("2023", "A2")
	assert.Equal(t, "June", v)
	v, _ = fx.GetCellValue("2024", "H2")
	assert.Equal(t, "12", v)
}

func TestWriteFeaturesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.xlsx")
	require.NoError(t, WriteFeaturesXLSX(path, sampleRanked()))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	rows, err := fx.GetRows("Features")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Feature", rows[0][1])
	assert.Equal(t, "rsi", rows[1][1])
	assert.Equal(t, "below", rows[1][4])
	assert.Equal(t, "volume", rows[2][1])
}
