package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/internal/table"
)

// splitTable builds feature 0..n-1 with a +1/-1 gain decided by win(f)
func splitTable(n int, win func(f float64) bool) *table.Table {
	feature := make([]float64, n)
	gain := make([]float64, n)
	for i := 0; i < n; i++ {
		feature[i] = float64(i)
		if win(feature[i]) {
			gain[i] = 1
		} else {
			gain[i] = -1
		}
	}
	return table.NewBuilder().
		Numbers("rsi", feature).
		Numbers(DefaultGainColumn, gain).
		MustBuild()
}

func TestCalculateSingle_PerfectSplitAbove(t *testing.T) {
	tbl := splitTable(40, func(f float64) bool { return f >= 20 })
	calc := NewCalculator(nil)

	res, err := calc.CalculateSingle(tbl, "rsi", "")
	require.NoError(t, err)

	assert.Equal(t, "rsi", res.Feature)
	assert.InDelta(t, 19.5, res.OptimalThreshold, 1e-9)
	assert.Equal(t, DirectionAbove, res.ThresholdDirection)
	assert.InDelta(t, 50.0, res.BaselineWinRate, 1e-9)
	assert.InDelta(t, 100.0, res.AboveWinRate, 1e-9)
	assert.InDelta(t, 0.0, res.BelowWinRate, 1e-9)
	assert.InDelta(t, 50.0, res.WinRateLift, 1e-9)
	assert.InDelta(t, 1.0, res.ExpectancyLift, 1e-9)
	assert.Equal(t, 20, res.TradesAbove)
	assert.Equal(t, 20, res.TradesBelow)
	assert.Equal(t, 40, res.TradesTotal)
	assert.Greater(t, res.Correlation, 0.0)

	require.Len(t, res.PercentileWinRates, PercentileBins)
	for i := 0; i < PercentileBins/2; i++ {
		assert.InDelta(t, 0.0, res.PercentileWinRates[i], 1e-9, "bin %d", i)
	}
	for i := PercentileBins / 2; i < PercentileBins; i++ {
		assert.InDelta(t, 100.0, res.PercentileWinRates[i], 1e-9, "bin %d", i)
	}
}

func TestCalculateSingle_PerfectSplitBelow(t *testing.T) {
	tbl := splitTable(40, func(f float64) bool { return f < 20 })

	res, err := NewCalculator(nil).CalculateSingle(tbl, "rsi", DefaultGainColumn)
	require.NoError(t, err)

	assert.InDelta(t, 19.5, res.OptimalThreshold, 1e-9)
	assert.Equal(t, DirectionBelow, res.ThresholdDirection)
	assert.InDelta(t, 50.0, res.WinRateLift, 1e-9)
	assert.InDelta(t, 1.0, res.ExpectancyLift, 1e-9)
	assert.Equal(t, 20, res.WinningSideTrades())
	assert.Less(t, res.Correlation, 0.0)
}

func TestCalculateSingle_TooFewRows(t *testing.T) {
	tbl := splitTable(9, func(f float64) bool { return f > 4 })

	res, err := NewCalculator(nil).CalculateSingle(tbl, "rsi", "")
	require.NoError(t, err)

	assert.Equal(t, 9, res.TradesTotal)
	assert.Equal(t, 0, res.TradesAbove)
	assert.Equal(t, 0.0, res.Correlation)
	assert.Equal(t, DirectionAbove, res.ThresholdDirection)
	require.Len(t, res.PercentileWinRates, PercentileBins)
	for _, wr := range res.PercentileWinRates {
		assert.Equal(t, NeutralWinRate, wr)
	}
}

func TestCalculateSingle_DropsMissingRows(t *testing.T) {
	feature := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, math.NaN(), 12}
	gain := []float64{1, -1, 1, -1, 1, -1, 1, -1, 1, -1, 1, math.NaN()}
	tbl := table.NewBuilder().
		Numbers("rsi", feature).
		Numbers(DefaultGainColumn, gain).
		MustBuild()

	res, err := NewCalculator(nil).CalculateSingle(tbl, "rsi", "")
	require.NoError(t, err)
	assert.Equal(t, 10, res.TradesTotal)
	assert.Equal(t, res.TradesTotal, res.TradesAbove+res.TradesBelow)
}

func TestCalculateSingle_FallbackToMedian(t *testing.T) {
	// only one split exists and it leaves 2 rows above
	feature := []float64{1, 1, 1, 1, 1, 1, 1, 1, 2, 2}
	gain := []float64{1, -1, 1, -1, 1, -1, 1, -1, 1, 1}
	tbl := table.NewBuilder().
		Numbers("rsi", feature).
		Numbers(DefaultGainColumn, gain).
		MustBuild()

	res, err := NewCalculator(nil).CalculateSingle(tbl, "rsi", "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.OptimalThreshold)
	assert.Equal(t, DirectionAbove, res.ThresholdDirection)
	assert.Equal(t, 2, res.TradesAbove)
	assert.Equal(t, 8, res.TradesBelow)
}

func TestCalculateSingle_TieKeepsFirstCandidate(t *testing.T) {
	// every split has equal win rates on both sides
	tbl := splitTable(20, func(float64) bool { return true })

	res, err := NewCalculator(nil).CalculateSingle(tbl, "rsi", "")
	require.NoError(t, err)
	assert.InDelta(t, 4.5, res.OptimalThreshold, 1e-9)
	assert.Equal(t, DirectionBelow, res.ThresholdDirection)
	assert.InDelta(t, 0.0, res.WinRateLift, 1e-9)
}

func TestCalculateSingle_PnLPartition(t *testing.T) {
	n := 150
	feature := make([]float64, n)
	gain := make([]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		feature[i] = math.Sin(float64(i)) * 100
		gain[i] = math.Cos(float64(i)*0.7) * 3
		total += gain[i]
	}
	tbl := table.NewBuilder().
		Numbers("momentum", feature).
		Numbers(DefaultGainColumn, gain).
		MustBuild()

	res, err := NewCalculator(nil).CalculateSingle(tbl, "momentum", "")
	require.NoError(t, err)

	assert.Equal(t, n, res.TradesAbove+res.TradesBelow)
	assert.InDelta(t, total, res.PnLAbove+res.PnLBelow, 1e-9)
	assert.GreaterOrEqual(t, res.TradesAbove, MinSideRows)
	assert.GreaterOrEqual(t, res.TradesBelow, MinSideRows)
	assert.Len(t, res.PercentileWinRates, PercentileBins)
	for _, wr := range res.PercentileWinRates {
		assert.GreaterOrEqual(t, wr, 0.0)
		assert.LessOrEqual(t, wr, 100.0)
	}
}

func TestCalculateSingle_MissingColumns(t *testing.T) {
	tbl := splitTable(20, func(f float64) bool { return f > 10 })
	calc := NewCalculator(nil)

	_, err := calc.CalculateSingle(tbl, "nope", "")
	assert.ErrorIs(t, err, table.ErrColumnNotFound)

	_, err = calc.CalculateSingle(tbl, "rsi", "nope")
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestCandidateColumns(t *testing.T) {
	tbl := table.NewBuilder().
		Numbers("ID", []float64{1, 2}).
		Numbers("rsi", []float64{1, 2}).
		Numbers("atr", []float64{1, 2}).
		Numbers("pnl_ratio", []float64{1, 2}).
		Numbers(DefaultGainColumn, []float64{1, 2}).
		Strings("ticker", []string{"A", "B"}).
		MustBuild()

	got := CandidateColumns(tbl, DefaultGainColumn, []string{"ATR"})
	assert.Equal(t, []string{"rsi", "pnl_ratio"}, got)

	got = CandidateColumns(tbl, "pnl_ratio", nil)
	assert.Equal(t, []string{"rsi", "atr"}, got)
}

func TestCalculateAll(t *testing.T) {
	n := 40
	rsi := make([]float64, n)
	volume := make([]float64, n)
	gain := make([]float64, n)
	for i := 0; i < n; i++ {
		rsi[i] = float64(i)
		volume[i] = float64(n - i)
		gain[i] = float64(i%3) - 1
	}
	tbl := table.NewBuilder().
		Numbers("rsi", rsi).
		Numbers("volume", volume).
		Numbers(DefaultGainColumn, gain).
		MustBuild()

	results := NewCalculator(nil).CalculateAll(tbl, "", []string{"Volume"})
	require.Len(t, results, 1)
	assert.Equal(t, "rsi", results[0].Feature)

	results = NewCalculator(nil).CalculateAll(tbl, "", nil)
	require.Len(t, results, 2)
	assert.Equal(t, "rsi", results[0].Feature)
	assert.Equal(t, "volume", results[1].Feature)
}

func TestCalculateAll_SkipsFailures(t *testing.T) {
	tbl := table.NewBuilder().
		Numbers("rsi", []float64{1, 2, 3}).
		Numbers("volume", []float64{4, 5, 6}).
		MustBuild()

	var skipped []string
	calc := NewCalculator(nil, WithSkipHook(func(feature string, err error) {
		skipped = append(skipped, feature)
		assert.True(t, errors.Is(err, table.ErrColumnNotFound))
	}))

	results := calc.CalculateAll(tbl, "missing_gain", nil)
	assert.Empty(t, results)
	assert.Equal(t, []string{"rsi", "volume"}, skipped)
}
