package metrics

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/internal/table"
)

// wavePnL is a deterministic pnl stream with both winning and losing days
func wavePnL(n int, phase float64) []float64 {
	pnl := make([]float64, n)
	for i := range pnl {
		pnl[i] = 800*math.Sin(float64(i)*0.45+phase) + 50
	}
	return pnl
}

func TestReturnCorrelation(t *testing.T) {
	calc := NewCalculator(100000)
	curve := pnlTable(wavePnL(40, 0))

	r, ok := calc.ReturnCorrelation(curve, curve)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	noDates := table.NewBuilder().Numbers(table.ColPnL, wavePnL(40, 0)).MustBuild()
	_, ok = calc.ReturnCorrelation(noDates, curve)
	assert.False(t, ok)
}

func TestReturnCorrelation_AlignsOnCommonDates(t *testing.T) {
	calc := NewCalculator(100000)
	base := pnlTable(wavePnL(40, 0))
	// starts 100 days later: no common dates
	later := table.NewBuilder().
		Dates(table.ColDate, dailyDates(day(2024, 4, 10), 40)).
		Numbers(table.ColPnL, wavePnL(40, 0)).
		MustBuild()

	_, ok := calc.ReturnCorrelation(base, later)
	assert.False(t, ok)
}

func TestRollingCorrelation(t *testing.T) {
	calc := NewCalculator(100000)
	curve := pnlTable(wavePnL(70, 0))

	rc, ok := calc.RollingCorrelation(curve, curve, 60)
	require.True(t, ok)
	assert.Equal(t, 60, rc.Window)
	assert.Len(t, rc.Values, 11)
	assert.Len(t, rc.Dates, 11)
	assert.InDelta(t, 1.0, rc.Current, 1e-9)
	assert.InDelta(t, 1.0, rc.Min, 1e-9)
	assert.InDelta(t, 1.0, rc.Max, 1e-9)

	_, ok = calc.RollingCorrelation(pnlTable(wavePnL(30, 0)), pnlTable(wavePnL(30, 0)), 60)
	assert.False(t, ok, "fewer days than the window")
}

func TestTailAndDrawdownCorrelation(t *testing.T) {
	calc := NewCalculator(100000)
	base := pnlTable(wavePnL(80, 0))
	comb := pnlTable(wavePnL(80, 0.2))

	tail, ok := calc.TailCorrelation(base, comb, 0.10)
	require.True(t, ok)
	assert.GreaterOrEqual(t, tail, -1.0)
	assert.LessOrEqual(t, tail, 1.0)

	dd, ok := calc.DrawdownCorrelation(base, base)
	require.True(t, ok)
	assert.InDelta(t, 1.0, dd, 1e-9)

	_, ok = calc.TailCorrelation(pnlTable(wavePnL(3, 0)), pnlTable(wavePnL(3, 0)), 0.10)
	assert.False(t, ok, "too few stress days")
}

func TestLowerTailDependence(t *testing.T) {
	calc := NewCalculator(100000)
	curve := pnlTable(wavePnL(50, 0))

	td, ok := calc.LowerTailDependence(curve, curve, 0.10)
	require.True(t, ok)
	assert.InDelta(t, 100.0, td.Probability, 1e-9)
	assert.InDelta(t, 10.0, td.Independent, 1e-9)
	assert.InDelta(t, 10.0, td.Ratio, 1e-9)
	assert.Equal(t, td.TailDays, td.JointDays)

	_, ok = calc.LowerTailDependence(pnlTable(wavePnL(8, 0)), pnlTable(wavePnL(8, 0)), 0.10)
	assert.False(t, ok)
}

func TestMarginalContribution(t *testing.T) {
	calc := NewCalculator(100000)
	base := pnlTable(wavePnL(60, 0))
	comb := pnlTable(wavePnL(60, 1.3))

	m := calc.MarginalContribution(base, comb, DefaultOptions())
	require.NotNil(t, m.Sharpe.Baseline)
	require.NotNil(t, m.Sharpe.Combined)
	require.NotNil(t, m.Sharpe.Improvement)
	assert.InDelta(t, *m.Sharpe.Combined-*m.Sharpe.Baseline, *m.Sharpe.Improvement, 1e-12)

	require.NotNil(t, m.VaR.Improvement)
	assert.InDelta(t, *m.VaR.Combined-*m.VaR.Baseline, *m.VaR.Improvement, 1e-12)
	require.NotNil(t, m.CVaR.Improvement)

	empty := calc.MarginalContribution(pnlTable([]float64{1}), comb, DefaultOptions())
	assert.Nil(t, empty.Sharpe.Baseline)
	assert.NotNil(t, empty.Sharpe.Combined)
	assert.Nil(t, empty.Sharpe.Improvement)
}

func TestEdgeDecay(t *testing.T) {
	calc := NewCalculator(100000)
	pnl := wavePnL(40, 0)
	gain := make([]float64, len(pnl))
	for i := range gain {
		gain[i] = 2.0
		if i >= 20 {
			gain[i] = 1.0
		}
	}
	tbl := table.NewBuilder().
		Numbers(table.ColPnL, pnl).
		Numbers(table.ColGainPct, gain).
		MustBuild()

	ed, ok := calc.EdgeDecay(tbl, 252)
	require.True(t, ok)
	assert.Equal(t, 20, ed.Window)
	require.NotNil(t, ed.EarlyMeanGain)
	assert.InDelta(t, 2.0, *ed.EarlyMeanGain, 1e-9)
	assert.InDelta(t, 1.0, *ed.RecentMeanGain, 1e-9)
	assert.InDelta(t, 1.0, *ed.RecentMedianGain, 1e-9)
	require.NotNil(t, ed.GainDecayPct)
	assert.InDelta(t, -50.0, *ed.GainDecayPct, 1e-9)

	_, ok = calc.EdgeDecay(pnlTable([]float64{1, 2, 3}), 252)
	assert.False(t, ok)
}

func TestTickerOverlap(t *testing.T) {
	d1, d2, d3 := day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 4)
	base := table.NewBuilder().
		Dates(table.ColDate, []time.Time{d1, d2, d3}).
		Strings(table.ColTicker, []string{"AAPL", "MSFT", "AAPL"}).
		Numbers(table.ColPnL, []float64{1, 2, 3}).
		MustBuild()
	comb := table.NewBuilder().
		Dates(table.ColDate, []time.Time{d1, d1, d2, d3}).
		Strings(table.ColTicker, []string{"AAPL", "TSLA", "NVDA", "AAPL"}).
		Numbers(table.ColPnL, []float64{1, 2, 3, 4}).
		MustBuild()

	to, ok := NewCalculator(1000).TickerOverlap(base, comb)
	require.True(t, ok)
	assert.Equal(t, 2, to.BaselineTickers)
	assert.Equal(t, 3, to.CombinedTickers)
	assert.Equal(t, 1, to.Overlapping)
	assert.InDelta(t, 100.0/3, to.OverlapPct, 1e-9)
	require.NotNil(t, to.ConcurrentTrades)
	assert.Equal(t, 2, *to.ConcurrentTrades)
	assert.InDelta(t, 50.0, *to.ConcurrentPct, 1e-9)

	_, ok = NewCalculator(1000).TickerOverlap(pnlTable([]float64{1, 2}), comb)
	assert.False(t, ok, "baseline has no ticker column")
}

func TestTickerOverlap_NumericCodes(t *testing.T) {
	base, err := table.ReadCSV(strings.NewReader("date,pnl,ticker\n" +
		"2024-01-02,100,005930\n" +
		"2024-01-03,-50,000660\n" +
		"2024-01-04,30,005930\n"))
	require.NoError(t, err)
	comb, err := table.ReadCSV(strings.NewReader("date,pnl,ticker\n" +
		"2024-01-02,100,005930\n" +
		"2024-01-02,20,035420\n" +
		"2024-01-03,-50,000660\n" +
		"2024-01-04,30,005930\n"))
	require.NoError(t, err)

	calc := NewCalculator(1000)
	to, ok := calc.TickerOverlap(base, comb)
	require.True(t, ok)
	assert.Equal(t, 2, to.BaselineTickers)
	assert.Equal(t, 3, to.CombinedTickers)
	assert.Equal(t, 2, to.Overlapping)
	require.NotNil(t, to.ConcurrentTrades)
	assert.Equal(t, 3, *to.ConcurrentTrades)
	assert.InDelta(t, 75.0, *to.ConcurrentPct, 1e-9)

	cmp := calc.Compare(base, comb, DefaultCompareOptions())
	require.NotNil(t, cmp.Tickers)
	assert.Equal(t, 2, cmp.Tickers.Overlapping)

	// a ticker column built as numbers is compared as text
	d1, d2 := day(2024, 1, 2), day(2024, 1, 3)
	numBase := table.NewBuilder().
		Dates(table.ColDate, []time.Time{d1, d2}).
		Numbers(table.ColTicker, []float64{5930, 660}).
		Numbers(table.ColPnL, []float64{1, 2}).
		MustBuild()
	numComb := table.NewBuilder().
		Dates(table.ColDate, []time.Time{d1, d2}).
		Numbers(table.ColTicker, []float64{5930, 35420}).
		Numbers(table.ColPnL, []float64{1, 2}).
		MustBuild()
	to, ok = calc.TickerOverlap(numBase, numComb)
	require.True(t, ok)
	assert.Equal(t, 1, to.Overlapping)
}

func TestCompare(t *testing.T) {
	calc := NewCalculator(100000)
	base := pnlTable(wavePnL(90, 0))
	comb := pnlTable(wavePnL(90, 0.7))

	cmp := calc.Compare(base, comb, DefaultCompareOptions())
	require.NotNil(t, cmp.Correlation)
	require.NotNil(t, cmp.Rolling)
	require.NotNil(t, cmp.DrawdownCorrelation)
	require.NotNil(t, cmp.TailDependence)
	require.NotNil(t, cmp.BaselineDecay)
	require.NotNil(t, cmp.CombinedDecay)
	assert.Nil(t, cmp.Tickers)
	assert.Equal(t, 45, cmp.BaselineDecay.Window)
	assert.NotNil(t, cmp.Baseline.Sharpe)
	assert.NotNil(t, cmp.Combined.Sharpe)

	assert.Equal(t, cmp, calc.Compare(base, comb, DefaultCompareOptions()))
}
