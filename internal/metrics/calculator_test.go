package metrics

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/internal/table"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailyDates returns n consecutive calendar days from start
func dailyDates(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func equityTable(equity []float64) *table.Table {
	return table.NewBuilder().Numbers(table.ColEquity, equity).MustBuild()
}

func pnlTable(pnl []float64) *table.Table {
	return table.NewBuilder().
		Dates(table.ColDate, dailyDates(day(2024, 1, 1), len(pnl))).
		Numbers(table.ColPnL, pnl).
		MustBuild()
}

func TestMaxDrawdown(t *testing.T) {
	tbl := equityTable([]float64{100000, 120000, 150000, 140000, 130000, 120000, 125000, 130000, 140000, 145000})
	calc := NewCalculator(100000)

	pct, dollars, ok := calc.MaxDrawdown(tbl)
	require.True(t, ok)
	assert.InDelta(t, 20.0, pct, 1e-9)
	assert.InDelta(t, 30000.0, dollars, 1e-9)

	rows, under, ok := calc.DrawdownDuration(tbl)
	require.True(t, ok)
	assert.Equal(t, 7, rows)
	assert.InDelta(t, 70.0, under, 1e-9)
}

func TestMaxDrawdown_NoDrawdown(t *testing.T) {
	pct, dollars, ok := NewCalculator(100).MaxDrawdown(equityTable([]float64{100, 110, 120}))
	require.True(t, ok)
	assert.Equal(t, 0.0, pct)
	assert.Equal(t, 0.0, dollars)
	assert.False(t, math.Signbit(pct))
}

func TestWinRate(t *testing.T) {
	tbl := pnlTable([]float64{100, -50, 200, -100, 150, -75, 300, -25, 100, 50})

	wr, ok := NewCalculator(100000).WinRate(tbl)
	require.True(t, ok)
	assert.InDelta(t, 60.0, wr, 1e-9)
}

func TestWinRate_ExplicitColumn(t *testing.T) {
	tbl := table.NewBuilder().
		Numbers(table.ColPnL, []float64{100, 100, 100, 100}).
		Bools(table.ColWin, []bool{true, false, false, false}).
		MustBuild()

	wr, ok := NewCalculator(1000).WinRate(tbl)
	require.True(t, ok)
	assert.InDelta(t, 25.0, wr, 1e-9)
}

func TestProfitFactor(t *testing.T) {
	calc := NewCalculator(100000)

	pf, ok := calc.ProfitFactor(pnlTable([]float64{100, -50, 200, -100, 300, 50}))
	require.True(t, ok)
	assert.False(t, pf.Unbounded)
	assert.InDelta(t, 650.0/150.0, pf.Value, 1e-9)

	pf, ok = calc.ProfitFactor(pnlTable([]float64{100, 50}))
	require.True(t, ok)
	assert.True(t, pf.Unbounded)
	assert.True(t, math.IsInf(pf.Float64(), 1))

	_, ok = calc.ProfitFactor(pnlTable([]float64{0, 0, 0}))
	assert.False(t, ok)

	_, ok = calc.ProfitFactor(equityTable([]float64{100, 110}))
	assert.False(t, ok, "no pnl column")
}

func TestCAGR(t *testing.T) {
	tbl := table.NewBuilder().
		Dates(table.ColDate, []time.Time{day(2023, 1, 1), day(2024, 1, 1)}).
		Numbers(table.ColEquity, []float64{150000, 200000}).
		MustBuild()

	cagr, ok := NewCalculator(100000).CAGR(tbl)
	require.True(t, ok)
	assert.InDelta(t, 100.0, cagr, 1.0)
}

func TestCAGR_EdgeCases(t *testing.T) {
	calc := NewCalculator(100000)

	blown := table.NewBuilder().
		Dates(table.ColDate, []time.Time{day(2023, 1, 1), day(2023, 6, 1)}).
		Numbers(table.ColEquity, []float64{50000, -5000}).
		MustBuild()
	cagr, ok := calc.CAGR(blown)
	require.True(t, ok)
	assert.Equal(t, -100.0, cagr)

	sameDay := table.NewBuilder().
		Dates(table.ColDate, []time.Time{day(2023, 1, 1), day(2023, 1, 1)}).
		Numbers(table.ColEquity, []float64{-1, -2}).
		MustBuild()
	_, ok = calc.CAGR(sameDay)
	assert.False(t, ok, "zero day span wins over the blown-account rule")

	_, ok = calc.CAGR(equityTable([]float64{1, 2}))
	assert.False(t, ok, "no date column")
}

func TestSharpeSortino(t *testing.T) {
	// returns +10%, -10%, +10%
	tbl := pnlTable([]float64{10, -11, 9.9})
	calc := NewCalculator(100)

	sharpe, ok := calc.Sharpe(tbl, 0)
	require.True(t, ok)
	expected := (1.0 / 30) / math.Sqrt(0.04/3) * math.Sqrt(252)
	assert.InDelta(t, expected, sharpe, 1e-6)

	sortino, ok := calc.Sortino(tbl, 0)
	require.True(t, ok)
	assert.InDelta(t, (1.0/30)/0.1*math.Sqrt(252), sortino, 1e-6)
}

func TestSharpeSortino_Degenerate(t *testing.T) {
	calc := NewCalculator(100)

	_, ok := calc.Sharpe(pnlTable([]float64{0, 0, 0}), 0)
	assert.False(t, ok, "flat curve")

	_, ok = calc.Sortino(pnlTable([]float64{1, 2, 3}), 0)
	assert.False(t, ok, "no downside")
}

func TestVaRCVaR(t *testing.T) {
	tbl := pnlTable([]float64{10, -11, 9.9})

	v, cv, ok := NewCalculator(100).VaRCVaR(tbl, 0.95)
	require.True(t, ok)
	assert.InDelta(t, -8.0, v, 1e-6)
	assert.InDelta(t, -10.0, cv, 1e-6)
	assert.LessOrEqual(t, cv, v)
}

func TestTStatistic(t *testing.T) {
	tbl := pnlTable([]float64{10, -11, 9.9})

	tStat, p, ok := NewCalculator(100).TStatistic(tbl)
	require.True(t, ok)
	assert.InDelta(t, (1.0/30)/(math.Sqrt(0.04/3)/math.Sqrt(3)), tStat, 1e-6)
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 1.0)
}

func TestCalmar(t *testing.T) {
	tbl := table.NewBuilder().
		Dates(table.ColDate, []time.Time{day(2023, 1, 1), day(2023, 7, 1), day(2024, 1, 1)}).
		Numbers(table.ColEquity, []float64{120000, 100000, 200000}).
		MustBuild()
	calc := NewCalculator(100000)

	calmar, ok := calc.Calmar(tbl)
	require.True(t, ok)
	cagr, _ := calc.CAGR(tbl)
	ddPct, _, _ := calc.MaxDrawdown(tbl)
	assert.InDelta(t, cagr/ddPct, calmar, 1e-9)

	_, ok = calc.Calmar(table.NewBuilder().
		Dates(table.ColDate, []time.Time{day(2023, 1, 1), day(2024, 1, 1)}).
		Numbers(table.ColEquity, []float64{110000, 120000}).
		MustBuild())
	assert.False(t, ok, "no drawdown")
}

func TestInsufficientData(t *testing.T) {
	calc := NewCalculator(100000)
	one := pnlTable([]float64{100})
	empty := table.NewBuilder().MustBuild()

	for name, tbl := range map[string]*table.Table{"one row": one, "empty": empty} {
		t.Run(name, func(t *testing.T) {
			_, ok := calc.CAGR(tbl)
			assert.False(t, ok)
			_, ok = calc.Sharpe(tbl, 0)
			assert.False(t, ok)
			_, ok = calc.Sortino(tbl, 0)
			assert.False(t, ok)
			_, _, ok = calc.MaxDrawdown(tbl)
			assert.False(t, ok)
			_, ok = calc.WinRate(tbl)
			assert.False(t, ok)
			_, ok = calc.ProfitFactor(tbl)
			assert.False(t, ok)
			_, _, ok = calc.VaRCVaR(tbl, 0.95)
			assert.False(t, ok)
			_, ok = calc.PeriodMetrics(tbl, PeriodMonthly)
			assert.False(t, ok)

			m := calc.AllMetrics(tbl, DefaultOptions())
			assert.Nil(t, m.CAGR)
			assert.Nil(t, m.Sharpe)
			assert.Nil(t, m.ProfitFactor)
			assert.Equal(t, 0, m.Monthly.Periods)
		})
	}
}

func TestPeriodReturns_StartEquityRegression(t *testing.T) {
	tbl := table.NewBuilder().
		Dates(table.ColDate, []time.Time{day(2024, 3, 1), day(2024, 3, 5), day(2024, 3, 10)}).
		Numbers(table.ColPnL, []float64{100, 9000, 900}).
		Numbers(table.ColEquity, []float64{100100, 109100, 110000}).
		MustBuild()
	calc := NewCalculator(100000)

	returns, ok := calc.PeriodReturns(tbl, PeriodMonthly)
	require.True(t, ok)
	require.Len(t, returns, 1)
	// start = 100100 - 100, not 100100 - 10000
	assert.InDelta(t, 10.0, returns[0], 1e-9)

	pm, ok := calc.PeriodMetrics(tbl, PeriodMonthly)
	require.True(t, ok)
	assert.Equal(t, 1, pm.Periods)
	require.NotNil(t, pm.MaxWin)
	assert.InDelta(t, 10.0, *pm.MaxWin, 1e-9)
	assert.InDelta(t, 100.0, *pm.WinPct, 1e-9)
	assert.Nil(t, pm.AvgRed)
	assert.Nil(t, pm.RewardRisk)
}

func TestPeriodMetrics_Daily(t *testing.T) {
	// day 1: +10%, day 2: -5%, day 3: +5%
	tbl := table.NewBuilder().
		Dates(table.ColDate, []time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3)}).
		Numbers(table.ColPnL, []float64{100, -55, 52.25}).
		MustBuild()

	pm, ok := NewCalculator(1000).PeriodMetrics(tbl, PeriodDaily)
	require.True(t, ok)
	assert.Equal(t, 3, pm.Periods)
	assert.InDelta(t, 7.5, *pm.AvgGreen, 1e-9)
	assert.InDelta(t, -5.0, *pm.AvgRed, 1e-9)
	assert.InDelta(t, 200.0/3, *pm.WinPct, 1e-9)
	assert.InDelta(t, 1.5, *pm.RewardRisk, 1e-9)
	assert.InDelta(t, 10.0, *pm.MaxWin, 1e-9)
	assert.InDelta(t, -5.0, *pm.MaxLoss, 1e-9)
}

func TestPeriodMetrics_WeeklyUsesISOYear(t *testing.T) {
	// Mon 2024-12-30 and Thu 2025-01-02 share ISO week 2025-W01
	tbl := table.NewBuilder().
		Dates(table.ColDate, []time.Time{day(2024, 12, 30), day(2025, 1, 2)}).
		Numbers(table.ColPnL, []float64{10, 20}).
		MustBuild()
	calc := NewCalculator(1000)

	weekly, ok := calc.PeriodReturns(tbl, PeriodWeekly)
	require.True(t, ok)
	require.Len(t, weekly, 1)
	assert.InDelta(t, 3.0, weekly[0], 1e-9)

	monthly, ok := calc.PeriodReturns(tbl, PeriodMonthly)
	require.True(t, ok)
	assert.Len(t, monthly, 2)
}

func TestAllMetrics(t *testing.T) {
	pnl := make([]float64, 120)
	for i := range pnl {
		pnl[i] = 500*math.Sin(float64(i)*0.3) + 40
	}
	tbl := pnlTable(pnl)
	calc := NewCalculator(100000)

	m := calc.AllMetrics(tbl, DefaultOptions())
	require.NotNil(t, m.EndingEquity)
	require.NotNil(t, m.CAGR)
	require.NotNil(t, m.Sharpe)
	require.NotNil(t, m.Sortino)
	require.NotNil(t, m.MaxDrawdownPct)
	require.NotNil(t, m.WinRate)
	require.NotNil(t, m.ProfitFactor)
	require.NotNil(t, m.VaR)
	require.NotNil(t, m.CVaR)

	assert.Equal(t, 120, m.Rows)
	assert.Equal(t, DefaultVaRConfidence, m.VaRConfidence)
	assert.Positive(t, m.Monthly.Periods)
	assert.Positive(t, m.Weekly.Periods)
	assert.Equal(t, 120, m.Daily.Periods)
	assert.LessOrEqual(t, *m.CVaR, *m.VaR)
	assert.GreaterOrEqual(t, *m.MaxDrawdownPct, 0.0)

	sharpe, _ := calc.Sharpe(tbl, 0)
	assert.Equal(t, sharpe, *m.Sharpe)

	// pure: same input, same output
	assert.Equal(t, m, calc.AllMetrics(tbl, DefaultOptions()))

	_, err := json.Marshal(m)
	assert.NoError(t, err)
}

func TestAllMetrics_UnboundedProfitFactorMarshals(t *testing.T) {
	m := NewCalculator(1000).AllMetrics(pnlTable([]float64{10, 20, 30}), DefaultOptions())
	require.NotNil(t, m.ProfitFactor)
	assert.True(t, m.ProfitFactor.Unbounded)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unbounded":true`)
}
