// Package metrics computes performance and risk statistics of equity curves.
// ⭐ SSOT: CAGR/Sharpe/Sortino/Calmar/VaR 계산은 여기서만
//
// Every method is a pure function of its input table. Insufficient data
// (an empty curve, fewer than 2 rows, a zero denominator) is reported through
// the ok return or a nil field, never through an error.
package metrics

import (
	"math"
	"time"

	"github.com/wonny/tradelens/internal/stats"
	"github.com/wonny/tradelens/internal/table"
)

// Calculator computes metrics against a fixed starting capital
type Calculator struct {
	startingCapital float64
}

// NewCalculator creates a metrics calculator
func NewCalculator(startingCapital float64) *Calculator {
	return &Calculator{startingCapital: startingCapital}
}

// StartingCapital returns the capital basis of return calculations
func (c *Calculator) StartingCapital() float64 {
	return c.startingCapital
}

// curve is the column view every metric reads from
type curve struct {
	equity   []float64
	peak     []float64
	drawdown []float64
	pnl      []float64   // nil without a pnl column
	dates    []time.Time // nil without a date column
	wins     []bool      // nil without a win column
	winValid []bool
}

func (cv *curve) len() int {
	return len(cv.equity)
}

// load derives the equity columns; ok is false below 2 rows or without pnl/equity
func (c *Calculator) load(t *table.Table) (*curve, bool) {
	if t.Len() < 2 {
		return nil, false
	}
	derived, err := t.DeriveEquity(c.startingCapital)
	if err != nil {
		return nil, false
	}

	cv := &curve{}
	cv.equity, _ = derived.Numbers(table.ColEquity)
	cv.peak, _ = derived.Numbers(table.ColPeak)
	cv.drawdown, _ = derived.Numbers(table.ColDrawdown)
	if pnl, err := derived.Numbers(table.ColPnL); err == nil {
		cv.pnl = pnl
	}
	if dates, err := derived.Dates(table.ColDate); err == nil {
		cv.dates = dates
	}
	if wins, err := derived.Bools(table.ColWin); err == nil {
		cv.wins = wins
		cv.winValid, _ = derived.Valid(table.ColWin)
	}
	return cv, true
}

// returns prepends the starting capital to the equity series and takes pct change
func (c *Calculator) returns(cv *curve) []float64 {
	series := make([]float64, 0, cv.len()+1)
	series = append(series, c.startingCapital)
	for _, e := range cv.equity {
		if !math.IsNaN(e) {
			series = append(series, e)
		}
	}
	return stats.PctChange(series)
}

// CAGR returns the compound annual growth rate in percent.
// A blown account (ending equity ≤ 0) gives -100.
func (c *Calculator) CAGR(t *table.Table) (float64, bool) {
	cv, ok := c.load(t)
	if !ok || cv.dates == nil || c.startingCapital <= 0 {
		return 0, false
	}
	return c.cagr(cv)
}

func (c *Calculator) cagr(cv *curve) (float64, bool) {
	first, last, ok := dateSpan(cv.dates)
	if !ok {
		return 0, false
	}
	days := last.Sub(first).Hours() / 24
	if days <= 0 {
		return 0, false
	}

	ending := cv.equity[cv.len()-1]
	if math.IsNaN(ending) {
		return 0, false
	}
	if ending <= 0 {
		return -100.0, true
	}
	return (math.Pow(ending/c.startingCapital, 365.25/days) - 1) * 100, true
}

// dateSpan returns the first and last present dates
func dateSpan(dates []time.Time) (time.Time, time.Time, bool) {
	var first, last time.Time
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if first.IsZero() {
			first = d
		}
		last = d
	}
	return first, last, !first.IsZero()
}

// Sharpe returns the annualized Sharpe ratio; rf is an annual rate (fraction)
func (c *Calculator) Sharpe(t *table.Table, rf float64) (float64, bool) {
	cv, ok := c.load(t)
	if !ok {
		return 0, false
	}
	return sharpe(c.returns(cv), rf)
}

func sharpe(returns []float64, rf float64) (float64, bool) {
	if len(returns) < 2 {
		return 0, false
	}
	daily := rf / stats.TradingDaysPerYear
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - daily
	}
	sd := stats.StdDev(excess)
	if sd == 0 {
		return 0, false
	}
	return stats.Mean(excess) / sd * math.Sqrt(stats.TradingDaysPerYear), true
}

// Sortino returns the annualized Sortino ratio against a daily target return.
// The denominator is the RMS of the below-target deviations only.
func (c *Calculator) Sortino(t *table.Table, target float64) (float64, bool) {
	cv, ok := c.load(t)
	if !ok {
		return 0, false
	}
	return sortino(c.returns(cv), target)
}

func sortino(returns []float64, target float64) (float64, bool) {
	if len(returns) < 2 {
		return 0, false
	}
	excess := make([]float64, len(returns))
	var sumSq float64
	var below int
	for i, r := range returns {
		excess[i] = r - target
		if excess[i] < 0 {
			sumSq += excess[i] * excess[i]
			below++
		}
	}
	if below == 0 {
		return 0, false
	}
	downside := math.Sqrt(sumSq / float64(below))
	if downside == 0 {
		return 0, false
	}
	return stats.Mean(excess) / downside * math.Sqrt(stats.TradingDaysPerYear), true
}

// MaxDrawdown returns the deepest drawdown as positive magnitudes (percent of peak, dollars)
func (c *Calculator) MaxDrawdown(t *table.Table) (pct, dollars float64, ok bool) {
	cv, ok := c.load(t)
	if !ok {
		return 0, 0, false
	}
	return maxDrawdown(cv)
}

func maxDrawdown(cv *curve) (float64, float64, bool) {
	minPct, minDollars := 0.0, 0.0
	seen := false
	for i := range cv.equity {
		dd := cv.equity[i] - cv.peak[i]
		if math.IsNaN(dd) {
			continue
		}
		seen = true
		minDollars = math.Min(minDollars, dd)
		if cv.peak[i] != 0 {
			minPct = math.Min(minPct, dd/cv.peak[i]*100)
		}
	}
	if !seen {
		return 0, 0, false
	}
	return math.Abs(minPct), math.Abs(minDollars), true
}

// DrawdownDuration returns the longest underwater run in rows and the
// percentage of rows spent below the running peak
func (c *Calculator) DrawdownDuration(t *table.Table) (maxRows int, pctUnderwater float64, ok bool) {
	cv, ok := c.load(t)
	if !ok {
		return 0, 0, false
	}
	maxRows, pctUnderwater = drawdownDuration(cv.equity, cv.peak)
	return maxRows, pctUnderwater, true
}

func drawdownDuration(equity, peak []float64) (int, float64) {
	if len(equity) == 0 {
		return 0, 0
	}
	underwater := make([]bool, len(equity))
	count := 0
	for i := range equity {
		if equity[i] < peak[i] {
			underwater[i] = true
			count++
		}
	}
	return stats.LongestRun(underwater), float64(count) / float64(len(equity)) * 100
}

// Calmar returns CAGR over max drawdown percent
func (c *Calculator) Calmar(t *table.Table) (float64, bool) {
	cv, ok := c.load(t)
	if !ok {
		return 0, false
	}
	return c.calmar(cv)
}

func (c *Calculator) calmar(cv *curve) (float64, bool) {
	if cv.dates == nil || c.startingCapital <= 0 {
		return 0, false
	}
	cagr, ok := c.cagr(cv)
	if !ok {
		return 0, false
	}
	ddPct, _, ok := maxDrawdown(cv)
	if !ok || ddPct == 0 {
		return 0, false
	}
	return cagr / ddPct, true
}

// WinRate returns the percentage of winning rows.
// An explicit win column takes precedence over pnl > 0.
func (c *Calculator) WinRate(t *table.Table) (float64, bool) {
	cv, ok := c.load(t)
	if !ok {
		return 0, false
	}
	return winRate(cv)
}

func winRate(cv *curve) (float64, bool) {
	var wins, total int
	switch {
	case cv.wins != nil:
		for i, w := range cv.wins {
			if !cv.winValid[i] {
				continue
			}
			total++
			if w {
				wins++
			}
		}
	case cv.pnl != nil:
		for _, p := range cv.pnl {
			if math.IsNaN(p) {
				continue
			}
			total++
			if p > 0 {
				wins++
			}
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(wins) / float64(total) * 100, true
}

// ProfitFactor returns gross profit over gross loss.
// No losers with at least one winner is Unbounded; no pnl at all is not ok.
func (c *Calculator) ProfitFactor(t *table.Table) (ProfitFactor, bool) {
	cv, ok := c.load(t)
	if !ok {
		return ProfitFactor{}, false
	}
	return profitFactor(cv.pnl)
}

func profitFactor(pnl []float64) (ProfitFactor, bool) {
	var gains, losses float64
	for _, p := range pnl {
		switch {
		case math.IsNaN(p):
		case p > 0:
			gains += p
		case p < 0:
			losses -= p
		}
	}
	if losses == 0 {
		if gains > 0 {
			return ProfitFactor{Unbounded: true}, true
		}
		return ProfitFactor{}, false
	}
	return ProfitFactor{Value: gains / losses}, true
}

// TStatistic runs a one-sample t-test of daily returns against 0
func (c *Calculator) TStatistic(t *table.Table) (tStat, pValue float64, ok bool) {
	cv, ok := c.load(t)
	if !ok {
		return 0, 0, false
	}
	return stats.TTestOneSample(c.returns(cv), 0)
}

// VaRCVaR returns the historical VaR and CVaR of daily returns in percent (signed;
// a loss is negative). CVaR falls back to VaR when no return reaches the quantile.
func (c *Calculator) VaRCVaR(t *table.Table, confidence float64) (varPct, cvarPct float64, ok bool) {
	cv, ok := c.load(t)
	if !ok {
		return 0, 0, false
	}
	return varCVaR(c.returns(cv), confidence)
}

func varCVaR(returns []float64, confidence float64) (float64, float64, bool) {
	if len(returns) < 2 {
		return 0, 0, false
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultVaRConfidence
	}

	q := stats.Quantile(returns, 1-confidence)
	var tail []float64
	for _, r := range returns {
		if r <= q {
			tail = append(tail, r)
		}
	}
	cvar := q
	if len(tail) > 0 {
		cvar = stats.Mean(tail)
	}
	return q * 100, cvar * 100, true
}

// AllMetrics assembles every single-curve metric
func (c *Calculator) AllMetrics(t *table.Table, opts Options) PortfolioMetrics {
	if opts.VaRConfidence <= 0 || opts.VaRConfidence >= 1 {
		opts.VaRConfidence = DefaultVaRConfidence
	}
	m := PortfolioMetrics{
		StartingCapital: c.startingCapital,
		Rows:            t.Len(),
		VaRConfidence:   opts.VaRConfidence,
	}

	cv, ok := c.load(t)
	if !ok {
		return m
	}

	ending := cv.equity[cv.len()-1]
	if !math.IsNaN(ending) {
		m.EndingEquity = ptr(ending)
		if c.startingCapital != 0 {
			m.TotalReturn = ptr((ending - c.startingCapital) / c.startingCapital * 100)
		}
	}
	if cv.pnl != nil {
		var total float64
		for _, p := range cv.pnl {
			if !math.IsNaN(p) {
				total += p
			}
		}
		m.TotalPnL = ptr(total)
	}

	if cv.dates != nil && c.startingCapital > 0 {
		m.CAGR = optional(c.cagr(cv))
		m.Calmar = optional(c.calmar(cv))
	}

	returns := c.returns(cv)
	m.Sharpe = optional(sharpe(returns, opts.RiskFreeRate))
	m.Sortino = optional(sortino(returns, opts.SortinoTarget))

	if pct, dollars, ok := maxDrawdown(cv); ok {
		m.MaxDrawdownPct = ptr(pct)
		m.MaxDrawdownDollars = ptr(dollars)
	}
	rows, under := drawdownDuration(cv.equity, cv.peak)
	m.MaxDrawdownRows = ptr(rows)
	m.PctUnderwater = ptr(under)

	m.WinRate = optional(winRate(cv))
	if pf, ok := profitFactor(cv.pnl); ok {
		m.ProfitFactor = &pf
	}

	if tStat, pValue, ok := stats.TTestOneSample(returns, 0); ok {
		m.TStat = ptr(tStat)
		m.PValue = ptr(pValue)
	}
	if varPct, cvarPct, ok := varCVaR(returns, opts.VaRConfidence); ok {
		m.VaR = ptr(varPct)
		m.CVaR = ptr(cvarPct)
	}

	m.Daily = periodMetrics(cv, PeriodDaily)
	m.Weekly = periodMetrics(cv, PeriodWeekly)
	m.Monthly = periodMetrics(cv, PeriodMonthly)

	return m
}
