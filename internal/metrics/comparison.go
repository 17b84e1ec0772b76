package metrics

import (
	"math"
	"time"

	"github.com/wonny/tradelens/internal/stats"
	"github.com/wonny/tradelens/internal/table"
)

// =============================================================================
// Cross-curve metrics (baseline vs. combined portfolio)
// =============================================================================

// daily is one curve resampled to calendar days
type daily struct {
	dates    []time.Time
	returns  []float64
	drawdown []float64
}

// dailySeries keeps the last row of each calendar day. Returns start from the
// starting capital so the first day carries its own move.
func (c *Calculator) dailySeries(t *table.Table) (*daily, bool) {
	cv, ok := c.load(t)
	if !ok || cv.dates == nil {
		return nil, false
	}

	var dates []time.Time
	var equity, drawdown []float64
	for i, d := range cv.dates {
		if d.IsZero() || math.IsNaN(cv.equity[i]) {
			continue
		}
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(dates); n > 0 && dates[n-1].Equal(day) {
			equity[n-1] = cv.equity[i]
			drawdown[n-1] = cv.drawdown[i]
			continue
		}
		dates = append(dates, day)
		equity = append(equity, cv.equity[i])
		drawdown = append(drawdown, cv.drawdown[i])
	}
	if len(dates) == 0 {
		return nil, false
	}

	out := &daily{dates: dates, drawdown: drawdown, returns: make([]float64, len(equity))}
	prev := c.startingCapital
	for i, e := range equity {
		if prev != 0 {
			out.returns[i] = e/prev - 1
		}
		prev = e
	}
	return out, true
}

// aligned is two daily series restricted to their common dates
type aligned struct {
	dates  []time.Time
	base   []float64
	comb   []float64
	baseDD []float64
	combDD []float64
}

func (c *Calculator) align(baseline, combined *table.Table) (*aligned, bool) {
	b, ok := c.dailySeries(baseline)
	if !ok {
		return nil, false
	}
	m, ok := c.dailySeries(combined)
	if !ok {
		return nil, false
	}

	index := make(map[time.Time]int, len(m.dates))
	for i, d := range m.dates {
		index[d] = i
	}

	out := &aligned{}
	for i, d := range b.dates {
		j, found := index[d]
		if !found {
			continue
		}
		out.dates = append(out.dates, d)
		out.base = append(out.base, b.returns[i])
		out.comb = append(out.comb, m.returns[j])
		out.baseDD = append(out.baseDD, b.drawdown[i])
		out.combDD = append(out.combDD, m.drawdown[j])
	}
	return out, len(out.dates) >= 2
}

// ReturnCorrelation is the Pearson correlation of the two curves' daily returns
func (c *Calculator) ReturnCorrelation(baseline, combined *table.Table) (float64, bool) {
	a, ok := c.align(baseline, combined)
	if !ok {
		return 0, false
	}
	return stats.Pearson(a.base, a.comb)
}

// RollingCorrelation computes the correlation over a trailing window of days
func (c *Calculator) RollingCorrelation(baseline, combined *table.Table, window int) (RollingCorrelation, bool) {
	if window < 2 {
		window = DefaultRollingWindow
	}
	a, ok := c.align(baseline, combined)
	if !ok || len(a.dates) < window {
		return RollingCorrelation{}, false
	}

	rc := RollingCorrelation{Window: window}
	for end := window; end <= len(a.dates); end++ {
		r, ok := stats.Pearson(a.base[end-window:end], a.comb[end-window:end])
		if !ok {
			continue
		}
		rc.Dates = append(rc.Dates, a.dates[end-1])
		rc.Values = append(rc.Values, r)
	}
	if len(rc.Values) == 0 {
		return RollingCorrelation{}, false
	}

	rc.Current = rc.Values[len(rc.Values)-1]
	rc.Min, rc.Max = rc.Values[0], rc.Values[0]
	for _, v := range rc.Values {
		rc.Min = math.Min(rc.Min, v)
		rc.Max = math.Max(rc.Max, v)
	}
	rc.Mean = stats.Mean(rc.Values)
	return rc, true
}

// TailCorrelation is the return correlation over stress days only: the days
// where either curve is in its worst quantile
func (c *Calculator) TailCorrelation(baseline, combined *table.Table, quantile float64) (float64, bool) {
	if quantile <= 0 || quantile >= 1 {
		quantile = DefaultTailQuantile
	}
	a, ok := c.align(baseline, combined)
	if !ok {
		return 0, false
	}

	qb := stats.Quantile(a.base, quantile)
	qc := stats.Quantile(a.comb, quantile)
	var tb, tc []float64
	for i := range a.base {
		if a.base[i] <= qb || a.comb[i] <= qc {
			tb = append(tb, a.base[i])
			tc = append(tc, a.comb[i])
		}
	}
	if len(tb) < minTailDays {
		return 0, false
	}
	return stats.Pearson(tb, tc)
}

// DrawdownCorrelation correlates the two (equity - peak) series
func (c *Calculator) DrawdownCorrelation(baseline, combined *table.Table) (float64, bool) {
	a, ok := c.align(baseline, combined)
	if !ok {
		return 0, false
	}
	return stats.Pearson(a.baseDD, a.combDD)
}

// LowerTailDependence estimates P(combined in its worst quantile | baseline in its worst quantile).
// Independent curves land near the quantile itself (10% by default).
func (c *Calculator) LowerTailDependence(baseline, combined *table.Table, quantile float64) (TailDependence, bool) {
	if quantile <= 0 || quantile >= 1 {
		quantile = DefaultTailQuantile
	}
	a, ok := c.align(baseline, combined)
	if !ok || len(a.dates) < minDependenceDays {
		return TailDependence{}, false
	}

	qb := stats.Quantile(a.base, quantile)
	qc := stats.Quantile(a.comb, quantile)
	td := TailDependence{Independent: quantile * 100}
	for i := range a.base {
		if a.base[i] > qb {
			continue
		}
		td.TailDays++
		if a.comb[i] <= qc {
			td.JointDays++
		}
	}
	if td.TailDays == 0 {
		return TailDependence{}, false
	}

	td.Probability = float64(td.JointDays) / float64(td.TailDays) * 100
	td.Ratio = td.Probability / td.Independent
	return td, true
}

// MarginalContribution reports Sharpe, VaR and CVaR for both curves.
// Improvement is combined minus baseline for all three; VaR and CVaR are
// signed returns, so a positive improvement means a smaller tail loss.
func (c *Calculator) MarginalContribution(baseline, combined *table.Table, opts Options) Marginal {
	if opts.VaRConfidence <= 0 || opts.VaRConfidence >= 1 {
		opts.VaRConfidence = DefaultVaRConfidence
	}

	var bRet, cRet []float64
	if cv, ok := c.load(baseline); ok {
		bRet = c.returns(cv)
	}
	if cv, ok := c.load(combined); ok {
		cRet = c.returns(cv)
	}

	var m Marginal
	bSharpe, bSharpeOK := sharpe(bRet, opts.RiskFreeRate)
	cSharpe, cSharpeOK := sharpe(cRet, opts.RiskFreeRate)
	m.Sharpe = delta(bSharpe, bSharpeOK, cSharpe, cSharpeOK)

	bVaR, bCVaR, bOK := varCVaR(bRet, opts.VaRConfidence)
	cVaR, cCVaR, cOK := varCVaR(cRet, opts.VaRConfidence)
	m.VaR = delta(bVaR, bOK, cVaR, cOK)
	m.CVaR = delta(bCVaR, bOK, cCVaR, cOK)
	return m
}

func delta(base float64, baseOK bool, comb float64, combOK bool) Delta {
	d := Delta{Baseline: optional(base, baseOK), Combined: optional(comb, combOK)}
	if baseOK && combOK {
		d.Improvement = ptr(comb - base)
	}
	return d
}

// EdgeDecay compares the first and the last window rows of a curve.
// The window shrinks to half the curve when the curve is short.
func (c *Calculator) EdgeDecay(t *table.Table, window int) (EdgeDecay, bool) {
	if window < 2 {
		window = DefaultEdgeWindow
	}
	cv, ok := c.load(t)
	if !ok {
		return EdgeDecay{}, false
	}
	returns := c.returns(cv)
	w := min(window, len(returns)/2)
	if w < 2 {
		return EdgeDecay{}, false
	}

	ed := EdgeDecay{Window: w}
	ed.EarlySharpe = optional(sharpe(returns[:w], 0))
	ed.RecentSharpe = optional(sharpe(returns[len(returns)-w:], 0))
	ed.SharpeDecayPct = decayPct(ed.EarlySharpe, ed.RecentSharpe)

	if gain, err := t.Numbers(table.ColGainPct); err == nil && len(gain) >= 2*w {
		early := dropNaN(gain[:w])
		recent := dropNaN(gain[len(gain)-w:])
		if len(early) > 0 && len(recent) > 0 {
			ed.EarlyMeanGain = ptr(stats.Mean(early))
			ed.RecentMeanGain = ptr(stats.Mean(recent))
			ed.EarlyMedianGain = ptr(stats.Median(early))
			ed.RecentMedianGain = ptr(stats.Median(recent))
			ed.GainDecayPct = decayPct(ed.EarlyMeanGain, ed.RecentMeanGain)
		}
	}
	return ed, true
}

// decayPct is (recent - early) / |early| in percent; negative means the edge is fading
func decayPct(early, recent *float64) *float64 {
	if early == nil || recent == nil || *early == 0 {
		return nil
	}
	return ptr((*recent - *early) / math.Abs(*early) * 100)
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// TickerOverlap compares the traded names of two curves.
// The ticker column may be of any kind; cells are compared as text.
// Concurrent trades are combined rows whose (day, ticker) also trades in the baseline;
// they need date columns on both curves.
func (c *Calculator) TickerOverlap(baseline, combined *table.Table) (TickerOverlap, bool) {
	bTickers, err := baseline.Text(table.ColTicker)
	if err != nil {
		return TickerOverlap{}, false
	}
	cTickers, err := combined.Text(table.ColTicker)
	if err != nil {
		return TickerOverlap{}, false
	}

	bSet := make(map[string]struct{})
	for _, s := range bTickers {
		if s != "" {
			bSet[s] = struct{}{}
		}
	}
	cSet := make(map[string]struct{})
	for _, s := range cTickers {
		if s != "" {
			cSet[s] = struct{}{}
		}
	}
	if len(cSet) == 0 {
		return TickerOverlap{}, false
	}

	to := TickerOverlap{BaselineTickers: len(bSet), CombinedTickers: len(cSet)}
	for s := range cSet {
		if _, ok := bSet[s]; ok {
			to.Overlapping++
		}
	}
	to.OverlapPct = float64(to.Overlapping) / float64(len(cSet)) * 100

	bDates, bErr := baseline.Dates(table.ColDate)
	cDates, cErr := combined.Dates(table.ColDate)
	if bErr != nil || cErr != nil {
		return to, true
	}

	type dayTicker struct {
		day    string
		ticker string
	}
	held := make(map[dayTicker]struct{})
	for i, s := range bTickers {
		if s == "" || bDates[i].IsZero() {
			continue
		}
		held[dayTicker{bDates[i].Format(time.DateOnly), s}] = struct{}{}
	}

	concurrent, rows := 0, 0
	for i, s := range cTickers {
		if s == "" || cDates[i].IsZero() {
			continue
		}
		rows++
		if _, ok := held[dayTicker{cDates[i].Format(time.DateOnly), s}]; ok {
			concurrent++
		}
	}
	to.ConcurrentTrades = ptr(concurrent)
	if rows > 0 {
		to.ConcurrentPct = ptr(float64(concurrent) / float64(rows) * 100)
	}
	return to, true
}

// Compare builds the full baseline vs. combined report
func (c *Calculator) Compare(baseline, combined *table.Table, opts CompareOptions) Comparison {
	cmp := Comparison{
		Baseline: c.AllMetrics(baseline, opts.Options),
		Combined: c.AllMetrics(combined, opts.Options),
		Marginal: c.MarginalContribution(baseline, combined, opts.Options),
	}

	cmp.Correlation = optional(c.ReturnCorrelation(baseline, combined))
	if rc, ok := c.RollingCorrelation(baseline, combined, opts.RollingWindow); ok {
		cmp.Rolling = &rc
	}
	cmp.TailCorrelation = optional(c.TailCorrelation(baseline, combined, opts.TailQuantile))
	cmp.DrawdownCorrelation = optional(c.DrawdownCorrelation(baseline, combined))
	if td, ok := c.LowerTailDependence(baseline, combined, opts.TailQuantile); ok {
		cmp.TailDependence = &td
	}
	if ed, ok := c.EdgeDecay(baseline, opts.EdgeWindow); ok {
		cmp.BaselineDecay = &ed
	}
	if ed, ok := c.EdgeDecay(combined, opts.EdgeWindow); ok {
		cmp.CombinedDecay = &ed
	}
	if to, ok := c.TickerOverlap(baseline, combined); ok {
		cmp.Tickers = &to
	}
	return cmp
}
