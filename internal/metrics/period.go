package metrics

import (
	"math"
	"time"

	"github.com/wonny/tradelens/internal/stats"
	"github.com/wonny/tradelens/internal/table"
)

type periodKey struct {
	year, sub, day int
}

func keyOf(d time.Time, period Period) periodKey {
	switch period {
	case PeriodWeekly:
		// ISO year, not calendar year: Dec 30 may belong to week 1 of next year
		y, w := d.ISOWeek()
		return periodKey{year: y, sub: w}
	case PeriodMonthly:
		return periodKey{year: d.Year(), sub: int(d.Month())}
	default:
		return periodKey{year: d.Year(), sub: int(d.Month()), day: d.Day()}
	}
}

// PeriodReturns returns the percent return of each calendar period, in order of appearance.
//
// A period's starting equity is its first row's equity minus that row's own pnl,
// i.e. the equity just before the period's first trade.
func (c *Calculator) PeriodReturns(t *table.Table, period Period) ([]float64, bool) {
	cv, ok := c.load(t)
	if !ok || cv.dates == nil || cv.pnl == nil {
		return nil, false
	}
	return periodReturns(cv, period), true
}

func periodReturns(cv *curve, period Period) []float64 {
	type bucket struct {
		pnl   float64
		start float64
	}

	var order []periodKey
	buckets := make(map[periodKey]*bucket)
	for i, d := range cv.dates {
		if d.IsZero() {
			continue
		}
		pnl := cv.pnl[i]
		if math.IsNaN(pnl) {
			pnl = 0
		}

		k := keyOf(d, period)
		b, exists := buckets[k]
		if !exists {
			b = &bucket{start: cv.equity[i] - pnl}
			buckets[k] = b
			order = append(order, k)
		}
		b.pnl += pnl
	}

	returns := make([]float64, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		if b.start == 0 || math.IsNaN(b.start) {
			continue
		}
		returns = append(returns, b.pnl/b.start*100)
	}
	return returns
}

// PeriodMetrics summarizes daily, weekly or monthly returns.
// Requires date and pnl columns.
func (c *Calculator) PeriodMetrics(t *table.Table, period Period) (PeriodMetrics, bool) {
	cv, ok := c.load(t)
	if !ok || cv.dates == nil || cv.pnl == nil {
		return PeriodMetrics{}, false
	}
	return periodMetrics(cv, period), true
}

func periodMetrics(cv *curve, period Period) PeriodMetrics {
	if cv.dates == nil || cv.pnl == nil {
		return PeriodMetrics{}
	}
	returns := periodReturns(cv, period)
	if len(returns) == 0 {
		return PeriodMetrics{}
	}

	var green, red []float64
	maxWin, maxLoss := returns[0], returns[0]
	for _, r := range returns {
		switch {
		case r > 0:
			green = append(green, r)
		case r < 0:
			red = append(red, r)
		}
		maxWin = math.Max(maxWin, r)
		maxLoss = math.Min(maxLoss, r)
	}

	pm := PeriodMetrics{
		Periods: len(returns),
		WinPct:  ptr(float64(len(green)) / float64(len(returns)) * 100),
		MaxWin:  ptr(maxWin),
		MaxLoss: ptr(maxLoss),
	}
	if len(green) > 0 {
		pm.AvgGreen = ptr(stats.Mean(green))
	}
	if len(red) > 0 {
		pm.AvgRed = ptr(stats.Mean(red))
	}
	if pm.AvgGreen != nil && pm.AvgRed != nil && *pm.AvgRed != 0 {
		pm.RewardRisk = ptr(math.Abs(*pm.AvgGreen / *pm.AvgRed))
	}
	return pm
}
