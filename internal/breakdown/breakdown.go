// Package breakdown summarizes an equity curve per calendar year or month.
//
// Drawdown fields are signed minima (≤ 0), unlike the positive magnitudes
// reported by the metrics package.
package breakdown

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/tradelens/internal/stats"
	"github.com/wonny/tradelens/internal/table"
)

// Summary is the fixed set of figures for one period
type Summary struct {
	Period           int     `json:"period"` // year, or month 1-12
	TotalGainPct     float64 `json:"total_gain_pct"`
	TotalGain        float64 `json:"total_gain"`
	AccountGrowthPct float64 `json:"account_growth_pct"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`
	Trades           int     `json:"trades"`
	DrawdownDuration int     `json:"drawdown_duration"`
}

// Calculator builds period summaries
type Calculator struct {
	startingCapital float64
}

// NewCalculator creates a breakdown calculator; startingCapital is used only
// when the table has no equity column
func NewCalculator(startingCapital float64) *Calculator {
	return &Calculator{startingCapital: startingCapital}
}

type rows struct {
	dates    []time.Time
	pnl      []float64
	equity   []float64
	peak     []float64
	drawdown []float64
}

func (c *Calculator) load(t *table.Table) (*rows, error) {
	derived, err := t.DeriveEquity(c.startingCapital)
	if err != nil {
		return nil, err
	}
	r := &rows{}
	if r.dates, err = derived.Dates(table.ColDate); err != nil {
		return nil, err
	}
	if r.pnl, err = derived.Numbers(table.ColPnL); err != nil {
		return nil, err
	}
	r.equity, _ = derived.Numbers(table.ColEquity)
	r.peak, _ = derived.Numbers(table.ColPeak)
	r.drawdown, _ = derived.Numbers(table.ColDrawdown)
	return r, nil
}

// Yearly summarizes each calendar year, ascending
func (c *Calculator) Yearly(t *table.Table) ([]Summary, error) {
	if t.Len() == 0 {
		return []Summary{}, nil
	}
	r, err := c.load(t)
	if err != nil {
		return nil, fmt.Errorf("yearly breakdown: %w", err)
	}
	return summarize(r, func(d time.Time) (int, bool) {
		return d.Year(), true
	}), nil
}

// Monthly summarizes each month of one year, ascending.
// A year with no rows gives an empty result.
func (c *Calculator) Monthly(t *table.Table, year int) ([]Summary, error) {
	if t.Len() == 0 {
		return []Summary{}, nil
	}
	r, err := c.load(t)
	if err != nil {
		return nil, fmt.Errorf("monthly breakdown: %w", err)
	}
	return summarize(r, func(d time.Time) (int, bool) {
		return int(d.Month()), d.Year() == year
	}), nil
}

// AvailableYears lists the distinct years present, ascending
func AvailableYears(t *table.Table) ([]int, error) {
	if t.Len() == 0 {
		return []int{}, nil
	}
	dates, err := t.Dates(table.ColDate)
	if err != nil {
		return nil, fmt.Errorf("available years: %w", err)
	}
	seen := make(map[int]struct{})
	for _, d := range dates {
		if !d.IsZero() {
			seen[d.Year()] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

// ByPeriod indexes summaries by their period key
func ByPeriod(summaries []Summary) map[int]Summary {
	out := make(map[int]Summary, len(summaries))
	for _, s := range summaries {
		out[s.Period] = s
	}
	return out
}

// summarize groups rows by keyFn (rows where it returns false are skipped)
func summarize(r *rows, keyFn func(time.Time) (int, bool)) []Summary {
	groups := make(map[int][]int)
	for i, d := range r.dates {
		if d.IsZero() {
			continue
		}
		k, ok := keyFn(d)
		if !ok {
			continue
		}
		groups[k] = append(groups[k], i)
	}

	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]Summary, 0, len(keys))
	for _, k := range keys {
		out = append(out, summarizeGroup(k, r, groups[k]))
	}
	return out
}

func summarizeGroup(period int, r *rows, idx []int) Summary {
	s := Summary{Period: period, Trades: len(idx)}

	first, last := idx[0], idx[len(idx)-1]
	firstPnL := r.pnl[first]
	if math.IsNaN(firstPnL) {
		firstPnL = 0
	}
	start := r.equity[first] - firstPnL
	end := r.equity[last]

	wins := 0
	underwater := make([]bool, len(idx))
	for j, i := range idx {
		p := r.pnl[i]
		if !math.IsNaN(p) {
			s.TotalGain += p
			if p > 0 {
				wins++
			}
		}
		if dd := r.drawdown[i]; !math.IsNaN(dd) {
			s.MaxDrawdown = math.Min(s.MaxDrawdown, dd)
			if r.peak[i] != 0 {
				s.MaxDrawdownPct = math.Min(s.MaxDrawdownPct, dd/r.peak[i]*100)
			}
		}
		underwater[j] = r.equity[i] < r.peak[i]
	}

	if start != 0 && !math.IsNaN(start) {
		s.TotalGainPct = s.TotalGain / start * 100
		s.AccountGrowthPct = (end - start) / start * 100
	}
	s.WinRate = float64(wins) / float64(len(idx)) * 100
	s.DrawdownDuration = stats.LongestRun(underwater)
	return s
}
