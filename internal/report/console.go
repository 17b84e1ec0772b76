// Package report renders calculator output for the terminal and for Excel.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/wonny/tradelens/internal/breakdown"
	"github.com/wonny/tradelens/internal/features"
	"github.com/wonny/tradelens/internal/metrics"
)

const na = "n/a"

func newWriter(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func fmtOpt(v *float64, format string) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf(format, *v)
}

func pct(v *float64) string   { return fmtOpt(v, "%.2f%%") }
func ratio(v *float64) string { return fmtOpt(v, "%.2f") }

func money(v *float64) string { return fmtOpt(v, "$%.2f") }

// Features prints a feature ranking, best first
func Features(w io.Writer, ranked []features.Ranked) {
	t := newWriter(w, "FEATURE IMPACT")
	t.AppendHeader(table.Row{"#", "Feature", "Score", "Threshold", "Side", "Win Rate", "Lift", "Exp. Lift", "Corr", "Trades"})
	for i, r := range ranked {
		side := r.AboveWinRate
		trades := r.TradesAbove
		if r.ThresholdDirection == features.DirectionBelow {
			side = r.BelowWinRate
			trades = r.TradesBelow
		}
		t.AppendRow(table.Row{
			i + 1,
			r.Feature,
			fmt.Sprintf("%.3f", r.Score),
			fmt.Sprintf("%.4g", r.OptimalThreshold),
			string(r.ThresholdDirection),
			fmt.Sprintf("%.1f%%", side),
			fmt.Sprintf("%+.1f", r.WinRateLift),
			fmt.Sprintf("%+.3f", r.ExpectancyLift),
			fmt.Sprintf("%.3f", r.Correlation),
			fmt.Sprintf("%d/%d", trades, r.TradesTotal),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

func profitFactor(pf *metrics.ProfitFactor) string {
	switch {
	case pf == nil:
		return na
	case pf.Unbounded:
		return "∞"
	default:
		return fmt.Sprintf("%.2f", pf.Value)
	}
}

func rows(v *int) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf("%d", *v)
}

// Metrics prints a single-curve report
func Metrics(w io.Writer, m metrics.PortfolioMetrics) {
	t := newWriter(w, "PORTFOLIO METRICS")
	t.AppendRows([]table.Row{
		{"Starting Capital", fmt.Sprintf("$%.2f", m.StartingCapital)},
		{"Ending Equity", money(m.EndingEquity)},
		{"Total Return", pct(m.TotalReturn)},
		{"Rows", m.Rows},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"CAGR", pct(m.CAGR)},
		{"Sharpe", ratio(m.Sharpe)},
		{"Sortino", ratio(m.Sortino)},
		{"Calmar", ratio(m.Calmar)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Max Drawdown", fmt.Sprintf("%s (%s)", pct(m.MaxDrawdownPct), money(m.MaxDrawdownDollars))},
		{"Longest Drawdown", rows(m.MaxDrawdownRows)},
		{"Time Underwater", pct(m.PctUnderwater)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Win Rate", pct(m.WinRate)},
		{"Profit Factor", profitFactor(m.ProfitFactor)},
		{"t-stat / p-value", fmt.Sprintf("%s / %s", ratio(m.TStat), fmtOpt(m.PValue, "%.4f"))},
		{fmt.Sprintf("VaR / CVaR (%.0f%%)", m.VaRConfidence*100), fmt.Sprintf("%s / %s", pct(m.VaR), pct(m.CVaR))},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 24, Align: text.AlignRight},
	})
	t.Render()

	periods(w, m)
}

func periods(w io.Writer, m metrics.PortfolioMetrics) {
	t := newWriter(w, "PERIOD RETURNS")
	t.AppendHeader(table.Row{"", "Periods", "Win %", "Avg Green", "Avg Red", "Reward/Risk", "Best", "Worst"})
	for _, p := range []struct {
		name string
		pm   metrics.PeriodMetrics
	}{
		{"Daily", m.Daily},
		{"Weekly", m.Weekly},
		{"Monthly", m.Monthly},
	} {
		t.AppendRow(table.Row{
			p.name, p.pm.Periods, pct(p.pm.WinPct), pct(p.pm.AvgGreen), pct(p.pm.AvgRed),
			ratio(p.pm.RewardRisk), pct(p.pm.MaxWin), pct(p.pm.MaxLoss),
		})
	}
	t.Render()
}

func deltaRow(name string, d metrics.Delta, format func(*float64) string) table.Row {
	return table.Row{name, format(d.Baseline), format(d.Combined), format(d.Improvement)}
}

// Comparison prints the baseline vs. combined report
func Comparison(w io.Writer, c metrics.Comparison) {
	t := newWriter(w, "BASELINE VS COMBINED")
	t.AppendHeader(table.Row{"", "Baseline", "Combined", "Change"})
	t.AppendRows([]table.Row{
		{"Total Return", pct(c.Baseline.TotalReturn), pct(c.Combined.TotalReturn), ""},
		{"Max Drawdown", pct(c.Baseline.MaxDrawdownPct), pct(c.Combined.MaxDrawdownPct), ""},
		deltaRow("Sharpe", c.Marginal.Sharpe, ratio),
		deltaRow("VaR", c.Marginal.VaR, pct),
		deltaRow("CVaR", c.Marginal.CVaR, pct),
	})
	t.Render()

	d := newWriter(w, "DIVERSIFICATION")
	d.AppendRows([]table.Row{
		{"Return Correlation", ratio(c.Correlation)},
		{"Tail Correlation", ratio(c.TailCorrelation)},
		{"Drawdown Correlation", ratio(c.DrawdownCorrelation)},
	})
	if c.Rolling != nil {
		d.AppendRow(table.Row{
			fmt.Sprintf("Rolling %dd (now/min/max)", c.Rolling.Window),
			fmt.Sprintf("%.2f / %.2f / %.2f", c.Rolling.Current, c.Rolling.Min, c.Rolling.Max),
		})
	}
	if td := c.TailDependence; td != nil {
		d.AppendRow(table.Row{
			"Lower Tail Dependence",
			fmt.Sprintf("%.1f%% (indep. %.1f%%, x%.2f)", td.Probability, td.Independent, td.Ratio),
		})
	}
	if to := c.Tickers; to != nil {
		d.AppendRow(table.Row{
			"Ticker Overlap",
			fmt.Sprintf("%d/%d (%.1f%%), concurrent %s", to.Overlapping, to.CombinedTickers, to.OverlapPct, pct(to.ConcurrentPct)),
		})
	}
	d.Render()

	for _, e := range []struct {
		name  string
		decay *metrics.EdgeDecay
	}{
		{"BASELINE EDGE DECAY", c.BaselineDecay},
		{"COMBINED EDGE DECAY", c.CombinedDecay},
	} {
		if e.decay == nil {
			continue
		}
		EdgeDecay(w, e.name, *e.decay)
	}
}

// EdgeDecay prints the early vs. recent window comparison of one curve
func EdgeDecay(w io.Writer, title string, e metrics.EdgeDecay) {
	t := newWriter(w, title)
	t.AppendHeader(table.Row{fmt.Sprintf("Window %d", e.Window), "Early", "Recent", "Decay"})
	t.AppendRows([]table.Row{
		{"Sharpe", ratio(e.EarlySharpe), ratio(e.RecentSharpe), pct(e.SharpeDecayPct)},
		{"Mean Gain", pct(e.EarlyMeanGain), pct(e.RecentMeanGain), pct(e.GainDecayPct)},
		{"Median Gain", pct(e.EarlyMedianGain), pct(e.RecentMedianGain), ""},
	})
	t.Render()
}

// Breakdown prints yearly or monthly summaries
func Breakdown(w io.Writer, title string, monthly bool, summaries []breakdown.Summary) {
	t := newWriter(w, title)
	period := "Year"
	if monthly {
		period = "Month"
	}
	t.AppendHeader(table.Row{period, "Gain %", "Gain $", "Growth", "Max DD", "Max DD $", "Win Rate", "Trades", "DD Rows"})
	for _, s := range summaries {
		label := fmt.Sprintf("%d", s.Period)
		if monthly {
			label = time.Month(s.Period).String()[:3]
		}
		t.AppendRow(table.Row{
			label,
			fmt.Sprintf("%.2f", s.TotalGainPct),
			fmt.Sprintf("%.2f", s.TotalGain),
			fmt.Sprintf("%.2f%%", s.AccountGrowthPct),
			fmt.Sprintf("%.2f%%", s.MaxDrawdownPct),
			fmt.Sprintf("%.2f", s.MaxDrawdown),
			fmt.Sprintf("%.1f%%", s.WinRate),
			s.Trades,
			s.DrawdownDuration,
		})
	}
	t.Render()
}

// Years prints the years present in a trade log
func Years(w io.Writer, years []int) {
	t := newWriter(w, "YEARS")
	for _, y := range years {
		t.AppendRow(table.Row{y})
	}
	t.Render()
}

// Exclusions prints the saved exclusion list of a source file
func Exclusions(w io.Writer, source string, names []string) {
	t := newWriter(w, "EXCLUDED FEATURES")
	t.SetCaption(source)
	if len(names) == 0 {
		t.AppendRow(table.Row{"(none)"})
	}
	for _, n := range names {
		t.AppendRow(table.Row{n})
	}
	t.Render()
}
