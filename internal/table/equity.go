package table

import (
	"fmt"
	"math"
)

// DeriveEquity returns a copy of t with the equity-curve columns filled in.
//
//   - equity:   startingCapital + cumulative pnl (only when absent; missing pnl counts as 0)
//   - peak:     running maximum of equity
//   - drawdown: equity - peak (always ≤ 0)
//
// Columns already present are kept as-is.
func (t *Table) DeriveEquity(startingCapital float64) (*Table, error) {
	out := t.clone()

	if !out.Has(ColEquity) {
		pnl, err := out.Numbers(ColPnL)
		if err != nil {
			return nil, fmt.Errorf("derive equity: %w", err)
		}
		equity := make([]float64, len(pnl))
		running := startingCapital
		for i, v := range pnl {
			if !math.IsNaN(v) {
				running += v
			}
			equity[i] = running
		}
		if err := out.put(numberColumn(ColEquity, equity)); err != nil {
			return nil, err
		}
	}

	equity, err := out.Numbers(ColEquity)
	if err != nil {
		return nil, fmt.Errorf("derive equity: %w", err)
	}

	if !out.Has(ColPeak) {
		if err := out.put(numberColumn(ColPeak, RunningPeak(equity))); err != nil {
			return nil, err
		}
	}

	if !out.Has(ColDrawdown) {
		peak, err := out.Numbers(ColPeak)
		if err != nil {
			return nil, fmt.Errorf("derive equity: %w", err)
		}
		dd := make([]float64, len(equity))
		for i := range equity {
			dd[i] = equity[i] - peak[i]
		}
		if err := out.put(numberColumn(ColDrawdown, dd)); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// RunningPeak returns the running maximum; NaN cells carry the previous peak forward
func RunningPeak(values []float64) []float64 {
	peak := make([]float64, len(values))
	current := math.Inf(-1)
	for i, v := range values {
		if !math.IsNaN(v) && v > current {
			current = v
		}
		if math.IsInf(current, -1) {
			peak[i] = math.NaN()
			continue
		}
		peak[i] = current
	}
	return peak
}

func numberColumn(name string, values []float64) *Column {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = !math.IsNaN(v)
	}
	return &Column{Name: name, Kind: KindNumber, Numbers: values, Valid: valid}
}
