// Package features ranks numeric feature columns by how well an optimal
// threshold split separates winning from losing trades.
package features

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wonny/tradelens/internal/stats"
	"github.com/wonny/tradelens/internal/table"
	"github.com/wonny/tradelens/pkg/logger"
)

// SkipHook is told about every column dropped from a bulk ranking
type SkipHook func(feature string, err error)

// Calculator computes feature impact. It holds no per-call state.
type Calculator struct {
	logger *logger.Logger
	onSkip SkipHook
}

// Option configures a Calculator
type Option func(*Calculator)

// WithSkipHook registers a callback for skipped columns
func WithSkipHook(hook SkipHook) Option {
	return func(c *Calculator) {
		c.onSkip = hook
	}
}

// NewCalculator creates a feature impact calculator
func NewCalculator(log *logger.Logger, opts ...Option) *Calculator {
	c := &Calculator{logger: logger.OrNop(log)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CandidateColumns returns the numeric columns that will be analyzed:
// not in the default exclusions, not in excluded (case-insensitive), not the gain column.
func CandidateColumns(t *table.Table, gainCol string, excluded []string) []string {
	skip := make(map[string]struct{}, len(DefaultExcluded)+len(excluded))
	for _, name := range DefaultExcluded {
		skip[name] = struct{}{}
	}
	for _, name := range excluded {
		skip[strings.ToLower(name)] = struct{}{}
	}

	var names []string
	for _, name := range t.NumericNames() {
		if name == gainCol {
			continue
		}
		if _, ok := skip[strings.ToLower(name)]; ok {
			continue
		}
		names = append(names, name)
	}
	return names
}

// CalculateAll analyzes every candidate column, in column order.
// A column whose analysis fails is logged and left out.
func (c *Calculator) CalculateAll(t *table.Table, gainCol string, excluded []string) []Result {
	if gainCol == "" {
		gainCol = DefaultGainColumn
	}

	columns := CandidateColumns(t, gainCol, excluded)
	results := make([]Result, 0, len(columns))
	for _, col := range columns {
		res, err := c.safeSingle(t, col, gainCol)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"feature":  col,
				"gain_col": gainCol,
				"error":    err.Error(),
			}).Warn("Feature analysis failed, skipping column")
			if c.onSkip != nil {
				c.onSkip(col, err)
			}
			continue
		}
		results = append(results, res)
	}

	c.logger.WithFields(map[string]interface{}{
		"candidates": len(columns),
		"analyzed":   len(results),
	}).Debug("Feature impact analysis completed")

	return results
}

// safeSingle turns a panic inside one column's analysis into an error
func (c *Calculator) safeSingle(t *table.Table, featureCol, gainCol string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	return c.CalculateSingle(t, featureCol, gainCol)
}

// CalculateSingle analyzes one feature column against the gain column.
// Missing columns are a caller error; too few valid rows give the neutral result.
func (c *Calculator) CalculateSingle(t *table.Table, featureCol, gainCol string) (Result, error) {
	if gainCol == "" {
		gainCol = DefaultGainColumn
	}

	featureVals, err := t.Numbers(featureCol)
	if err != nil {
		return Result{}, fmt.Errorf("feature column: %w", err)
	}
	gainVals, err := t.Numbers(gainCol)
	if err != nil {
		return Result{}, fmt.Errorf("gain column: %w", err)
	}

	// drop rows missing either value
	feature := make([]float64, 0, len(featureVals))
	gain := make([]float64, 0, len(gainVals))
	for i := range featureVals {
		if math.IsNaN(featureVals[i]) || math.IsNaN(gainVals[i]) {
			continue
		}
		feature = append(feature, featureVals[i])
		gain = append(gain, gainVals[i])
	}

	if len(feature) < MinValidRows {
		return neutralResult(featureCol, len(feature)), nil
	}

	corr, ok := stats.Pearson(feature, gain)
	if !ok {
		corr = 0
	}

	baselineWR := winRate(gain)
	baselineEV := stats.Mean(gain)

	threshold, direction := optimalThreshold(feature, gain)

	var above, below []float64
	for i, f := range feature {
		if f > threshold {
			above = append(above, gain[i])
		} else {
			below = append(below, gain[i])
		}
	}

	res := Result{
		Feature:            featureCol,
		Correlation:        corr,
		OptimalThreshold:   threshold,
		ThresholdDirection: direction,
		BaselineWinRate:    baselineWR,
		AboveWinRate:       winRate(above),
		BelowWinRate:       winRate(below),
		BaselineExpectancy: baselineEV,
		AboveExpectancy:    stats.Mean(above),
		BelowExpectancy:    stats.Mean(below),
		TradesAbove:        len(above),
		TradesBelow:        len(below),
		TradesTotal:        len(feature),
		PnLAbove:           stats.Sum(above),
		PnLBelow:           stats.Sum(below),
		PercentileWinRates: percentileWinRates(feature, gain),
	}

	if direction == DirectionAbove {
		res.WinRateLift = res.AboveWinRate - baselineWR
		res.ExpectancyLift = res.AboveExpectancy - baselineEV
	} else {
		res.WinRateLift = res.BelowWinRate - baselineWR
		res.ExpectancyLift = res.BelowExpectancy - baselineEV
	}

	return res, nil
}

// winRate is the percentage of positive gains; 0 for an empty slice
func winRate(gain []float64) float64 {
	if len(gain) == 0 {
		return 0
	}
	wins := 0
	for _, g := range gain {
		if g > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(gain)) * 100
}

// candidateThresholds lists split points: midpoints between distinct values for
// low-cardinality features, deduplicated 5th..95th percentiles otherwise.
func candidateThresholds(feature []float64) []float64 {
	sorted := stats.Sorted(feature)
	uniq := uniqueSorted(sorted)

	if len(uniq) <= MaxExactCandidates {
		candidates := make([]float64, 0, len(uniq))
		for i := 0; i+1 < len(uniq); i++ {
			candidates = append(candidates, (uniq[i]+uniq[i+1])/2)
		}
		return candidates
	}

	candidates := make([]float64, PercentileCandidates)
	step := 90.0 / float64(PercentileCandidates-1)
	for k := range candidates {
		candidates[k] = stats.Percentile(sorted, 5+float64(k)*step)
	}
	sort.Float64s(candidates)
	return uniqueSorted(candidates)
}

// optimalThreshold maximizes |winRate(above) - winRate(below)|.
// The first candidate reaching the maximum wins; with no admissible
// candidate the median is used with direction above.
func optimalThreshold(feature, gain []float64) (float64, Direction) {
	found := false
	bestDiff := 0.0
	bestThreshold := 0.0
	bestDirection := DirectionAbove

	for _, th := range candidateThresholds(feature) {
		var nAbove, nBelow, winsAbove, winsBelow int
		for i, f := range feature {
			if f > th {
				nAbove++
				if gain[i] > 0 {
					winsAbove++
				}
			} else {
				nBelow++
				if gain[i] > 0 {
					winsBelow++
				}
			}
		}
		if nAbove < MinSideRows || nBelow < MinSideRows {
			continue
		}

		wrAbove := float64(winsAbove) / float64(nAbove) * 100
		wrBelow := float64(winsBelow) / float64(nBelow) * 100
		diff := math.Abs(wrAbove - wrBelow)
		if found && diff <= bestDiff {
			continue
		}

		found = true
		bestDiff = diff
		bestThreshold = th
		if wrAbove > wrBelow {
			bestDirection = DirectionAbove
		} else {
			bestDirection = DirectionBelow
		}
	}

	if !found {
		return stats.Median(feature), DirectionAbove
	}
	return bestThreshold, bestDirection
}

// percentileWinRates splits the feature into equal-population bins by its
// 0,5,...,100th percentiles. The last bin is closed on the right.
func percentileWinRates(feature, gain []float64) []float64 {
	sorted := stats.Sorted(feature)
	edges := make([]float64, PercentileBins+1)
	for i := range edges {
		edges[i] = stats.Percentile(sorted, float64(i)*100/float64(PercentileBins))
	}

	curve := make([]float64, PercentileBins)
	for b := 0; b < PercentileBins; b++ {
		lo, hi := edges[b], edges[b+1]
		last := b == PercentileBins-1

		n, wins := 0, 0
		for i, f := range feature {
			if f < lo {
				continue
			}
			if f > hi || (f == hi && !last) {
				continue
			}
			n++
			if gain[i] > 0 {
				wins++
			}
		}

		if n == 0 {
			curve[b] = NeutralWinRate
			continue
		}
		curve[b] = float64(wins) / float64(n) * 100
	}
	return curve
}

func uniqueSorted(sorted []float64) []float64 {
	out := make([]float64, 0, len(sorted))
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
