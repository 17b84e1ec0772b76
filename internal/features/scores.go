package features

import (
	"math"
	"sort"

	"github.com/wonny/tradelens/internal/stats"
)

// ImpactScores combines the normalized signals of each result into one score.
//
//	base    = 0.40·norm(EV lift) + 0.20·norm(WR lift) + 0.20·norm(|corr|) + 0.20·norm(sample)
//	penalty = min(1, winning-side trades / minTrades)
//	score   = base × penalty
//
// The penalty keeps features whose edge rests on a handful of trades at the bottom.
func ImpactScores(results []Result, minTrades int) map[string]float64 {
	scores := make(map[string]float64, len(results))
	if len(results) == 0 {
		return scores
	}
	if minTrades <= 0 {
		minTrades = DefaultMinTrades
	}

	corr := make([]float64, len(results))
	wrLift := make([]float64, len(results))
	evLift := make([]float64, len(results))
	sample := make([]float64, len(results))
	for i, r := range results {
		corr[i] = math.Abs(r.Correlation)
		wrLift[i] = r.WinRateLift
		evLift[i] = r.ExpectancyLift
		sample[i] = float64(r.WinningSideTrades())
	}

	nCorr := stats.MinMaxNormalize(corr)
	nWR := stats.MinMaxNormalize(wrLift)
	nEV := stats.MinMaxNormalize(evLift)
	nSample := stats.MinMaxNormalize(sample)

	for i, r := range results {
		base := WeightExpectancyLift*nEV[i] +
			WeightWinRateLift*nWR[i] +
			WeightCorrelation*nCorr[i] +
			WeightSampleSize*nSample[i]
		penalty := math.Min(1.0, sample[i]/float64(minTrades))
		scores[r.Feature] = base * penalty
	}
	return scores
}

// Ranked pairs a result with its composite score
type Ranked struct {
	Result
	Score float64 `json:"impact_score"`
}

// Rank orders results by score, highest first; equal scores keep column order
func Rank(results []Result, scores map[string]float64) []Ranked {
	ranked := make([]Ranked, len(results))
	for i, r := range results {
		ranked[i] = Ranked{Result: r, Score: scores[r.Feature]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
