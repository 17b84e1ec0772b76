package features

// Direction marks which side of the threshold carries the better win rate
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// Analysis limits
const (
	DefaultGainColumn = "gain_pct"
	DefaultMinTrades  = 30

	MinValidRows         = 10  // below this the neutral result is returned
	MinSideRows          = 5   // each side of a candidate split needs this many rows
	MaxExactCandidates   = 100 // above this many distinct values, percentile candidates are used
	PercentileCandidates = 50  // evenly spaced between the 5th and 95th percentile
	PercentileBins       = 20  // equal-population bins in the win-rate curve
	NeutralWinRate       = 50.0
)

// Composite score weights
const (
	WeightExpectancyLift = 0.40
	WeightWinRateLift    = 0.20
	WeightCorrelation    = 0.20
	WeightSampleSize     = 0.20
)

// DefaultExcluded are identifier and label columns never analyzed as features
var DefaultExcluded = []string{
	"date", "time", "ticker", "symbol", "gain_pct", "gain", "return",
	"trigger_number", "trade_id", "id", "index",
}

// Result is the impact analysis of one feature column.
// Win rates and lifts are percentages; expectancy is in gain units.
type Result struct {
	Feature            string    `json:"feature_name"`
	Correlation        float64   `json:"correlation"`
	OptimalThreshold   float64   `json:"optimal_threshold"`
	ThresholdDirection Direction `json:"threshold_direction"`

	BaselineWinRate float64 `json:"baseline_win_rate"`
	AboveWinRate    float64 `json:"above_win_rate"`
	BelowWinRate    float64 `json:"below_win_rate"`
	WinRateLift     float64 `json:"win_rate_lift"`

	BaselineExpectancy float64 `json:"baseline_expectancy"`
	AboveExpectancy    float64 `json:"above_expectancy"`
	BelowExpectancy    float64 `json:"below_expectancy"`
	ExpectancyLift     float64 `json:"expectancy_lift"`

	TradesAbove int `json:"trades_above"`
	TradesBelow int `json:"trades_below"`
	TradesTotal int `json:"trades_total"`

	PnLAbove float64 `json:"pnl_above"`
	PnLBelow float64 `json:"pnl_below"`

	PercentileWinRates []float64 `json:"percentile_win_rates"`
}

// WinningSideTrades is the trade count on the side named by ThresholdDirection
func (r Result) WinningSideTrades() int {
	if r.ThresholdDirection == DirectionBelow {
		return r.TradesBelow
	}
	return r.TradesAbove
}

// neutralResult is the small-sample answer: nothing but the row count
func neutralResult(feature string, rows int) Result {
	curve := make([]float64, PercentileBins)
	for i := range curve {
		curve[i] = NeutralWinRate
	}
	return Result{
		Feature:            feature,
		ThresholdDirection: DirectionAbove,
		TradesTotal:        rows,
		PercentileWinRates: curve,
	}
}
