package metrics

import (
	"math"
	"time"
)

// Period is a calendar bucket for period metrics
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Defaults
const (
	DefaultVaRConfidence = 0.95
	DefaultRollingWindow = 60
	DefaultTailQuantile  = 0.10
	DefaultEdgeWindow    = 252

	minTailDays       = 5
	minDependenceDays = 10
)

// ProfitFactor is gross profit over gross loss.
// Unbounded marks a curve with winners and no losers.
type ProfitFactor struct {
	Value     float64 `json:"value"`
	Unbounded bool    `json:"unbounded"`
}

// Float64 returns +Inf for the unbounded case
func (p ProfitFactor) Float64() float64 {
	if p.Unbounded {
		return math.Inf(1)
	}
	return p.Value
}

// PeriodMetrics summarizes per-period returns (percent).
// Nil fields had no data to be computed from.
type PeriodMetrics struct {
	Periods    int      `json:"periods"`
	AvgGreen   *float64 `json:"avg_green_pct"`
	AvgRed     *float64 `json:"avg_red_pct"`
	WinPct     *float64 `json:"win_pct"`
	RewardRisk *float64 `json:"reward_risk"`
	MaxWin     *float64 `json:"max_win_pct"`
	MaxLoss    *float64 `json:"max_loss_pct"`
}

// PortfolioMetrics is the full single-curve report
type PortfolioMetrics struct {
	StartingCapital float64  `json:"starting_capital"`
	EndingEquity    *float64 `json:"ending_equity"`
	TotalReturn     *float64 `json:"total_return_pct"`
	TotalPnL        *float64 `json:"total_pnl"`
	Rows            int      `json:"rows"`

	CAGR    *float64 `json:"cagr_pct"`
	Sharpe  *float64 `json:"sharpe"`
	Sortino *float64 `json:"sortino"`
	Calmar  *float64 `json:"calmar"`

	MaxDrawdownPct     *float64 `json:"max_drawdown_pct"`
	MaxDrawdownDollars *float64 `json:"max_drawdown_dollars"`
	MaxDrawdownRows    *int     `json:"max_drawdown_duration"`
	PctUnderwater      *float64 `json:"pct_time_underwater"`

	WinRate      *float64      `json:"win_rate"`
	ProfitFactor *ProfitFactor `json:"profit_factor"`

	TStat  *float64 `json:"t_stat"`
	PValue *float64 `json:"p_value"`

	VaRConfidence float64  `json:"var_confidence"`
	VaR           *float64 `json:"var_pct"`
	CVaR          *float64 `json:"cvar_pct"`

	Daily   PeriodMetrics `json:"daily"`
	Weekly  PeriodMetrics `json:"weekly"`
	Monthly PeriodMetrics `json:"monthly"`
}

// Options are the ratio parameters of AllMetrics
type Options struct {
	RiskFreeRate  float64 // annual, fraction
	SortinoTarget float64 // daily, fraction
	VaRConfidence float64
}

// DefaultOptions returns rf=0, target=0, 95% VaR
func DefaultOptions() Options {
	return Options{VaRConfidence: DefaultVaRConfidence}
}

// RollingCorrelation is the windowed correlation of two return series
type RollingCorrelation struct {
	Window  int         `json:"window"`
	Current float64     `json:"current"`
	Min     float64     `json:"min"`
	Max     float64     `json:"max"`
	Mean    float64     `json:"mean"`
	Dates   []time.Time `json:"dates"`
	Values  []float64   `json:"values"`
}

// TailDependence is P(combined in its worst tail | baseline in its worst tail)
type TailDependence struct {
	Probability float64 `json:"probability_pct"`
	Independent float64 `json:"independence_pct"`
	Ratio       float64 `json:"ratio"`
	TailDays    int     `json:"tail_days"`
	JointDays   int     `json:"joint_days"`
}

// Delta compares one metric on the baseline and the combined curve
type Delta struct {
	Baseline    *float64 `json:"baseline"`
	Combined    *float64 `json:"combined"`
	Improvement *float64 `json:"improvement"`
}

// Marginal is the change in risk metrics from adding the strategy
type Marginal struct {
	Sharpe Delta `json:"sharpe"`
	VaR    Delta `json:"var_pct"`
	CVaR   Delta `json:"cvar_pct"`
}

// EdgeDecay compares the first and the last window of a curve
type EdgeDecay struct {
	Window         int      `json:"window"`
	EarlySharpe    *float64 `json:"early_sharpe"`
	RecentSharpe   *float64 `json:"recent_sharpe"`
	SharpeDecayPct *float64 `json:"sharpe_decay_pct"`

	EarlyMeanGain    *float64 `json:"early_mean_gain"`
	RecentMeanGain   *float64 `json:"recent_mean_gain"`
	EarlyMedianGain  *float64 `json:"early_median_gain"`
	RecentMedianGain *float64 `json:"recent_median_gain"`
	GainDecayPct     *float64 `json:"gain_decay_pct"`
}

// TickerOverlap measures how much two curves trade the same names
type TickerOverlap struct {
	BaselineTickers  int      `json:"baseline_tickers"`
	CombinedTickers  int      `json:"combined_tickers"`
	Overlapping      int      `json:"overlapping_tickers"`
	OverlapPct       float64  `json:"overlap_pct"`
	ConcurrentTrades *int     `json:"concurrent_trades"`
	ConcurrentPct    *float64 `json:"concurrent_pct"`
}

// CompareOptions configures Compare
type CompareOptions struct {
	Options
	RollingWindow int
	TailQuantile  float64
	EdgeWindow    int
}

// DefaultCompareOptions returns the standard comparison windows
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{
		Options:       DefaultOptions(),
		RollingWindow: DefaultRollingWindow,
		TailQuantile:  DefaultTailQuantile,
		EdgeWindow:    DefaultEdgeWindow,
	}
}

// Comparison is the baseline vs. combined report.
// Pointer fields are nil when the curves do not overlap enough.
type Comparison struct {
	Baseline PortfolioMetrics `json:"baseline"`
	Combined PortfolioMetrics `json:"combined"`

	Correlation         *float64            `json:"correlation"`
	Rolling             *RollingCorrelation `json:"rolling_correlation"`
	TailCorrelation     *float64            `json:"tail_correlation"`
	DrawdownCorrelation *float64            `json:"drawdown_correlation"`
	TailDependence      *TailDependence     `json:"lower_tail_dependence"`
	Marginal            Marginal            `json:"marginal"`
	BaselineDecay       *EdgeDecay          `json:"baseline_edge_decay"`
	CombinedDecay       *EdgeDecay          `json:"combined_edge_decay"`
	Tickers             *TickerOverlap      `json:"ticker_overlap"`
}

func ptr[T any](v T) *T {
	return &v
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
