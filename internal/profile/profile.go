// Package profile holds the analysis parameters shared by the CLI and the API.
// A profile is a YAML file; anything it leaves out keeps the default.
package profile

import (
	"github.com/wonny/tradelens/internal/features"
	"github.com/wonny/tradelens/internal/metrics"
	"github.com/wonny/tradelens/pkg/config"
)

// Profile is one set of analysis parameters
// ⭐ SSOT: 분석 파라미터는 여기서만 정의
type Profile struct {
	Name string `yaml:"name" json:"name"`

	// Feature impact
	GainColumn         string   `yaml:"gain_column" json:"gain_column"`
	ExcludedColumns    []string `yaml:"excluded_columns" json:"excluded_columns"`
	MinTradesThreshold int      `yaml:"min_trades_threshold" json:"min_trades_threshold"`

	// Portfolio metrics
	StartingCapital float64 `yaml:"starting_capital" json:"starting_capital"`
	RiskFreeRate    float64 `yaml:"risk_free_rate" json:"risk_free_rate"` // annual, fraction
	SortinoTarget   float64 `yaml:"sortino_target" json:"sortino_target"` // daily, fraction
	VaRConfidence   float64 `yaml:"var_confidence" json:"var_confidence"`

	// Comparison
	RollingWindow int     `yaml:"rolling_window" json:"rolling_window"`
	EdgeWindow    int     `yaml:"edge_window" json:"edge_window"`
	TailQuantile  float64 `yaml:"tail_quantile" json:"tail_quantile"`
}

// Default returns the built-in parameters
func Default() *Profile {
	return &Profile{
		Name:               "default",
		GainColumn:         features.DefaultGainColumn,
		MinTradesThreshold: features.DefaultMinTrades,
		StartingCapital:    100_000,
		VaRConfidence:      metrics.DefaultVaRConfidence,
		RollingWindow:      metrics.DefaultRollingWindow,
		EdgeWindow:         metrics.DefaultEdgeWindow,
		TailQuantile:       metrics.DefaultTailQuantile,
	}
}

// FromConfig returns the defaults with the environment's analysis settings applied
func FromConfig(cfg *config.Config) *Profile {
	p := Default()
	if cfg == nil {
		return p
	}
	if cfg.Analysis.StartingCapital > 0 {
		p.StartingCapital = cfg.Analysis.StartingCapital
	}
	if cfg.Analysis.GainColumn != "" {
		p.GainColumn = cfg.Analysis.GainColumn
	}
	if cfg.Analysis.MinTradesThreshold > 0 {
		p.MinTradesThreshold = cfg.Analysis.MinTradesThreshold
	}
	return p
}

// Excluded is the built-in exclusion list followed by the profile's own
func (p *Profile) Excluded() []string {
	out := make([]string, 0, len(features.DefaultExcluded)+len(p.ExcludedColumns))
	out = append(out, features.DefaultExcluded...)
	return append(out, p.ExcludedColumns...)
}

// MetricsOptions maps the profile onto AllMetrics options
func (p *Profile) MetricsOptions() metrics.Options {
	return metrics.Options{
		RiskFreeRate:  p.RiskFreeRate,
		SortinoTarget: p.SortinoTarget,
		VaRConfidence: p.VaRConfidence,
	}
}

// CompareOptions maps the profile onto Compare options
func (p *Profile) CompareOptions() metrics.CompareOptions {
	return metrics.CompareOptions{
		Options:       p.MetricsOptions(),
		RollingWindow: p.RollingWindow,
		TailQuantile:  p.TailQuantile,
		EdgeWindow:    p.EdgeWindow,
	}
}
