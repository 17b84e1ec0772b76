package profile

import (
	"fmt"
	"strings"
)

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every parameter range
func Validate(p *Profile) error {
	if strings.TrimSpace(p.GainColumn) == "" {
		return ValidationError{"gain_column", "required"}
	}
	if p.MinTradesThreshold <= 0 {
		return ValidationError{"min_trades_threshold", "must be > 0"}
	}
	if p.StartingCapital <= 0 {
		return ValidationError{"starting_capital", "must be > 0"}
	}
	if p.RiskFreeRate < 0 || p.RiskFreeRate >= 1 {
		return ValidationError{"risk_free_rate", "must be in [0, 1)"}
	}
	if p.VaRConfidence <= 0.5 || p.VaRConfidence >= 1 {
		return ValidationError{"var_confidence", "must be in (0.5, 1)"}
	}
	if p.RollingWindow < 2 {
		return ValidationError{"rolling_window", "must be >= 2"}
	}
	if p.EdgeWindow < 2 {
		return ValidationError{"edge_window", "must be >= 2"}
	}
	if p.TailQuantile <= 0 || p.TailQuantile >= 0.5 {
		return ValidationError{"tail_quantile", "must be in (0, 0.5)"}
	}
	for i, col := range p.ExcludedColumns {
		if strings.TrimSpace(col) == "" {
			return ValidationError{fmt.Sprintf("excluded_columns[%d]", i), "must not be empty"}
		}
	}
	return nil
}
