package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/tradelens/internal/breakdown"
	"github.com/wonny/tradelens/internal/features"
)

// sheet writes rows to one worksheet and keeps the first error
type sheet struct {
	fx     *excelize.File
	name   string
	header int
	err    error
}

func (s *sheet) row(r int, values ...any) {
	for i, v := range values {
		if s.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(i+1, r)
		if err != nil {
			s.err = err
			return
		}
		s.err = s.fx.SetCellValue(s.name, cell, v)
	}
}

func (s *sheet) headerRow(r int, titles ...string) {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	s.row(r, values...)
	if s.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, r)
	last, _ := excelize.CoordinatesToCellName(len(titles), r)
	s.err = s.fx.SetCellStyle(s.name, first, last, s.header)
}

func (s *sheet) widths(w float64, cols int) {
	if s.err != nil {
		return
	}
	last, _ := excelize.ColumnNumberToName(cols)
	s.err = s.fx.SetColWidth(s.name, "A", last, w)
}

func newWorkbook() (*excelize.File, int, error) {
	fx := excelize.NewFile()
	header, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		fx.Close()
		return nil, 0, err
	}
	return fx, header, nil
}

// addSheet renames the default sheet on first use, creates a new one afterwards
func addSheet(fx *excelize.File, header int, name string, first bool) (*sheet, error) {
	if first {
		if err := fx.SetSheetName(fx.GetSheetName(0), name); err != nil {
			return nil, err
		}
	} else if _, err := fx.NewSheet(name); err != nil {
		return nil, err
	}
	return &sheet{fx: fx, name: name, header: header}, nil
}

func save(fx *excelize.File, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := fx.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

var summaryHeader = []string{
	"Total Gain %", "Total Gain", "Account Growth %", "Max Drawdown %",
	"Max Drawdown", "Win Rate %", "Trades", "Drawdown Rows",
}

func summaryRow(s *sheet, r int, label any, b breakdown.Summary) {
	s.row(r, label, b.TotalGainPct, b.TotalGain, b.AccountGrowthPct, b.MaxDrawdownPct,
		b.MaxDrawdown, b.WinRate, b.Trades, b.DrawdownDuration)
}

// WriteBreakdownXLSX writes a "Yearly" sheet plus one "<year>" sheet per monthly breakdown
func WriteBreakdownXLSX(path string, yearly []breakdown.Summary, monthly map[int][]breakdown.Summary) error {
	fx, header, err := newWorkbook()
	if err != nil {
		return err
	}
	defer fx.Close()

	ys, err := addSheet(fx, header, "Yearly", true)
	if err != nil {
		return err
	}
	ys.headerRow(1, append([]string{"Year"}, summaryHeader...)...)
	for i, b := range yearly {
		summaryRow(ys, i+2, b.Period, b)
	}
	ys.widths(16, len(summaryHeader)+1)
	if ys.err != nil {
		return fmt.Errorf("yearly sheet: %w", ys.err)
	}

	years := make([]int, 0, len(monthly))
	for y := range monthly {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, y := range years {
		ms, err := addSheet(fx, header, fmt.Sprintf("%d", y), false)
		if err != nil {
			return err
		}
		ms.headerRow(1, append([]string{"Month"}, summaryHeader...)...)
		for i, b := range monthly[y] {
			summaryRow(ms, i+2, time.Month(b.Period).String(), b)
		}
		ms.widths(16, len(summaryHeader)+1)
		if ms.err != nil {
			return fmt.Errorf("%d sheet: %w", y, ms.err)
		}
	}

	return save(fx, path)
}

// WriteFeaturesXLSX writes a ranked feature table to a "Features" sheet
func WriteFeaturesXLSX(path string, ranked []features.Ranked) error {
	fx, header, err := newWorkbook()
	if err != nil {
		return err
	}
	defer fx.Close()

	s, err := addSheet(fx, header, "Features", true)
	if err != nil {
		return err
	}
	s.headerRow(1,
		"Rank", "Feature", "Impact Score", "Threshold", "Direction",
		"Baseline Win %", "Above Win %", "Below Win %", "Win Rate Lift",
		"Baseline Exp.", "Above Exp.", "Below Exp.", "Expectancy Lift",
		"Correlation", "Trades Above", "Trades Below", "Trades", "PnL Above", "PnL Below",
	)
	for i, r := range ranked {
		s.row(i+2,
			i+1, r.Feature, r.Score, r.OptimalThreshold, string(r.ThresholdDirection),
			r.BaselineWinRate, r.AboveWinRate, r.BelowWinRate, r.WinRateLift,
			r.BaselineExpectancy, r.AboveExpectancy, r.BelowExpectancy, r.ExpectancyLift,
			r.Correlation, r.TradesAbove, r.TradesBelow, r.TradesTotal, r.PnLAbove, r.PnLBelow,
		)
	}
	s.widths(14, 19)
	if s.err != nil {
		return fmt.Errorf("features sheet: %w", s.err)
	}

	return save(fx, path)
}
