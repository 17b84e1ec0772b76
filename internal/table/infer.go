package table

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when a text cell might be a date
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"01/02/2006",
}

// missingTokens mark empty cells in text input
var missingTokens = map[string]struct{}{
	"": {}, "nan": {}, "null": {}, "none": {}, "na": {}, "n/a": {}, "nat": {},
}

func isMissingText(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseDate parses a date cell with the supported layouts
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// FromRecords builds a table from a sequence of mappings (e.g. decoded JSON rows).
// Column order is alphabetical since mappings carry no order.
func FromRecords(records []map[string]any) (*Table, error) {
	return FromRecordsInOrder(records, nil)
}

// FromRecordsInOrder is FromRecords with a caller-supplied column order.
// Names in order come first; keys it does not list follow alphabetically.
// Listed names absent from every record still become all-missing columns.
func FromRecordsInOrder(records []map[string]any, order []string) (*Table, error) {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	listed := make(map[string]struct{}, len(order))
	for _, k := range order {
		if _, dup := listed[k]; dup {
			continue
		}
		listed[k] = struct{}{}
		names = append(names, k)
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		if _, ok := listed[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	b := NewBuilder()
	for _, name := range names {
		cells := make([]any, len(records))
		for i, rec := range records {
			cells[i] = rec[name]
		}
		col, err := inferColumn(name, cells)
		if err != nil {
			return nil, err
		}
		b.Column(col)
	}
	return b.Build()
}

// FromColumns builds a table from a mapping of column name to cell sequence.
// order fixes the column order; nil means alphabetical.
func FromColumns(columns map[string][]any, order []string) (*Table, error) {
	if order == nil {
		for k := range columns {
			order = append(order, k)
		}
		sort.Strings(order)
	}

	b := NewBuilder()
	for _, name := range order {
		cells, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
		col, err := inferColumn(name, cells)
		if err != nil {
			return nil, err
		}
		b.Column(col)
	}
	return b.Build()
}

// fromTextRows builds a table from a header row plus text rows (CSV, XLSX)
func fromTextRows(header []string, rows [][]string) (*Table, error) {
	b := NewBuilder()
	for j, rawName := range header {
		name := strings.TrimSpace(rawName)
		cells := make([]any, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			}
		}
		col, err := inferColumn(name, cells)
		if err != nil {
			return nil, err
		}
		b.Column(col)
	}
	return b.Build()
}

// normalizeCell maps an input cell to nil, float64, bool, time.Time or string
func normalizeCell(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case float32:
		return normalizeCell(float64(x))
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case bool:
		return x
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x
	case string:
		if isMissingText(x) {
			return nil
		}
		return strings.TrimSpace(x)
	default:
		return fmt.Sprint(x)
	}
}

// textColumns hold identifiers that stay text even when every cell looks
// numeric, so codes like "005930" keep their leading zeros
var textColumns = map[string]struct{}{
	ColTicker: {},
	"symbol":  {},
}

// inferColumn picks the narrowest kind every present cell fits:
// number, then bool, then date, falling back to string.
func inferColumn(name string, raw []any) (*Column, error) {
	cells := make([]any, len(raw))
	for i, v := range raw {
		cells[i] = normalizeCell(v)
	}

	if _, text := textColumns[strings.ToLower(name)]; !text {
		if nums, valid, ok := asNumbers(cells); ok {
			return &Column{Name: name, Kind: KindNumber, Numbers: nums, Valid: valid}, nil
		}
		if bools, valid, ok := asBools(cells); ok {
			return &Column{Name: name, Kind: KindBool, Bools: bools, Valid: valid}, nil
		}
		if dates, valid, ok := asDates(cells); ok {
			return &Column{Name: name, Kind: KindDate, Dates: dates, Valid: valid}, nil
		}
	}

	strs := make([]string, len(cells))
	valid := make([]bool, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		valid[i] = true
		switch x := c.(type) {
		case string:
			strs[i] = x
		case float64:
			strs[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case time.Time:
			strs[i] = x.Format("2006-01-02")
		default:
			strs[i] = fmt.Sprint(x)
		}
	}
	return &Column{Name: name, Kind: KindString, Strings: strs, Valid: valid}, nil
}

func asNumbers(cells []any) ([]float64, []bool, bool) {
	nums := make([]float64, len(cells))
	valid := make([]bool, len(cells))
	for i, c := range cells {
		switch x := c.(type) {
		case nil:
			nums[i] = math.NaN()
		case float64:
			nums[i], valid[i] = x, true
		case string:
			f, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return nil, nil, false
			}
			if math.IsNaN(f) {
				nums[i] = math.NaN()
				continue
			}
			nums[i], valid[i] = f, true
		default:
			return nil, nil, false
		}
	}
	// an all-missing column stays numeric
	return nums, valid, true
}

func asBools(cells []any) ([]bool, []bool, bool) {
	bools := make([]bool, len(cells))
	valid := make([]bool, len(cells))
	for i, c := range cells {
		switch x := c.(type) {
		case nil:
		case bool:
			bools[i], valid[i] = x, true
		case string:
			switch strings.ToLower(x) {
			case "true":
				bools[i], valid[i] = true, true
			case "false":
				bools[i], valid[i] = false, true
			default:
				return nil, nil, false
			}
		default:
			return nil, nil, false
		}
	}
	return bools, valid, true
}

func asDates(cells []any) ([]time.Time, []bool, bool) {
	dates := make([]time.Time, len(cells))
	valid := make([]bool, len(cells))
	for i, c := range cells {
		switch x := c.(type) {
		case nil:
		case time.Time:
			dates[i], valid[i] = x, true
		case string:
			d, ok := ParseDate(x)
			if !ok {
				return nil, nil, false
			}
			dates[i], valid[i] = d, true
		default:
			return nil, nil, false
		}
	}
	return dates, valid, true
}
