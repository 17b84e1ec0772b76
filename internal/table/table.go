// Package table provides the typed columnar trade/equity table the calculators read.
//
// A Table is a struct-of-arrays: every column has a Kind, a values slice of the
// matching type and a Valid mask marking missing cells. Tables are immutable once
// built; DeriveEquity returns a new table.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind is the value type of a column
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindDate
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Well-known column names
const (
	ColDate     = "date"
	ColPnL      = "pnl"
	ColEquity   = "equity"
	ColPeak     = "peak"
	ColDrawdown = "drawdown"
	ColGainPct  = "gain_pct"
	ColWin      = "win"
	ColTicker   = "ticker"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrLengthMismatch = errors.New("column length mismatch")
	ErrWrongKind      = errors.New("column has wrong kind")
)

// Column is one named, typed column. Only the slice matching Kind is populated.
type Column struct {
	Name    string
	Kind    Kind
	Numbers []float64
	Strings []string
	Dates   []time.Time
	Bools   []bool
	Valid   []bool
}

// Len returns the number of cells
func (c *Column) Len() int {
	return len(c.Valid)
}

// Table is an ordered set of equal-length columns
type Table struct {
	order []string
	cols  map[string]*Column
	rows  int
}

// Len returns the row count
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Names returns column names in insertion order
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Has reports whether a column exists
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the named column
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// NumericNames returns the names of number columns in insertion order
func (t *Table) NumericNames() []string {
	var names []string
	for _, name := range t.order {
		if t.cols[name].Kind == KindNumber {
			names = append(names, name)
		}
	}
	return names
}

func (t *Table) get(name string, kind Kind) (*Column, error) {
	c, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	if c.Kind != kind {
		return nil, fmt.Errorf("%w: %s is %s, want %s", ErrWrongKind, name, c.Kind, kind)
	}
	return c, nil
}

// Numbers returns a copy of a number column with NaN in missing cells
func (t *Table) Numbers(name string) ([]float64, error) {
	c, err := t.get(name, KindNumber)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c.Numbers))
	for i, v := range c.Numbers {
		if !c.Valid[i] {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out, nil
}

// Strings returns a copy of a string column ("" in missing cells)
func (t *Table) Strings(name string) ([]string, error) {
	c, err := t.get(name, KindString)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.Strings...), nil
}

// Text returns any column as text ("" in missing cells).
// Numbers use the shortest exact form, dates use YYYY-MM-DD.
func (t *Table) Text(name string) ([]string, error) {
	c, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	out := make([]string, c.Len())
	for i := range out {
		if !c.Valid[i] {
			continue
		}
		switch c.Kind {
		case KindNumber:
			out[i] = strconv.FormatFloat(c.Numbers[i], 'f', -1, 64)
		case KindString:
			out[i] = c.Strings[i]
		case KindDate:
			out[i] = c.Dates[i].Format("2006-01-02")
		case KindBool:
			out[i] = strconv.FormatBool(c.Bools[i])
		}
	}
	return out, nil
}

// Dates returns a copy of a date column (zero time in missing cells)
func (t *Table) Dates(name string) ([]time.Time, error) {
	c, err := t.get(name, KindDate)
	if err != nil {
		return nil, err
	}
	return append([]time.Time(nil), c.Dates...), nil
}

// Bools returns a copy of a bool column (false in missing cells)
func (t *Table) Bools(name string) ([]bool, error) {
	c, err := t.get(name, KindBool)
	if err != nil {
		return nil, err
	}
	return append([]bool(nil), c.Bools...), nil
}

// Valid returns a copy of the validity mask of any column
func (t *Table) Valid(name string) ([]bool, error) {
	c, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return append([]bool(nil), c.Valid...), nil
}

// clone copies the column index; column data is shared because columns are never mutated
func (t *Table) clone() *Table {
	out := &Table{
		order: append([]string(nil), t.order...),
		cols:  make(map[string]*Column, len(t.cols)),
		rows:  t.rows,
	}
	for k, v := range t.cols {
		out.cols[k] = v
	}
	return out
}

func (t *Table) put(c *Column) error {
	if len(t.order) == 0 {
		t.rows = c.Len()
	} else if c.Len() != t.rows {
		return fmt.Errorf("%w: %s has %d rows, table has %d", ErrLengthMismatch, c.Name, c.Len(), t.rows)
	}
	if _, exists := t.cols[c.Name]; !exists {
		t.order = append(t.order, c.Name)
	}
	t.cols[c.Name] = c
	return nil
}
