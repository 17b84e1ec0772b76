package table

import (
	"math"
	"time"
)

// Builder assembles a Table column by column.
// The first error sticks and is returned by Build.
type Builder struct {
	t   *Table
	err error
}

// NewBuilder starts an empty table
func NewBuilder() *Builder {
	return &Builder{t: &Table{cols: make(map[string]*Column)}}
}

func (b *Builder) add(c *Column) *Builder {
	if b.err != nil {
		return b
	}
	b.err = b.t.put(c)
	return b
}

// Numbers adds a number column; NaN cells are missing
func (b *Builder) Numbers(name string, values []float64) *Builder {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = !math.IsNaN(v)
	}
	return b.NullableNumbers(name, values, valid)
}

// NullableNumbers adds a number column with an explicit validity mask
func (b *Builder) NullableNumbers(name string, values []float64, valid []bool) *Builder {
	if len(values) != len(valid) {
		if b.err == nil {
			b.err = ErrLengthMismatch
		}
		return b
	}
	return b.add(&Column{
		Name:    name,
		Kind:    KindNumber,
		Numbers: append([]float64(nil), values...),
		Valid:   append([]bool(nil), valid...),
	})
}

// Strings adds a string column; empty strings are missing
func (b *Builder) Strings(name string, values []string) *Builder {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = v != ""
	}
	return b.add(&Column{
		Name:    name,
		Kind:    KindString,
		Strings: append([]string(nil), values...),
		Valid:   valid,
	})
}

// Dates adds a date column; zero times are missing
func (b *Builder) Dates(name string, values []time.Time) *Builder {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = !v.IsZero()
	}
	return b.add(&Column{
		Name:  name,
		Kind:  KindDate,
		Dates: append([]time.Time(nil), values...),
		Valid: valid,
	})
}

// Bools adds a bool column with every cell present
func (b *Builder) Bools(name string, values []bool) *Builder {
	valid := make([]bool, len(values))
	for i := range valid {
		valid[i] = true
	}
	return b.add(&Column{
		Name:  name,
		Kind:  KindBool,
		Bools: append([]bool(nil), values...),
		Valid: valid,
	})
}

// Column adds a prebuilt column
func (b *Builder) Column(c *Column) *Builder {
	return b.add(c)
}

// Build returns the table or the first error encountered
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.t, nil
}

// MustBuild is Build that panics on error; intended for tests and literals
func (b *Builder) MustBuild() *Table {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
