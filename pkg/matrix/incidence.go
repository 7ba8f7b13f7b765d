// Package matrix builds dense incidence matrices linking entities (genes or
// category names) to the sources in which they were observed.
//
// Rows are the union of entity keys across all sources in first-seen order;
// columns follow the caller's source order exactly. Both orders are part of
// the deterministic output contract. Matrices are rebuilt from scratch,
// never mutated incrementally.
package matrix

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDuplicateKey is returned by [Build] when a single source column
	// contains the same entity key twice. Duplicate keys are a caller data
	// error and are never silently resolved.
	ErrDuplicateKey = errors.New("duplicate entity key within one source")

	// ErrNoColumns is returned by [Build] when no source columns are given.
	ErrNoColumns = errors.New("no source columns")

	// ErrDuplicateColumn is returned by [Build] when two source columns
	// share a name.
	ErrDuplicateColumn = errors.New("duplicate source column name")

	// ErrShape is returned when serialized matrix data does not match its
	// declared dimensions.
	ErrShape = errors.New("matrix data does not match dimensions")
)

// Column is one source's ordered key→value mapping.
// Keys holds first-seen order; Cells holds the values. Use [NewColumn] and
// [Column.Set] to keep the two in sync.
type Column struct {
	Name  string
	Keys  []string
	Cells map[string]float64
}

// NewColumn creates an empty named column.
func NewColumn(name string) *Column {
	return &Column{Name: name, Cells: make(map[string]float64)}
}

// Set records a value for key, preserving insertion order.
// Returns ErrDuplicateKey if the key was already set.
func (c *Column) Set(key string, v float64) error {
	if _, dup := c.Cells[key]; dup {
		return ErrDuplicateKey
	}
	c.Keys = append(c.Keys, key)
	c.Cells[key] = v
	return nil
}

// Len returns the number of keys in the column.
func (c *Column) Len() int { return len(c.Keys) }

// Incidence is a dense rows×columns matrix: rows are entity keys, columns
// are source names, and absent entries hold the fill value.
type Incidence struct {
	rows   []string
	cols   []string
	rowIdx map[string]int
	colIdx map[string]int
	data   *mat.Dense
	fill   float64
}

// Build constructs an incidence matrix from the given source columns.
// Absent cells are filled with fill: use 1 when encoding p-values (1 means
// "not enriched") and 0 for counts.
//
// Returns ErrNoColumns for an empty input, ErrDuplicateColumn for repeated
// source names, and ErrDuplicateKey when a column's Keys and Cells disagree
// (a key recorded twice).
func Build(cols []*Column, fill float64) (*Incidence, error) {
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}

	m := &Incidence{
		cols:   make([]string, len(cols)),
		rowIdx: make(map[string]int),
		colIdx: make(map[string]int, len(cols)),
		fill:   fill,
	}

	for j, c := range cols {
		if _, dup := m.colIdx[c.Name]; dup {
			return nil, ErrDuplicateColumn
		}
		m.cols[j] = c.Name
		m.colIdx[c.Name] = j

		if len(c.Keys) != len(c.Cells) {
			return nil, ErrDuplicateKey
		}
		for _, k := range c.Keys {
			if _, seen := m.rowIdx[k]; !seen {
				m.rowIdx[k] = len(m.rows)
				m.rows = append(m.rows, k)
			}
		}
	}

	if len(m.rows) == 0 {
		// gonum rejects zero-length dimensions; an all-empty input yields a
		// matrix with columns but no rows and no backing data.
		return m, nil
	}

	m.data = mat.NewDense(len(m.rows), len(m.cols), nil)
	for i := range m.rows {
		for j := range m.cols {
			m.data.Set(i, j, fill)
		}
	}
	for j, c := range cols {
		for _, k := range c.Keys {
			m.data.Set(m.rowIdx[k], j, c.Cells[k])
		}
	}

	return m, nil
}

// Rows returns the row keys in first-seen order.
func (m *Incidence) Rows() []string { return slices.Clone(m.rows) }

// Cols returns the source column names in input order.
func (m *Incidence) Cols() []string { return slices.Clone(m.cols) }

// Fill returns the fill value used for absent cells.
func (m *Incidence) Fill() float64 { return m.fill }

// HasRow reports whether the matrix has a row for the given entity key.
func (m *Incidence) HasRow(key string) bool {
	_, ok := m.rowIdx[key]
	return ok
}

// Value returns the cell for (row key, column name) and whether both exist.
func (m *Incidence) Value(row, col string) (float64, bool) {
	i, okR := m.rowIdx[row]
	j, okC := m.colIdx[col]
	if !okR || !okC {
		return 0, false
	}
	return m.data.At(i, j), true
}

// At returns the cell at numeric position (i, j).
func (m *Incidence) At(i, j int) float64 { return m.data.At(i, j) }

// Dense exposes the underlying gonum matrix for numeric consumers.
// Treat it as read-only; incidence matrices are immutable once built.
func (m *Incidence) Dense() *mat.Dense { return m.data }

// RowMin reduces every row to its minimum across columns.
// The result is aligned with [Incidence.Rows].
func (m *Incidence) RowMin() []float64 {
	return m.reduce(func(best, v float64) bool { return v < best })
}

// RowMax reduces every row to its maximum across columns.
// The result is aligned with [Incidence.Rows].
func (m *Incidence) RowMax() []float64 {
	return m.reduce(func(best, v float64) bool { return v > best })
}

func (m *Incidence) reduce(better func(best, v float64) bool) []float64 {
	out := make([]float64, len(m.rows))
	for i := range m.rows {
		best := m.data.At(i, 0)
		for j := 1; j < len(m.cols); j++ {
			if v := m.data.At(i, j); better(best, v) {
				best = v
			}
		}
		out[i] = best
	}
	return out
}
