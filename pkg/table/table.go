// Package table defines the canonical tabular value type consumed by the
// enrichment pipeline, together with column-role bindings and record
// extraction.
//
// Every enrichment result enters the core as a [Table]: an ordered list of
// named columns and string-valued rows. Callers holding data in any other
// shape convert it explicitly before it reaches the core - the algorithms
// never type-sniff their inputs.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/enrichmap/pkg/errors"
)

// Table is an ordered collection of named string columns.
// Column order and row order are preserved exactly as given; both are part
// of the deterministic output contract of everything built on top.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// New creates an empty table with the given column names.
// Returns a CONFIG_INVALID_TABLE error if a column name is empty or repeated.
func New(cols []string) (*Table, error) {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if c == "" {
			return nil, errors.New(errors.ErrCodeInvalidTable, "column %d has an empty name", i)
		}
		if _, dup := index[c]; dup {
			return nil, errors.New(errors.ErrCodeInvalidTable, "duplicate column name %q", c)
		}
		index[c] = i
	}
	return &Table{cols: slices.Clone(cols), index: index}, nil
}

// Append adds a row to the table.
// The row must have exactly one cell per column.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.cols) {
		return errors.New(errors.ErrCodeInvalidTable,
			"row has %d cells, table has %d columns", len(row), len(t.cols))
	}
	t.rows = append(t.rows, slices.Clone(row))
	return nil
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string { return slices.Clone(t.cols) }

// HasColumn reports whether the table has a column with the given name.
// The match is exact (case-sensitive); use [Resolve] for binding resolution.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.rows) }

// Cell returns the value at row i in the named column.
// Returns "" if the column does not exist or i is out of range.
func (t *Table) Cell(i int, col string) string {
	j, ok := t.index[col]
	if !ok || i < 0 || i >= len(t.rows) {
		return ""
	}
	return t.rows[i][j]
}

// Row returns a copy of row i, or nil if out of range.
func (t *Table) Row(i int) []string {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return slices.Clone(t.rows[i])
}

// Clone returns a deep copy of the table.
// The pipeline never mutates caller tables; derived copies are cloned first.
func (t *Table) Clone() *Table {
	out := &Table{
		cols:  slices.Clone(t.cols),
		index: make(map[string]int, len(t.index)),
		rows:  make([][]string, len(t.rows)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	for i, r := range t.rows {
		out.rows[i] = slices.Clone(r)
	}
	return out
}

// Select returns a new table containing only the rows for which keep returns
// true, preserving order. The receiver is not modified.
func (t *Table) Select(keep func(i int) bool) *Table {
	out := &Table{
		cols:  slices.Clone(t.cols),
		index: make(map[string]int, len(t.index)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	for i, r := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, slices.Clone(r))
		}
	}
	return out
}

// Read parses delimited text into a Table. The first record is the header.
// Fields are not trimmed beyond what the csv reader does; empty cells stay
// empty strings.
func Read(r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeInvalidTable, "empty input, expected a header row")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "read header")
	}

	t, err := New(header)
	if err != nil {
		return nil, err
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "read line %d", line)
		}
		// Tolerate short trailing rows by padding; over-long rows are a
		// structural error.
		if len(rec) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rec)
			rec = padded
		}
		if err := t.Append(rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "line %d", line)
		}
	}
	return t, nil
}

// ReadFile reads a delimited table from disk. The delimiter is chosen by
// extension: .tsv and .txt are tab-separated, everything else comma-separated.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "table %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "open %s", path)
	}
	defer f.Close()

	comma := ','
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		comma = '\t'
	}

	t, err := Read(f, comma)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
