// Public domain.

// Package vo reads tabular results from Virtual Observatory services.
//
// VOTable documents with TABLEDATA serialization and CSV are supported.
// Values are kept as strings, as served; typed access is by column.
package vo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field describes a table column.
type Field struct {
	Name     string
	ID       string
	UCD      string
	Datatype string
	Unit     string
}

// Table is a result table.  Each row has one value per field.
type Table struct {
	Fields []Field
	Rows   [][]string
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the named column, or -1.
//
// Field names are matched first, then IDs, both case insensitively.
func (t *Table) Column(name string) int {
	for i, f := range t.Fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	for i, f := range t.Fields {
		if f.ID != "" && strings.EqualFold(f.ID, name) {
			return i
		}
	}
	return -1
}

// ColumnUCD returns the index of the first column with the given UCD, or -1.
func (t *Table) ColumnUCD(ucd string) int {
	for i, f := range t.Fields {
		if strings.EqualFold(f.UCD, ucd) {
			return i
		}
	}
	return -1
}

// Value returns the value at row, col.  Short rows read as empty.
func (t *Table) Value(row, col int) string {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Strings returns the values of a named column.
func (t *Table) Strings(name string) ([]string, error) {
	c := t.Column(name)
	if c < 0 {
		return nil, fmt.Errorf("vo: no column %q", name)
	}
	s := make([]string, len(t.Rows))
	for i := range t.Rows {
		s[i] = t.Value(i, c)
	}
	return s, nil
}

// Floats returns the values of a named column parsed as float64.
// Empty and null values are returned as NaN.
func (t *Table) Floats(name string) ([]float64, error) {
	c := t.Column(name)
	if c < 0 {
		return nil, fmt.Errorf("vo: no column %q", name)
	}
	f := make([]float64, len(t.Rows))
	for i := range t.Rows {
		s := strings.TrimSpace(t.Value(i, c))
		switch strings.ToLower(s) {
		case "", "null", "nan", "--":
			f[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("vo: column %q row %d: %w", name, i, err)
		}
		f[i] = v
	}
	return f, nil
}
