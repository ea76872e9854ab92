// Public domain.

package vo

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV reads a table in CSV format with a heading line of column names.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	head, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoTable
	}
	if err != nil {
		return nil, fmt.Errorf("vo: csv heading: %w", err)
	}
	t := &Table{Fields: make([]Field, len(head))}
	for i, h := range head {
		t.Fields[i].Name = strings.TrimSpace(h)
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("vo: csv: %w", err)
		}
		t.Rows = append(t.Rows, rec)
	}
}
