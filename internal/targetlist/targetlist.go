// Public domain.

// Package targetlist builds a list of target coordinates sorted by
// right ascension.
package targetlist

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/soniakeys/finder/sesame"
)

// Lookuper returns all resolver answers for a name.  *sesame.Client and
// *cache.Resolver are Lookupers.
type Lookuper interface {
	Lookup(ctx context.Context, name string) ([]sesame.Match, error)
}

// Entry is a target with its coordinates as strings.
type Entry struct {
	Name string
	RA   string
	Dec  string
}

// Build looks up each name and returns entries sorted by RA string, then
// Dec string.
//
// Names with no answer are skipped with a warning.  When there are several
// answers the first is used, also with a warning.  A name given more than
// once appears once.  Errors other than an unknown name stop the build.
func Build(ctx context.Context, lk Lookuper, names []string, lg *log.Logger) ([]Entry, error) {
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	var es []Entry
	seen := map[string]int{}
	for _, name := range names {
		lg.Printf("querying %s", name)
		ms, err := lk.Lookup(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		lg.Printf("%s: %d objects found", name, len(ms))
		if len(ms) == 0 {
			lg.Print("skipping....")
			continue
		}
		if len(ms) > 1 {
			lg.Print("using first result")
		}
		ra, dec := ms[0].Position.Strings()
		e := Entry{Name: name, RA: ra, Dec: dec}
		if i, ok := seen[name]; ok {
			es[i] = e
			continue
		}
		seen[name] = len(es)
		es = append(es, e)
	}
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].RA != es[j].RA {
			return es[i].RA < es[j].RA
		}
		return es[i].Dec < es[j].Dec
	})
	return es, nil
}

// WriteText writes entries as fixed width columns of 20 characters.
func WriteText(w io.Writer, es []Entry) error {
	for _, e := range es {
		if _, err := fmt.Fprintf(w, "%-20s %-20s %-20s\n", e.Name, e.RA, e.Dec); err != nil {
			return err
		}
	}
	return nil
}

// Sheet is the worksheet name used by WriteXLSX.
const Sheet = "Targets"

// WriteXLSX writes entries as a spreadsheet with a heading row.
func WriteXLSX(w io.Writer, es []Entry) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"Name", "RA", "Dec"}}
	for _, e := range es {
		rows = append(rows, []interface{}{e.Name, e.RA, e.Dec})
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(Sheet, cell, &r); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(Sheet, "A", "C", 20); err != nil {
		return err
	}
	return f.Write(w)
}

// Write writes entries to path, as a spreadsheet if the extension is
// .xlsx and as text otherwise.
func Write(path string, es []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = WriteXLSX(f, es)
	} else {
		err = WriteText(f, es)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
