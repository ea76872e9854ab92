// Public domain.

// Package colormag plots a color-magnitude diagram from a VizieR catalog.
package colormag

import (
	"context"
	"io"
	"log"
	"math"

	"github.com/soniakeys/finder/chart"
	"github.com/soniakeys/finder/tap"
	"github.com/soniakeys/finder/vo"
)

// Querier runs ADQL.  *tap.Client is a Querier.
type Querier interface {
	Run(ctx context.Context, adql string) (*vo.Table, error)
}

// Params select the catalog rows and the plot.
type Params struct {
	Catalog  string // such as J/AJ/133/1658/acssggc
	Column   string // constraint column, such as Cluster
	Value    string // constraint value, such as NGC 7089
	ColorCol string
	MagCol   string
	Top      int // row limit, none if <= 0

	Title  string
	XLabel string
	YLabel string
	Output string
	Size   chart.Size
}

// Query returns the catalog query for p.
func Query(p Params) tap.ConstraintQuery {
	q := tap.ConstraintQuery{
		Table:   p.Catalog,
		Columns: []string{p.ColorCol, p.MagCol},
		Top:     p.Top,
	}
	if p.Column != "" {
		q.Constraints = []tap.Constraint{{Column: p.Column, Value: p.Value}}
	}
	return q
}

// Diagram queries the catalog and returns the diagram.
func Diagram(ctx context.Context, q Querier, p Params, lg *log.Logger) (*chart.ColorMagnitude, error) {
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	lg.Printf("querying %s for %s = %s", p.Catalog, p.Column, p.Value)
	t, err := q.Run(ctx, Query(p).ADQL())
	if err != nil {
		return nil, err
	}
	lg.Printf("%s: %d rows", p.Catalog, t.Len())
	c, err := t.Floats(p.ColorCol)
	if err != nil {
		return nil, err
	}
	m, err := t.Floats(p.MagCol)
	if err != nil {
		return nil, err
	}
	return &chart.ColorMagnitude{
		Title:  p.Title,
		XLabel: p.XLabel,
		YLabel: p.YLabel,
		Color:  c,
		Mag:    m,
	}, nil
}

// Make queries the catalog and saves the diagram to p.Output.  It returns
// the number of rows plotted.
func Make(ctx context.Context, q Querier, p Params, lg *log.Logger) (int, error) {
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	d, err := Diagram(ctx, q, p, lg)
	if err != nil {
		return 0, err
	}
	pl, err := d.Plot()
	if err != nil {
		return 0, err
	}
	if err := chart.Save(pl, p.Output, p.Size); err != nil {
		return 0, err
	}
	n := 0
	for i := range d.Color {
		if !math.IsNaN(d.Color[i]) && !math.IsNaN(d.Mag[i]) {
			n++
		}
	}
	lg.Printf("%d stars plotted to %s", n, p.Output)
	return n, nil
}
