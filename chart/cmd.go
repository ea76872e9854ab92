// Public domain.

package chart

import (
	"errors"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ColorMagnitude is a color-magnitude diagram.  Magnitude increases
// downward.
type ColorMagnitude struct {
	Title  string
	XLabel string // default "V - I"
	YLabel string // default "V (mag)"
	Color  []float64
	Mag    []float64
}

// Plot returns a new plot of the diagram.  Pairs with a NaN are left
// out.
func (d *ColorMagnitude) Plot() (*plot.Plot, error) {
	if len(d.Color) != len(d.Mag) {
		return nil, errors.New("chart: color and magnitude lengths differ")
	}
	xys := make(plotter.XYs, 0, len(d.Color))
	for i, c := range d.Color {
		if math.IsNaN(c) || math.IsNaN(d.Mag[i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: c, Y: d.Mag[i]})
	}
	p := plot.New()
	p.Title.Text = d.Title
	p.X.Label.Text = d.XLabel
	if p.X.Label.Text == "" {
		p.X.Label.Text = "V - I"
	}
	p.Y.Label.Text = d.YLabel
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = "V (mag)"
	}
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	if len(xys) > 0 {
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Color = color.Black
		s.GlyphStyle.Radius = vg.Points(.5)
		p.Add(s)
	}
	return p, nil
}
