// Public domain.

package chart

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/soniakeys/finder/wcs"
)

// Finder is a finder chart: a log scaled image with catalog sources
// marked by open circles, in pixel coordinates.
type Finder struct {
	Title         string
	Width, Height int
	Pix           []float64 // row-major, row 0 at the bottom
	Marks         []wcs.Pixel
	ClampMin      float64 // default 1
}

// Visible returns the marks that fall on the image.
func (f *Finder) Visible() []wcs.Pixel {
	var v []wcs.Pixel
	xMax, yMax := float64(f.Width)-.5, float64(f.Height)-.5
	for _, m := range f.Marks {
		if m.X >= -.5 && m.X < xMax && m.Y >= -.5 && m.Y < yMax {
			v = append(v, m)
		}
	}
	return v
}

// Plot returns a new plot of the chart.  Pixel centers are at integer
// coordinates.
func (f *Finder) Plot() (*plot.Plot, error) {
	if f.Width <= 0 || f.Height <= 0 || len(f.Pix) != f.Width*f.Height {
		return nil, errors.New("chart: image size does not match pixels")
	}
	floor := f.ClampMin
	if floor <= 0 {
		floor = 1
	}
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = "x (pixels)"
	p.Y.Label.Text = "y (pixels)"
	x0, y0 := -.5, -.5
	x1, y1 := float64(f.Width)-.5, float64(f.Height)-.5
	p.Add(plotter.NewImage(GrayR(f.Width, f.Height, LogScale(f.Pix, floor)),
		x0, y0, x1, y1))
	if v := f.Visible(); len(v) > 0 {
		xys := make(plotter.XYs, len(v))
		for i, m := range v {
			xys[i].X, xys[i].Y = m.X, m.Y
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Shape = draw.RingGlyph{}
		s.GlyphStyle.Color = color.Black
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
	}
	p.X.Min, p.X.Max = x0, x1
	p.Y.Min, p.Y.Max = y0, y1
	return p, nil
}
