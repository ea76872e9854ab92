// Public domain.

// Package chart renders finder charts and color-magnitude diagrams.
//
// Plots are built with gonum.org/v1/plot and saved in any format it
// supports, chosen by file extension: pdf, png, svg, eps, jpg, tif.
package chart

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Clamp returns a copy of pix with values less than min, and NaNs,
// replaced by min.
//
// Clamp(Clamp(pix, min), min) equals Clamp(pix, min).
func Clamp(pix []float64, min float64) []float64 {
	c := make([]float64, len(pix))
	for i, v := range pix {
		if v < min || math.IsNaN(v) {
			v = min
		}
		c[i] = v
	}
	return c
}

// LogScale returns the natural log of pix clamped to min.  min must be
// positive.
func LogScale(pix []float64, min float64) []float64 {
	c := Clamp(pix, min)
	for i, v := range c {
		c[i] = math.Log(v)
	}
	return c
}

// GrayR maps v, width x height values in row-major order, to a reversed
// gray scale image: the least value white, the greatest black.
//
// Row 0 of v is the bottom row of the returned image.
func GrayR(width, height int, v []float64) *image.Gray {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	span := hi - lo
	g := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := v[y*width : (y+1)*width]
		gy := height - 1 - y
		for x, s := range row {
			l := 255.
			if span > 0 {
				l = 255 * (1 - (s-lo)/span)
			}
			g.SetGray(x, gy, color.Gray{Y: uint8(math.Round(l))})
		}
	}
	return g
}

// FileName returns prefix + target + ext with all white space removed
// from target.  "HD 189733" becomes finder-HD189733.pdf with the usual
// prefix and extension.
func FileName(prefix, target, ext string) string {
	return prefix + strings.Join(strings.Fields(target), "") + ext
}

// Size is a plot size in inches.
type Size struct {
	Width, Height float64
}

// DefaultSize is 6.4 x 4.8 inches.
var DefaultSize = Size{6.4, 4.8}

func (s Size) lengths() (w, h vg.Length) {
	if s.Width <= 0 || s.Height <= 0 {
		s = DefaultSize
	}
	return vg.Length(s.Width) * vg.Inch, vg.Length(s.Height) * vg.Inch
}

// Save writes p to path in the format given by the path extension.
func Save(p *plot.Plot, path string, size Size) error {
	w, h := size.lengths()
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Write writes p to w in the named format, such as "pdf" or "png".
func Write(p *plot.Plot, w io.Writer, size Size, format string) error {
	pw, ph := size.lengths()
	wt, err := p.WriterTo(pw, ph, strings.TrimPrefix(format, "."))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
