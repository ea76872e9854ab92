// Public domain.

// Package fitstest builds small FITS files for tests.
package fitstest

import (
	"bytes"

	"github.com/astrogo/fitsio"
)

// Card is a header keyword and value.  Value is a string, bool, int,
// or float64.
type Card struct {
	Key   string
	Value interface{}
}

// Image returns a single HDU FITS file with a BITPIX -32 image of
// width x height pixels.  Pixels are row-major, row 0 first.
// Extra cards follow the mandatory ones in the order given.
func Image(width, height int, pix []float32, extra ...Card) []byte {
	var b bytes.Buffer
	f, err := fitsio.Create(&b)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	img := fitsio.NewImage(-32, []int{width, height})
	defer img.Close()
	cards := make([]fitsio.Card, len(extra))
	for i, c := range extra {
		cards[i] = fitsio.Card{Name: c.Key, Value: c.Value}
	}
	if err := img.Header().Append(cards...); err != nil {
		panic(err)
	}
	if err := img.Write(&pix); err != nil {
		panic(err)
	}
	if err := f.Write(img); err != nil {
		panic(err)
	}
	return b.Bytes()
}

// TAN returns WCS cards for a north up, east left TAN projection
// centered on ra, dec with the reference pixel at the image center.
func TAN(width, height int, ra, dec, degPerPix float64) []Card {
	return []Card{
		{"CTYPE1", "RA---TAN"},
		{"CTYPE2", "DEC--TAN"},
		{"CRVAL1", ra},
		{"CRVAL2", dec},
		{"CRPIX1", float64(width+1) / 2},
		{"CRPIX2", float64(height+1) / 2},
		{"CDELT1", -degPerPix},
		{"CDELT2", degPerPix},
	}
}

// Gradient returns width x height pixels increasing left to right and
// bottom to top, with a few non-positive values in the first row.
func Gradient(width, height int) []float32 {
	p := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p[y*width+x] = float32(10*y + x)
		}
	}
	p[0], p[1] = -5, 0
	return p
}
