// Public domain.

// Package wcs implements the FITS world coordinate system transform for
// celestial images in the gnomonic (TAN) projection, the projection of
// DSS plates and SkyView cutouts.
//
// Pixel coordinates are zero based: the center of the first pixel in the
// FITS array is (0, 0).  The FITS convention is one based; conversion
// happens here and nowhere else.
package wcs

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/finder/sky"
	"github.com/soniakeys/unit"
)

// Header holds FITS header keyword values as decoded from a FITS file.
// Numeric values may be any Go integer or float type.
type Header map[string]interface{}

// Float returns the value of a numeric keyword.
func (h Header) Float(key string) (float64, bool) {
	switch v := h[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint8:
		return float64(v), true
	}
	return 0, false
}

// String returns the value of a string keyword, trailing blanks removed.
func (h Header) String(key string) (string, bool) {
	s, ok := h[key].(string)
	return strings.TrimRight(s, " "), ok
}

var (
	// ErrProjection is returned by FromHeader for any CTYPE pair other
	// than RA---TAN, DEC--TAN.
	ErrProjection = errors.New("wcs: unsupported projection")

	// ErrBehind is returned by WorldToPixel for positions 90° or more
	// from the tangent point.  They have no projection.
	ErrBehind = errors.New("wcs: position not in projected hemisphere")
)

// Pixel is a zero based pixel coordinate.
type Pixel struct {
	X, Y float64
}

// Transform maps between pixel coordinates and sky positions.
type Transform struct {
	crpix1, crpix2 float64
	cd, inv        [2][2]float64 // degrees per pixel and inverse
	ref            sky.Position

	// unit vector to the tangent point, and unit vectors of local
	// east and north there.  projection plane coordinates are
	// components along e and n.
	c, e, n coord.Cart
}

// FromHeader constructs a Transform from FITS header keywords.
//
// The linear part is taken from CDi_j if any are present, else from
// CDELTi with PCi_j if any are present, else from CDELTi with CROTA2.
func FromHeader(h Header) (*Transform, error) {
	ct1, _ := h.String("CTYPE1")
	ct2, _ := h.String("CTYPE2")
	if !strings.HasPrefix(ct1, "RA--") || !strings.HasPrefix(ct2, "DEC-") ||
		!strings.HasSuffix(ct1, "-TAN") || !strings.HasSuffix(ct2, "-TAN") {
		return nil, fmt.Errorf("%w: CTYPE %q, %q", ErrProjection, ct1, ct2)
	}
	var t Transform
	var ok1, ok2 bool
	var ra, dec float64
	ra, ok1 = h.Float("CRVAL1")
	dec, ok2 = h.Float("CRVAL2")
	if !ok1 || !ok2 {
		return nil, errors.New("wcs: CRVAL missing")
	}
	t.crpix1, ok1 = h.Float("CRPIX1")
	t.crpix2, ok2 = h.Float("CRPIX2")
	if !ok1 || !ok2 {
		return nil, errors.New("wcs: CRPIX missing")
	}
	if err := t.linear(h); err != nil {
		return nil, err
	}
	det := t.cd[0][0]*t.cd[1][1] - t.cd[0][1]*t.cd[1][0]
	if det == 0 || math.IsNaN(det) {
		return nil, errors.New("wcs: singular CD matrix")
	}
	t.inv = [2][2]float64{
		{t.cd[1][1] / det, -t.cd[0][1] / det},
		{-t.cd[1][0] / det, t.cd[0][0] / det},
	}
	t.ref = sky.FromDeg(ra, dec)
	t.basis()
	return &t, nil
}

func (t *Transform) linear(h Header) error {
	var anyCD bool
	for i := 1; i <= 2; i++ {
		for j := 1; j <= 2; j++ {
			if v, ok := h.Float(fmt.Sprintf("CD%d_%d", i, j)); ok {
				t.cd[i-1][j-1] = v
				anyCD = true
			}
		}
	}
	if anyCD {
		return nil
	}
	cdelt1, ok1 := h.Float("CDELT1")
	cdelt2, ok2 := h.Float("CDELT2")
	if !ok1 || !ok2 || cdelt1 == 0 || cdelt2 == 0 {
		return errors.New("wcs: no CD matrix and no usable CDELT")
	}
	pc := [2][2]float64{{1, 0}, {0, 1}}
	var anyPC bool
	for i := 1; i <= 2; i++ {
		for j := 1; j <= 2; j++ {
			if v, ok := h.Float(fmt.Sprintf("PC%d_%d", i, j)); ok {
				pc[i-1][j-1] = v
				anyPC = true
			}
		}
	}
	if !anyPC {
		rho, _ := h.Float("CROTA2")
		s, c := math.Sincos(rho * math.Pi / 180)
		// CDELT2/CDELT1 ratio folds into the off diagonal terms
		pc = [2][2]float64{
			{c, -s * cdelt2 / cdelt1},
			{s * cdelt1 / cdelt2, c},
		}
	}
	t.cd = [2][2]float64{
		{cdelt1 * pc[0][0], cdelt1 * pc[0][1]},
		{cdelt2 * pc[1][0], cdelt2 * pc[1][1]},
	}
	return nil
}

func (t *Transform) basis() {
	sa, ca := math.Sincos(t.ref.RA.Rad())
	sd, cd := math.Sincos(t.ref.Dec.Rad())
	t.c = coord.Cart{X: ca * cd, Y: sa * cd, Z: sd}
	t.e = coord.Cart{X: -sa, Y: ca}
	t.n = coord.Cart{X: -sd * ca, Y: -sd * sa, Z: cd}
}

// Reference returns the sky position of the reference pixel.
func (t *Transform) Reference() sky.Position {
	return t.ref
}

// ReferencePixel returns the zero based coordinate of the reference pixel.
func (t *Transform) ReferencePixel() Pixel {
	return Pixel{t.crpix1 - 1, t.crpix2 - 1}
}

// PixelToWorld returns the sky position at zero based pixel coordinate
// x, y.
func (t *Transform) PixelToWorld(x, y float64) sky.Position {
	dx := x + 1 - t.crpix1
	dy := y + 1 - t.crpix2
	xi := (t.cd[0][0]*dx + t.cd[0][1]*dy) * math.Pi / 180
	eta := (t.cd[1][0]*dx + t.cd[1][1]*dy) * math.Pi / 180

	// point on the tangent plane, then back out to the sphere
	var v, d coord.Cart
	d.MulScalar(&t.e, xi)
	v.Add(&t.c, &d)
	d.MulScalar(&t.n, eta)
	v.Add(&v, &d)

	ra := math.Atan2(v.Y, v.X)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	dec := math.Atan2(v.Z, math.Hypot(v.X, v.Y))
	return sky.Position{RA: unit.RAFromRad(ra), Dec: unit.Angle(dec)}
}

// WorldToPixel returns the zero based pixel coordinate of a sky position.
func (t *Transform) WorldToPixel(p sky.Position) (x, y float64, err error) {
	sa, ca := math.Sincos(p.RA.Rad())
	sd, cd := math.Sincos(p.Dec.Rad())
	u := coord.Cart{X: ca * cd, Y: sa * cd, Z: sd}
	cosc := u.Dot(&t.c)
	if !(cosc > 0) {
		return 0, 0, ErrBehind
	}
	xi := u.Dot(&t.e) / cosc * 180 / math.Pi
	eta := u.Dot(&t.n) / cosc * 180 / math.Pi
	x = t.inv[0][0]*xi + t.inv[0][1]*eta + t.crpix1 - 1
	y = t.inv[1][0]*xi + t.inv[1][1]*eta + t.crpix2 - 1
	return x, y, nil
}

// Project returns pixel coordinates for a list of positions.
func (t *Transform) Project(ps []sky.Position) ([]Pixel, error) {
	px := make([]Pixel, len(ps))
	for i, p := range ps {
		x, y, err := t.WorldToPixel(p)
		if err != nil {
			return nil, fmt.Errorf("position %d %v: %w", i, p, err)
		}
		px[i] = Pixel{x, y}
	}
	return px, nil
}
