// Public domain.

package wcs_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/soniakeys/finder/sky"
	"github.com/soniakeys/finder/wcs"
)

// a DSS-like cutout header: 300 x 300, 1.7 arcsec pixels, centered on M45.
func dssHeader() wcs.Header {
	return wcs.Header{
		"CTYPE1": "RA---TAN",
		"CTYPE2": "DEC--TAN",
		"CRVAL1": 56.75,
		"CRVAL2": 24.1167,
		"CRPIX1": 150.5,
		"CRPIX2": 150.5,
		"CDELT1": -4.7222e-4,
		"CDELT2": 4.7222e-4,
	}
}

func ExampleTransform_WorldToPixel() {
	t, err := wcs.FromHeader(dssHeader())
	if err != nil {
		fmt.Println(err)
		return
	}
	x, y, _ := t.WorldToPixel(sky.FromDeg(56.75, 24.1167))
	fmt.Printf("%.3f %.3f\n", x, y)
	// Output:
	// 149.500 149.500
}

func TestRoundTrip(t *testing.T) {
	headers := map[string]wcs.Header{
		"cdelt": dssHeader(),
		"crota": func() wcs.Header {
			h := dssHeader()
			h["CROTA2"] = 12.5
			return h
		}(),
		"cd": {
			"CTYPE1": "RA---TAN", "CTYPE2": "DEC--TAN",
			"CRVAL1": 0.01, "CRVAL2": -30,
			"CRPIX1": 64, "CRPIX2": 40,
			"CD1_1": -2.8e-4, "CD1_2": 1.1e-5,
			"CD2_1": 1.3e-5, "CD2_2": 2.8e-4,
		},
		"pc": {
			"CTYPE1": "RA---TAN", "CTYPE2": "DEC--TAN",
			"CRVAL1": 301.2, "CRVAL2": 88.9,
			"CRPIX1": 1, "CRPIX2": 1,
			"CDELT1": -1e-3, "CDELT2": 1e-3,
			"PC1_1": 0.98, "PC1_2": -0.2, "PC2_1": 0.2, "PC2_2": 0.98,
		},
	}
	for name, h := range headers {
		tr, err := wcs.FromHeader(h)
		if err != nil {
			t.Fatal(name, err)
		}
		for _, px := range []wcs.Pixel{{0, 0}, {149.5, 149.5}, {10, 290}, {-20, 5}, {299, 299}} {
			p := tr.PixelToWorld(px.X, px.Y)
			x, y, err := tr.WorldToPixel(p)
			if err != nil {
				t.Fatal(name, px, err)
			}
			if math.Abs(x-px.X) > 1e-7 || math.Abs(y-px.Y) > 1e-7 {
				t.Errorf("%s: pixel %v -> %v -> (%g, %g)", name, px, p, x, y)
			}
			q := tr.PixelToWorld(x, y)
			if d := sky.Sep(p, q).Deg(); d > 1e-9 {
				t.Errorf("%s: world round trip off by %g deg", name, d)
			}
		}
	}
}

func TestReference(t *testing.T) {
	tr, err := wcs.FromHeader(dssHeader())
	if err != nil {
		t.Fatal(err)
	}
	rp := tr.ReferencePixel()
	if rp.X != 149.5 || rp.Y != 149.5 {
		t.Fatal("reference pixel", rp)
	}
	p := tr.PixelToWorld(rp.X, rp.Y)
	if d := sky.Sep(p, tr.Reference()).Deg(); d > 1e-12 {
		t.Fatal("reference pixel maps", d, "deg from CRVAL")
	}
}

func TestOrientation(t *testing.T) {
	tr, err := wcs.FromHeader(dssHeader())
	if err != nil {
		t.Fatal(err)
	}
	// CDELT1 < 0: east is toward smaller x.  CDELT2 > 0: north is up.
	if x, _, _ := tr.WorldToPixel(sky.FromDeg(56.76, 24.1167)); !(x < 149.5) {
		t.Error("east not toward -x:", x)
	}
	if _, y, _ := tr.WorldToPixel(sky.FromDeg(56.75, 24.13)); !(y > 149.5) {
		t.Error("north not toward +y:", y)
	}
}

func TestRAWrap(t *testing.T) {
	tr, err := wcs.FromHeader(wcs.Header{
		"CTYPE1": "RA---TAN", "CTYPE2": "DEC--TAN",
		"CRVAL1": 0.01, "CRVAL2": 0,
		"CRPIX1": 50, "CRPIX2": 50,
		"CDELT1": -0.001, "CDELT2": 0.001,
	})
	if err != nil {
		t.Fatal(err)
	}
	x, _, err := tr.WorldToPixel(sky.FromDeg(359.99, 0))
	if err != nil {
		t.Fatal(err)
	}
	// 0.02 deg west of the reference, 20 pixels toward +x
	if math.Abs(x-(49+20)) > 1e-3 {
		t.Fatal("x =", x)
	}
}

func TestFromHeaderErrors(t *testing.T) {
	h := dssHeader()
	h["CTYPE1"] = "RA---SIN"
	if _, err := wcs.FromHeader(h); !errors.Is(err, wcs.ErrProjection) {
		t.Error("SIN accepted:", err)
	}
	h = dssHeader()
	delete(h, "CRPIX2")
	if _, err := wcs.FromHeader(h); err == nil {
		t.Error("missing CRPIX2 accepted")
	}
	h = dssHeader()
	h["CDELT1"] = 0
	if _, err := wcs.FromHeader(h); err == nil {
		t.Error("zero CDELT1 accepted")
	}
	h = dssHeader()
	h["CRVAL1"] = 56 // integer valued keywords decode as int
	if _, err := wcs.FromHeader(h); err != nil {
		t.Error("int CRVAL1 rejected:", err)
	}
}

func TestBehind(t *testing.T) {
	tr, err := wcs.FromHeader(dssHeader())
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = tr.WorldToPixel(sky.FromDeg(56.75+180, -24.1167))
	if !errors.Is(err, wcs.ErrBehind) {
		t.Fatal("antipode projected:", err)
	}
	if _, err := tr.Project([]sky.Position{tr.Reference(), sky.FromDeg(236.75, 0)}); err == nil {
		t.Fatal("Project accepted antipode")
	}
}
