// Public domain.

package sia

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/astrogo/fitsio"

	"github.com/soniakeys/finder/wcs"
)

// Image is a decoded FITS image with its world coordinate system.
//
// Pix is row-major, Width values per row.  Row 0 is the first row of the
// FITS array, the bottom row in the FITS display convention.  Undefined
// pixels are NaN.
type Image struct {
	Width, Height int
	Pix           []float64
	WCS           *wcs.Transform
	Header        wcs.Header

	Title string
	URL   string
	Bytes int // size of the FITS file as downloaded
}

// At returns the pixel value at column x, row y.
func (img *Image) At(x, y int) float64 {
	return img.Pix[y*img.Width+x]
}

// header keywords copied out of the FITS header.
var keywords = []string{
	"CTYPE1", "CTYPE2", "CRVAL1", "CRVAL2", "CRPIX1", "CRPIX2",
	"CDELT1", "CDELT2", "CROTA2",
	"CD1_1", "CD1_2", "CD2_1", "CD2_2",
	"PC1_1", "PC1_2", "PC2_1", "PC2_2",
	"BSCALE", "BZERO", "BLANK", "RADESYS", "EQUINOX",
}

// Decode decodes the first HDU of a FITS file holding a 2-D (or higher,
// with the first plane taken) image.
//
// Some services return a primary header that omits the SIMPLE card.
// Such input is decoded as if the header began with SIMPLE = T.
func Decode(b []byte) (img *Image, err error) {
	// the decoder is not hardened against truncated input
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("fits: %v", r)
		}
	}()
	size := len(b)
	if !bytes.HasPrefix(b, []byte("SIMPLE  =")) {
		b = withSimple(b)
	}
	f, err := fitsio.Open(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	for _, hdu := range f.HDUs() {
		fi, ok := hdu.(fitsio.Image)
		if !ok {
			continue
		}
		axes := fi.Header().Axes()
		if len(axes) < 2 || axes[0] == 0 || axes[1] == 0 {
			continue
		}
		return decodeImage(fi, axes[0], axes[1], size)
	}
	return nil, errors.New("fits: no image HDU")
}

const (
	cardLen  = 80
	blockLen = 2880
)

// withSimple returns b with a SIMPLE = T card inserted ahead of the
// primary header, which is repadded to whole blocks.  b is returned
// unchanged if no END card is found.
func withSimple(b []byte) []byte {
	end := -1
	for i := 0; i+cardLen <= len(b); i += cardLen {
		if string(bytes.TrimRight(b[i:i+cardLen], " ")) == "END" {
			end = i
			break
		}
	}
	if end < 0 {
		return b
	}
	hdrLen := (end/blockLen + 1) * blockLen
	if hdrLen > len(b) {
		hdrLen = len(b)
	}
	nb := make([]byte, 0, len(b)+blockLen)
	nb = append(nb, fmt.Sprintf("%-8s= %20s%50s", "SIMPLE", "T", "")...)
	nb = append(nb, b[:end+cardLen]...)
	for len(nb)%blockLen != 0 {
		nb = append(nb, ' ')
	}
	return append(nb, b[hdrLen:]...)
}

func decodeImage(fi fitsio.Image, w, h, size int) (*Image, error) {
	fh := fi.Header()
	hdr := wcs.Header{}
	for _, k := range keywords {
		if c := fh.Get(k); c != nil && c.Value != nil {
			hdr[k] = c.Value
		}
	}
	pix, err := pixels(fi.Raw(), fh.Bitpix(), w*h, hdr)
	if err != nil {
		return nil, err
	}
	t, err := wcs.FromHeader(hdr)
	if err != nil {
		return nil, err
	}
	return &Image{
		Width:  w,
		Height: h,
		Pix:    pix,
		WCS:    t,
		Header: hdr,
		Bytes:  size,
	}, nil
}

// pixels decodes n big-endian values and applies BLANK, BSCALE, BZERO.
func pixels(raw []byte, bitpix, n int, hdr wcs.Header) ([]float64, error) {
	sz := bitpix / 8
	if sz < 0 {
		sz = -sz
	}
	if sz == 0 || len(raw) < n*sz {
		return nil, fmt.Errorf("fits: %d bytes of data for %d pixels of BITPIX %d",
			len(raw), n, bitpix)
	}
	blank, hasBlank := hdr.Float("BLANK")
	scale, ok := hdr.Float("BSCALE")
	if !ok {
		scale = 1
	}
	zero, _ := hdr.Float("BZERO")
	be := binary.BigEndian
	pix := make([]float64, n)
	for i := range pix {
		d := raw[i*sz:]
		var v float64
		switch bitpix {
		case 8:
			v = float64(d[0])
		case 16:
			v = float64(int16(be.Uint16(d)))
		case 32:
			v = float64(int32(be.Uint32(d)))
		case 64:
			v = float64(int64(be.Uint64(d)))
		case -32:
			v = float64(math.Float32frombits(be.Uint32(d)))
		case -64:
			v = math.Float64frombits(be.Uint64(d))
		default:
			return nil, fmt.Errorf("fits: invalid BITPIX %d", bitpix)
		}
		if bitpix > 0 && hasBlank && v == blank {
			pix[i] = math.NaN()
			continue
		}
		pix[i] = v*scale + zero
	}
	return pix, nil
}
