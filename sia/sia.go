// Public domain.

// Package sia retrieves images from Simple Image Access (SIA version 1)
// services.
//
// A search returns a VOTable of candidate images covering a field.
// Fetch selects the first FITS candidate, downloads it, and decodes the
// pixel array and world coordinate system.
package sia

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/soniakeys/finder/sky"
	"github.com/soniakeys/finder/vo"
	"github.com/soniakeys/unit"
)

// DefaultURL is the SkyView SIA endpoint for the Digitized Sky Survey.
var DefaultURL = "https://skyview.gsfc.nasa.gov/cgi-bin/vo/sia.pl?survey=dss&"

// UCDs of SIA v1 result columns.
const (
	UCDAccessRef = "VOX:Image_AccessReference"
	UCDFormat    = "VOX:Image_Format"
	UCDTitle     = "VOX:Image_Title"
)

// Reason classifies an image retrieval failure.
type Reason int

const (
	Network   Reason = iota // transport failure or HTTP error status
	Refused                 // service reported an error in its response
	Empty                   // no candidate image
	Malformed               // unreadable VOTable, FITS, or WCS
)

func (r Reason) String() string {
	switch r {
	case Network:
		return "network"
	case Refused:
		return "refused"
	case Empty:
		return "empty"
	case Malformed:
		return "malformed"
	}
	return "reason(" + strconv.Itoa(int(r)) + ")"
}

// ImageError is the error returned for any failure of Search or Fetch.
type ImageError struct {
	Reason Reason
	Err    error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image retrieval failed (%s): %v", e.Reason, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

func fail(r Reason, err error) error {
	return &ImageError{Reason: r, Err: err}
}

// Candidate is one row of a search result.
type Candidate struct {
	Title  string
	URL    string
	Format string
}

// IsFITS reports whether the candidate is a FITS image.  A candidate
// with no format is assumed to be.
func (c Candidate) IsFITS() bool {
	return c.Format == "" || strings.Contains(strings.ToLower(c.Format), "fits")
}

// Service is an SIA service.
type Service struct {
	URL  string
	HTTP *http.Client
}

// New returns a Service for the endpoint u.  A nil hc means
// http.DefaultClient.
func New(u string, hc *http.Client) *Service {
	if u == "" {
		u = DefaultURL
	}
	return &Service{URL: u, HTTP: hc}
}

func (s *Service) client() *http.Client {
	if s.HTTP == nil {
		return http.DefaultClient
	}
	return s.HTTP
}

// Search returns candidate images covering a square field of the given
// size centered on pos.
func (s *Service) Search(ctx context.Context, pos sky.Position, size unit.Angle) ([]Candidate, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fail(Network, err)
	}
	q := u.Query()
	q.Set("POS", fmtDeg(pos.RADeg())+","+fmtDeg(pos.DecDeg()))
	q.Set("SIZE", fmtDeg(size.Deg()))
	q.Set("FORMAT", "image/fits")
	u.RawQuery = q.Encode()

	body, err := s.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	t, err := vo.ReadVOTable(bytes.NewReader(body))
	if err != nil {
		var se *vo.StatusError
		if errors.As(err, &se) {
			return nil, fail(Refused, err)
		}
		if errors.Is(err, vo.ErrNoTable) {
			return nil, fail(Empty, err)
		}
		return nil, fail(Malformed, err)
	}
	ac := t.ColumnUCD(UCDAccessRef)
	if ac < 0 {
		return nil, fail(Malformed, errors.New("no access reference column"))
	}
	fc := t.ColumnUCD(UCDFormat)
	tc := t.ColumnUCD(UCDTitle)
	cs := make([]Candidate, 0, t.Len())
	for i := range t.Rows {
		c := Candidate{URL: strings.TrimSpace(t.Value(i, ac))}
		if c.URL == "" {
			continue
		}
		if fc >= 0 {
			c.Format = strings.TrimSpace(t.Value(i, fc))
		}
		if tc >= 0 {
			c.Title = strings.TrimSpace(t.Value(i, tc))
		}
		cs = append(cs, c)
	}
	return cs, nil
}

// Fetch searches, then downloads and decodes the first FITS candidate.
func (s *Service) Fetch(ctx context.Context, pos sky.Position, size unit.Angle) (*Image, error) {
	cs, err := s.Search(ctx, pos, size)
	if err != nil {
		return nil, err
	}
	var c *Candidate
	for i := range cs {
		if cs[i].IsFITS() {
			c = &cs[i]
			break
		}
	}
	if c == nil {
		return nil, fail(Empty, fmt.Errorf("no FITS image among %d candidates", len(cs)))
	}
	b, err := s.get(ctx, c.URL)
	if err != nil {
		return nil, err
	}
	img, err := Decode(b)
	if err != nil {
		return nil, fail(Malformed, err)
	}
	img.Title = c.Title
	img.URL = c.URL
	return img, nil
}

// get reads a complete response body.  the body is closed on return.
func (s *Service) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fail(Network, err)
	}
	r, err := s.client().Do(req)
	if err != nil {
		return nil, fail(Network, err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		return nil, fail(Network, fmt.Errorf("GET %s: %s", u, r.Status))
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fail(Network, err)
	}
	return b, nil
}

func fmtDeg(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
