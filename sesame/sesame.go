// Public domain.

// Package sesame resolves object names to sky positions with the CDS
// Sesame service.
//
// Sesame queries several name resolvers (Simbad, NED, VizieR) and reports
// the answers in an XML document.  See
// https://cds.unistra.fr/cgi-bin/Sesame for the service description.
package sesame

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/soniakeys/finder/sky"
)

// DefaultURL is the CDS Sesame endpoint.  Clients append the output
// options path and the object name.
var DefaultURL = "https://cds.unistra.fr/cgi-bin/nph-sesame"

// Options selects XML output, all resolvers, first answer per resolver:
// Simbad, then NED, then VizieR.
const Options = "-oxp/SNV"

// Match is one resolver's answer for a name.
type Match struct {
	Resolver string // Simbad, NED, VizieR
	OType    string // object type, if reported
	Position sky.Position
}

// ResolutionError is returned by Resolve when no resolver knows a name.
type ResolutionError struct {
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unable to resolve %q", e.Name)
}

// Client queries a Sesame service.
type Client struct {
	URL  string
	HTTP *http.Client
}

// New returns a Client for the service at u.  A nil hc means
// http.DefaultClient.
func New(u string, hc *http.Client) *Client {
	if u == "" {
		u = DefaultURL
	}
	return &Client{URL: u, HTTP: hc}
}

// Lookup returns all answers for name.
//
// An unknown name is not an error; the result is empty.
func (c *Client) Lookup(ctx context.Context, name string) ([]Match, error) {
	u := strings.TrimRight(c.URL, "/") + "/" + Options + "?" +
		url.PathEscape(strings.TrimSpace(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	r, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sesame: %s: %s", name, r.Status)
	}
	return Parse(r.Body)
}

// Resolve returns the first answer for name, or *ResolutionError.
func (c *Client) Resolve(ctx context.Context, name string) (sky.Position, error) {
	m, err := c.Lookup(ctx, name)
	if err != nil {
		return sky.Position{}, err
	}
	return First(name, m)
}

// First returns the position of the first of matches m for name,
// or *ResolutionError if m is empty.
func First(name string, m []Match) (sky.Position, error) {
	if len(m) == 0 {
		return sky.Position{}, &ResolutionError{Name: name}
	}
	return m[0].Position, nil
}

type xResolver struct {
	Name   string `xml:"name,attr"`
	OType  string `xml:"otype"`
	JPos   string `xml:"jpos"`
	JRADeg string `xml:"jradeg"`
	JDEDeg string `xml:"jdedeg"`
}

type xTarget struct {
	Resolvers []xResolver `xml:"Resolver"`
}

type xSesame struct {
	Targets []xTarget `xml:"Target"`
}

// Parse reads a Sesame XML document.
//
// Resolver elements without a J2000 position, as NED reports for some
// extended sources, are quietly ignored.
func Parse(r io.Reader) ([]Match, error) {
	var doc xSesame
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("sesame: %w", err)
	}
	var ms []Match
	for _, t := range doc.Targets {
		for _, x := range t.Resolvers {
			ra, err := strconv.ParseFloat(strings.TrimSpace(x.JRADeg), 64)
			if err != nil {
				continue
			}
			dec, err := strconv.ParseFloat(strings.TrimSpace(x.JDEDeg), 64)
			if err != nil {
				continue
			}
			p := sky.FromDeg(ra, dec)
			// jpos is "hh:mm:ss.ss +dd:mm:ss.s"
			if f := strings.Fields(x.JPos); len(f) == 2 {
				p.RAStr, p.DecStr = f[0], f[1]
			}
			ms = append(ms, Match{
				Resolver: resolverName(x.Name),
				OType:    strings.TrimSpace(x.OType),
				Position: p,
			})
		}
	}
	return ms, nil
}

// name attributes look like "S=Simbad (via url):    2ms"
func resolverName(s string) string {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '='); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, " ("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
