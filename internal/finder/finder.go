// Public domain.

// Package finder makes finder charts for a list of targets.
//
// For each target the name is resolved to a position, an image of the
// field is retrieved, catalog sources near the position are retrieved and
// projected onto the image, and the chart is saved.  Targets are handled
// one at a time, in order.
package finder

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/finder/chart"
	"github.com/soniakeys/finder/sia"
	"github.com/soniakeys/finder/sky"
)

// Resolver resolves names.  *sesame.Client and *cache.Resolver are
// Resolvers.
type Resolver interface {
	Resolve(ctx context.Context, name string) (sky.Position, error)
}

// ImageSource retrieves images.  *sia.Service is an ImageSource.
type ImageSource interface {
	Fetch(ctx context.Context, pos sky.Position, size unit.Angle) (*sia.Image, error)
}

// Catalog retrieves point sources.  *tap.PointSourceCatalog is a Catalog.
type Catalog interface {
	Cone(ctx context.Context, center sky.Position, radius unit.Angle, limit float64) ([]sky.Source, error)
}

// Params are the chart settings common to all targets.
type Params struct {
	FieldSize unit.Angle // image width
	Radius    unit.Angle // catalog search radius
	MagLimit  float64

	Dir      string // output directory, "" for the working directory
	Prefix   string
	Ext      string
	Size     chart.Size
	ClampMin float64
}

// Pipeline makes finder charts.
type Pipeline struct {
	Resolver Resolver
	Images   ImageSource
	Catalog  Catalog
	Params   Params

	// SkipCatalogFailures continues with the next target when the catalog
	// query fails.  Otherwise the run stops.
	SkipCatalogFailures bool

	Log     *log.Logger // nil discards
	Verbose bool
}

// Result is the outcome for one target.
type Result struct {
	Target   string
	Position sky.Position
	File     string // empty if skipped
	Sources  int    // sources returned by the catalog
	Marked   int    // sources falling on the image
	Skipped  bool
	Err      error // reason for skipping
}

// Run makes charts for targets in order.
//
// A target whose image or (with SkipCatalogFailures) catalog sources
// cannot be retrieved is skipped with a log message.  Any other failure
// stops the run and is returned along with the results so far.  Charts
// already written are left in place.
func (p *Pipeline) Run(ctx context.Context, targets []string) ([]Result, error) {
	lg := p.Log
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	var rs []Result
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return rs, err
		}
		lg.Printf("making finder chart for %s", t)
		r, err := p.one(ctx, lg, t)
		if err != nil {
			return rs, fmt.Errorf("%s: %w", t, err)
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func (p *Pipeline) one(ctx context.Context, lg *log.Logger, target string) (Result, error) {
	r := Result{Target: target}
	pos, err := p.Resolver.Resolve(ctx, target)
	if err != nil {
		return r, err
	}
	r.Position = pos
	if p.Verbose {
		lg.Printf("%s resolved to %s", target, pos)
	}

	img, err := p.Images.Fetch(ctx, pos, p.Params.FieldSize)
	if err != nil {
		lg.Printf("error retrieving image for %s!  skipping...", target)
		lg.Print(err)
		r.Skipped, r.Err = true, err
		return r, nil
	}
	if p.Verbose {
		lg.Printf("%s: %dx%d image, %s from %s", target,
			img.Width, img.Height, humanize.Bytes(uint64(img.Bytes)), img.URL)
	}

	srcs, err := p.Catalog.Cone(ctx, pos, p.Params.Radius, p.Params.MagLimit)
	if err != nil {
		if !p.SkipCatalogFailures {
			return r, err
		}
		lg.Printf("error retrieving sources for %s!  skipping...", target)
		lg.Print(err)
		r.Skipped, r.Err = true, err
		return r, nil
	}
	r.Sources = len(srcs)
	ps := make([]sky.Position, len(srcs))
	for i, s := range srcs {
		ps[i] = s.Position
	}
	marks, err := img.WCS.Project(ps)
	if err != nil {
		return r, err
	}

	f := chart.Finder{
		Title:    target,
		Width:    img.Width,
		Height:   img.Height,
		Pix:      img.Pix,
		Marks:    marks,
		ClampMin: p.Params.ClampMin,
	}
	r.Marked = len(f.Visible())
	if p.Verbose {
		lg.Printf("%s: %d sources, %d on the image", target, r.Sources, r.Marked)
	}
	pl, err := f.Plot()
	if err != nil {
		return r, err
	}
	prefix, ext := p.Params.Prefix, p.Params.Ext
	if ext == "" {
		ext = ".pdf"
	}
	file := filepath.Join(p.Params.Dir, chart.FileName(prefix, target, ext))
	if err := chart.Save(pl, file, p.Params.Size); err != nil {
		return r, err
	}
	r.File = file
	return r, nil
}
