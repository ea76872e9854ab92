// Public domain.

// Package prog implements the finder command.
package prog

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/soniakeys/exit"
	"github.com/spf13/cobra"

	"github.com/soniakeys/finder/chart"
	"github.com/soniakeys/finder/internal/cache"
	"github.com/soniakeys/finder/internal/colormag"
	"github.com/soniakeys/finder/internal/config"
	"github.com/soniakeys/finder/internal/finder"
	"github.com/soniakeys/finder/internal/targetlist"
	"github.com/soniakeys/finder/sesame"
	"github.com/soniakeys/finder/sia"
	"github.com/soniakeys/finder/tap"
)

const versionString = "finder version 0.1"

// Main runs the command line and terminates the program on error.
func Main() {
	defer exit.Handler()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRoot(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		exit.Log(err)
	}
}

type app struct {
	cfgPath   string
	cachePath string
	verbose   bool

	stdout io.Writer
	lg     *log.Logger
}

func newRoot(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, lg: log.New(stderr, "", 0)}
	root := &cobra.Command{
		Use:   "finder",
		Short: "Make finder charts from Virtual Observatory services",
		Long: `finder resolves target names, retrieves survey images and point source
catalogs, and draws finder charts.  It also builds target lists and
color-magnitude diagrams.`,
		Version:       versionString,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "",
		"configuration file (default "+config.DefaultFile+" if present)")
	pf.StringVar(&a.cachePath, "cache", "", "SQLite file caching name resolutions")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log queries and download details")
	root.AddCommand(a.chartCmd(), a.targetsCmd(), a.colormagCmd())
	return root
}

// env is the configuration and services for one command.
type env struct {
	cfg   *config.Config
	hc    *http.Client
	names interface {
		finder.Resolver
		targetlist.Lookuper
	}
	store *cache.Store
}

func (a *app) open(ctx context.Context) (*env, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return nil, err
	}
	if a.cachePath != "" {
		cfg.Cache = a.cachePath
	}
	e := &env{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.HTTPTimeout},
	}
	sc := sesame.New(cfg.Sesame.URL, e.hc)
	e.names = sc
	if cfg.Cache != "" {
		if e.store, err = cache.Open(ctx, cfg.Cache); err != nil {
			return nil, err
		}
		e.names = &cache.Resolver{Next: sc, Store: e.store}
	}
	return e, nil
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
}

func (a *app) tapClient(e *env, u, mode string) (*tap.Client, error) {
	m, err := tap.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	c := tap.New(u, e.hc)
	c.Mode = m
	if a.verbose {
		c.Log = a.lg
	}
	return c, nil
}

func (a *app) chartCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "chart [target ...]",
		Short: "Make finder charts",
		Long: `Make a finder chart for each target, the configured targets if none are
given.  Charts are saved as finder-<target>.pdf with spaces removed from
the target name.  A target with no image is skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			cfg := e.cfg
			cat, err := a.tapClient(e, cfg.Catalog.URL, cfg.Catalog.Mode)
			if err != nil {
				return err
			}
			skip, err := cfg.SkipCatalogFailures()
			if err != nil {
				return err
			}
			if dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return err
				}
			}
			p := &finder.Pipeline{
				Resolver: e.names,
				Images:   sia.New(cfg.Image.URL, e.hc),
				Catalog: &tap.PointSourceCatalog{
					Client: cat,
					Table:  cfg.Catalog.Table,
					RACol:  cfg.Catalog.RACol,
					DecCol: cfg.Catalog.DecCol,
					MagCol: cfg.Catalog.MagCol,
				},
				Params: finder.Params{
					FieldSize: cfg.FieldSize(),
					Radius:    cfg.ConeRadius(),
					MagLimit:  cfg.Catalog.MagLimit,
					Dir:       dir,
					Prefix:    cfg.Chart.Prefix,
					Ext:       cfg.Chart.Ext,
					Size:      chart.Size{Width: cfg.Chart.Width, Height: cfg.Chart.Height},
					ClampMin:  cfg.Chart.ClampMin,
				},
				SkipCatalogFailures: skip,
				Log:                 a.lg,
				Verbose:             a.verbose,
			}
			rs, err := p.Run(cmd.Context(), targets(args, cfg))
			for _, r := range rs {
				if r.File != "" {
					fmt.Fprintln(a.stdout, r.File)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory")
	return cmd
}

func (a *app) targetsCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "targets [target ...]",
		Short: "Write a target list sorted by right ascension",
		Long: `Look up each target, the configured targets if none are given, and
write name, RA, and Dec in fixed width columns.  An output file ending in
.xlsx is written as a spreadsheet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			if out == "" {
				out = e.cfg.TargetList.Output
			}
			es, err := targetlist.Build(cmd.Context(), e.names, targets(args, e.cfg), a.lg)
			if err != nil {
				return err
			}
			if err := targetlist.Write(out, es); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default from configuration)")
	return cmd
}

func (a *app) colormagCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "colormag",
		Short: "Plot a color-magnitude diagram",
		Long: `Query a VizieR catalog through TAP and plot magnitude against color,
by default the HST/ACS photometry of M2 (NGC 7089).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			cm := e.cfg.ColorMag
			c, err := a.tapClient(e, cm.URL, cm.Mode)
			if err != nil {
				return err
			}
			if out == "" {
				out = cm.Output
			}
			p := colormag.Params{
				Catalog:  cm.Catalog,
				Column:   cm.Column,
				Value:    cm.Value,
				ColorCol: cm.ColorCol,
				MagCol:   cm.MagCol,
				Top:      cm.Top,
				Title:    cm.Title,
				Output:   out,
				Size:     chart.Size{Width: e.cfg.Chart.Width, Height: e.cfg.Chart.Height},
			}
			if len(cm.Labels) == 2 {
				p.XLabel, p.YLabel = cm.Labels[0], cm.Labels[1]
			}
			if _, err := colormag.Make(cmd.Context(), c, p, a.lg); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default from configuration)")
	return cmd
}

func targets(args []string, cfg *config.Config) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.Targets
}
