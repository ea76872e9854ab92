// Public domain.

// Package config holds program settings.  Every setting has a default;
// a YAML file may override any of them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"github.com/soniakeys/finder/tap"
)

// DefaultFile is read when no file is named and it exists in the
// working directory.
const DefaultFile = "finder.yaml"

// Config is the complete program configuration.
type Config struct {
	Targets     []string      `yaml:"targets"`
	Sesame      Sesame        `yaml:"sesame"`
	Image       Image         `yaml:"image"`
	Catalog     Catalog       `yaml:"catalog"`
	Chart       Chart         `yaml:"chart"`
	TargetList  TargetList    `yaml:"target_list"`
	ColorMag    ColorMag      `yaml:"colormag"`
	Cache       string        `yaml:"cache"` // SQLite file, no cache if empty
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// Sesame configures name resolution.
type Sesame struct {
	URL string `yaml:"url"`
}

// Image configures image retrieval.
type Image struct {
	URL  string  `yaml:"url"`  // SIA endpoint, with any fixed parameters
	Size float64 `yaml:"size"` // field width, degrees
}

// Catalog configures the point source catalog query.
type Catalog struct {
	URL       string  `yaml:"url"` // TAP service
	Mode      string  `yaml:"mode"`
	Table     string  `yaml:"table"`
	RACol     string  `yaml:"ra"`
	DecCol    string  `yaml:"dec"`
	MagCol    string  `yaml:"mag"`
	Radius    float64 `yaml:"radius"` // arc minutes
	MagLimit  float64 `yaml:"mag_limit"`
	OnFailure string  `yaml:"on_failure"` // abort or skip
}

// Chart configures finder chart output.
type Chart struct {
	Prefix   string  `yaml:"prefix"`
	Ext      string  `yaml:"ext"`
	Width    float64 `yaml:"width"`  // inches
	Height   float64 `yaml:"height"` // inches
	ClampMin float64 `yaml:"clamp_min"`
}

// TargetList configures the target list output.
type TargetList struct {
	Output string `yaml:"output"`
}

// ColorMag configures the color-magnitude diagram.
type ColorMag struct {
	URL      string   `yaml:"url"` // TAP service
	Mode     string   `yaml:"mode"`
	Catalog  string   `yaml:"catalog"`
	Column   string   `yaml:"column"` // constraint column
	Value    string   `yaml:"value"`
	ColorCol string   `yaml:"color"`
	MagCol   string   `yaml:"mag"`
	Top      int      `yaml:"top"` // row limit, none if 0
	Title    string   `yaml:"title"`
	Labels   []string `yaml:"labels"` // x, y
	Output   string   `yaml:"output"`
}

// Default returns the built in configuration.
func Default() *Config {
	return &Config{
		Targets: []string{
			"M2",
			"M45",
			"HD 189733",
			"3C 273",
			"NGC 1068",
			"AU Mic",
			"TRAPPIST-1",
		},
		Sesame: Sesame{URL: "https://cds.unistra.fr/cgi-bin/nph-sesame"},
		Image: Image{
			URL:  "https://skyview.gsfc.nasa.gov/cgi-bin/vo/sia.pl?survey=dss&",
			Size: .2,
		},
		Catalog: Catalog{
			URL:       "https://irsa.ipac.caltech.edu/TAP",
			Mode:      "async",
			Table:     "fp_psc",
			RACol:     "ra",
			DecCol:    "dec",
			MagCol:    "j_m",
			Radius:    3,
			MagLimit:  15,
			OnFailure: "abort",
		},
		Chart: Chart{
			Prefix:   "finder-",
			Ext:      ".pdf",
			Width:    6.4,
			Height:   4.8,
			ClampMin: 1,
		},
		TargetList: TargetList{Output: "target_list.txt"},
		ColorMag: ColorMag{
			URL:      "https://tapvizier.cds.unistra.fr/TAPVizieR/tap",
			Mode:     "sync",
			Catalog:  "J/AJ/133/1658/acssggc",
			Column:   "Cluster",
			Value:    "NGC 7089",
			ColorCol: "V-I",
			MagCol:   "Vmag",
			Title:    "Color Magnitude Diagram for M2",
			Labels:   []string{"V - I", "V (mag)"},
			Output:   "hw4prob2.pdf",
		},
		HTTPTimeout: 2 * time.Minute,
	}
}

// Load returns the default configuration overridden by the file at path.
//
// With path empty, DefaultFile is read if it exists.
func Load(path string) (*Config, error) {
	name := path
	if name == "" {
		name = DefaultFile
	}
	f, err := os.Open(name)
	if err != nil {
		if path == "" && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()
	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// Read returns the default configuration overridden by YAML from r.
// Unknown keys are an error.
func Read(r io.Reader) (*Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := Default()
	if len(bytes.TrimSpace(b)) > 0 {
		d := yaml.NewDecoder(bytes.NewReader(b))
		d.KnownFields(true)
		if err := d.Decode(c); err != nil {
			return nil, err
		}
	}
	return c, c.Validate()
}

// Validate checks settings for consistency.
func (c *Config) Validate() error {
	switch {
	case c.Image.Size <= 0:
		return errors.New("image.size must be positive")
	case c.Catalog.Radius <= 0:
		return errors.New("catalog.radius must be positive")
	case c.Catalog.Table == "":
		return errors.New("catalog.table is required")
	case c.Chart.ClampMin <= 0:
		return errors.New("chart.clamp_min must be positive")
	case len(c.ColorMag.Labels) != 0 && len(c.ColorMag.Labels) != 2:
		return errors.New("colormag.labels must have two entries")
	}
	if _, err := c.SkipCatalogFailures(); err != nil {
		return err
	}
	if _, err := tap.ParseMode(c.Catalog.Mode); err != nil {
		return fmt.Errorf("catalog.mode: %w", err)
	}
	if _, err := tap.ParseMode(c.ColorMag.Mode); err != nil {
		return fmt.Errorf("colormag.mode: %w", err)
	}
	return nil
}

// SkipCatalogFailures returns true for on_failure: skip, false for abort.
func (c *Config) SkipCatalogFailures() (bool, error) {
	switch c.Catalog.OnFailure {
	case "", "abort":
		return false, nil
	case "skip":
		return true, nil
	}
	return false, fmt.Errorf("catalog.on_failure: %q is not abort or skip",
		c.Catalog.OnFailure)
}

// FieldSize returns the image field width as an angle.
func (c *Config) FieldSize() unit.Angle {
	return unit.AngleFromDeg(c.Image.Size)
}

// ConeRadius returns the catalog search radius as an angle.
func (c *Config) ConeRadius() unit.Angle {
	return unit.AngleFromMin(c.Catalog.Radius)
}
