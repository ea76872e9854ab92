// Public domain.

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soniakeys/finder/internal/config"
)

func TestDefault(t *testing.T) {
	c := config.Default()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(c.Targets) != 7 || c.Targets[2] != "HD 189733" {
		t.Fatal(c.Targets)
	}
	if d := c.FieldSize().Deg(); d < .1999999 || d > .2000001 {
		t.Fatal("field", d)
	}
	if m := c.ConeRadius().Min(); m < 2.9999999 || m > 3.0000001 {
		t.Fatal("radius", m)
	}
	if c.Catalog.MagLimit != 15 || c.Catalog.Table != "fp_psc" {
		t.Fatal(c.Catalog)
	}
	if skip, err := c.SkipCatalogFailures(); err != nil || skip {
		t.Fatal("default catalog policy should be abort")
	}
}

func TestRead(t *testing.T) {
	c, err := config.Read(strings.NewReader(`
targets: [M45]
catalog:
  mag_limit: 12.5
  on_failure: skip
http_timeout: 30s
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Targets) != 1 || c.Targets[0] != "M45" {
		t.Fatal(c.Targets)
	}
	if c.Catalog.MagLimit != 12.5 || c.Catalog.Table != "fp_psc" {
		t.Fatal("catalog", c.Catalog)
	}
	if skip, _ := c.SkipCatalogFailures(); !skip {
		t.Fatal("on_failure not read")
	}
	if c.HTTPTimeout != 30*time.Second {
		t.Fatal(c.HTTPTimeout)
	}
	if c.Chart.Prefix != "finder-" {
		t.Fatal("default lost")
	}
}

func TestReadErrors(t *testing.T) {
	for _, y := range []string{
		"targts: [M45]\n",
		"catalog:\n  on_failure: retry\n",
		"catalog:\n  mode: batch\n",
		"image:\n  size: 0\n",
		"colormag:\n  labels: [x]\n",
		"chart: [1, 2]\n",
	} {
		if _, err := config.Read(strings.NewReader(y)); err == nil {
			t.Fatalf("accepted %q", y)
		}
	}
}

func TestReadEmpty(t *testing.T) {
	c, err := config.Read(strings.NewReader("\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Chart.Ext != ".pdf" {
		t.Fatal(c.Chart)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.yaml")
	if err := os.WriteFile(p, []byte("chart:\n  ext: .png\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := config.Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Chart.Ext != ".png" {
		t.Fatal(c.Chart.Ext)
	}
	if _, err := config.Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("missing named file accepted")
	}
}
