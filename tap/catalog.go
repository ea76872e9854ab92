// Public domain.

package tap

import (
	"context"
	"fmt"
	"math"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/finder/sky"
)

// tolerance for cone membership, allowing for rounding of positions
// in service output.
var coneSlop = unit.AngleFromSec(.001)

// PointSourceCatalog is a catalog table with positions and a magnitude,
// such as the 2MASS point source catalog fp_psc at IRSA.
type PointSourceCatalog struct {
	Client *Client
	Table  string
	RACol  string
	DecCol string
	MagCol string
}

// Query returns the cone query for a search of the catalog.
func (p *PointSourceCatalog) Query(center sky.Position, radius unit.Angle, limit float64) ConeQuery {
	return ConeQuery{
		Table:    p.Table,
		RACol:    p.RACol,
		DecCol:   p.DecCol,
		Center:   center,
		Radius:   radius,
		MagCol:   p.MagCol,
		MagLimit: limit,
	}
}

// Cone returns sources within radius of center and no fainter than
// limit, in the order the service returned them.
//
// The constraints are checked again on the result.  Rows the service
// returned in violation of them are dropped, as are rows without a
// position.  Rows without a magnitude are kept.
func (p *PointSourceCatalog) Cone(ctx context.Context, center sky.Position, radius unit.Angle, limit float64) ([]sky.Source, error) {
	q := p.Query(center, radius, limit)
	t, err := p.Client.Run(ctx, q.ADQL())
	if err != nil {
		return nil, err
	}
	ra, err := t.Floats(orDefault(p.RACol, "ra"))
	if err != nil {
		return nil, err
	}
	dec, err := t.Floats(orDefault(p.DecCol, "dec"))
	if err != nil {
		return nil, err
	}
	var mag []float64
	if p.MagCol != "" {
		if mag, err = t.Floats(p.MagCol); err != nil {
			return nil, err
		}
	}
	ss := make([]sky.Source, 0, len(ra))
	for i := range ra {
		if math.IsNaN(ra[i]) || math.IsNaN(dec[i]) {
			continue
		}
		s := sky.Source{Position: sky.FromDeg(ra[i], dec[i]), Mag: math.NaN()}
		if mag != nil {
			s.Mag = mag[i]
			if s.Mag > limit {
				continue
			}
		}
		if !sky.Within(center, s.Position, radius+coneSlop) {
			continue
		}
		ss = append(ss, s)
	}
	if n := t.Len() - len(ss); n > 0 && p.Client.Log != nil {
		p.Client.Log.Printf("%s: dropped %d rows outside query constraints", p.Table, n)
	}
	return ss, nil
}

func orDefault(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// String describes the catalog for log messages.
func (p *PointSourceCatalog) String() string {
	return fmt.Sprintf("%s at %s", p.Table, p.Client.URL)
}
