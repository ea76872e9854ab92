// Public domain.

// Package sky represents positions and point sources on the celestial sphere.
//
// Positions are ICRS.  Angles are carried in the unit package types,
// right ascension as unit.RA, everything else as unit.Angle.
package sky

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/angle"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
)

// Position is a sky position.
//
// RAStr and DecStr optionally carry string representations as supplied by
// a name resolver.  They are informational and never parsed.
type Position struct {
	RA     unit.RA
	Dec    unit.Angle
	RAStr  string
	DecStr string
}

// FromDeg constructs a Position from right ascension and declination
// in degrees.
func FromDeg(ra, dec float64) Position {
	return Position{RA: unit.RAFromDeg(ra), Dec: unit.AngleFromDeg(dec)}
}

// RADeg returns right ascension in degrees, in the range [0, 360).
func (p Position) RADeg() float64 {
	d := p.RA.Deg()
	if d < 0 {
		d += 360
	}
	return d
}

// DecDeg returns declination in degrees.
func (p Position) DecDeg() float64 {
	return p.Dec.Deg()
}

// Strings returns string representations of RA and Dec.
//
// Carried strings are returned when present, otherwise fixed width
// hh:mm:ss.ss and +dd:mm:ss.s, the form of Sesame's jpos.  Fixed width
// strings sort in angle order.
func (p Position) Strings() (ra, dec string) {
	ra, dec = p.RAStr, p.DecStr
	if ra == "" {
		ra = hms(p.RADeg())
	}
	if dec == "" {
		dec = dms(p.DecDeg())
	}
	return
}

// hms formats degrees of RA as hours, minutes, seconds to .01s.
func hms(deg float64) string {
	const day = 24 * 3600 * 100
	cs := int64(math.Round(deg/15*3600*100)) % day
	return fmt.Sprintf("%02d:%02d:%02d.%02d",
		cs/360000, cs/6000%60, cs/100%60, cs%100)
}

// dms formats degrees of Dec as signed degrees, minutes, seconds to .1s.
func dms(deg float64) string {
	sign := '+'
	if deg < 0 {
		sign, deg = '-', -deg
	}
	ds := int64(math.Round(deg * 3600 * 10))
	return fmt.Sprintf("%c%02d:%02d:%02d.%d",
		sign, ds/36000, ds/600%60, ds/10%60, ds%10)
}

// String formats p in sexagesimal for messages.
func (p Position) String() string {
	return fmt.Sprintf("%.2d %.1d", sexa.FmtRA(p.RA), sexa.FmtAngle(p.Dec))
}

// Source is a catalog point source, a position with a magnitude.
type Source struct {
	Position
	Mag float64
}

// Sep returns the angular separation between two positions.
func Sep(a, b Position) unit.Angle {
	return angle.Sep(unit.Angle(a.RA), a.Dec, unit.Angle(b.RA), b.Dec)
}

// Within reports whether p lies within radius r of center.
func Within(center, p Position, r unit.Angle) bool {
	return Sep(center, p) <= r
}
