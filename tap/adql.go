// Public domain.

package tap

import (
	"strconv"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/finder/sky"
)

// ConeQuery selects catalog rows within a circle on the sky, optionally
// limited by magnitude.
type ConeQuery struct {
	Table    string
	RACol    string   // default "ra"
	DecCol   string   // default "dec"
	Columns  []string // default "*"
	Center   sky.Position
	Radius   unit.Angle
	MagCol   string // no magnitude constraint if empty
	MagLimit float64
}

// ADQL returns the query text.  With default columns, for example:
//
//	SELECT *
//	FROM fp_psc
//	WHERE CONTAINS(POINT('ICRS',ra, dec), CIRCLE('ICRS',56.75,24.1167,0.05))=1
//	AND j_m<= 15.0
func (q ConeQuery) ADQL() string {
	ra, dec := q.RACol, q.DecCol
	if ra == "" {
		ra = "ra"
	}
	if dec == "" {
		dec = "dec"
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectList(q.Columns))
	b.WriteString("\nFROM ")
	b.WriteString(q.Table)
	b.WriteString("\nWHERE CONTAINS(POINT('ICRS',")
	b.WriteString(ra + ", " + dec)
	b.WriteString("), CIRCLE('ICRS',")
	b.WriteString(formatFloat(q.Center.RADeg()) + ",")
	b.WriteString(formatFloat(q.Center.DecDeg()) + ",")
	b.WriteString(formatFloat(q.Radius.Deg()))
	b.WriteString("))=1\n")
	if q.MagCol != "" {
		b.WriteString("AND " + q.MagCol + "<= " + formatFloat(q.MagLimit) + "\n")
	}
	return b.String()
}

// Constraint is an equality condition on a column.
type Constraint struct {
	Column string
	Value  string
}

// ConstraintQuery selects rows of a table matching equality constraints,
// as served by VizieR.  Identifiers are quoted, so table names such as
// J/AJ/133/1658/acssggc and column names such as V-I are usable as is.
type ConstraintQuery struct {
	Table       string
	Columns     []string // default "*"
	Constraints []Constraint
	Top         int // no limit if <= 0
}

// ADQL returns the query text.
func (q ConstraintQuery) ADQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Top > 0 {
		b.WriteString("TOP " + strconv.Itoa(q.Top) + " ")
	}
	if len(q.Columns) == 0 {
		b.WriteString("*")
	} else {
		for i, c := range q.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Quote(c))
		}
	}
	b.WriteString("\nFROM " + Quote(q.Table))
	for i, c := range q.Constraints {
		if i == 0 {
			b.WriteString("\nWHERE ")
		} else {
			b.WriteString("\nAND ")
		}
		b.WriteString(Quote(c.Column) + " = " + Literal(c.Value))
	}
	b.WriteString("\n")
	return b.String()
}

// Quote returns s as an ADQL delimited identifier.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Literal returns s as an ADQL string literal.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func selectList(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	return strings.Join(cols, ", ")
}

// formatFloat formats v to 1e-10, always with a decimal point.
func formatFloat(v float64) string {
	s := strings.TrimRight(strconv.FormatFloat(v, 'f', 10, 64), "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if s == "-0.0" {
		s = "0.0"
	}
	return s
}
