// Public domain.

package vo_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/soniakeys/finder/vo"
)

const siaResult = `<?xml version="1.0" encoding="UTF-8"?>
<VOTABLE version="1.1" xmlns="http://www.ivoa.net/xml/VOTable/v1.1">
<RESOURCE type="results">
<INFO name="QUERY_STATUS" value="OK"/>
<TABLE>
<FIELD name="Survey" datatype="char" arraysize="*" ucd="VOX:Image_Title"/>
<FIELD name="Format" datatype="char" arraysize="*" ucd="VOX:Image_Format"/>
<FIELD name="URL" ID="acref" datatype="char" arraysize="*" ucd="VOX:Image_AccessReference"/>
<FIELD name="Scale" datatype="double" unit="deg/pix"/>
<DATA><TABLEDATA>
<TR><TD>DSS</TD><TD>image/fits</TD><TD>https://example.org/a.fits?x=1&amp;y=2</TD><TD>4.7e-4</TD></TR>
<TR><TD>DSS</TD><TD>image/jpeg</TD><TD>https://example.org/a.jpg</TD><TD/></TR>
</TABLEDATA></DATA>
</TABLE>
</RESOURCE>
</VOTABLE>`

func TestReadVOTable(t *testing.T) {
	tb, err := vo.ReadVOTable(strings.NewReader(siaResult))
	if err != nil {
		t.Fatal(err)
	}
	if tb.Len() != 2 || len(tb.Fields) != 4 {
		t.Fatalf("%d rows, %d fields", tb.Len(), len(tb.Fields))
	}
	c := tb.ColumnUCD("vox:image_accessreference")
	if c != 2 {
		t.Fatal("access reference column", c)
	}
	if u := tb.Value(0, c); u != "https://example.org/a.fits?x=1&y=2" {
		t.Fatal("url", u)
	}
	if tb.Column("ACREF") != 2 {
		t.Fatal("lookup by ID failed")
	}
	if tb.Column("format") != 1 {
		t.Fatal("case insensitive name lookup failed")
	}
	if tb.Fields[3].Unit != "deg/pix" || tb.Fields[3].Datatype != "double" {
		t.Fatal("field attributes", tb.Fields[3])
	}
	s, err := tb.Floats("Scale")
	if err != nil {
		t.Fatal(err)
	}
	if s[0] != 4.7e-4 || !math.IsNaN(s[1]) {
		t.Fatal("scale", s)
	}
}

func TestReadVOTableStatus(t *testing.T) {
	const doc = `<VOTABLE><RESOURCE type="results">
<INFO name="QUERY_STATUS" value="ERROR">Table fp_psx does not exist</INFO>
</RESOURCE></VOTABLE>`
	_, err := vo.ReadVOTable(strings.NewReader(doc))
	var se *vo.StatusError
	if !errors.As(err, &se) {
		t.Fatal("want StatusError, got", err)
	}
	if se.Message != "Table fp_psx does not exist" {
		t.Fatal("message", se.Message)
	}
}

func TestReadVOTableNested(t *testing.T) {
	const doc = `<VOTABLE><RESOURCE><RESOURCE><TABLE>
<FIELD name="ra"/><FIELD name="dec"/>
<DATA><TABLEDATA><TR><TD>1</TD><TD>2</TD></TR></TABLEDATA></DATA>
</TABLE></RESOURCE></RESOURCE></VOTABLE>`
	tb, err := vo.ReadVOTable(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if tb.Len() != 1 || tb.Value(0, 1) != "2" {
		t.Fatal(tb)
	}
}

func TestReadVOTableErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":   `<VOTABLE><RESOURCE/></VOTABLE>`,
		"binary":  `<VOTABLE><RESOURCE><TABLE><FIELD name="a"/><DATA><BINARY2><STREAM encoding="base64">AAAA</STREAM></BINARY2></DATA></TABLE></RESOURCE></VOTABLE>`,
		"badxml":  `<VOTABLE><RESOURCE>`,
		"longrow": `<VOTABLE><RESOURCE><TABLE><FIELD name="a"/><DATA><TABLEDATA><TR><TD>1</TD><TD>2</TD></TR></TABLEDATA></DATA></TABLE></RESOURCE></VOTABLE>`,
	} {
		if _, err := vo.ReadVOTable(strings.NewReader(doc)); err == nil {
			t.Error(name, "accepted")
		}
	}
	_, err := vo.ReadVOTable(strings.NewReader(`<VOTABLE/>`))
	if !errors.Is(err, vo.ErrNoTable) {
		t.Error("want ErrNoTable, got", err)
	}
}

func TestReadCSV(t *testing.T) {
	const doc = "ra,dec,j_m\n56.7512,24.1201,9.87\n56.7423,24.0988,\n"
	tb, err := vo.ReadCSV(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if tb.Len() != 2 {
		t.Fatal("rows", tb.Len())
	}
	m, err := tb.Floats("j_m")
	if err != nil {
		t.Fatal(err)
	}
	if m[0] != 9.87 || !math.IsNaN(m[1]) {
		t.Fatal("j_m", m)
	}
	if _, err := tb.Floats("h_m"); err == nil {
		t.Fatal("missing column accepted")
	}
	if _, err := vo.ReadCSV(strings.NewReader("")); !errors.Is(err, vo.ErrNoTable) {
		t.Fatal("empty csv:", err)
	}
	if _, err := vo.ReadCSV(strings.NewReader("a,b\n1\n")); err == nil {
		t.Fatal("ragged csv accepted")
	}
	bad, _ := vo.ReadCSV(strings.NewReader("a\nxyz\n"))
	if _, err := bad.Floats("a"); err == nil {
		t.Fatal("non-numeric accepted")
	}
}
