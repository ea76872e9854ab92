// Public domain.

package vo

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoTable is returned when a VOTable document holds no TABLE.
var ErrNoTable = errors.New("vo: no table in VOTable")

// StatusError reports a service error carried in a VOTable document,
// an INFO element with name QUERY_STATUS and value ERROR.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "vo: query status " + e.Status
	}
	return fmt.Sprintf("vo: query status %s: %s", e.Status, e.Message)
}

type xInfo struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type xField struct {
	Name     string `xml:"name,attr"`
	ID       string `xml:"ID,attr"`
	UCD      string `xml:"ucd,attr"`
	Datatype string `xml:"datatype,attr"`
	Unit     string `xml:"unit,attr"`
}

type xTR struct {
	TD []string `xml:"TD"`
}

type xTable struct {
	Fields  []xField  `xml:"FIELD"`
	Rows    []xTR     `xml:"DATA>TABLEDATA>TR"`
	Binary  *struct{} `xml:"DATA>BINARY"`
	Binary2 *struct{} `xml:"DATA>BINARY2"`
	FITS    *struct{} `xml:"DATA>FITS"`
}

type xResource struct {
	Infos     []xInfo     `xml:"INFO"`
	Tables    []xTable    `xml:"TABLE"`
	Resources []xResource `xml:"RESOURCE"`
}

type xVOTable struct {
	Infos     []xInfo     `xml:"INFO"`
	Resources []xResource `xml:"RESOURCE"`
}

// ReadVOTable reads the first table of a VOTable document.
//
// A QUERY_STATUS of ERROR anywhere in the document is returned as
// *StatusError, whether or not a table is present.
func ReadVOTable(r io.Reader) (*Table, error) {
	var doc xVOTable
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("vo: %w", err)
	}
	if err := status(doc.Infos); err != nil {
		return nil, err
	}
	xt, err := firstTable(doc.Resources)
	if err != nil {
		return nil, err
	}
	if xt == nil {
		return nil, ErrNoTable
	}
	if xt.Binary != nil || xt.Binary2 != nil || xt.FITS != nil {
		return nil, errors.New("vo: only TABLEDATA serialization supported")
	}
	t := &Table{
		Fields: make([]Field, len(xt.Fields)),
		Rows:   make([][]string, len(xt.Rows)),
	}
	for i, f := range xt.Fields {
		t.Fields[i] = Field(f)
	}
	for i, tr := range xt.Rows {
		if len(tr.TD) > len(t.Fields) {
			return nil, fmt.Errorf("vo: row %d has %d cells, table has %d fields",
				i, len(tr.TD), len(t.Fields))
		}
		t.Rows[i] = tr.TD
	}
	return t, nil
}

// depth first, checking status along the way
func firstTable(rs []xResource) (*xTable, error) {
	for i := range rs {
		if err := status(rs[i].Infos); err != nil {
			return nil, err
		}
		if len(rs[i].Tables) > 0 {
			return &rs[i].Tables[0], nil
		}
		t, err := firstTable(rs[i].Resources)
		if t != nil || err != nil {
			return t, err
		}
	}
	return nil, nil
}

func status(infos []xInfo) error {
	for _, in := range infos {
		if in.Name == "QUERY_STATUS" && strings.EqualFold(in.Value, "ERROR") {
			return &StatusError{
				Status:  in.Value,
				Message: strings.TrimSpace(in.Text),
			}
		}
	}
	return nil
}
