package xml

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Table represents a table in the document
type Table struct {
	Properties *TableProperties `xml:"tblPr"`
	Grid       *TableGrid       `xml:"tblGrid"`
	Rows       []TableRow       `xml:"tr"`
}

// isBodyElement implements the BodyElement interface
func (t Table) isBodyElement() {}

// MarshalXML implements custom XML marshaling for Table to ensure proper namespacing
func (t Table) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:tbl"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if t.Properties != nil {
		if err := encode(e, "tblPr", t.Properties); err != nil {
			return err
		}
	}
	if t.Grid != nil {
		if err := encode(e, "tblGrid", t.Grid); err != nil {
			return err
		}
	}
	for i := range t.Rows {
		if err := encode(e, "tr", &t.Rows[i]); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// TableProperties represents table formatting properties
type TableProperties struct {
	Width         *Width       `xml:"tblW"`
	Justification *Val         `xml:"jc"`
	Layout        *TableLayout `xml:"tblLayout"`
}

// MarshalXML implements custom XML marshaling for TableProperties
func (p TableProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:tblPr"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Width != nil {
		if err := encode(e, "tblW", p.Width); err != nil {
			return err
		}
	}
	if err := encodeVal(e, "jc", p.Justification); err != nil {
		return err
	}
	if p.Layout != nil {
		if err := encode(e, "tblLayout", p.Layout); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// TableLayout is fixed or autofit.
type TableLayout struct {
	Type string `xml:"type,attr"`
}

// MarshalXML implements custom XML marshaling for TableLayout
func (l TableLayout) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{{Name: xml.Name{Local: "w:type"}, Value: l.Type}}
	return e.EncodeElement(struct{}{}, start)
}

// TableGrid represents the table grid
type TableGrid struct {
	Columns []GridColumn `xml:"gridCol"`
}

// MarshalXML implements custom XML marshaling for TableGrid
func (g TableGrid) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:tblGrid"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, col := range g.Columns {
		if err := encode(e, "gridCol", col); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// GridColumn represents a grid column definition
type GridColumn struct {
	Width int `xml:"w,attr"`
}

// MarshalXML implements custom XML marshaling for GridColumn
func (c GridColumn) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{{Name: xml.Name{Local: "w:w"}, Value: strconv.Itoa(c.Width)}}
	return e.EncodeElement(struct{}{}, start)
}

// TableRow represents a table row
type TableRow struct {
	Cells []TableCell `xml:"tc"`
}

// MarshalXML implements custom XML marshaling for TableRow
func (r TableRow) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:tr"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for i := range r.Cells {
		if err := encode(e, "tc", &r.Cells[i]); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// TableCell represents a table cell
type TableCell struct {
	Properties *TableCellProperties `xml:"tcPr"`
	Paragraphs []Paragraph          `xml:"p"`
}

// Text returns the cell's paragraph texts joined by newlines.
func (c *TableCell) Text() string {
	texts := make([]string, len(c.Paragraphs))
	for i := range c.Paragraphs {
		texts[i] = c.Paragraphs[i].Text()
	}
	return strings.Join(texts, "\n")
}

// GridSpan returns the number of grid columns the cell covers.
func (c *TableCell) GridSpan() int {
	if c.Properties == nil || c.Properties.GridSpan == nil {
		return 1
	}
	if n := c.Properties.GridSpan.Int(); n > 1 {
		return n
	}
	return 1
}

// MarshalXML implements custom XML marshaling for TableCell
func (c TableCell) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:tc"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if c.Properties != nil {
		if err := encode(e, "tcPr", c.Properties); err != nil {
			return err
		}
	}
	for i := range c.Paragraphs {
		if err := encode(e, "p", &c.Paragraphs[i]); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// TableCellProperties represents cell properties
type TableCellProperties struct {
	Width         *Width       `xml:"tcW"`
	GridSpan      *Val         `xml:"gridSpan"`
	VMerge        *VMerge      `xml:"vMerge"`
	Borders       *CellBorders `xml:"tcBorders"`
	Shading       *Shading     `xml:"shd"`
	VerticalAlign *Val         `xml:"vAlign"`
}

// MarshalXML implements custom XML marshaling for TableCellProperties.
// Children are written in schema order.
func (p TableCellProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:tcPr"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Width != nil {
		if err := encode(e, "tcW", p.Width); err != nil {
			return err
		}
	}
	if err := encodeVal(e, "gridSpan", p.GridSpan); err != nil {
		return err
	}
	if p.VMerge != nil {
		if err := encode(e, "vMerge", p.VMerge); err != nil {
			return err
		}
	}
	if p.Borders != nil {
		if err := encode(e, "tcBorders", p.Borders); err != nil {
			return err
		}
	}
	if p.Shading != nil {
		if err := encode(e, "shd", p.Shading); err != nil {
			return err
		}
	}
	if err := encodeVal(e, "vAlign", p.VerticalAlign); err != nil {
		return err
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// VMerge marks a vertically merged cell. Val is "restart" on the first cell
// and empty on the cells it covers.
type VMerge struct {
	Val string `xml:"val,attr"`
}

// MarshalXML implements custom XML marshaling for VMerge
func (v VMerge) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = nil
	if v.Val != "" {
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "w:val"}, Value: v.Val}}
	}
	return e.EncodeElement(struct{}{}, start)
}

// CellBorders holds the borders of a cell
type CellBorders struct {
	Top    *BorderLine `xml:"top"`
	Left   *BorderLine `xml:"left"`
	Bottom *BorderLine `xml:"bottom"`
	Right  *BorderLine `xml:"right"`
}

// MarshalXML implements custom XML marshaling for CellBorders
func (b CellBorders) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:tcBorders"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, edge := range []struct {
		name string
		line *BorderLine
	}{{"top", b.Top}, {"left", b.Left}, {"bottom", b.Bottom}, {"right", b.Right}} {
		if edge.line == nil {
			continue
		}
		if err := encode(e, edge.name, edge.line); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// BorderLine is one cell edge. Size is in eighths of a point.
type BorderLine struct {
	Val   string `xml:"val,attr"`
	Size  int    `xml:"sz,attr"`
	Space int    `xml:"space,attr"`
	Color string `xml:"color,attr"`
}

// MarshalXML implements custom XML marshaling for BorderLine
func (b BorderLine) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:val"}, Value: b.Val},
		{Name: xml.Name{Local: "w:sz"}, Value: strconv.Itoa(b.Size)},
		{Name: xml.Name{Local: "w:space"}, Value: strconv.Itoa(b.Space)},
		{Name: xml.Name{Local: "w:color"}, Value: b.Color},
	}
	return e.EncodeElement(struct{}{}, start)
}

// Shading is a cell background.
type Shading struct {
	Val   string `xml:"val,attr"`
	Color string `xml:"color,attr"`
	Fill  string `xml:"fill,attr"`
}

// MarshalXML implements custom XML marshaling for Shading
func (s Shading) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:val"}, Value: s.Val},
		{Name: xml.Name{Local: "w:color"}, Value: s.Color},
		{Name: xml.Name{Local: "w:fill"}, Value: s.Fill},
	}
	return e.EncodeElement(struct{}{}, start)
}
