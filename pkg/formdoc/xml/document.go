package xml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// Document represents a Word document structure
type Document struct {
	XMLName xml.Name `xml:"document"`
	Body    *Body    `xml:"body"`
}

// MarshalXML writes w:document with the namespace declarations Word expects.
func (doc Document) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:document"}
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "xmlns:w"}, Value: NamespaceW},
		{Name: xml.Name{Local: "xmlns:r"}, Value: NamespaceR},
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if doc.Body != nil {
		if err := encode(e, "body", doc.Body); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Body represents the document body
type Body struct {
	// Elements maintains the order of all body elements
	Elements []BodyElement
	// SectionProperties come last in the body.
	SectionProperties *SectionProperties
}

// Paragraphs returns the top-level paragraphs in order.
func (b *Body) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, el := range b.Elements {
		if p, ok := el.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns the top-level tables in order.
func (b *Body) Tables() []*Table {
	var out []*Table
	for _, el := range b.Elements {
		if t, ok := el.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// UnmarshalXML implements custom XML unmarshaling to preserve element order
func (b *Body) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var para Paragraph
				if err := d.DecodeElement(&para, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &para)
			case "tbl":
				var table Table
				if err := d.DecodeElement(&table, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &table)
			case "sectPr":
				var sect SectionProperties
				if err := d.DecodeElement(&sect, &t); err != nil {
					return err
				}
				b.SectionProperties = &sect
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return nil
			}
		}
	}
}

// MarshalXML implements custom XML marshaling to preserve element order
func (b Body) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:body"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	for _, elem := range b.Elements {
		switch el := elem.(type) {
		case *Paragraph:
			if err := encode(e, "p", el); err != nil {
				return err
			}
		case *Table:
			if err := encode(e, "tbl", el); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported body element %T", elem)
		}
	}

	if b.SectionProperties != nil {
		if err := encode(e, "sectPr", b.SectionProperties); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// SectionProperties holds the page size and margins.
type SectionProperties struct {
	PageSize    *PageSize    `xml:"pgSz"`
	PageMargins *PageMargins `xml:"pgMar"`
}

// MarshalXML implements custom XML marshaling for SectionProperties
func (s SectionProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:sectPr"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if s.PageSize != nil {
		if err := encode(e, "pgSz", s.PageSize); err != nil {
			return err
		}
	}
	if s.PageMargins != nil {
		if err := encode(e, "pgMar", s.PageMargins); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// PageSize is the page size in twips.
type PageSize struct {
	W int `xml:"w,attr"`
	H int `xml:"h,attr"`
}

// MarshalXML implements custom XML marshaling for PageSize
func (p PageSize) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:w"}, Value: strconv.Itoa(p.W)},
		{Name: xml.Name{Local: "w:h"}, Value: strconv.Itoa(p.H)},
	}
	return e.EncodeElement(struct{}{}, start)
}

// PageMargins are page margins in twips.
type PageMargins struct {
	Top    int `xml:"top,attr"`
	Right  int `xml:"right,attr"`
	Bottom int `xml:"bottom,attr"`
	Left   int `xml:"left,attr"`
	Header int `xml:"header,attr"`
	Footer int `xml:"footer,attr"`
	Gutter int `xml:"gutter,attr"`
}

// MarshalXML implements custom XML marshaling for PageMargins
func (p PageMargins) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:top"}, Value: strconv.Itoa(p.Top)},
		{Name: xml.Name{Local: "w:right"}, Value: strconv.Itoa(p.Right)},
		{Name: xml.Name{Local: "w:bottom"}, Value: strconv.Itoa(p.Bottom)},
		{Name: xml.Name{Local: "w:left"}, Value: strconv.Itoa(p.Left)},
		{Name: xml.Name{Local: "w:header"}, Value: strconv.Itoa(p.Header)},
		{Name: xml.Name{Local: "w:footer"}, Value: strconv.Itoa(p.Footer)},
		{Name: xml.Name{Local: "w:gutter"}, Value: strconv.Itoa(p.Gutter)},
	}
	return e.EncodeElement(struct{}{}, start)
}

// ParseDocument parses a Word document XML
func ParseDocument(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Body == nil {
		doc.Body = &Body{}
	}
	return &doc, nil
}

// Marshal encodes doc with an XML declaration.
func Marshal(doc *Document) ([]byte, error) {
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
