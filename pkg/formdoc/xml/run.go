package xml

import (
	"encoding/xml"
	"strings"
)

// Run represents a run of text with common formatting
type Run struct {
	Properties *RunProperties `xml:"rPr"`
	Content    *Text          `xml:"t"`
}

// Text returns the text of the run.
func (r *Run) Text() string {
	if r.Content == nil {
		return ""
	}
	return r.Content.Value
}

// MarshalXML implements custom XML marshaling for Run
func (r Run) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:r"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if r.Properties != nil {
		if err := encode(e, "rPr", r.Properties); err != nil {
			return err
		}
	}
	if r.Content != nil {
		if err := encode(e, "t", r.Content); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Text represents text content
type Text struct {
	Space string `xml:"space,attr,omitempty"`
	Value string `xml:",chardata"`
}

// NewText returns a text element, preserving whitespace when the value has
// leading or trailing spaces.
func NewText(s string) *Text {
	t := &Text{Value: s}
	if strings.TrimSpace(s) != s {
		t.Space = "preserve"
	}
	return t
}

// MarshalXML implements custom XML marshaling for Text
func (t Text) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:t"}
	start.Attr = nil
	if t.Space != "" {
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "xml:space"}, Value: t.Space}}
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if t.Value != "" {
		if err := e.EncodeToken(xml.CharData(t.Value)); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// RunProperties represents run formatting properties
type RunProperties struct {
	Fonts     *Fonts `xml:"rFonts"`
	Bold      *Empty `xml:"b"`
	BoldCS    *Empty `xml:"bCs"`
	Color     *Val   `xml:"color"`
	Size      *Val   `xml:"sz"`
	SizeCS    *Val   `xml:"szCs"`
	Underline *Val   `xml:"u"`
}

// MarshalXML implements custom XML marshaling for RunProperties. Children
// are written in schema order.
func (p RunProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:rPr"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Fonts != nil {
		if err := encode(e, "rFonts", p.Fonts); err != nil {
			return err
		}
	}
	if err := encodeFlag(e, "b", p.Bold); err != nil {
		return err
	}
	if err := encodeFlag(e, "bCs", p.BoldCS); err != nil {
		return err
	}
	if err := encodeVal(e, "color", p.Color); err != nil {
		return err
	}
	if err := encodeVal(e, "sz", p.Size); err != nil {
		return err
	}
	if err := encodeVal(e, "szCs", p.SizeCS); err != nil {
		return err
	}
	if err := encodeVal(e, "u", p.Underline); err != nil {
		return err
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Fonts names the fonts used for each script.
type Fonts struct {
	ASCII string `xml:"ascii,attr"`
	HAnsi string `xml:"hAnsi,attr"`
	CS    string `xml:"cs,attr"`
}

// NewFonts uses name for every script.
func NewFonts(name string) *Fonts {
	return &Fonts{ASCII: name, HAnsi: name, CS: name}
}

// MarshalXML implements custom XML marshaling for Fonts
func (f Fonts) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:ascii"}, Value: f.ASCII},
		{Name: xml.Name{Local: "w:hAnsi"}, Value: f.HAnsi},
		{Name: xml.Name{Local: "w:cs"}, Value: f.CS},
	}
	return e.EncodeElement(struct{}{}, start)
}
