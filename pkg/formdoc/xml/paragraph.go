package xml

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Paragraph represents a paragraph in the document
type Paragraph struct {
	Properties *ParagraphProperties `xml:"pPr"`
	Runs       []Run                `xml:"r"`
}

// isBodyElement implements the BodyElement interface
func (p Paragraph) isBodyElement() {}

// Text returns the concatenated text of all runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text())
	}
	return sb.String()
}

// MarshalXML implements custom XML marshaling for Paragraph to ensure proper namespacing
func (p Paragraph) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:p"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Properties != nil {
		if err := encode(e, "pPr", p.Properties); err != nil {
			return err
		}
	}

	for i := range p.Runs {
		if err := encode(e, "r", &p.Runs[i]); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// ParagraphProperties represents paragraph formatting properties
type ParagraphProperties struct {
	Spacing       *Spacing       `xml:"spacing"`
	Justification *Val           `xml:"jc"`
	RunProperties *RunProperties `xml:"rPr"`
}

// MarshalXML implements custom XML marshaling for ParagraphProperties
func (p ParagraphProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:pPr"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Spacing != nil {
		if err := encode(e, "spacing", p.Spacing); err != nil {
			return err
		}
	}
	if err := encodeVal(e, "jc", p.Justification); err != nil {
		return err
	}
	if p.RunProperties != nil {
		if err := encode(e, "rPr", p.RunProperties); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Spacing is paragraph spacing. Before and After are in twentieths of a
// point; Line is in 240ths of a line when LineRule is "auto".
type Spacing struct {
	Before   int    `xml:"before,attr"`
	After    int    `xml:"after,attr"`
	Line     int    `xml:"line,attr"`
	LineRule string `xml:"lineRule,attr"`
}

// MarshalXML implements custom XML marshaling for Spacing
func (s Spacing) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:before"}, Value: strconv.Itoa(s.Before)},
		{Name: xml.Name{Local: "w:after"}, Value: strconv.Itoa(s.After)},
	}
	if s.Line > 0 {
		rule := s.LineRule
		if rule == "" {
			rule = "auto"
		}
		start.Attr = append(start.Attr,
			xml.Attr{Name: xml.Name{Local: "w:line"}, Value: strconv.Itoa(s.Line)},
			xml.Attr{Name: xml.Name{Local: "w:lineRule"}, Value: rule},
		)
	}
	return e.EncodeElement(struct{}{}, start)
}
