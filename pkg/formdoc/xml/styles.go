package xml

import (
	"encoding/xml"
)

// Styles is the word/styles.xml part. Only document defaults and the Normal
// styles are written; all formatting is direct.
type Styles struct {
	XMLName      xml.Name             `xml:"styles"`
	RunDefaults  *RunProperties       `xml:"docDefaults>rPrDefault>rPr"`
	ParaDefaults *ParagraphProperties `xml:"docDefaults>pPrDefault>pPr"`
}

// MarshalXML implements custom XML marshaling for Styles
func (s Styles) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "w:styles"}
	start.Attr = []xml.Attr{{Name: xml.Name{Local: "xmlns:w"}, Value: NamespaceW}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if err := openTag(e, "docDefaults"); err != nil {
		return err
	}
	if s.RunDefaults != nil {
		if err := openTag(e, "rPrDefault"); err != nil {
			return err
		}
		if err := encode(e, "rPr", s.RunDefaults); err != nil {
			return err
		}
		if err := closeTag(e, "rPrDefault"); err != nil {
			return err
		}
	}
	if s.ParaDefaults != nil {
		if err := openTag(e, "pPrDefault"); err != nil {
			return err
		}
		if err := encode(e, "pPr", s.ParaDefaults); err != nil {
			return err
		}
		if err := closeTag(e, "pPrDefault"); err != nil {
			return err
		}
	}
	if err := closeTag(e, "docDefaults"); err != nil {
		return err
	}

	for _, st := range defaultStyles {
		if err := e.EncodeElement(st, xml.StartElement{Name: xml.Name{Local: "w:style"}}); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

type styleDef struct {
	Type    string
	ID      string
	Name    string
	Default bool
}

var defaultStyles = []styleDef{
	{Type: "paragraph", ID: "Normal", Name: "Normal", Default: true},
	{Type: "table", ID: "TableNormal", Name: "Normal Table", Default: true},
}

func (s styleDef) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{{Name: xml.Name{Local: "w:type"}, Value: s.Type}}
	if s.Default {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "w:default"}, Value: "1"})
	}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "w:styleId"}, Value: s.ID})
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeVal(e, "name", NewVal(s.Name)); err != nil {
		return err
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func openTag(e *xml.Encoder, local string) error {
	return e.EncodeToken(xml.StartElement{Name: xml.Name{Local: "w:" + local}})
}

func closeTag(e *xml.Encoder, local string) error {
	return e.EncodeToken(xml.EndElement{Name: xml.Name{Local: "w:" + local}})
}

// ParseStyles parses a styles part.
func ParseStyles(data []byte) (*Styles, error) {
	var s Styles
	if err := xml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// MarshalStyles encodes s with an XML declaration.
func MarshalStyles(s *Styles) ([]byte, error) {
	out, err := xml.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
