package xml

import (
	"encoding/xml"
	"strconv"
)

const (
	// NamespaceW is the main WordprocessingML namespace.
	NamespaceW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	// NamespaceR is the relationships namespace.
	NamespaceR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// BodyElement represents any element that can appear in a document body
type BodyElement interface {
	isBodyElement()
}

// Empty represents an empty element (used for boolean properties)
type Empty struct{}

// MarshalXML writes the element with no attributes or content.
func (Empty) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = nil
	return e.EncodeElement(struct{}{}, start)
}

// Val is an element carrying a single w:val attribute, such as w:jc or w:sz.
type Val struct {
	Val string `xml:"val,attr"`
}

// NewVal returns a Val holding s.
func NewVal(s string) *Val {
	return &Val{Val: s}
}

// IntVal returns a Val holding n.
func IntVal(n int) *Val {
	return &Val{Val: strconv.Itoa(n)}
}

// MarshalXML implements custom XML marshaling for Val. The element name
// depends on the context, so the provided name is kept.
func (v Val) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{{Name: xml.Name{Local: "w:val"}, Value: v.Val}}
	return e.EncodeElement(struct{}{}, start)
}

// Int returns the value as an integer, or 0.
func (v *Val) Int() int {
	if v == nil {
		return 0
	}
	n, _ := strconv.Atoi(v.Val)
	return n
}

// String returns the value, or "" for a nil Val.
func (v *Val) String() string {
	if v == nil {
		return ""
	}
	return v.Val
}

// Width is a measurement in twentieths of a point (dxa).
type Width struct {
	W    int    `xml:"w,attr"`
	Type string `xml:"type,attr"`
}

// MarshalXML implements custom XML marshaling for Width
func (w Width) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	typ := w.Type
	if typ == "" {
		typ = "dxa"
	}
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "w:w"}, Value: strconv.Itoa(w.W)},
		{Name: xml.Name{Local: "w:type"}, Value: typ},
	}
	return e.EncodeElement(struct{}{}, start)
}

// encode writes v as the element w:local.
func encode(e *xml.Encoder, local string, v interface{}) error {
	return e.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: "w:" + local}})
}

// encodeVal writes <w:local w:val="val"/> when val is not nil.
func encodeVal(e *xml.Encoder, local string, val *Val) error {
	if val == nil {
		return nil
	}
	return encode(e, local, val)
}

// encodeFlag writes <w:local/> when set is not nil.
func encodeFlag(e *xml.Encoder, local string, set *Empty) error {
	if set == nil {
		return nil
	}
	return encode(e, local, set)
}
