package formdoc

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Style is a partial style descriptor. Zero values and nil pointers mean
// "not specified" and are inherited when the style is resolved.
type Style struct {
	Font        string    `yaml:"font,omitempty"`
	Size        float64   `yaml:"size,omitempty"`
	Bold        *bool     `yaml:"bold,omitempty"`
	Underline   *bool     `yaml:"underline,omitempty"`
	Color       string    `yaml:"color,omitempty"`
	Align       Alignment `yaml:"align,omitempty"`
	SpaceBefore *float64  `yaml:"space_before,omitempty"`
	SpaceAfter  *float64  `yaml:"space_after,omitempty"`
	LineSpacing *float64  `yaml:"line_spacing,omitempty"`
}

// ResolvedStyle is a fully specified style.
type ResolvedStyle struct {
	Font        string
	Size        float64
	Bold        bool
	Underline   bool
	Color       string
	Align       Alignment
	SpaceBefore float64
	SpaceAfter  float64
	LineSpacing float64
}

// BaseStyle is used for any attribute a template's defaults leave unset.
var BaseStyle = ResolvedStyle{
	Font:        "Calibri",
	Size:        11,
	Align:       AlignLeft,
	LineSpacing: 1,
}

// Overlay returns r with every attribute specified in s replaced.
func (r ResolvedStyle) Overlay(s Style) ResolvedStyle {
	if s.Font != "" {
		r.Font = s.Font
	}
	if s.Size > 0 {
		r.Size = s.Size
	}
	if s.Bold != nil {
		r.Bold = *s.Bold
	}
	if s.Underline != nil {
		r.Underline = *s.Underline
	}
	if s.Color != "" {
		r.Color = strings.ToUpper(strings.TrimPrefix(s.Color, "#"))
	}
	if s.Align != "" {
		r.Align = s.Align
	}
	if s.SpaceBefore != nil {
		r.SpaceBefore = *s.SpaceBefore
	}
	if s.SpaceAfter != nil {
		r.SpaceAfter = *s.SpaceAfter
	}
	if s.LineSpacing != nil {
		r.LineSpacing = *s.LineSpacing
	}
	return r
}

// Resolve overlays the layers on top of the defaults, in order.
// Attributes no layer specifies come from the defaults, so a paragraph
// never picks up formatting from a sibling.
func Resolve(defaults ResolvedStyle, layers ...Style) ResolvedStyle {
	r := defaults
	for _, l := range layers {
		r = r.Overlay(l)
	}
	return r
}

func (s Style) validate() error {
	switch s.Align {
	case "", AlignLeft, AlignCenter, AlignRight, AlignJustify:
	default:
		return fmt.Errorf("unknown alignment %q", s.Align)
	}
	if s.Size < 0 {
		return fmt.Errorf("negative font size %v", s.Size)
	}
	if s.Color != "" && !isHexColor(strings.TrimPrefix(s.Color, "#")) {
		return fmt.Errorf("color %q is not RRGGBB", s.Color)
	}
	for _, sp := range []struct {
		name string
		v    *float64
	}{{"space_before", s.SpaceBefore}, {"space_after", s.SpaceAfter}, {"line_spacing", s.LineSpacing}} {
		if sp.v != nil && *sp.v < 0 {
			return fmt.Errorf("negative %s", sp.name)
		}
	}
	return nil
}

func sortedKeys(m map[string]Style) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isHexColor(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// StyleRef references named styles and/or an inline style. In YAML it is
// written as a name ("label"), a list of names ([label, underline]) or an
// inline mapping ({bold: true}).
type StyleRef struct {
	Names  []string
	Inline *Style
}

// IsZero reports whether the reference is empty.
func (r StyleRef) IsZero() bool {
	return len(r.Names) == 0 && r.Inline == nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *StyleRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if name := strings.TrimSpace(node.Value); name != "" {
			r.Names = []string{name}
		}
		return nil
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: style list entries must be names", item.Line)
			}
			r.Names = append(r.Names, strings.TrimSpace(item.Value))
		}
		return nil
	case yaml.MappingNode:
		if err := checkKeys(node, "font", "size", "bold", "underline", "color", "align", "space_before", "space_after", "line_spacing"); err != nil {
			return err
		}
		var s Style
		if err := node.Decode(&s); err != nil {
			return err
		}
		r.Inline = &s
		return nil
	default:
		return fmt.Errorf("line %d: style must be a name, a list of names or a mapping", node.Line)
	}
}

// layers expands the reference into style layers using the named table.
// Named styles apply in list order, the inline style last.
func (r StyleRef) layers(named map[string]Style) ([]Style, error) {
	out := make([]Style, 0, len(r.Names)+1)
	for _, n := range r.Names {
		s, ok := named[n]
		if !ok {
			return nil, fmt.Errorf("unknown style %q", n)
		}
		out = append(out, s)
	}
	if r.Inline != nil {
		out = append(out, *r.Inline)
	}
	return out, nil
}

// builtinStyles are available to every template unless it redefines them.
var builtinStyles = map[string]Style{
	"bold":      {Bold: boolPtr(true)},
	"underline": {Underline: boolPtr(true)},
	"center":    {Align: AlignCenter},
}

func boolPtr(b bool) *bool { return &b }
