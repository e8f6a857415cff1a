package formdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SectionKind selects how a section is laid out.
type SectionKind string

const (
	SectionHeading       SectionKind = "heading"
	SectionKeyValueTable SectionKind = "key_value_table"
	SectionFreeText      SectionKind = "free_text"
)

// Template is a parsed document template. Templates are never modified after
// loading, so one instance may be shared by concurrent builds.
type Template struct {
	Name     string           `yaml:"name"`
	Page     *PageSpec        `yaml:"page,omitempty"`
	Fallback *string          `yaml:"fallback,omitempty"`
	Defaults Style            `yaml:"defaults,omitempty"`
	Styles   map[string]Style `yaml:"styles,omitempty"`
	Sections []Section        `yaml:"sections"`

	// Source is the file or name the template was loaded from.
	Source string `yaml:"-"`
}

// PageSpec overrides the page size and margins. Unset values keep Letter.
type PageSpec struct {
	Width   Length  `yaml:"width,omitempty"`
	Height  Length  `yaml:"height,omitempty"`
	Margins Margins `yaml:"margins,omitempty"`
}

// Margins are page margins.
type Margins struct {
	Top    Length `yaml:"top,omitempty"`
	Bottom Length `yaml:"bottom,omitempty"`
	Left   Length `yaml:"left,omitempty"`
	Right  Length `yaml:"right,omitempty"`
}

// Section is one entry of the template's ordered section list.
type Section struct {
	Kind  SectionKind `yaml:"kind"`
	ID    string      `yaml:"id,omitempty"`
	Style StyleRef    `yaml:"style,omitempty"`
	Lines []LineSpec  `yaml:"lines,omitempty"`
	Table *TableSpec  `yaml:"table,omitempty"`
}

// LineSpec is one paragraph of template text. In YAML a plain string is
// accepted as shorthand for {text: ...}.
type LineSpec struct {
	Text  string   `yaml:"text"`
	Style StyleRef `yaml:"style,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *LineSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		l.Text = node.Value
		return nil
	}
	if err := checkKeys(node, "text", "style"); err != nil {
		return err
	}
	type plain LineSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*l = LineSpec(p)
	return nil
}

// TableSpec describes a table and the rows it generates.
type TableSpec struct {
	Columns []Length    `yaml:"columns"`
	Align   Alignment   `yaml:"align,omitempty"`
	Border  *BorderSpec `yaml:"border,omitempty"`
	Fill    string      `yaml:"fill,omitempty"`
	// LabelColumn and ValueColumn are the 1-based grid columns filled by
	// "each" row generators. They default to the last two columns.
	LabelColumn int       `yaml:"label_column,omitempty"`
	ValueColumn int       `yaml:"value_column,omitempty"`
	Rows        []RowSpec `yaml:"rows"`
}

// RowSpec describes one row, or one row per item of Each.
type RowSpec struct {
	Cells  []CellSpec  `yaml:"cells,omitempty"`
	Merge  []int       `yaml:"merge,omitempty"`
	Border *BorderSpec `yaml:"border,omitempty"`
	Fill   string      `yaml:"fill,omitempty"`
	Each   []RowItem   `yaml:"each,omitempty"`
}

// RowItem is one generated row: the label and value land in the table's
// label and value columns; Style, when set, replaces the value cell style.
type RowItem struct {
	Label string   `yaml:"label"`
	Value string   `yaml:"value,omitempty"`
	Style StyleRef `yaml:"style,omitempty"`
}

// CellSpec describes one cell at a grid position.
type CellSpec struct {
	Text    string            `yaml:"text,omitempty"`
	Lines   []LineSpec        `yaml:"lines,omitempty"`
	Style   StyleRef          `yaml:"style,omitempty"`
	VAlign  VerticalAlignment `yaml:"valign,omitempty"`
	Border  *BorderSpec       `yaml:"border,omitempty"`
	Fill    string            `yaml:"fill,omitempty"`
	RowSpan int               `yaml:"rowspan,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler. A plain string is shorthand
// for {text: ...}.
func (c *CellSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*c = CellSpec{Text: node.Value}
		return nil
	}
	if err := checkKeys(node, "text", "lines", "style", "valign", "border", "fill", "rowspan"); err != nil {
		return err
	}
	type plain CellSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = CellSpec(p)
	return nil
}

// BorderSpec is a border applied to every edge, with optional per-edge
// overrides. Style "none" removes borders.
type BorderSpec struct {
	Style  string      `yaml:"style,omitempty"`
	Size   int         `yaml:"size,omitempty"`
	Color  string      `yaml:"color,omitempty"`
	Top    *BorderSpec `yaml:"top,omitempty"`
	Left   *BorderSpec `yaml:"left,omitempty"`
	Bottom *BorderSpec `yaml:"bottom,omitempty"`
	Right  *BorderSpec `yaml:"right,omitempty"`
}

// Borders converts the spec to cell borders.
func (b BorderSpec) Borders() Borders {
	base := Border{Style: b.Style, Size: b.Size, Color: strings.ToUpper(strings.TrimPrefix(b.Color, "#"))}
	if base.Style == "" {
		base.Style = "single"
	}
	if base.Size == 0 && base.Style != "none" {
		base.Size = 4
	}
	if base.Color == "" && base.Style != "none" {
		base.Color = "000000"
	}
	edge := func(o *BorderSpec) *Border {
		e := base
		if o != nil {
			if o.Style != "" {
				e.Style = o.Style
			}
			if o.Size != 0 {
				e.Size = o.Size
			}
			if o.Color != "" {
				e.Color = strings.ToUpper(strings.TrimPrefix(o.Color, "#"))
			}
		}
		return &e
	}
	return Borders{Top: edge(b.Top), Left: edge(b.Left), Bottom: edge(b.Bottom), Right: edge(b.Right)}
}

var borderStyles = map[string]bool{
	"": true, "single": true, "double": true, "dashed": true, "dotted": true, "thick": true, "none": true,
}

func (b *BorderSpec) validate(v *ValidationError, path string) {
	if b == nil {
		return
	}
	if !borderStyles[b.Style] {
		v.Add(path, "unknown border style %q", b.Style)
	}
	if b.Size < 0 {
		v.Add(path, "negative border size")
	}
	if b.Color != "" && !isHexColor(strings.TrimPrefix(b.Color, "#")) {
		v.Add(path, "color %q is not RRGGBB", b.Color)
	}
	for _, e := range []struct {
		name string
		spec *BorderSpec
	}{{"top", b.Top}, {"left", b.Left}, {"bottom", b.Bottom}, {"right", b.Right}} {
		if e.spec == nil {
			continue
		}
		if e.spec.Top != nil || e.spec.Left != nil || e.spec.Bottom != nil || e.spec.Right != nil {
			v.Add(path+"."+e.name, "edge borders cannot have edges")
		}
		e.spec.validate(v, path+"."+e.name)
	}
}

// ParseTemplate parses a YAML template. Unknown keys are rejected and the
// template is validated; all structural problems are reported together.
func ParseTemplate(data []byte, source string) (*Template, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("template %s is empty", source)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var tmpl Template
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", source, err)
	}
	tmpl.Source = source
	tmpl.normalize()

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplate reads and parses a YAML template from r.
func LoadTemplate(r io.Reader, source string) (*Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", source, err)
	}
	return ParseTemplate(data, source)
}

// LoadTemplateFile reads and parses a YAML template file.
func LoadTemplateFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	return ParseTemplate(data, path)
}

// normalize assigns ids to anonymous sections.
func (t *Template) normalize() {
	if t.Name == "" {
		t.Name = "document"
	}
	for i := range t.Sections {
		if t.Sections[i].ID == "" {
			t.Sections[i].ID = fmt.Sprintf("section-%d", i+1)
		}
	}
}

// Validate checks the template structure. Merge ranges are checked when the
// table is laid out.
func (t *Template) Validate() error {
	v := &ValidationError{Source: t.Source}
	styles := t.styleTable()

	if err := t.Defaults.validate(); err != nil {
		v.Add("defaults", "%v", err)
	}
	for _, name := range sortedKeys(t.Styles) {
		if err := t.Styles[name].validate(); err != nil {
			v.Add("styles."+name, "%v", err)
		}
	}
	if len(t.Sections) == 0 {
		v.Add("sections", "template has no sections")
	}

	checkRef := func(path string, ref StyleRef) {
		if _, err := ref.layers(styles); err != nil {
			v.Add(path, "%v", err)
		}
		if ref.Inline != nil {
			if err := ref.Inline.validate(); err != nil {
				v.Add(path, "%v", err)
			}
		}
	}
	checkLines := func(path string, lines []LineSpec) {
		for i, l := range lines {
			checkRef(fmt.Sprintf("%s.lines[%d].style", path, i), l.Style)
		}
	}

	ids := make(map[string]bool)
	for i, sec := range t.Sections {
		path := fmt.Sprintf("sections[%d]", i)
		if sec.ID != "" && ids[sec.ID] {
			v.Add(path+".id", "duplicate section id %q", sec.ID)
		}
		ids[sec.ID] = true
		checkRef(path+".style", sec.Style)

		switch sec.Kind {
		case SectionHeading, SectionFreeText:
			if len(sec.Lines) == 0 {
				v.Add(path, "%s section %q has no lines", sec.Kind, sec.ID)
			}
			if sec.Table != nil {
				v.Add(path, "%s section %q cannot have a table", sec.Kind, sec.ID)
			}
			checkLines(path, sec.Lines)
		case SectionKeyValueTable:
			if sec.Table == nil {
				v.Add(path, "table section %q has no table", sec.ID)
				continue
			}
			if len(sec.Lines) > 0 {
				v.Add(path, "table section %q cannot have lines", sec.ID)
			}
			sec.Table.validate(v, path+".table", checkRef, checkLines)
		case "":
			v.Add(path+".kind", "missing section kind")
		default:
			v.Add(path+".kind", "unknown section kind %q", sec.Kind)
		}
	}

	return v.Err()
}

func (ts *TableSpec) validate(v *ValidationError, path string, checkRef func(string, StyleRef), checkLines func(string, []LineSpec)) {
	cols := len(ts.Columns)
	if cols == 0 {
		v.Add(path+".columns", "table has no columns")
	}
	for i, w := range ts.Columns {
		if w <= 0 {
			v.Add(fmt.Sprintf("%s.columns[%d]", path, i), "column width must be positive")
		}
	}
	switch ts.Align {
	case "", AlignLeft, AlignCenter, AlignRight:
	default:
		v.Add(path+".align", "unknown table alignment %q", ts.Align)
	}
	if ts.Fill != "" && !isHexColor(ts.Fill) {
		v.Add(path+".fill", "fill %q is not RRGGBB", ts.Fill)
	}
	ts.Border.validate(v, path+".border")
	if len(ts.Rows) == 0 {
		v.Add(path+".rows", "table has no rows")
	}

	label, value := ts.itemColumns()
	for i, row := range ts.Rows {
		rpath := fmt.Sprintf("%s.rows[%d]", path, i)
		if row.Merge != nil && len(row.Merge) != 2 {
			v.Add(rpath+".merge", "merge must be [from, to]")
		}
		if row.Fill != "" && !isHexColor(row.Fill) {
			v.Add(rpath+".fill", "fill %q is not RRGGBB", row.Fill)
		}
		row.Border.validate(v, rpath+".border")
		if len(row.Each) > 0 {
			if label < 1 || label > cols || value < 1 || value > cols || label == value {
				v.Add(rpath+".each", "label column %d and value column %d must be distinct columns of a %d-column table", label, value, cols)
			}
			for j, item := range row.Each {
				checkRef(fmt.Sprintf("%s.each[%d].style", rpath, j), item.Style)
			}
		}
		for j, cell := range row.Cells {
			cpath := fmt.Sprintf("%s.cells[%d]", rpath, j)
			if cell.Text != "" && len(cell.Lines) > 0 {
				v.Add(cpath, "cell has both text and lines")
			}
			switch cell.VAlign {
			case "", VAlignTop, VAlignCenter, VAlignBottom:
			default:
				v.Add(cpath+".valign", "unknown vertical alignment %q", cell.VAlign)
			}
			if cell.RowSpan < 0 {
				v.Add(cpath+".rowspan", "negative rowspan")
			}
			if cell.Fill != "" && !isHexColor(cell.Fill) {
				v.Add(cpath+".fill", "fill %q is not RRGGBB", cell.Fill)
			}
			cell.Border.validate(v, cpath+".border")
			checkRef(cpath+".style", cell.Style)
			checkLines(cpath, cell.Lines)
		}
	}
}

// itemColumns returns the label and value columns used by row generators.
func (ts *TableSpec) itemColumns() (label, value int) {
	cols := len(ts.Columns)
	label, value = ts.LabelColumn, ts.ValueColumn
	if value == 0 {
		value = cols
	}
	if label == 0 {
		label = value - 1
	}
	return label, value
}

// styleTable merges the built-in styles with the template's named styles.
func (t *Template) styleTable() map[string]Style {
	out := make(map[string]Style, len(builtinStyles)+len(t.Styles))
	for k, s := range builtinStyles {
		out[k] = s
	}
	for k, s := range t.Styles {
		out[k] = s
	}
	return out
}

// page returns the page setup, filling unset values from Letter.
func (t *Template) page() PageSetup {
	p := Letter
	if t.Page == nil {
		return p
	}
	set := func(dst *Length, v Length) {
		if v > 0 {
			*dst = v
		}
	}
	set(&p.Width, t.Page.Width)
	set(&p.Height, t.Page.Height)
	set(&p.Top, t.Page.Margins.Top)
	set(&p.Bottom, t.Page.Margins.Bottom)
	set(&p.Left, t.Page.Margins.Left)
	set(&p.Right, t.Page.Margins.Right)
	return p
}

// FieldNames returns every field the template references, in template order.
func (t *Template) FieldNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(text string) {
		for _, n := range FieldNames(text) {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	addLines := func(lines []LineSpec) {
		add(joinLines(lines))
	}
	for _, sec := range t.Sections {
		addLines(sec.Lines)
		if sec.Table == nil {
			continue
		}
		for _, row := range sec.Table.Rows {
			for _, c := range row.Cells {
				add(c.Text)
				addLines(c.Lines)
			}
			for _, item := range row.Each {
				add(item.Label)
				add(item.Value)
			}
		}
	}
	return names
}

func joinLines(lines []LineSpec) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// checkKeys rejects mapping keys outside allowed. Custom unmarshalers decode
// through node.Decode, which does not inherit the decoder's KnownFields.
func checkKeys(node *yaml.Node, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		known := false
		for _, a := range allowed {
			if key.Value == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("line %d: field %s not found", key.Line, key.Value)
		}
	}
	return nil
}

// ErrTemplateNotFound is returned when a named template is not registered.
var ErrTemplateNotFound = errors.New("template not found")
