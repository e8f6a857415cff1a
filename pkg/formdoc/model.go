package formdoc

import "strings"

// Block is any element that can appear at the top level of a document body.
type Block interface {
	isBlock()
	// Section returns the id of the template section that produced the block.
	Section() string
}

// Alignment is the horizontal alignment of a paragraph or table.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// VerticalAlignment is the vertical alignment of content inside a cell.
type VerticalAlignment string

const (
	VAlignTop    VerticalAlignment = "top"
	VAlignCenter VerticalAlignment = "center"
	VAlignBottom VerticalAlignment = "bottom"
)

// PageSetup describes page size and margins.
type PageSetup struct {
	Width  Length
	Height Length
	Top    Length
	Bottom Length
	Left   Length
	Right  Length
}

// Document is the abstract tree handed to a Serializer.
// It owns its blocks exclusively.
type Document struct {
	Name   string
	Page   PageSetup
	Blocks []Block
}

// Paragraphs returns the top-level paragraphs in document order.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, b := range d.Blocks {
		if p, ok := b.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns the tables in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, b := range d.Blocks {
		if t, ok := b.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// Table returns the first table produced by the given section.
func (d *Document) Table(section string) *Table {
	for _, t := range d.Tables() {
		if t.SectionID == section {
			return t
		}
	}
	return nil
}

// Paragraph is a block of runs sharing paragraph-level formatting.
type Paragraph struct {
	SectionID   string
	Alignment   Alignment
	SpaceBefore float64 // points
	SpaceAfter  float64 // points
	LineSpacing float64 // multiple of single spacing
	Runs        []Run
}

func (p *Paragraph) isBlock() {}

// Section implements Block.
func (p *Paragraph) Section() string { return p.SectionID }

// Text returns the concatenated text of all runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// ApplyStyle sets the paragraph-level attributes from s and restyles every
// run. The receiver is modified; runs are replaced, not mutated.
func (p *Paragraph) ApplyStyle(s ResolvedStyle) {
	p.Alignment = s.Align
	p.SpaceBefore = s.SpaceBefore
	p.SpaceAfter = s.SpaceAfter
	p.LineSpacing = s.LineSpacing
	for i, r := range p.Runs {
		p.Runs[i] = r.ApplyStyle(s)
	}
}

// Run is a span of text with a single character style. Runs are values;
// ApplyStyle returns a restyled copy.
type Run struct {
	Text      string
	Bold      bool
	Underline bool
	FontSize  float64 // points
	FontName  string
	Color     string // RRGGBB, empty for automatic
}

// NewRun creates a run with the character attributes of s.
func NewRun(text string, s ResolvedStyle) Run {
	return Run{Text: text}.ApplyStyle(s)
}

// ApplyStyle returns a copy of r carrying the character attributes of s.
func (r Run) ApplyStyle(s ResolvedStyle) Run {
	r.Bold = s.Bold
	r.Underline = s.Underline
	r.FontSize = s.Size
	r.FontName = s.Font
	r.Color = s.Color
	return r
}

// Table is a grid of rows. Column widths apply to every row.
type Table struct {
	SectionID string
	Alignment Alignment
	Columns   []Length
	Rows      []Row
}

func (t *Table) isBlock() {}

// Section implements Block.
func (t *Table) Section() string { return t.SectionID }

// Row is one table row. Its cells cover every grid column exactly once.
type Row struct {
	Cells []Cell
}

// Cell returns the visible cell covering the 1-based grid column col, or nil.
func (r *Row) Cell(col int) *Cell {
	pos := 1
	for i := range r.Cells {
		span := r.Cells[i].Span()
		if col >= pos && col < pos+span {
			return &r.Cells[i]
		}
		pos += span
	}
	return nil
}

// Width returns the number of grid columns the row covers.
func (r *Row) Width() int {
	w := 0
	for _, c := range r.Cells {
		w += c.Span()
	}
	return w
}

// Cell is one table cell. ColSpan and RowSpan of 0 mean 1.
// Continuation cells are the covered positions below a cell with RowSpan > 1.
type Cell struct {
	Paragraphs   []Paragraph
	ColSpan      int
	RowSpan      int
	Continuation bool
	Borders      *Borders
	Fill         string
	VAlign       VerticalAlignment
}

// Span returns the number of grid columns the cell covers.
func (c *Cell) Span() int {
	if c.ColSpan < 1 {
		return 1
	}
	return c.ColSpan
}

// Text returns the text of all paragraphs joined by newlines.
func (c *Cell) Text() string {
	texts := make([]string, 0, len(c.Paragraphs))
	for i := range c.Paragraphs {
		texts = append(texts, c.Paragraphs[i].Text())
	}
	return strings.Join(texts, "\n")
}

// SetBorders replaces the cell borders. Applying the same borders twice is
// the same as applying them once.
func (c *Cell) SetBorders(b Borders) {
	c.Borders = &b
}

// SetFill replaces the background fill (RRGGBB). An empty fill clears it.
func (c *Cell) SetFill(fill string) {
	c.Fill = strings.ToUpper(fill)
}

// Border is the style of one cell edge.
type Border struct {
	Style string // single, double, dashed, dotted, none
	Size  int    // eighths of a point
	Color string // RRGGBB
}

// Borders holds per-edge borders. Nil edges are left to the backend default.
type Borders struct {
	Top    *Border
	Left   *Border
	Bottom *Border
	Right  *Border
}

// UniformBorders returns Borders with the same border on every edge.
func UniformBorders(b Border) Borders {
	top, left, bottom, right := b, b, b, b
	return Borders{Top: &top, Left: &left, Bottom: &bottom, Right: &right}
}

// MergeCells merges the 1-based inclusive grid columns [from, to] of the
// given row into one visible cell. The merged cell keeps the formatting of
// the leftmost cell and collects the non-empty paragraphs of the others.
// Merging a single column, or a range that is already one cell, is a no-op.
func (t *Table) MergeCells(row, from, to int) error {
	cols := len(t.Columns)
	if row < 0 || row >= len(t.Rows) {
		return &InvalidMergeError{Section: t.SectionID, Row: row + 1, From: from, To: to, Columns: cols, Reason: "row out of range"}
	}
	if from < 1 || to > cols || from > to {
		return &InvalidMergeError{Section: t.SectionID, Row: row + 1, From: from, To: to, Columns: cols}
	}
	if from == to {
		return nil
	}

	r := &t.Rows[row]
	start, end := -1, -1
	pos := 1
	for i := range r.Cells {
		span := r.Cells[i].Span()
		if pos == from {
			start = i
		}
		if pos+span-1 == to {
			end = i
		}
		pos += span
	}
	if start < 0 || end < 0 || end < start {
		return &InvalidMergeError{Section: t.SectionID, Row: row + 1, From: from, To: to, Columns: cols, Reason: "range splits an existing merged cell"}
	}
	if start == end {
		return nil
	}
	for i := start; i <= end; i++ {
		if r.Cells[i].Continuation || r.Cells[i].RowSpan > 1 {
			return &InvalidMergeError{Section: t.SectionID, Row: row + 1, From: from, To: to, Columns: cols, Reason: "range overlaps a vertically merged cell"}
		}
	}

	merged := r.Cells[start]
	merged.ColSpan = to - from + 1
	merged.Paragraphs = append([]Paragraph(nil), merged.Paragraphs...)
	for i := start + 1; i <= end; i++ {
		for _, p := range r.Cells[i].Paragraphs {
			if p.Text() != "" {
				merged.Paragraphs = append(merged.Paragraphs, p)
			}
		}
	}

	cells := make([]Cell, 0, len(r.Cells)-(end-start))
	cells = append(cells, r.Cells[:start]...)
	cells = append(cells, merged)
	cells = append(cells, r.Cells[end+1:]...)
	r.Cells = cells
	return nil
}
