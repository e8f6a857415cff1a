package formdoc

import (
	"fmt"
	"strings"
)

// LayoutTable lays out a single table spec against fields, using the base
// style and the built-in named styles. It is the table step of Build.
func LayoutTable(spec TableSpec, fields Fields) (*Table, []UnresolvedFieldWarning, error) {
	st := NewBuilder(nil, nil).newState(&Template{Name: "table"}, fields)
	st.section = "table"
	table, err := st.layoutTable(&spec, nil)
	if err != nil {
		return nil, nil, err
	}
	return table, st.warnings, nil
}

// layoutTable builds the grid in three passes: cells at their declared grid
// positions, then vertical spans, then horizontal merges. Merges run last so
// every declared position is addressable by its original column.
func (st *buildState) layoutTable(spec *TableSpec, layers []Style) (*Table, error) {
	cols := len(spec.Columns)
	if cols == 0 {
		return nil, &LayoutError{Message: "table has no columns"}
	}

	rows, err := expandRows(spec)
	if err != nil {
		return nil, err
	}

	align := spec.Align
	if align == "" {
		align = AlignLeft
	}
	table := &Table{
		SectionID: st.section,
		Alignment: align,
		Columns:   append([]Length(nil), spec.Columns...),
		Rows:      make([]Row, 0, len(rows)),
	}

	for ri, rs := range rows {
		if len(rs.Cells) > cols {
			return nil, &LayoutError{Row: ri + 1, Message: fmt.Sprintf("row has %d cells but table has %d columns", len(rs.Cells), cols)}
		}
		row := Row{Cells: make([]Cell, cols)}
		for k := 0; k < cols; k++ {
			var cs CellSpec
			if k < len(rs.Cells) {
				cs = rs.Cells[k]
			}
			cell, err := st.cell(cs, layers)
			if err != nil {
				return nil, err
			}
			if b := firstBorder(cs.Border, rs.Border, spec.Border); b != nil {
				cell.SetBorders(b.Borders())
			}
			if fill := firstNonEmpty(cs.Fill, rs.Fill, spec.Fill); fill != "" {
				cell.SetFill(fill)
			}
			row.Cells[k] = cell
		}
		table.Rows = append(table.Rows, row)
	}

	for ri, rs := range rows {
		for k, cs := range rs.Cells {
			if cs.RowSpan > 1 {
				if err := table.SpanRows(ri, k+1, cs.RowSpan); err != nil {
					return nil, err
				}
			}
		}
	}

	for ri, rs := range rows {
		if rs.Merge == nil {
			continue
		}
		if len(rs.Merge) != 2 {
			return nil, &LayoutError{Row: ri + 1, Message: "merge must be [from, to]"}
		}
		if err := table.MergeCells(ri, rs.Merge[0], rs.Merge[1]); err != nil {
			return nil, err
		}
	}

	return table, nil
}

func (st *buildState) cell(cs CellSpec, layers []Style) (Cell, error) {
	lines := cs.Lines
	if len(lines) == 0 {
		lines = []LineSpec{{Text: cs.Text}}
	}
	cellLayers, err := cs.Style.layers(st.styles)
	if err != nil {
		return Cell{}, err
	}
	all := make([]Style, 0, len(layers)+len(cellLayers))
	all = append(all, layers...)
	all = append(all, cellLayers...)

	paras, err := st.paragraphs(lines, all)
	if err != nil {
		return Cell{}, err
	}
	return Cell{Paragraphs: paras, VAlign: cs.VAlign}, nil
}

// expandRows replaces every generator row with one row per item.
func expandRows(spec *TableSpec) ([]RowSpec, error) {
	cols := len(spec.Columns)
	label, value := spec.itemColumns()

	out := make([]RowSpec, 0, len(spec.Rows))
	for _, rs := range spec.Rows {
		if len(rs.Each) == 0 {
			out = append(out, rs)
			continue
		}
		if label < 1 || label > cols || value < 1 || value > cols || label == value {
			return nil, &LayoutError{
				Row:     len(out) + 1,
				Message: fmt.Sprintf("label column %d and value column %d do not fit a %d-column table", label, value, cols),
			}
		}
		for _, item := range rs.Each {
			r := rs
			r.Each = nil
			r.Cells = make([]CellSpec, max(len(rs.Cells), label, value))
			copy(r.Cells, rs.Cells)

			r.Cells[label-1].Text, r.Cells[label-1].Lines = item.Label, nil
			r.Cells[value-1].Text, r.Cells[value-1].Lines = item.Value, nil
			if !item.Style.IsZero() {
				r.Cells[value-1].Style = item.Style
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// SpanRows merges the cell at the 1-based grid column col of row (0-based)
// with the cells below it, n rows in total. Covered cells must be empty.
func (t *Table) SpanRows(row, col, n int) error {
	cols := len(t.Columns)
	if row < 0 || row >= len(t.Rows) {
		return &InvalidMergeError{Section: t.SectionID, Row: row + 1, From: col, To: col, Columns: cols, Reason: "row out of range"}
	}
	if row+n > len(t.Rows) {
		return &InvalidMergeError{Section: t.SectionID, Row: row + 1, From: col, To: col, Columns: cols, Reason: fmt.Sprintf("rowspan %d runs past the last row", n)}
	}
	top := t.Rows[row].Cell(col)
	if top == nil || top.Continuation {
		return &InvalidMergeError{Section: t.SectionID, Row: row + 1, From: col, To: col, Columns: cols, Reason: "no cell starts at this column"}
	}
	if n <= 1 {
		return nil
	}

	for r := row + 1; r < row+n; r++ {
		below := t.Rows[r].Cell(col)
		if below == nil || below.Span() != top.Span() || below.Continuation || below.RowSpan > 1 {
			return &InvalidMergeError{Section: t.SectionID, Row: r + 1, From: col, To: col, Columns: cols, Reason: "rowspan overlaps another merged cell"}
		}
		if strings.TrimSpace(below.Text()) != "" {
			return &LayoutError{Section: t.SectionID, Row: r + 1, Message: fmt.Sprintf("column %d is covered by a rowspan but has content", col)}
		}
		below.Continuation = true
	}
	top.RowSpan = n
	return nil
}

func firstBorder(specs ...*BorderSpec) *BorderSpec {
	for _, b := range specs {
		if b != nil {
			return b
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
