package docx

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/benjaminschreck/go-formdoc/pkg/formdoc"
	wml "github.com/benjaminschreck/go-formdoc/pkg/formdoc/xml"
)

// DefaultModified is the timestamp written on every part, so identical
// documents serialize to identical bytes.
var DefaultModified = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Serializer writes documents as DOCX packages.
type Serializer struct {
	// Modified is the timestamp of every zip entry.
	Modified time.Time
	// Level is the deflate compression level.
	Level int
}

// NewSerializer returns a serializer with fixed timestamps and default
// compression.
func NewSerializer() *Serializer {
	return &Serializer{Modified: DefaultModified, Level: flate.DefaultCompression}
}

var _ formdoc.Serializer = (*Serializer)(nil)

// Serialize implements formdoc.Serializer.
func (s *Serializer) Serialize(w io.Writer, doc *formdoc.Document) error {
	if doc == nil {
		return formdoc.NewSerializationError("", fmt.Errorf("nil document"))
	}

	body, err := DocumentXML(doc)
	if err != nil {
		return err
	}
	styles, err := wml.MarshalStyles(stylesPart())
	if err != nil {
		return formdoc.NewSerializationError("", fmt.Errorf("styles: %w", err))
	}
	contentTypes, err := marshalPart(contentTypesPart())
	if err != nil {
		return formdoc.NewSerializationError("", err)
	}
	rootRels, err := marshalPart(&Relationships{Namespace: relsNamespace, Relationship: []Relationship{
		{ID: "rId1", Type: relOfficeDocument, Target: PartDocument},
	}})
	if err != nil {
		return formdoc.NewSerializationError("", err)
	}
	docRels, err := marshalPart(&Relationships{Namespace: relsNamespace, Relationship: []Relationship{
		{ID: "rId1", Type: relStyles, Target: "styles.xml"},
	}})
	if err != nil {
		return formdoc.NewSerializationError("", err)
	}

	zw := zip.NewWriter(w)
	level := s.Level
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	modified := s.Modified
	if modified.IsZero() {
		modified = DefaultModified
	}

	parts := []struct {
		name string
		data []byte
	}{
		{PartContentTypes, contentTypes},
		{PartRootRels, rootRels},
		{PartDocument, body},
		{PartStyles, styles},
		{PartDocumentRels, docRels},
	}
	for _, part := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: part.name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return formdoc.NewSerializationError("", fmt.Errorf("create %s: %w", part.name, err))
		}
		if _, err := fw.Write(part.data); err != nil {
			return formdoc.NewSerializationError("", fmt.Errorf("write %s: %w", part.name, err))
		}
	}
	if err := zw.Close(); err != nil {
		return formdoc.NewSerializationError("", fmt.Errorf("close package: %w", err))
	}
	return nil
}

// DocumentXML returns the word/document.xml part for doc.
func DocumentXML(doc *formdoc.Document) ([]byte, error) {
	body := &wml.Body{
		SectionProperties: sectionProperties(doc.Page),
	}
	for _, block := range doc.Blocks {
		switch b := block.(type) {
		case *formdoc.Paragraph:
			body.Elements = append(body.Elements, paragraph(b))
		case *formdoc.Table:
			tbl, err := table(b)
			if err != nil {
				return nil, formdoc.NewSerializationError(b.SectionID, err)
			}
			body.Elements = append(body.Elements, tbl)
		default:
			return nil, formdoc.NewSerializationError(block.Section(), fmt.Errorf("unsupported block %T", block))
		}
	}

	out, err := wml.Marshal(&wml.Document{Body: body})
	if err != nil {
		return nil, formdoc.NewSerializationError("", err)
	}
	return out, nil
}

func sectionProperties(page formdoc.PageSetup) *wml.SectionProperties {
	return &wml.SectionProperties{
		PageSize: &wml.PageSize{W: int(page.Width), H: int(page.Height)},
		PageMargins: &wml.PageMargins{
			Top:    int(page.Top),
			Right:  int(page.Right),
			Bottom: int(page.Bottom),
			Left:   int(page.Left),
			Header: 720,
			Footer: 720,
		},
	}
}

var justification = map[formdoc.Alignment]string{
	formdoc.AlignLeft:    "left",
	formdoc.AlignCenter:  "center",
	formdoc.AlignRight:   "right",
	formdoc.AlignJustify: "both",
}

func paragraph(p *formdoc.Paragraph) *wml.Paragraph {
	props := &wml.ParagraphProperties{
		Spacing: &wml.Spacing{
			Before: twentieths(p.SpaceBefore),
			After:  twentieths(p.SpaceAfter),
			Line:   lineTwips(p.LineSpacing),
		},
	}
	if jc, ok := justification[p.Alignment]; ok && p.Alignment != "" {
		props.Justification = wml.NewVal(jc)
	}

	out := &wml.Paragraph{Properties: props}
	for _, r := range p.Runs {
		out.Runs = append(out.Runs, run(r))
	}
	return out
}

func run(r formdoc.Run) wml.Run {
	props := &wml.RunProperties{}
	if r.FontName != "" {
		props.Fonts = wml.NewFonts(r.FontName)
	}
	if r.Bold {
		props.Bold = &wml.Empty{}
		props.BoldCS = &wml.Empty{}
	}
	if r.Color != "" {
		props.Color = wml.NewVal(r.Color)
	}
	if r.FontSize > 0 {
		hp := halfPoints(r.FontSize)
		props.Size = wml.IntVal(hp)
		props.SizeCS = wml.IntVal(hp)
	}
	if r.Underline {
		props.Underline = wml.NewVal("single")
	}
	return wml.Run{Properties: props, Content: wml.NewText(r.Text)}
}

func table(t *formdoc.Table) (*wml.Table, error) {
	total := 0
	grid := &wml.TableGrid{}
	for _, w := range t.Columns {
		grid.Columns = append(grid.Columns, wml.GridColumn{Width: int(w)})
		total += int(w)
	}

	props := &wml.TableProperties{
		Width:  &wml.Width{W: total, Type: "dxa"},
		Layout: &wml.TableLayout{Type: "fixed"},
	}
	if jc, ok := justification[t.Alignment]; ok && t.Alignment != formdoc.AlignJustify {
		props.Justification = wml.NewVal(jc)
	}

	out := &wml.Table{Properties: props, Grid: grid}
	for ri := range t.Rows {
		row := &t.Rows[ri]
		if w := row.Width(); w != len(t.Columns) {
			return nil, fmt.Errorf("row %d covers %d of %d columns", ri+1, w, len(t.Columns))
		}
		var tr wml.TableRow
		col := 0
		for ci := range row.Cells {
			c := &row.Cells[ci]
			span := c.Span()
			width := 0
			for _, w := range t.Columns[col : col+span] {
				width += int(w)
			}
			col += span
			tr.Cells = append(tr.Cells, cell(c, width))
		}
		out.Rows = append(out.Rows, tr)
	}
	return out, nil
}

var verticalAlign = map[formdoc.VerticalAlignment]string{
	formdoc.VAlignTop:    "top",
	formdoc.VAlignCenter: "center",
	formdoc.VAlignBottom: "bottom",
}

func cell(c *formdoc.Cell, width int) wml.TableCell {
	props := &wml.TableCellProperties{Width: &wml.Width{W: width, Type: "dxa"}}
	if span := c.Span(); span > 1 {
		props.GridSpan = wml.IntVal(span)
	}
	switch {
	case c.RowSpan > 1:
		props.VMerge = &wml.VMerge{Val: "restart"}
	case c.Continuation:
		props.VMerge = &wml.VMerge{}
	}
	if c.Borders != nil {
		props.Borders = &wml.CellBorders{
			Top:    borderLine(c.Borders.Top),
			Left:   borderLine(c.Borders.Left),
			Bottom: borderLine(c.Borders.Bottom),
			Right:  borderLine(c.Borders.Right),
		}
	}
	if c.Fill != "" {
		props.Shading = &wml.Shading{Val: "clear", Color: "auto", Fill: c.Fill}
	}
	if va, ok := verticalAlign[c.VAlign]; ok {
		props.VerticalAlign = wml.NewVal(va)
	}

	out := wml.TableCell{Properties: props}
	if c.Continuation {
		// Covered cells keep a single empty paragraph.
		out.Paragraphs = []wml.Paragraph{{}}
		return out
	}
	for i := range c.Paragraphs {
		out.Paragraphs = append(out.Paragraphs, *paragraph(&c.Paragraphs[i]))
	}
	if len(out.Paragraphs) == 0 {
		out.Paragraphs = []wml.Paragraph{{}}
	}
	return out
}

func borderLine(b *formdoc.Border) *wml.BorderLine {
	if b == nil {
		return nil
	}
	if b.Style == "none" {
		return &wml.BorderLine{Val: "nil"}
	}
	color := b.Color
	if color == "" {
		color = "auto"
	}
	return &wml.BorderLine{Val: b.Style, Size: b.Size, Color: color}
}

func stylesPart() *wml.Styles {
	base := formdoc.BaseStyle
	hp := halfPoints(base.Size)
	return &wml.Styles{
		RunDefaults: &wml.RunProperties{
			Fonts:  wml.NewFonts(base.Font),
			Size:   wml.IntVal(hp),
			SizeCS: wml.IntVal(hp),
		},
		ParaDefaults: &wml.ParagraphProperties{
			Spacing: &wml.Spacing{Line: lineTwips(base.LineSpacing)},
		},
	}
}

func contentTypesPart() *ContentTypes {
	return &ContentTypes{
		Namespace: typesNamespace,
		Defaults: []DefaultType{
			{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
		},
		Overrides: []Override{
			{PartName: "/" + PartDocument, ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"},
			{PartName: "/" + PartStyles, ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"},
		},
	}
}

func marshalPart(v interface{}) ([]byte, error) {
	out, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// twentieths converts points to twentieths of a point.
func twentieths(pt float64) int {
	return int(math.Round(pt * 20))
}

// halfPoints converts a font size in points to half-points.
func halfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

// lineTwips converts a line spacing multiple to 240ths of a line.
func lineTwips(multiple float64) int {
	if multiple <= 0 {
		return 240
	}
	return int(math.Round(multiple * 240))
}
