// Package preview renders a built document as a standalone HTML page.
package preview

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/benjaminschreck/go-formdoc/pkg/formdoc"
)

// Options control the page around the document.
type Options struct {
	Title string
	// DownloadURL adds a download link above the document when set.
	DownloadURL string
	// Warnings are listed above the document.
	Warnings []formdoc.UnresolvedFieldWarning
}

type page struct {
	Title       string
	DownloadURL string
	Warnings    []string
	PageStyle   template.CSS
	Blocks      []block
}

type block struct {
	Paragraph *paragraph
	Table     *table
}

type paragraph struct {
	Style template.CSS
	Runs  []run
}

type run struct {
	Style template.CSS
	Text  string
}

type table struct {
	Style   template.CSS
	Columns []template.CSS
	Rows    [][]cell
}

type cell struct {
	ColSpan    int
	RowSpan    int
	Style      template.CSS
	Paragraphs []paragraph
}

var pageTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: #e9e9e9; margin: 0; padding: 24px; }
.page { background: #fff; margin: 0 auto; box-shadow: 0 1px 4px rgba(0,0,0,.3); }
.page p { margin: 0; white-space: pre-wrap; }
.page table { border-collapse: collapse; table-layout: fixed; }
.page td { vertical-align: top; padding: 0 5.4pt; }
.notice { max-width: 800px; margin: 0 auto 16px; font-family: sans-serif; }
</style>
</head>
<body>
{{- if or .DownloadURL .Warnings}}
<div class="notice">
{{- if .DownloadURL}}
<p><a href="{{.DownloadURL}}">Download DOCX</a></p>
{{- end}}
{{- if .Warnings}}
<ul class="warnings">
{{- range .Warnings}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
</div>
{{- end}}
<div class="page" style="{{.PageStyle}}">
{{- range .Blocks}}
{{- if .Paragraph}}
{{template "paragraph" .Paragraph}}
{{- else if .Table}}
<table style="{{.Table.Style}}">
<colgroup>
{{- range .Table.Columns}}<col style="{{.}}">{{end}}
</colgroup>
{{- range .Table.Rows}}
<tr>
{{- range .}}
<td{{if gt .ColSpan 1}} colspan="{{.ColSpan}}"{{end}}{{if gt .RowSpan 1}} rowspan="{{.RowSpan}}"{{end}} style="{{.Style}}">
{{- range .Paragraphs}}{{template "paragraph" .}}{{end -}}
</td>
{{- end}}
</tr>
{{- end}}
</table>
{{- end}}
{{- end}}
</div>
</body>
</html>
{{define "paragraph"}}<p style="{{.Style}}">{{range .Runs}}<span style="{{.Style}}">{{.Text}}</span>{{end}}</p>{{end}}
`))

// Render writes doc as an HTML page. Text is escaped; output is deterministic.
func Render(w io.Writer, doc *formdoc.Document, opts Options) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}

	p := page{
		Title:       opts.Title,
		DownloadURL: opts.DownloadURL,
		PageStyle:   pageStyle(doc.Page),
	}
	if p.Title == "" {
		p.Title = doc.Name
	}
	for _, warning := range opts.Warnings {
		p.Warnings = append(p.Warnings, warning.String())
	}

	for _, b := range doc.Blocks {
		switch v := b.(type) {
		case *formdoc.Paragraph:
			para := convertParagraph(v)
			p.Blocks = append(p.Blocks, block{Paragraph: &para})
		case *formdoc.Table:
			p.Blocks = append(p.Blocks, block{Table: convertTable(v)})
		default:
			return fmt.Errorf("unsupported block %T in section %q", b, b.Section())
		}
	}

	return pageTemplate.Execute(w, p)
}

func pageStyle(ps formdoc.PageSetup) template.CSS {
	return template.CSS(fmt.Sprintf("width:%s;min-height:%s;padding:%s %s %s %s;box-sizing:border-box",
		pt(ps.Width), pt(ps.Height), pt(ps.Top), pt(ps.Right), pt(ps.Bottom), pt(ps.Left)))
}

func convertParagraph(p *formdoc.Paragraph) paragraph {
	align := string(p.Alignment)
	if align == "" {
		align = "left"
	}
	lineHeight := p.LineSpacing
	if lineHeight <= 0 {
		lineHeight = 1
	}
	out := paragraph{Style: template.CSS(fmt.Sprintf("margin:%spt 0 %spt 0;line-height:%s;text-align:%s",
		num(p.SpaceBefore), num(p.SpaceAfter), num(lineHeight), align))}
	for _, r := range p.Runs {
		out.Runs = append(out.Runs, run{Style: runStyle(r), Text: r.Text})
	}
	return out
}

func runStyle(r formdoc.Run) template.CSS {
	var parts []string
	if font := cssFont(r.FontName); font != "" {
		parts = append(parts, "font-family:'"+font+"'")
	}
	if r.FontSize > 0 {
		parts = append(parts, "font-size:"+num(r.FontSize)+"pt")
	}
	if r.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if r.Underline {
		parts = append(parts, "text-decoration:underline")
	}
	if r.Color != "" && isHex(r.Color) {
		parts = append(parts, "color:#"+r.Color)
	}
	return template.CSS(strings.Join(parts, ";"))
}

func convertTable(t *formdoc.Table) *table {
	total := formdoc.Length(0)
	out := &table{}
	for _, w := range t.Columns {
		total += w
		out.Columns = append(out.Columns, template.CSS("width:"+pt(w)))
	}

	style := "width:" + pt(total)
	switch t.Alignment {
	case formdoc.AlignCenter:
		style += ";margin-left:auto;margin-right:auto"
	case formdoc.AlignRight:
		style += ";margin-left:auto"
	}
	out.Style = template.CSS(style)

	for ri := range t.Rows {
		var row []cell
		for ci := range t.Rows[ri].Cells {
			c := &t.Rows[ri].Cells[ci]
			if c.Continuation {
				continue
			}
			hc := cell{ColSpan: c.Span(), RowSpan: c.RowSpan, Style: cellStyle(c)}
			for pi := range c.Paragraphs {
				hc.Paragraphs = append(hc.Paragraphs, convertParagraph(&c.Paragraphs[pi]))
			}
			row = append(row, hc)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func cellStyle(c *formdoc.Cell) template.CSS {
	var parts []string
	if c.Borders != nil {
		for _, edge := range []struct {
			name   string
			border *formdoc.Border
		}{{"top", c.Borders.Top}, {"left", c.Borders.Left}, {"bottom", c.Borders.Bottom}, {"right", c.Borders.Right}} {
			if edge.border != nil {
				parts = append(parts, "border-"+edge.name+":"+borderCSS(edge.border))
			}
		}
	}
	if c.Fill != "" && isHex(c.Fill) {
		parts = append(parts, "background-color:#"+c.Fill)
	}
	switch c.VAlign {
	case formdoc.VAlignCenter:
		parts = append(parts, "vertical-align:middle")
	case formdoc.VAlignBottom:
		parts = append(parts, "vertical-align:bottom")
	}
	return template.CSS(strings.Join(parts, ";"))
}

var borderStyles = map[string]string{
	"single": "solid",
	"thick":  "solid",
	"double": "double",
	"dashed": "dashed",
	"dotted": "dotted",
}

func borderCSS(b *formdoc.Border) string {
	style, ok := borderStyles[b.Style]
	if !ok {
		return "none"
	}
	color := b.Color
	if color == "" || !isHex(color) {
		color = "000000"
	}
	width := float64(b.Size) / 8
	if width <= 0 {
		width = 0.5
	}
	return num(width) + "pt " + style + " #" + color
}

// pt formats a length in points.
func pt(l formdoc.Length) string {
	return num(float64(l)/float64(formdoc.Point)) + "pt"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cssFont drops characters that could end the font-family value.
func cssFont(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', ';', '{', '}', '<', '>', '\\':
			return -1
		}
		return r
	}, name)
}

func isHex(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
