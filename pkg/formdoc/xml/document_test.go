package xml

import (
	"bytes"
	"strings"
	"testing"
)

func sampleDocument() *Document {
	return &Document{
		Body: &Body{
			Elements: []BodyElement{
				&Paragraph{
					Properties: &ParagraphProperties{
						Spacing:       &Spacing{Before: 0, After: 60, Line: 276},
						Justification: NewVal("center"),
					},
					Runs: []Run{{
						Properties: &RunProperties{Fonts: NewFonts("Times New Roman"), Bold: &Empty{}, Size: IntVal(24)},
						Content:    NewText("FORM 'A'"),
					}},
				},
				&Table{
					Properties: &TableProperties{Justification: NewVal("center"), Layout: &TableLayout{Type: "fixed"}},
					Grid:       &TableGrid{Columns: []GridColumn{{Width: 567}, {Width: 2268}}},
					Rows: []TableRow{
						{Cells: []TableCell{{
							Properties: &TableCellProperties{
								GridSpan: IntVal(2),
								Borders:  &CellBorders{Top: &BorderLine{Val: "single", Size: 4, Color: "000000"}},
							},
							Paragraphs: []Paragraph{{Runs: []Run{{Content: NewText(" padded ")}}}},
						}}},
						{Cells: []TableCell{
							{Properties: &TableCellProperties{VMerge: &VMerge{Val: "restart"}}, Paragraphs: []Paragraph{{}}},
							{Paragraphs: []Paragraph{{Runs: []Run{{Content: NewText("a & b")}}}}},
						}},
					},
				},
			},
			SectionProperties: &SectionProperties{
				PageSize:    &PageSize{W: 12240, H: 15840},
				PageMargins: &PageMargins{Top: 850, Bottom: 850, Left: 1134, Right: 1134},
			},
		},
	}
}

func TestMarshalUsesWordPrefix(t *testing.T) {
	data, err := Marshal(sampleDocument())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out := string(data)

	tests := []struct {
		name string
		want string
	}{
		{"declaration", `<?xml version="1.0" encoding="UTF-8"?>`},
		{"namespace", `xmlns:w="` + NamespaceW + `"`},
		{"spacing", `<w:spacing w:before="0" w:after="60" w:line="276" w:lineRule="auto">`},
		{"justification", `<w:jc w:val="center">`},
		{"fonts", `<w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman" w:cs="Times New Roman">`},
		{"size", `<w:sz w:val="24">`},
		{"grid", `<w:gridCol w:w="567">`},
		{"grid span", `<w:gridSpan w:val="2">`},
		{"border", `<w:top w:val="single" w:sz="4" w:space="0" w:color="000000">`},
		{"vmerge", `<w:vMerge w:val="restart">`},
		{"preserve", `<w:t xml:space="preserve"> padded </w:t>`},
		{"escaped", `<w:t>a &amp; b</w:t>`},
		{"page", `<w:pgSz w:w="12240" w:h="15840">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %s\n%s", tt.want, out)
			}
		})
	}

	if strings.Contains(out, "<p>") || strings.Contains(out, "<tbl>") {
		t.Errorf("unprefixed element in output: %s", out)
	}
}

func TestParseDocumentReadsMarshaledOutput(t *testing.T) {
	data, err := Marshal(sampleDocument())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	doc, err := ParseDocument(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	if got := len(doc.Body.Elements); got != 2 {
		t.Fatalf("expected 2 body elements, got %d", got)
	}
	paras := doc.Body.Paragraphs()
	if len(paras) != 1 || paras[0].Text() != "FORM 'A'" {
		t.Errorf("unexpected paragraphs: %+v", paras)
	}
	if paras[0].Runs[0].Properties.Bold == nil {
		t.Error("bold was lost")
	}

	tables := doc.Body.Tables()
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	tbl := tables[0]
	if got := tbl.Rows[0].Cells[0].GridSpan(); got != 2 {
		t.Errorf("expected grid span 2, got %d", got)
	}
	if got := tbl.Rows[0].Cells[0].Text(); got != " padded " {
		t.Errorf("expected preserved spaces, got %q", got)
	}
	if got := tbl.Rows[1].Cells[1].Text(); got != "a & b" {
		t.Errorf("expected unescaped text, got %q", got)
	}
	if v := tbl.Rows[1].Cells[0].Properties.VMerge; v == nil || v.Val != "restart" {
		t.Errorf("expected vMerge restart, got %+v", v)
	}

	sect := doc.Body.SectionProperties
	if sect == nil || sect.PageMargins == nil || sect.PageMargins.Left != 1134 {
		t.Errorf("section properties not parsed: %+v", sect)
	}
}

func TestParseDocumentSkipsUnknownElements(t *testing.T) {
	input := `<?xml version="1.0"?>
<w:document xmlns:w="` + NamespaceW + `">
  <w:body>
    <w:bookmarkStart w:id="0"/>
    <w:p><w:r><w:t>kept</w:t></w:r></w:p>
  </w:body>
</w:document>`

	doc, err := ParseDocument(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	paras := doc.Body.Paragraphs()
	if len(paras) != 1 || paras[0].Text() != "kept" {
		t.Errorf("unexpected paragraphs: %+v", paras)
	}
}

func TestStylesRoundTrip(t *testing.T) {
	data, err := MarshalStyles(&Styles{
		RunDefaults:  &RunProperties{Fonts: NewFonts("Calibri"), Size: IntVal(22)},
		ParaDefaults: &ParagraphProperties{Spacing: &Spacing{After: 0, Line: 240}},
	})
	if err != nil {
		t.Fatalf("MarshalStyles failed: %v", err)
	}
	if !strings.Contains(string(data), `w:styleId="Normal"`) {
		t.Errorf("Normal style missing: %s", data)
	}

	styles, err := ParseStyles(data)
	if err != nil {
		t.Fatalf("ParseStyles failed: %v", err)
	}
	if styles.RunDefaults == nil || styles.RunDefaults.Size.Int() != 22 {
		t.Errorf("run defaults not parsed: %+v", styles.RunDefaults)
	}
	if styles.ParaDefaults == nil || styles.ParaDefaults.Spacing.Line != 240 {
		t.Errorf("paragraph defaults not parsed: %+v", styles.ParaDefaults)
	}
}
