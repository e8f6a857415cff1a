package formdoc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const nameRowTemplate = `
name: scenario
sections:
  - kind: key_value_table
    id: parties
    table:
      columns: [4cm, 10cm]
      rows:
        - cells: [Name, "{{client_name}}"]
`

func mustParse(t *testing.T, src string) *Template {
	t.Helper()
	tmpl, err := ParseTemplate([]byte(src), t.Name())
	require.NoError(t, err)
	return tmpl
}

func cellText(t *testing.T, doc *Document, section string, row, col int) string {
	t.Helper()
	table := doc.Table(section)
	require.NotNil(t, table, "no table for section %q", section)
	require.Less(t, row, len(table.Rows))
	c := table.Rows[row].Cell(col)
	require.NotNil(t, c, "no cell at row %d column %d", row, col)
	return c.Text()
}

func TestBuild_SubstitutesField(t *testing.T) {
	tmpl := mustParse(t, nameRowTemplate)

	doc, warnings, err := NewBuilder(nil, nil).Build(tmpl, Fields{"client_name": "Acme Corp"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Name", cellText(t, doc, "parties", 0, 1))
	assert.Equal(t, "Acme Corp", cellText(t, doc, "parties", 0, 2))
}

func TestBuild_MissingFieldRendersFallback(t *testing.T) {
	tmpl := mustParse(t, nameRowTemplate)

	t.Run("empty fallback", func(t *testing.T) {
		doc, warnings, err := NewBuilder(nil, nil).Build(tmpl, Fields{})
		require.NoError(t, err)
		assert.Equal(t, "", cellText(t, doc, "parties", 0, 2))
		assert.Equal(t, []UnresolvedFieldWarning{{Section: "parties", Field: "client_name"}}, warnings)
	})

	t.Run("configured fallback", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Fallback = "N/A"
		doc, warnings, err := NewBuilder(cfg, nil).Build(tmpl, Fields{})
		require.NoError(t, err)
		assert.Equal(t, "N/A", cellText(t, doc, "parties", 0, 2))
		assert.Len(t, warnings, 1)
	})

	t.Run("template fallback wins", func(t *testing.T) {
		withFallback := mustParse(t, "fallback: '-'\n"+nameRowTemplate)
		cfg := DefaultConfig()
		cfg.Fallback = "N/A"
		doc, _, err := NewBuilder(cfg, nil).Build(withFallback, Fields{})
		require.NoError(t, err)
		assert.Equal(t, "-", cellText(t, doc, "parties", 0, 2))
	})
}

func TestBuild_ConditionalAddress(t *testing.T) {
	tmpl := mustParse(t, `
sections:
  - kind: key_value_table
    id: address
    table:
      columns: [4cm, 10cm]
      rows:
        - cells:
            - Address
            - '{% if address1 and address1 != "" %}{{address1}}{% else %}________________{% endif %}'
`)

	tests := []struct {
		name   string
		fields Fields
		want   string
	}{
		{"present", Fields{"address1": "221B Baker St"}, "221B Baker St"},
		{"empty", Fields{"address1": ""}, "________________"},
		{"absent", Fields{}, "________________"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _, err := NewBuilder(nil, nil).Build(tmpl, tt.fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cellText(t, doc, "address", 0, 2))
		})
	}
}

func TestBuild_ConditionalAcrossLines(t *testing.T) {
	tmpl := mustParse(t, `
sections:
  - kind: key_value_table
    id: address
    table:
      columns: [10cm]
      rows:
        - cells:
            - lines:
                - {text: "REGISTERED ADDRESS:", style: bold}
                - '{% if address1 and address1 != "" %}{{address1}} {% else %} ________________ {%'
                - "endif %}"
                - after
`)

	doc, warnings, err := NewBuilder(nil, nil).Build(tmpl, Fields{"address1": "221B Baker St"})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	c := doc.Table("address").Rows[0].Cell(1)
	require.Len(t, c.Paragraphs, 3)
	assert.Equal(t, "REGISTERED ADDRESS:", c.Paragraphs[0].Text())
	assert.True(t, c.Paragraphs[0].Runs[0].Bold)
	assert.Equal(t, "221B Baker St ", c.Paragraphs[1].Text())
	assert.False(t, c.Paragraphs[1].Runs[0].Bold)
	assert.Equal(t, "after", c.Paragraphs[2].Text())

	doc, warnings, err = NewBuilder(nil, nil).Build(tmpl, Fields{})
	require.NoError(t, err)
	assert.Equal(t, " ________________ ", doc.Table("address").Rows[0].Cell(1).Paragraphs[1].Text())
	assert.Equal(t, []UnresolvedFieldWarning{{Section: "address", Field: "address1"}}, warnings)
}

func TestBuild_InvalidMerge(t *testing.T) {
	tmpl := mustParse(t, `
sections:
  - kind: heading
    id: title
    lines: [Title]
  - kind: key_value_table
    id: parties
    table:
      columns: [1cm, 4cm, 10cm]
      rows:
        - cells: [a, b, c]
        - merge: [1, 4]
          cells: [wide]
`)

	doc, warnings, err := NewBuilder(nil, nil).Build(tmpl, Fields{})
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.Nil(t, warnings)
	assert.True(t, IsInvalidMergeError(err))

	var mergeErr *InvalidMergeError
	require.True(t, errors.As(err, &mergeErr))
	assert.Equal(t, "parties", mergeErr.Section)
	assert.Equal(t, 2, mergeErr.Row)
	assert.Equal(t, 1, mergeErr.From)
	assert.Equal(t, 4, mergeErr.To)
	assert.Equal(t, 3, mergeErr.Columns)
	assert.Contains(t, err.Error(), `section "parties"`)
}

func TestBuild_SyntaxErrorNamesSectionAndLine(t *testing.T) {
	tmpl := mustParse(t, `
sections:
  - kind: free_text
    id: notes
    lines:
      - fine
      - "{% if x %}never closed"
`)

	doc, _, err := NewBuilder(nil, nil).Build(tmpl, Fields{"x": "1"})
	require.Error(t, err)
	assert.Nil(t, doc)

	var syntaxErr *TemplateSyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, "notes", syntaxErr.Section)
	assert.Equal(t, 2, syntaxErr.Line)
	assert.Equal(t, 1, syntaxErr.Column)
}

func TestBuild_PreserveMode(t *testing.T) {
	tmpl := mustParse(t, `
sections:
  - kind: key_value_table
    id: t
    table:
      columns: [10cm]
      rows:
        - cells:
            - lines:
                - "{{client_name}}"
                - '{% if a %}x {% else %} y {%'
                - "endif %}"
`)
	cfg := DefaultConfig()
	cfg.Placeholders = PlaceholdersPreserve

	doc, warnings, err := NewBuilder(cfg, nil).Build(tmpl, Fields{})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	c := doc.Table("t").Rows[0].Cell(1)
	require.Len(t, c.Paragraphs, 3)
	assert.Equal(t, "{{client_name}}", c.Paragraphs[0].Text())
	assert.Equal(t, "{% if a %}x {% else %} y {%", c.Paragraphs[1].Text())
	assert.Equal(t, "endif %}", c.Paragraphs[2].Text())
}

func TestBuild_StyleResolution(t *testing.T) {
	tmpl := mustParse(t, `
defaults: {font: Times New Roman, size: 11, line_spacing: 1.15}
styles:
  label: {bold: true}
  link: {color: "#0000ff", underline: true}
sections:
  - kind: heading
    id: header
    style: {align: center, size: 12, space_after: 3}
    lines:
      - FORM
      - text: Court
        style: {bold: false, space_after: 12}
  - kind: free_text
    id: body
    lines: [plain]
  - kind: key_value_table
    id: t
    style: {space_before: 2, space_after: 2}
    table:
      columns: [4cm, 10cm]
      rows:
        - cells: [{text: Email, style: label}, {text: info@example.com, style: link}]
`)

	doc, _, err := NewBuilder(nil, nil).Build(tmpl, Fields{})
	require.NoError(t, err)

	paras := doc.Paragraphs()
	require.Len(t, paras, 3)

	want := Paragraph{
		SectionID:   "header",
		Alignment:   AlignCenter,
		SpaceAfter:  3,
		LineSpacing: 1.15,
		Runs:        []Run{{Text: "FORM", Bold: true, FontSize: 12, FontName: "Times New Roman"}},
	}
	if diff := cmp.Diff(want, *paras[0]); diff != "" {
		t.Errorf("header paragraph mismatch (-want +got):\n%s", diff)
	}

	assert.False(t, paras[1].Runs[0].Bold, "line style overrides the heading bold")
	assert.Equal(t, 12.0, paras[1].SpaceAfter)
	assert.Equal(t, AlignCenter, paras[1].Alignment)

	assert.False(t, paras[2].Runs[0].Bold, "free text does not inherit heading formatting")
	assert.Equal(t, AlignLeft, paras[2].Alignment)
	assert.Equal(t, 11.0, paras[2].Runs[0].FontSize)

	row := doc.Table("t").Rows[0]
	label := row.Cell(1).Paragraphs[0]
	assert.True(t, label.Runs[0].Bold)
	assert.Equal(t, 2.0, label.SpaceBefore)
	assert.Equal(t, 2.0, label.SpaceAfter)

	link := row.Cell(2).Paragraphs[0].Runs[0]
	assert.Equal(t, "0000FF", link.Color)
	assert.True(t, link.Underline)
	assert.False(t, link.Bold, "sibling cell style does not leak")
}

func TestBuild_TableLayout(t *testing.T) {
	tmpl := mustParse(t, `
sections:
  - kind: key_value_table
    id: t
    table:
      columns: [1cm, 4cm, 10cm]
      align: center
      border: {style: single, size: 4, color: "000000"}
      rows:
        - cells:
            - {text: "1", rowspan: 2, valign: center}
            - Name
            - "{{name}}"
        - cells: ["", Address, "{{address}}"]
        - merge: [1, 3]
          fill: EEEEEE
          cells: [Contact details]
        - cells: ["", {style: bold}, ""]
          each:
            - {label: Telephone No., value: "{{mobile}}"}
            - {label: Email ID, value: info@example.com, style: [underline]}
        - merge: [2, 3]
          cells: ["2", Opposite party, ""]
`)

	doc, warnings, err := NewBuilder(nil, nil).Build(tmpl, Fields{"name": "A", "address": "B", "mobile": "C"})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	table := doc.Table("t")
	require.NotNil(t, table)
	assert.Equal(t, AlignCenter, table.Alignment)
	assert.Equal(t, []Length{Centimeters(1), Centimeters(4), Centimeters(10)}, table.Columns)
	require.Len(t, table.Rows, 6)
	for i := range table.Rows {
		assert.Equal(t, 3, table.Rows[i].Width(), "row %d covers the grid", i+1)
	}

	first := table.Rows[0].Cell(1)
	assert.Equal(t, 2, first.RowSpan)
	assert.Equal(t, VAlignCenter, first.VAlign)
	assert.True(t, table.Rows[1].Cell(1).Continuation)
	assert.Equal(t, "B", table.Rows[1].Cell(3).Text())

	merged := table.Rows[2].Cells
	require.Len(t, merged, 1)
	assert.Equal(t, 3, merged[0].ColSpan)
	assert.Equal(t, "Contact details", merged[0].Text())
	assert.Equal(t, "EEEEEE", merged[0].Fill)
	require.NotNil(t, merged[0].Borders)
	assert.Equal(t, &Border{Style: "single", Size: 4, Color: "000000"}, merged[0].Borders.Top)

	phone := table.Rows[3]
	assert.Equal(t, "Telephone No.", phone.Cell(2).Text())
	assert.True(t, phone.Cell(2).Paragraphs[0].Runs[0].Bold)
	assert.Equal(t, "C", phone.Cell(3).Text())

	email := table.Rows[4].Cell(3).Paragraphs[0].Runs[0]
	assert.Equal(t, "info@example.com", email.Text)
	assert.True(t, email.Underline)

	opposite := table.Rows[5]
	require.Len(t, opposite.Cells, 2)
	assert.Equal(t, 2, opposite.Cells[1].Span())
	assert.Equal(t, "Opposite party", opposite.Cells[1].Text())
}

func TestBuild_LayoutErrors(t *testing.T) {
	tests := []struct {
		name  string
		rows  string
		check func(error) bool
	}{
		{
			name:  "too many cells",
			rows:  "        - cells: [a, b, c]\n",
			check: func(err error) bool { var e *LayoutError; return errors.As(err, &e) },
		},
		{
			name:  "rowspan past last row",
			rows:  "        - cells: [{text: a, rowspan: 3}, b]\n        - cells: ['', c]\n",
			check: IsInvalidMergeError,
		},
		{
			name:  "rowspan over content",
			rows:  "        - cells: [{text: a, rowspan: 2}, b]\n        - cells: [taken, c]\n",
			check: func(err error) bool { var e *LayoutError; return errors.As(err, &e) },
		},
		{
			name:  "merge across a rowspan",
			rows:  "        - cells: [{text: a, rowspan: 2}, b]\n        - merge: [1, 2]\n          cells: ['', c]\n",
			check: IsInvalidMergeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := mustParse(t, "sections:\n  - kind: key_value_table\n    id: t\n    table:\n      columns: [1cm, 1cm]\n      rows:\n"+tt.rows)
			doc, _, err := NewBuilder(nil, nil).Build(tmpl, Fields{})
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, tt.check(err), "unexpected error %T: %v", err, err)
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	tmpl := mustParse(t, nameRowTemplate)
	b := NewBuilder(nil, nil)
	fields := Fields{"client_name": "Acme Corp"}

	first, _, err := b.Build(tmpl, fields)
	require.NoError(t, err)
	second, _, err := b.Build(tmpl, fields)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("builds differ (-first +second):\n%s", diff)
	}
}

func TestBuild_Concurrent(t *testing.T) {
	tmpl := mustParse(t, nameRowTemplate)
	b := NewBuilder(nil, nil)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		name := fmt.Sprintf("client %d", i)
		g.Go(func() error {
			doc, _, err := b.Build(tmpl, Fields{"client_name": name})
			if err != nil {
				return err
			}
			if got := doc.Table("parties").Rows[0].Cell(2).Text(); got != name {
				return fmt.Errorf("got %q, want %q", got, name)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestBuild_Cancelled(t *testing.T) {
	tmpl := mustParse(t, nameRowTemplate)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc, _, err := NewBuilder(nil, nil).BuildContext(ctx, tmpl, Fields{})
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLayoutTable(t *testing.T) {
	spec := TableSpec{
		Columns: []Length{Centimeters(2), Centimeters(2)},
		Rows: []RowSpec{
			{Cells: []CellSpec{{Text: "Name"}, {Text: "{{who}}"}}},
		},
	}

	table, warnings, err := LayoutTable(spec, Fields{})
	require.NoError(t, err)
	assert.Equal(t, []UnresolvedFieldWarning{{Section: "table", Field: "who"}}, warnings)
	assert.Equal(t, "Name", table.Rows[0].Cell(1).Text())
	assert.Equal(t, BaseStyle.Font, table.Rows[0].Cell(1).Paragraphs[0].Runs[0].FontName)
}
