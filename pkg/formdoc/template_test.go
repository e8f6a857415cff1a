package formdoc

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	src := `
name: sample
page:
  width: 21cm
  margins: {top: 1.5cm, left: 2cm}
styles:
  label: {bold: true}
sections:
  - kind: heading
    lines: [Title]
  - kind: key_value_table
    id: parties
    style: [label, underline]
    table:
      columns: [1cm, 4cm]
      rows:
        - cells: ["1", {lines: ["Name of", Applicant], style: label}]
`
	tmpl, err := ParseTemplate([]byte(src), "sample.yaml")
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}

	if tmpl.Name != "sample" || tmpl.Source != "sample.yaml" {
		t.Errorf("name/source = %q/%q", tmpl.Name, tmpl.Source)
	}
	if got := tmpl.Sections[0].ID; got != "section-1" {
		t.Errorf("anonymous section id = %q, want section-1", got)
	}
	if got := tmpl.Sections[1].Style.Names; !reflect.DeepEqual(got, []string{"label", "underline"}) {
		t.Errorf("style names = %v", got)
	}

	cells := tmpl.Sections[1].Table.Rows[0].Cells
	if cells[0].Text != "1" {
		t.Errorf("scalar cell text = %q", cells[0].Text)
	}
	if len(cells[1].Lines) != 2 || cells[1].Lines[1].Text != "Applicant" {
		t.Errorf("cell lines = %+v", cells[1].Lines)
	}

	page := tmpl.page()
	if page.Width != Centimeters(21) {
		t.Errorf("page width = %d, want %d", page.Width, Centimeters(21))
	}
	if page.Height != Letter.Height {
		t.Errorf("page height = %d, want Letter height %d", page.Height, Letter.Height)
	}
	if page.Top != Centimeters(1.5) || page.Left != Centimeters(2) || page.Right != Inch {
		t.Errorf("margins = %+v", page)
	}
}

func TestParseTemplateErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"empty", "  \n", "is empty"},
		{"unknown top-level key", "sections: []\ncolour: red\n", "field colour not found"},
		{"unknown cell key", "sections:\n  - kind: key_value_table\n    table:\n      columns: [1cm]\n      rows:\n        - cells: [{txt: a}]\n", "field txt not found"},
		{"unknown style key", "sections:\n  - kind: heading\n    style: {weight: bold}\n    lines: [a]\n", "field weight not found"},
		{"bad length", "sections:\n  - kind: key_value_table\n    table:\n      columns: [wide]\n      rows: [{cells: [a]}]\n", "invalid length"},
		{"no sections", "name: x\n", "template has no sections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate([]byte(tt.src), "test")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestTemplateValidateCollectsIssues(t *testing.T) {
	src := `
styles:
  bad: {color: blue}
sections:
  - kind: heading
    id: a
  - kind: heading
    id: a
    lines: [x]
    style: missing
  - kind: key_value_table
    id: t
    lines: [stray]
    table:
      columns: [1cm]
      align: justify
      rows:
        - merge: [1]
          cells: [{text: a, lines: [b]}, {valign: middle}]
  - kind: sidebar
    id: s
`
	_, err := ParseTemplate([]byte(src), "bad.yaml")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if KindOf(err) != KindValidation {
		t.Errorf("KindOf() = %v", KindOf(err))
	}

	want := []struct{ field, msg string }{
		{"styles.bad", "not RRGGBB"},
		{"sections[0]", "has no lines"},
		{"sections[1].id", "duplicate section id"},
		{"sections[1].style", `unknown style "missing"`},
		{"sections[2]", "cannot have lines"},
		{"sections[2].table.align", "unknown table alignment"},
		{"sections[2].table.rows[0].merge", "merge must be [from, to]"},
		{"sections[2].table.rows[0].cells[0]", "both text and lines"},
		{"sections[2].table.rows[0].cells[1].valign", "unknown vertical alignment"},
		{"sections[3].kind", "unknown section kind"},
	}
	got := make(map[string]string)
	for _, issue := range verr.Issues {
		got[issue.Field] = issue.Message
	}
	for _, w := range want {
		if !strings.Contains(got[w.field], w.msg) {
			t.Errorf("issue %s = %q, want it to contain %q", w.field, got[w.field], w.msg)
		}
	}
	if !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("error does not name the source: %v", err)
	}
}

func TestLoadTemplateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.yaml")
	if err := os.WriteFile(path, []byte("sections:\n  - kind: free_text\n    lines: [\"Dear {{name}},\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tmpl, err := LoadTemplateFile(path)
	if err != nil {
		t.Fatalf("LoadTemplateFile() error = %v", err)
	}
	if tmpl.Name != "document" {
		t.Errorf("default name = %q", tmpl.Name)
	}
	if got := tmpl.FieldNames(); !reflect.DeepEqual(got, []string{"name"}) {
		t.Errorf("FieldNames() = %v", got)
	}

	if _, err := LoadTemplateFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTemplateFieldNames(t *testing.T) {
	tmpl, err := ParseTemplate([]byte(`
sections:
  - kind: heading
    lines: ["{{title}}"]
  - kind: key_value_table
    table:
      columns: [1cm, 1cm]
      rows:
        - cells: ["{{b}}", {lines: ['{% if a and a != "" %}{{a}}{% else %}-{%', "endif %}"]}]
        - cells: ["", ""]
          each:
            - {label: Phone, value: "{{phone}}"}
            - {label: "{{title}}"}
`), "fields")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"title", "b", "a", "phone"}
	if got := tmpl.FieldNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in      string
		want    Length
		wantErr bool
	}{
		{"1cm", 567, false},
		{"2.54cm", 1440, false},
		{"10mm", 567, false},
		{"1in", 1440, false},
		{"12pt", 240, false},
		{"100tw", 100, false},
		{"720", 720, false},
		{" 1.5 CM ", 850, false},
		{"", 0, true},
		{"-1cm", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLength(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLength(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLength(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestBorderSpecBorders(t *testing.T) {
	b := BorderSpec{Color: "#ff0000", Bottom: &BorderSpec{Style: "double", Size: 12}}.Borders()
	if *b.Top != (Border{Style: "single", Size: 4, Color: "FF0000"}) {
		t.Errorf("top = %+v", *b.Top)
	}
	if *b.Bottom != (Border{Style: "double", Size: 12, Color: "FF0000"}) {
		t.Errorf("bottom = %+v", *b.Bottom)
	}

	none := BorderSpec{Style: "none"}.Borders()
	if *none.Left != (Border{Style: "none"}) {
		t.Errorf("none = %+v", *none.Left)
	}
}
