package formdoc

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "plain text",
			input:    "Name of Applicant",
			expected: []Token{{Type: TokenText, Value: "Name of Applicant"}},
		},
		{
			name:  "variable",
			input: "Dear {{ name }},",
			expected: []Token{
				{Type: TokenText, Value: "Dear "},
				{Type: TokenVariable, Value: "name", Offset: 5},
				{Type: TokenText, Value: ",", Offset: 15},
			},
		},
		{
			name:  "conditional",
			input: `{% if a and a != "" %}x{% else %}y{% endif %}`,
			expected: []Token{
				{Type: TokenIf, Value: `a and a != ""`},
				{Type: TokenText, Value: "x", Offset: 22},
				{Type: TokenElse, Offset: 23},
				{Type: TokenText, Value: "y", Offset: 33},
				{Type: TokenEndIf, Offset: 34},
			},
		},
		{
			name:  "tag across lines",
			input: "{% if a %}x {%\nendif %}",
			expected: []Token{
				{Type: TokenIf, Value: "a"},
				{Type: TokenText, Value: "x ", Offset: 10},
				{Type: TokenEndIf, Offset: 12},
			},
		},
		{
			name:     "empty braces stay literal",
			input:    "{{}}",
			expected: []Token{{Type: TokenText, Value: "{{}}"}},
		},
		{
			name:     "unknown tag",
			input:    "{% for x in y %}",
			expected: []Token{{Type: TokenUnknownTag, Value: "for x in y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokenize(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFieldNames(t *testing.T) {
	got := FieldNames(`{{b}} {% if a and a != "" %}{{a}}{% else %}{{c}}{% endif %} {{b}} {{ x + y }}`)
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}
