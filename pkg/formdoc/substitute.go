package formdoc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Fields maps field names to the values substituted for them.
type Fields map[string]string

var (
	identRegex    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)
	andRegex      = regexp.MustCompile(`\s+and\s+`)
	notEmptyRegex = regexp.MustCompile(`^(\S+)\s*!=\s*(?:""|'')$`)
)

// Expander evaluates the placeholder language:
//
//	{{name}}                                    the value of name
//	{% if name %}A{% else %}B{% endif %}        A when name is set and non-empty, else B
//	{% if name and name != "" %}A{% endif %}    same; clauses are joined with "and"
//
// Missing fields render Fallback. An if block takes at most one else branch
// and cannot be nested.
type Expander struct {
	Fallback string
}

// Substitute expands text with an empty fallback, discarding the list of
// unresolved fields.
func Substitute(text string, fields Fields) (string, error) {
	out, _, err := Expander{}.Expand(text, fields)
	return out, err
}

// Expand expands text against fields. It returns the expanded text and the
// names of referenced fields that were absent from fields, in order of first
// reference. Values are inserted literally.
func (e Expander) Expand(text string, fields Fields) (string, []string, error) {
	if pos := openTagOffset(text); pos >= 0 {
		return "", nil, syntaxErrorAt(text, pos, "unterminated tag: missing %}")
	}

	const (
		outside = iota
		inThen
		inElse
	)

	var out strings.Builder
	var unresolved []string
	seen := make(map[string]bool)
	state := outside
	take := false
	ifOffset := 0

	miss := func(name string) {
		if !seen[name] {
			seen[name] = true
			unresolved = append(unresolved, name)
		}
	}
	emitting := func() bool {
		return state == outside || (state == inThen && take) || (state == inElse && !take)
	}

	for _, tok := range Tokenize(text) {
		switch tok.Type {
		case TokenText:
			if emitting() {
				out.WriteString(tok.Value)
			}

		case TokenVariable:
			if !identRegex.MatchString(tok.Value) {
				return "", nil, syntaxErrorAt(text, tok.Offset, "unsupported expression {{"+tok.Value+"}}")
			}
			if !emitting() {
				continue
			}
			if v, ok := fields[tok.Value]; ok {
				out.WriteString(v)
			} else {
				miss(tok.Value)
				out.WriteString(e.Fallback)
			}

		case TokenIf:
			if state != outside {
				return "", nil, syntaxErrorAt(text, tok.Offset, "nested if is not supported")
			}
			clauses, err := parseCondition(tok.Value)
			if err != nil {
				return "", nil, syntaxErrorAt(text, tok.Offset, err.Error())
			}
			take = true
			for _, c := range clauses {
				v, ok := fields[c.field]
				if !ok {
					miss(c.field)
				}
				if v == "" {
					take = false
				}
			}
			state = inThen
			ifOffset = tok.Offset

		case TokenElse:
			switch {
			case state == outside:
				return "", nil, syntaxErrorAt(text, tok.Offset, "else without if")
			case state == inElse:
				return "", nil, syntaxErrorAt(text, tok.Offset, "if block has more than one else")
			case tok.Value != "":
				return "", nil, syntaxErrorAt(text, tok.Offset, "unexpected "+tok.Value+" after else")
			}
			state = inElse

		case TokenEndIf:
			if state == outside {
				return "", nil, syntaxErrorAt(text, tok.Offset, "endif without if")
			}
			state = outside

		default:
			return "", nil, syntaxErrorAt(text, tok.Offset, "unknown tag {% "+tok.Value+" %}")
		}
	}

	if state != outside {
		return "", nil, syntaxErrorAt(text, ifOffset, "unterminated if: missing {% endif %}")
	}
	return out.String(), unresolved, nil
}

type condClause struct {
	field string
}

// parseCondition parses `name`, `name != ""` and and-joined combinations.
func parseCondition(expr string) ([]condClause, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("if without condition")
	}
	var clauses []condClause
	for _, part := range andRegex.Split(expr, -1) {
		part = strings.TrimSpace(part)
		name := part
		if m := notEmptyRegex.FindStringSubmatch(part); m != nil {
			name = m[1]
		}
		if !identRegex.MatchString(name) {
			return nil, fmt.Errorf("unsupported condition %s", part)
		}
		clauses = append(clauses, condClause{field: name})
	}
	return clauses, nil
}

// needsContinuation reports whether text ends inside a tag or an if block, so
// the next line of the same cell belongs to the same expression.
func needsContinuation(text string) bool {
	if openTagOffset(text) >= 0 {
		return true
	}
	depth := 0
	for _, tok := range Tokenize(text) {
		switch tok.Type {
		case TokenIf:
			depth++
		case TokenEndIf:
			if depth > 0 {
				depth--
			}
		}
	}
	return depth > 0
}

// openTagOffset returns the offset of a {% that has no closing %}, or -1.
func openTagOffset(text string) int {
	if !hasOpenTag(text) {
		return -1
	}
	for _, tok := range Tokenize(text) {
		if tok.Type == TokenText {
			if i := strings.Index(tok.Value, "{%"); i >= 0 {
				return tok.Offset + i
			}
		}
	}
	return -1
}

func syntaxErrorAt(text string, offset int, message string) error {
	line := 1 + strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndex(text[:offset], "\n") + 1
	col := utf8.RuneCountInString(text[lineStart:offset]) + 1
	return NewTemplateSyntaxError(message, line, col)
}
