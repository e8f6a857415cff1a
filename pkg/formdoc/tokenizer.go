package formdoc

import (
	"regexp"
	"strings"
)

// TokenType represents the type of a template token
type TokenType int

const (
	TokenText TokenType = iota
	TokenVariable
	TokenIf
	TokenElse
	TokenEndIf
	TokenUnknownTag
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "text"
	case TokenVariable:
		return "variable"
	case TokenIf:
		return "if"
	case TokenElse:
		return "else"
	case TokenEndIf:
		return "endif"
	default:
		return "tag"
	}
}

// Token represents a parsed template token. Offset is the byte offset of the
// token in the tokenized input.
type Token struct {
	Type   TokenType
	Value  string
	Offset int
}

var (
	// Tags may span lines, so both forms match newlines.
	tokenRegex = regexp.MustCompile(`(?s)\{\{(.*?)\}\}|\{%(.*?)%\}`)
)

// Tokenize splits text into literal text, {{variable}} and {% tag %} tokens.
// Empty {{}} and an unclosed {{ are kept as literal text.
func Tokenize(input string) []Token {
	var tokens []Token
	lastEnd := 0

	for _, match := range tokenRegex.FindAllStringSubmatchIndex(input, -1) {
		if match[0] > lastEnd {
			tokens = append(tokens, Token{Type: TokenText, Value: input[lastEnd:match[0]], Offset: lastEnd})
		}

		if match[2] >= 0 {
			content := strings.TrimSpace(input[match[2]:match[3]])
			if content == "" {
				tokens = append(tokens, Token{Type: TokenText, Value: input[match[0]:match[1]], Offset: match[0]})
			} else {
				tokens = append(tokens, Token{Type: TokenVariable, Value: content, Offset: match[0]})
			}
		} else {
			tokens = append(tokens, parseTag(strings.TrimSpace(input[match[4]:match[5]]), match[0]))
		}

		lastEnd = match[1]
	}

	if lastEnd < len(input) {
		tokens = append(tokens, Token{Type: TokenText, Value: input[lastEnd:], Offset: lastEnd})
	}
	return tokens
}

// parseTag determines the type of a {% ... %} tag from its content
func parseTag(content string, offset int) Token {
	keyword, rest := content, ""
	if i := strings.IndexAny(content, " \t\r\n"); i >= 0 {
		keyword, rest = content[:i], content[i+1:]
	}

	switch keyword {
	case "if":
		return Token{Type: TokenIf, Value: strings.TrimSpace(rest), Offset: offset}
	case "else":
		return Token{Type: TokenElse, Value: strings.TrimSpace(rest), Offset: offset}
	case "endif":
		return Token{Type: TokenEndIf, Value: strings.TrimSpace(rest), Offset: offset}
	default:
		return Token{Type: TokenUnknownTag, Value: content, Offset: offset}
	}
}

// hasOpenTag reports whether text contains a {% that is not closed by %}.
func hasOpenTag(text string) bool {
	stripped := tokenRegex.ReplaceAllString(text, "")
	return strings.Contains(stripped, "{%")
}

// FieldNames returns the field names referenced by {{name}} tokens and if
// conditions in text, in order of first appearance.
func FieldNames(text string) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, tok := range Tokenize(text) {
		switch tok.Type {
		case TokenVariable:
			if identRegex.MatchString(tok.Value) {
				add(tok.Value)
			}
		case TokenIf:
			if cond, err := parseCondition(tok.Value); err == nil {
				for _, c := range cond {
					add(c.field)
				}
			}
		}
	}
	return names
}
