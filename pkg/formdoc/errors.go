package formdoc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies the errors a render can fail with.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTemplateSyntax
	KindInvalidMerge
	KindLayout
	KindValidation
	KindSerialization
)

func (k ErrorKind) String() string {
	switch k {
	case KindTemplateSyntax:
		return "TemplateSyntaxError"
	case KindInvalidMerge:
		return "InvalidMergeError"
	case KindLayout:
		return "LayoutError"
	case KindValidation:
		return "ValidationError"
	case KindSerialization:
		return "SerializationError"
	default:
		return "Unknown"
	}
}

// KindOf returns the kind of the first typed error in err's chain.
func KindOf(err error) ErrorKind {
	var (
		syntaxErr *TemplateSyntaxError
		mergeErr  *InvalidMergeError
		layoutErr *LayoutError
		validErr  *ValidationError
		serErr    *SerializationError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &syntaxErr):
		return KindTemplateSyntax
	case errors.As(err, &mergeErr):
		return KindInvalidMerge
	case errors.As(err, &layoutErr):
		return KindLayout
	case errors.As(err, &validErr):
		return KindValidation
	case errors.As(err, &serErr):
		return KindSerialization
	default:
		return KindUnknown
	}
}

// TemplateSyntaxError represents a malformed placeholder or conditional block.
// Line and Column are 1-based positions within the cell or paragraph text.
type TemplateSyntaxError struct {
	Section string
	Field   string
	Line    int
	Column  int
	Message string
}

func (e *TemplateSyntaxError) Error() string {
	var sb strings.Builder
	sb.WriteString("template syntax error")
	if e.Section != "" {
		fmt.Fprintf(&sb, " in section %q", e.Section)
	}
	if e.Line > 0 && e.Column > 0 {
		fmt.Fprintf(&sb, " at line %d, column %d", e.Line, e.Column)
	} else if e.Line > 0 {
		fmt.Fprintf(&sb, " at line %d", e.Line)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	return sb.String()
}

// NewTemplateSyntaxError creates a new syntax error with position information
func NewTemplateSyntaxError(message string, line, column int) error {
	return &TemplateSyntaxError{
		Message: message,
		Line:    line,
		Column:  column,
	}
}

// InvalidMergeError reports a merge range that falls outside the table grid
// or cuts through an existing merged cell. Columns are 1-based.
type InvalidMergeError struct {
	Section string
	Row     int
	From    int
	To      int
	Columns int
	Reason  string
}

func (e *InvalidMergeError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = fmt.Sprintf("table has %d columns", e.Columns)
	}
	if e.Section != "" {
		return fmt.Sprintf("invalid merge [%d,%d] in section %q row %d: %s", e.From, e.To, e.Section, e.Row, reason)
	}
	return fmt.Sprintf("invalid merge [%d,%d] in row %d: %s", e.From, e.To, e.Row, reason)
}

// LayoutError reports a row or cell that does not fit the table grid.
type LayoutError struct {
	Section string
	Row     int
	Message string
}

func (e *LayoutError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("layout error in section %q row %d: %s", e.Section, e.Row, e.Message)
	}
	return fmt.Sprintf("layout error in row %d: %s", e.Row, e.Message)
}

// SerializationError wraps a failure reported by a document backend.
type SerializationError struct {
	Section string
	Cause   error
}

func (e *SerializationError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("serialization error in section %q: %v", e.Section, e.Cause)
	}
	return fmt.Sprintf("serialization error: %v", e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a serialization error for the given section.
func NewSerializationError(section string, cause error) error {
	return &SerializationError{
		Section: section,
		Cause:   cause,
	}
}

// UnresolvedFieldWarning records a referenced field that was absent from the
// field mapping. It is not an error: the fallback value was rendered instead.
type UnresolvedFieldWarning struct {
	Section string
	Field   string
}

func (w UnresolvedFieldWarning) String() string {
	if w.Section != "" {
		return fmt.Sprintf("unresolved field %q in section %q", w.Field, w.Section)
	}
	return fmt.Sprintf("unresolved field %q", w.Field)
}

// ValidationIssue represents a single validation problem
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError represents multiple validation issues
type ValidationError struct {
	Source string
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	prefix := "validation error"
	if e.Source != "" {
		prefix = fmt.Sprintf("validation error in %s", e.Source)
	}
	if len(e.Issues) == 0 {
		return prefix
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s - %s", prefix, e.Issues[0].Field, e.Issues[0].Message)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%s: %d issues:", prefix, len(e.Issues)))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

// Add records an issue.
func (e *ValidationError) Add(field, format string, args ...interface{}) {
	e.Issues = append(e.Issues, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns e when it holds issues, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// MultiError collects independent failures, such as one per template file.
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	parts := make([]string, 0, len(e.Errors)+1)
	parts = append(parts, fmt.Sprintf("%d errors:", len(e.Errors)))
	for _, err := range e.Errors {
		parts = append(parts, "  "+err.Error())
	}
	return strings.Join(parts, "\n")
}

// Unwrap returns the collected errors for errors.Is and errors.As.
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// Append records err if it is not nil.
func (e *MultiError) Append(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// ErrorOrNil returns e when it holds errors, nil otherwise.
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// withSection fills in the section of a typed error that does not carry one yet.
func withSection(err error, section string) error {
	var (
		syntaxErr *TemplateSyntaxError
		mergeErr  *InvalidMergeError
		layoutErr *LayoutError
	)
	switch {
	case errors.As(err, &syntaxErr):
		if syntaxErr.Section == "" {
			syntaxErr.Section = section
		}
	case errors.As(err, &mergeErr):
		if mergeErr.Section == "" {
			mergeErr.Section = section
		}
	case errors.As(err, &layoutErr):
		if layoutErr.Section == "" {
			layoutErr.Section = section
		}
	}
	return err
}

// IsTemplateSyntaxError checks if err is or wraps a template syntax error
func IsTemplateSyntaxError(err error) bool {
	return KindOf(err) == KindTemplateSyntax
}

// IsInvalidMergeError checks if err is or wraps an invalid merge error
func IsInvalidMergeError(err error) bool {
	return KindOf(err) == KindInvalidMerge
}

// IsSerializationError checks if err is or wraps a serialization error
func IsSerializationError(err error) bool {
	return KindOf(err) == KindSerialization
}
