package formdoc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
)

// Builder turns a Template and a field mapping into a Document.
// A Builder holds no per-build state and is safe for concurrent use.
type Builder struct {
	Fallback     string
	Placeholders PlaceholderMode
	Logger       logrus.FieldLogger
}

// NewBuilder creates a builder from config. A nil config uses DefaultConfig
// and a nil logger discards output.
func NewBuilder(config *Config, logger logrus.FieldLogger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Builder{
		Fallback:     config.Fallback,
		Placeholders: config.Placeholders,
		Logger:       logger,
	}
}

// Build builds the document for tmpl. Sections become blocks in template
// order. Missing fields are not errors: the fallback is rendered and one
// warning per field is returned. On error no document is returned.
func (b *Builder) Build(tmpl *Template, fields Fields) (*Document, []UnresolvedFieldWarning, error) {
	return b.BuildContext(context.Background(), tmpl, fields)
}

// BuildContext is Build with cancellation checked between sections.
func (b *Builder) BuildContext(ctx context.Context, tmpl *Template, fields Fields) (*Document, []UnresolvedFieldWarning, error) {
	if tmpl == nil {
		return nil, nil, errors.New("nil template")
	}
	if err := tmpl.Validate(); err != nil {
		return nil, nil, err
	}

	st := b.newState(tmpl, fields)
	doc := &Document{Name: tmpl.Name, Page: tmpl.page()}

	for i := range tmpl.Sections {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		sec := &tmpl.Sections[i]
		st.section = sec.ID
		if st.section == "" {
			st.section = fmt.Sprintf("section-%d", i+1)
		}

		blocks, err := st.buildSection(sec)
		if err != nil {
			err = withSection(err, st.section)
			if KindOf(err) == KindUnknown {
				err = fmt.Errorf("section %q: %w", st.section, err)
			}
			return nil, nil, err
		}
		doc.Blocks = append(doc.Blocks, blocks...)
	}

	return doc, st.warnings, nil
}

// buildState carries what one build accumulates.
type buildState struct {
	expander Expander
	mode     PlaceholderMode
	fields   Fields
	defaults ResolvedStyle
	styles   map[string]Style
	section  string
	seen     mapset.Set[string]
	warnings []UnresolvedFieldWarning
	logger   logrus.FieldLogger
}

func (b *Builder) newState(tmpl *Template, fields Fields) *buildState {
	fallback := b.Fallback
	if tmpl.Fallback != nil {
		fallback = *tmpl.Fallback
	}
	logger := b.Logger
	if logger == nil {
		logger = discardLogger()
	}
	return &buildState{
		expander: Expander{Fallback: fallback},
		mode:     b.Placeholders,
		fields:   fields,
		defaults: Resolve(BaseStyle, tmpl.Defaults),
		styles:   tmpl.styleTable(),
		seen:     mapset.NewThreadUnsafeSet[string](),
		logger:   logger.WithField("template", tmpl.Name),
	}
}

// headingStyle is the base of every heading section.
var headingStyle = Style{Bold: boolPtr(true)}

func (st *buildState) buildSection(sec *Section) ([]Block, error) {
	layers, err := sec.Style.layers(st.styles)
	if err != nil {
		return nil, err
	}

	switch sec.Kind {
	case SectionHeading, SectionFreeText:
		if sec.Kind == SectionHeading {
			layers = append([]Style{headingStyle}, layers...)
		}
		paras, err := st.paragraphs(sec.Lines, layers)
		if err != nil {
			return nil, err
		}
		blocks := make([]Block, len(paras))
		for i := range paras {
			blocks[i] = &paras[i]
		}
		return blocks, nil

	case SectionKeyValueTable:
		if sec.Table == nil {
			return nil, &LayoutError{Message: "table section has no table"}
		}
		table, err := st.layoutTable(sec.Table, layers)
		if err != nil {
			return nil, err
		}
		return []Block{table}, nil

	default:
		return nil, fmt.Errorf("unknown section kind %q", sec.Kind)
	}
}

// paragraphs expands lines into paragraphs. A line that ends inside a tag or
// an if block is joined with the following lines until the expression closes;
// the group takes the first line's style. Newlines in the expanded text start
// new paragraphs.
func (st *buildState) paragraphs(lines []LineSpec, layers []Style) ([]Paragraph, error) {
	var out []Paragraph
	for i := 0; i < len(lines); {
		first := lines[i]
		text := first.Text
		j := i
		if st.mode != PlaceholdersPreserve {
			for needsContinuation(text) && j+1 < len(lines) {
				j++
				text += "\n" + lines[j].Text
			}
		}

		expanded, err := st.expand(text)
		if err != nil {
			var syntaxErr *TemplateSyntaxError
			if errors.As(err, &syntaxErr) {
				syntaxErr.Line += i
			}
			return nil, err
		}

		lineLayers, err := first.Style.layers(st.styles)
		if err != nil {
			return nil, err
		}
		all := make([]Style, 0, len(layers)+len(lineLayers))
		all = append(all, layers...)
		all = append(all, lineLayers...)
		style := Resolve(st.defaults, all...)

		for _, t := range strings.Split(expanded, "\n") {
			p := Paragraph{SectionID: st.section, Runs: []Run{{Text: t}}}
			p.ApplyStyle(style)
			out = append(out, p)
		}
		i = j + 1
	}
	return out, nil
}

func (st *buildState) expand(text string) (string, error) {
	if st.mode == PlaceholdersPreserve {
		return text, nil
	}
	out, missing, err := st.expander.Expand(text, st.fields)
	if err != nil {
		return "", err
	}
	for _, name := range missing {
		st.warn(name)
	}
	return out, nil
}

// warn records the first reference to a missing field.
func (st *buildState) warn(field string) {
	if !st.seen.Add(field) {
		return
	}
	st.warnings = append(st.warnings, UnresolvedFieldWarning{Section: st.section, Field: field})
	st.logger.WithFields(logrus.Fields{
		"section": st.section,
		"field":   field,
	}).Warn("unresolved field")
}
