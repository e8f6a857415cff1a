// Package forms holds the built-in form templates.
package forms

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/benjaminschreck/go-formdoc/pkg/formdoc"
)

//go:embed *.yaml
var files embed.FS

// Form is a registered template with its download file name.
type Form struct {
	Name     string
	FileName string
	Title    string
	Template *formdoc.Template
}

var (
	loadOnce sync.Once
	registry map[string]*Form
	loadErr  error
)

// titles and download names of the embedded forms, by file base name.
var meta = map[string]struct{ title, fileName string }{
	"mediation": {"Mediation Application Form (FORM 'A')", "mediation_application_form.docx"},
}

func load() {
	registry = make(map[string]*Form)
	entries, err := files.ReadDir(".")
	if err != nil {
		loadErr = err
		return
	}

	errs := &formdoc.MultiError{}
	for _, entry := range entries {
		f, err := files.Open(entry.Name())
		if err != nil {
			errs.Append(err)
			continue
		}
		tmpl, err := formdoc.LoadTemplate(f, "forms/"+entry.Name())
		f.Close()
		if err != nil {
			errs.Append(err)
			continue
		}

		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		m, ok := meta[name]
		if !ok {
			m.title, m.fileName = tmpl.Name, tmpl.Name+".docx"
		}
		registry[name] = &Form{Name: name, FileName: m.fileName, Title: m.title, Template: tmpl}
	}
	loadErr = errs.ErrorOrNil()
}

// Lookup returns the named form.
func Lookup(name string) (*Form, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("form %q: %w", name, formdoc.ErrTemplateNotFound)
	}
	return f, nil
}

// Names returns the registered form names in sorted order.
func Names() []string {
	loadOnce.Do(load)
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Mediation returns the mediation application form template. It panics if
// the embedded template is invalid.
func Mediation() *formdoc.Template {
	f, err := Lookup("mediation")
	if err != nil {
		panic(err)
	}
	return f.Template
}
