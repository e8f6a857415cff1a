package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"

	"github.com/benjaminschreck/go-formdoc/pkg/formdoc/forms"
)

type indexForm struct {
	Name        string
	Title       string
	FileName    string
	DownloadURL string
	PreviewURL  string
	Fields      []string
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Form generator</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 32px auto; }
label { display: block; margin: 8px 0 2px; }
input[type=text] { width: 100%; }
section { border-top: 1px solid #ccc; padding: 12px 0; }
</style>
</head>
<body>
<h1>Form generator</h1>
{{- range .}}
<section>
<h2>{{.Title}}</h2>
<p><a href="{{.DownloadURL}}">Download {{.FileName}}</a> | <a href="{{.PreviewURL}}">Preview</a></p>
{{- if .Fields}}
<form method="get" action="/download">
<input type="hidden" name="form" value="{{.Name}}">
{{- range .Fields}}
<label for="{{.}}">{{.}}</label>
<input type="text" id="{{.}}" name="{{.}}">
{{- end}}
<p><button type="submit">Download</button> <button type="submit" formaction="/preview">Preview</button></p>
</form>
{{- end}}
</section>
{{- end}}
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var list []indexForm
	for _, name := range forms.Names() {
		form, err := forms.Lookup(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		list = append(list, indexForm{
			Name:        form.Name,
			Title:       form.Title,
			FileName:    form.FileName,
			DownloadURL: "/download?" + url.Values{"form": {form.Name}}.Encode(),
			PreviewURL:  previewURL(form.Name),
			Fields:      form.Template.FieldNames(),
		})
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, list); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
