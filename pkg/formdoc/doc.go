// Package formdoc builds structured documents, such as legal application
// forms, from declarative YAML templates and a flat mapping of field values.
//
// A template lists sections in document order. Each section is a heading,
// a block of free text, or a table laid out on a fixed column grid:
//
//	name: example
//	page:
//	  margins: {top: 1.5cm, bottom: 1.5cm, left: 2cm, right: 2cm}
//	defaults: {font: Times New Roman, size: 11}
//	sections:
//	  - kind: heading
//	    id: title
//	    style: {align: center, size: 12}
//	    lines: ["FORM 'A'"]
//	  - kind: key_value_table
//	    id: parties
//	    table:
//	      columns: [1cm, 4cm, 10cm]
//	      border: {style: single, size: 4, color: "000000"}
//	      rows:
//	        - cells: ["1", {text: Name, style: bold}, {text: "{{client_name}}"}]
//	        - merge: [1, 3]
//	          cells: [{text: Address, style: [bold, underline]}]
//
// # Placeholders
//
// Text may reference fields and choose between alternatives:
//
//	{{name}}
//	{% if name and name != "" %}{{name}}{% else %}________{% endif %}
//
// A tag may continue on the next line of the same cell. Missing fields render
// the configured fallback and produce one UnresolvedFieldWarning each.
// Values are inserted literally; they are never evaluated again.
//
// # Rendering
//
// Builder produces a Document tree. A Serializer, such as the docx package,
// turns it into bytes:
//
//	engine := formdoc.New(nil)
//	tmpl, err := engine.LoadTemplateFile("form.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := engine.Render(ctx, tmpl, formdoc.Fields{"client_name": "Acme Corp"}, docx.NewSerializer())
//
// Rendering is all or nothing: on error no bytes are produced.
package formdoc
