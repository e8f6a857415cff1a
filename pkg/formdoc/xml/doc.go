// Package xml provides the WordprocessingML structures written to and read
// from the word/document.xml and word/styles.xml parts of a DOCX package.
//
// The package is organized into logical files based on XML element types:
//
//   - types.go: BodyElement, Val, Width and encoding helpers
//   - document.go: Document, Body and section properties
//   - paragraph.go: Paragraph, paragraph properties and spacing
//   - run.go: Run, Text and run properties
//   - table.go: Table, rows, cells and cell properties
//   - styles.go: the styles part
//
// Every structure writes its elements with the w: prefix through a custom
// MarshalXML, and parses by local name, so a document written here can be
// read back with ParseDocument:
//
//	doc := &xml.Document{
//	    Body: &xml.Body{
//	        Elements: []xml.BodyElement{
//	            &xml.Paragraph{
//	                Runs: []xml.Run{{Content: xml.NewText("Hello, world!")}},
//	            },
//	        },
//	    },
//	}
//	data, err := xml.Marshal(doc)
package xml
