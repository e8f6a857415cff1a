package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/klauspost/compress/zip"

	wml "github.com/benjaminschreck/go-formdoc/pkg/formdoc/xml"
)

// Part names written by the serializer.
const (
	PartContentTypes  = "[Content_Types].xml"
	PartRootRels      = "_rels/.rels"
	PartDocument      = "word/document.xml"
	PartStyles        = "word/styles.xml"
	PartDocumentRels  = "word/_rels/document.xml.rels"
	relsNamespace     = "http://schemas.openxmlformats.org/package/2006/relationships"
	typesNamespace    = "http://schemas.openxmlformats.org/package/2006/content-types"
	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
)

// ContentType is the MIME type of a DOCX package.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Relationship represents a relationship in the DOCX package
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// ContentTypes is the [Content_Types].xml part.
type ContentTypes struct {
	XMLName   xml.Name      `xml:"Types"`
	Namespace string        `xml:"xmlns,attr"`
	Defaults  []DefaultType `xml:"Default"`
	Overrides []Override    `xml:"Override"`
}

// DefaultType maps an extension to a content type.
type DefaultType struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override maps a part to a content type.
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Package is an opened DOCX package.
type Package struct {
	files map[string]*zip.File
}

// OpenPackage reads a DOCX package. It fails when word/document.xml is missing.
func OpenPackage(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}

	p := &Package{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		p.files[f.Name] = f
	}
	if _, ok := p.files[PartDocument]; !ok {
		return nil, fmt.Errorf("not a valid DOCX file: missing %s", PartDocument)
	}
	return p, nil
}

// ReadPackage opens a DOCX package held in memory.
func ReadPackage(data []byte) (*Package, error) {
	return OpenPackage(bytes.NewReader(data), int64(len(data)))
}

// OpenFile opens a DOCX file.
func OpenFile(name string) (*Package, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX file: %w", err)
	}
	return ReadPackage(data)
}

// Names returns the part names in sorted order.
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.files))
	for n := range p.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Part returns the content of the named part.
func (p *Package) Part(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return content, nil
}

// DocumentXML returns the raw word/document.xml part.
func (p *Package) DocumentXML() (string, error) {
	data, err := p.Part(PartDocument)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Document parses word/document.xml.
func (p *Package) Document() (*wml.Document, error) {
	data, err := p.Part(PartDocument)
	if err != nil {
		return nil, err
	}
	return wml.ParseDocument(bytes.NewReader(data))
}

// Styles parses word/styles.xml.
func (p *Package) Styles() (*wml.Styles, error) {
	data, err := p.Part(PartStyles)
	if err != nil {
		return nil, err
	}
	return wml.ParseStyles(data)
}

// Relationships retrieves relationships for a given part. A part without a
// relationships file has none.
func (p *Package) Relationships(partName string) ([]Relationship, error) {
	dir, base := path.Split(partName)
	relPath := path.Join(dir, "_rels", base+".rels")

	if _, ok := p.files[relPath]; !ok {
		return []Relationship{}, nil
	}
	data, err := p.Part(relPath)
	if err != nil {
		return nil, err
	}

	var rels Relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}
	return rels.Relationship, nil
}

// ContentTypes parses [Content_Types].xml.
func (p *Package) ContentTypes() (*ContentTypes, error) {
	data, err := p.Part(PartContentTypes)
	if err != nil {
		return nil, err
	}
	var ct ContentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("failed to parse content types: %w", err)
	}
	return &ct, nil
}

// Validate checks that the package is structurally sound: the required parts
// exist and are declared, every relationship target exists, and every table
// row covers the table grid exactly.
func (p *Package) Validate() error {
	for _, name := range []string{PartContentTypes, PartRootRels, PartDocument} {
		if _, ok := p.files[name]; !ok {
			return fmt.Errorf("missing part %s", name)
		}
	}

	ct, err := p.ContentTypes()
	if err != nil {
		return err
	}
	declared := false
	for _, o := range ct.Overrides {
		if o.PartName == "/"+PartDocument {
			declared = true
		}
	}
	if !declared {
		return fmt.Errorf("content types do not declare /%s", PartDocument)
	}

	rels, err := p.Relationships(PartDocument)
	if err != nil {
		return err
	}
	for _, rel := range rels {
		if rel.TargetMode == "External" {
			continue
		}
		if _, ok := p.files[path.Join("word", rel.Target)]; !ok {
			return fmt.Errorf("relationship %s targets missing part %s", rel.ID, rel.Target)
		}
	}

	doc, err := p.Document()
	if err != nil {
		return err
	}
	for ti, tbl := range doc.Body.Tables() {
		cols := 0
		if tbl.Grid != nil {
			cols = len(tbl.Grid.Columns)
		}
		for ri := range tbl.Rows {
			width := 0
			for ci := range tbl.Rows[ri].Cells {
				width += tbl.Rows[ri].Cells[ci].GridSpan()
			}
			if width != cols {
				return fmt.Errorf("table %d row %d covers %d of %d grid columns", ti+1, ri+1, width, cols)
			}
		}
	}
	return nil
}
