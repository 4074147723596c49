package epub

import (
	"fmt"

	"github.com/beevik/etree"
)

// XML namespaces used by the generated documents.
const (
	nsContainer = "urn:oasis:names:tc:opendocument:xmlns:container"
	nsOPF       = "http://www.idpf.org/2007/opf"
	nsDC        = "http://purl.org/dc/elements/1.1/"
	nsXHTML     = "http://www.w3.org/1999/xhtml"
	nsOPS       = "http://www.idpf.org/2007/ops"
	nsNCX       = "http://www.daisy.org/z3986/2005/ncx/"

	renditionPrefix = "rendition: http://www.idpf.org/vocab/rendition/#"
)

// Media types of generated resources.
const (
	mediaTypeXHTML     = "application/xhtml+xml"
	mediaTypeNCX       = "application/x-dtbncx+xml"
	mediaTypeCSS       = "text/css"
	mediaTypeOPFPkg    = "application/oebps-package+xml"
	defaultIndentWidth = 2
)

// newDocument starts an XML document with the UTF-8 declaration.
func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	return doc
}

// newXHTMLDocument starts an XHTML5 document whose root carries the
// language of the book.
func newXHTMLDocument(lang string) (*etree.Document, *etree.Element) {
	doc := newDocument()
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", nsXHTML)
	html.CreateAttr("xmlns:epub", nsOPS)
	if lang != "" {
		html.CreateAttr("xml:lang", lang)
		html.CreateAttr("lang", lang)
	}
	return doc, html
}

// serialize indents doc and renders it.
func serialize(doc *etree.Document, name string) ([]byte, error) {
	doc.Indent(defaultIndentWidth)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return data, nil
}
