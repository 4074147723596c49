package epub

import (
	"time"

	"github.com/beevik/etree"
)

const modifiedLayout = "2006-01-02T15:04:05Z"

// RenderPackage renders the OPF package document. modified becomes the
// dcterms:modified stamp; it is the only part of the output that is not a
// function of the book alone.
func RenderPackage(b *Book, modified time.Time) ([]byte, error) {
	if err := b.checkRenderable(); err != nil {
		return nil, err
	}

	doc := newDocument()
	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", nsOPF)
	pkg.CreateAttr("version", "3.0")
	pkg.CreateAttr("unique-identifier", bookIDAttr)
	pkg.CreateAttr("prefix", renditionPrefix)
	if b.Meta.Language != "" {
		pkg.CreateAttr("xml:lang", b.Meta.Language)
	}

	writeMetadata(pkg.CreateElement("metadata"), b, modified)
	writeManifest(pkg.CreateElement("manifest"), b)
	writeSpine(pkg.CreateElement("spine"), b)

	return serialize(doc, PackagePath)
}

func writeMetadata(md *etree.Element, b *Book, modified time.Time) {
	md.CreateAttr("xmlns:dc", nsDC)

	id := md.CreateElement("dc:identifier")
	id.CreateAttr("id", bookIDAttr)
	id.SetText("urn:uuid:" + b.UUID)

	for _, f := range b.Meta.dcFields() {
		md.CreateElement("dc:" + f.Name).SetText(f.Value)
	}

	for _, prop := range [][2]string{
		{"dcterms:modified", modified.UTC().Format(modifiedLayout)},
		{"rendition:layout", "pre-paginated"},
		{"rendition:spread", "landscape"},
	} {
		meta := md.CreateElement("meta")
		meta.CreateAttr("property", prop[0])
		meta.SetText(prop[1])
	}
}

func writeManifest(manifest *etree.Element, b *Book) {
	addItem := func(id, href, mediaType, properties string) {
		item := manifest.CreateElement("item")
		item.CreateAttr("id", id)
		item.CreateAttr("href", encodeHref(href))
		item.CreateAttr("media-type", mediaType)
		if properties != "" {
			item.CreateAttr("properties", properties)
		}
	}

	for i, p := range b.Pages() {
		var props string
		if i == 0 {
			props = "cover-image"
		}
		addItem(p.ID, p.ImagePath, p.MIME, props)
		addItem(p.XHTMLID, p.XHTMLPath, mediaTypeXHTML, "")
	}

	addItem(stylesheetID, StylesheetPath, mediaTypeCSS, "")
	addItem(navID, NavPath, mediaTypeXHTML, "nav")
	addItem(ncxID, NCXPath, mediaTypeNCX, "")
}

func writeSpine(spine *etree.Element, b *Book) {
	dir := b.Meta.Direction
	if dir == "" {
		dir = DirectionDefault
	}
	spine.CreateAttr("toc", ncxID)
	spine.CreateAttr("page-progression-direction", string(dir))

	for i, p := range b.Pages() {
		ref := spine.CreateElement("itemref")
		ref.CreateAttr("idref", p.XHTMLID)
		if spread := pageSpread(dir, i+1); spread != "" {
			ref.CreateAttr("properties", spread)
		}
	}
}

// pageSpread returns the spread property of the n-th (1-based) spine item.
// Sides alternate, starting left for rtl and right for ltr.
func pageSpread(dir Direction, n int) string {
	odd := n%2 == 1
	switch dir {
	case DirectionRTL:
		if odd {
			return "page-spread-left"
		}
		return "page-spread-right"
	case DirectionLTR:
		if odd {
			return "page-spread-right"
		}
		return "page-spread-left"
	}
	return ""
}
