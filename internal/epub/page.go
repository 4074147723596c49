package epub

import "fmt"

// PageDocument holds everything needed to render one page wrapper.
type PageDocument struct {
	Title          string
	Language       string
	ImageHref      string // relative to the wrapper document
	Alt            string
	StylesheetHref string // relative to the wrapper document
	Width          int
	Height         int
}

// RenderPage renders the XHTML wrapper of a single image. The viewport is
// sized to the image so fixed-layout readers show it edge to edge.
func RenderPage(p PageDocument) ([]byte, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrImageProbe, p.ImageHref, p.Width, p.Height)
	}

	doc, html := newXHTMLDocument(p.Language)

	head := html.CreateElement("head")
	head.CreateElement("title").SetText(p.Title)
	link := head.CreateElement("link")
	link.CreateAttr("rel", "stylesheet")
	link.CreateAttr("type", mediaTypeCSS)
	link.CreateAttr("href", p.StylesheetHref)
	viewport := head.CreateElement("meta")
	viewport.CreateAttr("name", "viewport")
	viewport.CreateAttr("content", fmt.Sprintf("width=%d, height=%d", p.Width, p.Height))

	body := html.CreateElement("body")
	body.CreateAttr("epub:type", "bodymatter")
	img := body.CreateElement("img")
	img.CreateAttr("src", p.ImageHref)
	img.CreateAttr("alt", p.Alt)

	return serialize(doc, "page "+p.ImageHref)
}

// pageDocument builds the wrapper description of page within book.
func pageDocument(meta Meta, page *Page, alt string) PageDocument {
	return PageDocument{
		Title:          meta.Title,
		Language:       meta.Language,
		ImageHref:      relHref(page.XHTMLPath, page.ImagePath),
		Alt:            alt,
		StylesheetHref: relHref(page.XHTMLPath, StylesheetPath),
		Width:          page.Width,
		Height:         page.Height,
	}
}
