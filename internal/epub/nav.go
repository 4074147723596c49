package epub

import (
	"fmt"
	"strconv"
)

// tocEntry is one chapter as listed by the navigation documents.
type tocEntry struct {
	Label string
	Href  string // package-relative path of the chapter's first page
}

// tocEntries lists every chapter that has at least one page.
func (b *Book) tocEntries() []tocEntry {
	var entries []tocEntry
	for _, ch := range b.Chapters() {
		if len(ch.Pages) == 0 {
			continue
		}
		label := ch.Name
		if label == "" {
			label = fmt.Sprintf("Chapter %d", ch.Index)
		}
		entries = append(entries, tocEntry{Label: label, Href: ch.Pages[0].XHTMLPath})
	}
	return entries
}

// RenderNav renders the EPUB 3 navigation document: a table of contents with
// one entry per chapter and a page list with one entry per page.
func RenderNav(b *Book) ([]byte, error) {
	if err := b.checkRenderable(); err != nil {
		return nil, err
	}

	doc, html := newXHTMLDocument(b.Meta.Language)

	head := html.CreateElement("head")
	head.CreateElement("title").SetText(b.Meta.Title)
	link := head.CreateElement("link")
	link.CreateAttr("rel", "stylesheet")
	link.CreateAttr("type", mediaTypeCSS)
	link.CreateAttr("href", relHref(NavPath, StylesheetPath))

	body := html.CreateElement("body")

	toc := body.CreateElement("nav")
	toc.CreateAttr("epub:type", "toc")
	toc.CreateAttr("id", "toc")
	toc.CreateElement("h1").SetText(b.Meta.Title)
	tocList := toc.CreateElement("ol")
	for _, e := range b.tocEntries() {
		a := tocList.CreateElement("li").CreateElement("a")
		a.CreateAttr("href", relHref(NavPath, e.Href))
		a.SetText(e.Label)
	}

	pageList := body.CreateElement("nav")
	pageList.CreateAttr("epub:type", "page-list")
	pageList.CreateAttr("id", "page-list")
	pageList.CreateAttr("hidden", "")
	pages := pageList.CreateElement("ol")
	for i, p := range b.Pages() {
		a := pages.CreateElement("li").CreateElement("a")
		a.CreateAttr("href", relHref(NavPath, p.XHTMLPath))
		a.SetText(strconv.Itoa(i + 1))
	}

	return serialize(doc, NavPath)
}
