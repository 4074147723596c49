package epub

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// NCX represents the parsed navigation control structure of toc.ncx.
type NCX struct {
	UID       string
	Depth     int
	DocTitle  string
	NavPoints []NavPoint
}

// NavPoint represents a single navigation point in the table of contents.
type NavPoint struct {
	ID          string
	PlayOrder   int
	Label       string
	ContentPath string // fragment-free, relative to the NCX document
	Fragment    string // fragment identifier (without #)
	Children    []NavPoint
}

// RenderNCX renders the legacy NCX table of contents. The first nav point
// always targets the cover chapter; every further chapter with pages follows.
func RenderNCX(b *Book) ([]byte, error) {
	if err := b.checkRenderable(); err != nil {
		return nil, err
	}

	doc := newDocument()
	ncx := doc.CreateElement("ncx")
	ncx.CreateAttr("xmlns", nsNCX)
	ncx.CreateAttr("version", "2005-1")
	if b.Meta.Language != "" {
		ncx.CreateAttr("xml:lang", b.Meta.Language)
	}

	head := ncx.CreateElement("head")
	for _, m := range [][2]string{
		{"dtb:uid", b.UUID},
		{"dtb:depth", "1"},
		{"dtb:totalPageCount", "0"},
		{"dtb:maxPageNumber", "0"},
	} {
		meta := head.CreateElement("meta")
		meta.CreateAttr("name", m[0])
		meta.CreateAttr("content", m[1])
	}

	ncx.CreateElement("docTitle").CreateElement("text").SetText(b.Meta.Title)

	navMap := ncx.CreateElement("navMap")
	for i, e := range b.tocEntries() {
		order := strconv.Itoa(i + 1)
		point := navMap.CreateElement("navPoint")
		point.CreateAttr("id", "navpoint-"+order)
		point.CreateAttr("playOrder", order)
		point.CreateElement("navLabel").CreateElement("text").SetText(e.Label)
		point.CreateElement("content").CreateAttr("src", relHref(NCXPath, e.Href))
	}

	return serialize(doc, NCXPath)
}

type ncxDocument struct {
	XMLName xml.Name `xml:"ncx"`
	Head    struct {
		Meta []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"head"`
	DocTitle struct {
		Text string `xml:"text"`
	} `xml:"docTitle"`
	NavMap struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	ID        string `xml:"id,attr"`
	PlayOrder string `xml:"playOrder,attr"`
	NavLabel  struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

// ParseNCX parses toc.ncx content.
func ParseNCX(content []byte) (*NCX, error) {
	var doc ncxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX XML: %w", err)
	}

	ncx := &NCX{
		DocTitle:  strings.TrimSpace(doc.DocTitle.Text),
		NavPoints: convertNavPoints(doc.NavMap.NavPoints),
	}
	for _, m := range doc.Head.Meta {
		switch m.Name {
		case "dtb:uid":
			ncx.UID = m.Content
		case "dtb:depth":
			ncx.Depth, _ = strconv.Atoi(m.Content)
		}
	}
	return ncx, nil
}

func convertNavPoints(points []ncxNavPoint) []NavPoint {
	if len(points) == 0 {
		return nil
	}
	result := make([]NavPoint, 0, len(points))
	for _, p := range points {
		order, _ := strconv.Atoi(p.PlayOrder)
		contentPath, fragment := splitFragment(p.Content.Src)
		result = append(result, NavPoint{
			ID:          p.ID,
			PlayOrder:   order,
			Label:       strings.TrimSpace(p.NavLabel.Text),
			ContentPath: contentPath,
			Fragment:    fragment,
			Children:    convertNavPoints(p.NavPoints),
		})
	}
	return result
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (path, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	path = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return path, fragment
}
