package epub

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content represents a parsed XHTML document of a package.
type Content struct {
	ID        string            // Manifest ID
	Path      string            // Archive path
	Document  *goquery.Document // Parsed HTML document
	Title     string
	CSSLinks  []string // Referenced CSS archive paths
	ImageRefs []string // Referenced image archive paths
	Links     []string // Hyperlink targets, fragment removed
	Viewport  Viewport
}

// Viewport is the size declared by a fixed-layout page.
type Viewport struct {
	Width  int
	Height int
}

// Valid reports whether both dimensions are positive.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// LoadContent parses an XHTML document stored at archive path p and resolves
// its references against the document's directory.
func LoadContent(id, p string, content []byte) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}

	c := &Content{
		ID:       id,
		Path:     p,
		Document: doc,
		Title:    strings.TrimSpace(doc.Find("head title").First().Text()),
	}

	baseDir := path.Dir(p)

	doc.Find("link[rel='stylesheet']").Each(func(i int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			c.CSSLinks = append(c.CSSLinks, resolvePath(baseDir, href))
		}
	})
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			c.ImageRefs = append(c.ImageRefs, resolvePath(baseDir, src))
		}
	})
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || isAbsoluteURL(href) {
			return
		}
		c.Links = append(c.Links, resolvePath(baseDir, href))
	})
	if v, ok := doc.Find("meta[name='viewport']").Attr("content"); ok {
		c.Viewport = parseViewport(v)
	}

	return c, nil
}

// parseViewport reads "width=W, height=H". Unknown keys are ignored.
func parseViewport(s string) Viewport {
	var v Viewport
	for _, part := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		switch strings.TrimSpace(key) {
		case "width":
			v.Width = n
		case "height":
			v.Height = n
		}
	}
	return v
}

// resolvePath resolves a relative, percent-encoded reference against a base
// directory, dropping any fragment.
// baseDir: base directory (e.g., "OEBPS/xhtml")
// ref: relative reference (e.g., "../img/p%2001.jpg#x")
// returns: resolved path (e.g., "OEBPS/img/p 01.jpg")
func resolvePath(baseDir, ref string) string {
	ref, _ = splitFragment(ref)
	if decoded, err := url.PathUnescape(ref); err == nil {
		ref = decoded
	}
	return path.Join(baseDir, ref)
}

func isAbsoluteURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != ""
}
