package epub

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// Archive layout. Paths below PackageRoot are relative to the package document.
const (
	MimetypePath  = "mimetype"
	MimetypeValue = "application/epub+zip"
	ContainerPath = "META-INF/container.xml"

	PackageRoot    = "OEBPS"
	PackagePath    = "content.opf"
	NavPath        = "nav.xhtml"
	NCXPath        = "toc.ncx"
	StylesheetPath = "css/style.css"

	imageDir = "img"
	xhtmlDir = "xhtml"
)

// Manifest ids of the static resources.
const (
	stylesheetID = "css"
	navID        = "nav"
	ncxID        = "ncx"
	coverXHTMLID = "cover_xhtml"
	bookIDAttr   = "BookId"
)

// archivePath maps a package-relative path to its ZIP entry name.
func archivePath(rel string) string {
	return path.Join(PackageRoot, rel)
}

// PackageDocumentPath is the ZIP entry name of the package document.
func PackageDocumentPath() string {
	return archivePath(PackagePath)
}

// sanitizeID turns an arbitrary string into an XML id: every rune that is
// not a letter or digit becomes an underscore.
func sanitizeID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// imageID and xhtmlID derive the manifest ids of a named page.
func imageID(filename string) string { return sanitizeID("IMAGE_" + filename) }
func xhtmlID(filename string) string { return sanitizeID("XHTML_" + filename) }

// pagePaths returns the package-relative image and wrapper paths of a named page.
func pagePaths(filename string) (imagePath, xhtmlPath string) {
	return path.Join(imageDir, filename), path.Join(xhtmlDir, filename+".xhtml")
}

// coverPaths returns the package-relative image and wrapper paths of the cover.
func coverPaths(ext string) (imagePath, xhtmlPath string) {
	return path.Join(imageDir, "cover."+ext), path.Join(xhtmlDir, "cover.xhtml")
}

// cleanFilename normalizes a source entry name into a slash separated,
// non-escaping relative path.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

// relHref returns the href from the document at fromPath to target, both
// package-relative, percent-encoded for use in an attribute.
func relHref(fromPath, target string) string {
	return encodeHref(relPath(path.Dir(fromPath), target))
}

// relPath computes the slash path from directory fromDir to target.
func relPath(fromDir, target string) string {
	from := splitPath(fromDir)
	to := splitPath(target)

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	parts := make([]string, 0, len(from)-common+len(to)-common)
	for i := common; i < len(from); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	return strings.Join(parts, "/")
}

func splitPath(p string) []string {
	p = path.Clean(p)
	if p == "." || p == "/" || p == "" {
		return nil
	}
	return strings.Split(strings.Trim(p, "/"), "/")
}

// encodeHref percent-encodes a relative path reference.
func encodeHref(p string) string {
	u := url.URL{Path: p}
	href := u.EscapedPath()
	// A colon in the first segment would read as a URI scheme.
	if first, _, _ := strings.Cut(href, "/"); strings.Contains(first, ":") {
		href = "./" + href
	}
	return href
}
