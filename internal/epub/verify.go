package epub

import (
	"fmt"
	"path"
	"strings"
)

// Problem is one structural defect found by Verify.
type Problem struct {
	Entry   string // archive entry the problem was found in
	Message string
}

func (p Problem) String() string {
	return p.Entry + ": " + p.Message
}

// Report summarizes a verified EPUB.
type Report struct {
	Title     string
	Language  string
	Direction string
	Layout    string
	Pages     int // spine items
	Chapters  int // NCX nav points
	Cover     *CoverInfo
	Problems  []Problem
}

// OK reports whether no problems were found.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) addf(entry, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{Entry: entry, Message: fmt.Sprintf(format, args...)})
}

// Verify opens the EPUB at name and checks its cross-references. An error is
// returned only when the container itself cannot be read; everything else is
// collected into the report.
func Verify(name string) (*Report, error) {
	r, err := Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return VerifyReader(r)
}

// VerifyReader checks an opened EPUB.
func VerifyReader(r *Reader) (*Report, error) {
	opf, err := r.ReadOPF()
	if err != nil {
		return nil, fmt.Errorf("failed to read package document: %w", err)
	}

	report := &Report{
		Title:     opf.Metadata.Title,
		Language:  opf.Metadata.Language,
		Direction: opf.Direction,
		Layout:    opf.Metadata.Layout,
		Pages:     len(opf.Spine),
		Cover:     opf.DetectCover(),
	}
	v := &verifier{r: r, opf: opf, report: report, hrefs: make(map[string]ManifestItem)}

	v.checkMetadata()
	v.checkManifest()
	v.checkSpine()
	v.checkDocuments()
	v.checkNCX()
	v.checkUnlisted()

	return report, nil
}

type verifier struct {
	r      *Reader
	opf    *OPF
	report *Report
	hrefs  map[string]ManifestItem // archive path -> item
}

func (v *verifier) checkMetadata() {
	opfPath := v.r.OPFPath()
	md := v.opf.Metadata
	if md.Title == "" {
		v.report.addf(opfPath, "missing dc:title")
	}
	if md.Language == "" {
		v.report.addf(opfPath, "missing dc:language")
	}
	if md.Identifier == "" {
		v.report.addf(opfPath, "missing unique identifier")
	}
	if md.Modified == "" {
		v.report.addf(opfPath, "missing dcterms:modified")
	}
	if v.report.Cover == nil {
		v.report.addf(opfPath, "no cover image declared")
	}
}

func (v *verifier) checkManifest() {
	opfPath := v.r.OPFPath()
	var navs int
	for _, id := range v.opf.ManifestOrder {
		item := v.opf.Manifest[id]
		if prev, dup := v.hrefs[item.Href]; dup {
			v.report.addf(opfPath, "manifest items %q and %q share href %s", prev.ID, item.ID, item.Href)
		}
		v.hrefs[item.Href] = item
		if !v.r.Has(item.Href) {
			v.report.addf(opfPath, "manifest item %q points to missing entry %s", item.ID, item.Href)
		}
		if item.HasProperty("nav") {
			navs++
		}
	}
	if navs != 1 {
		v.report.addf(opfPath, "expected exactly one nav document, found %d", navs)
	}
}

func (v *verifier) checkSpine() {
	opfPath := v.r.OPFPath()
	if len(v.opf.Spine) == 0 {
		v.report.addf(opfPath, "spine is empty")
	}
	for i, ref := range v.opf.Spine {
		item, ok := v.opf.Manifest[ref.IDRef]
		if !ok {
			v.report.addf(opfPath, "spine item %d references unknown id %q", i+1, ref.IDRef)
			continue
		}
		if item.MediaType != mediaTypeXHTML {
			v.report.addf(opfPath, "spine item %q has media type %s", ref.IDRef, item.MediaType)
		}
	}
}

// checkDocuments parses every XHTML item and checks its references.
func (v *verifier) checkDocuments() {
	spine := make(map[string]bool, len(v.opf.Spine))
	for _, ref := range v.opf.Spine {
		spine[ref.IDRef] = true
	}
	fixed := v.opf.Metadata.Layout == "pre-paginated"

	for _, id := range v.opf.ManifestOrder {
		item := v.opf.Manifest[id]
		if item.MediaType != mediaTypeXHTML || !v.r.Has(item.Href) {
			continue
		}

		data, err := v.r.ReadFile(item.Href)
		if err != nil {
			v.report.addf(item.Href, "unreadable: %v", err)
			continue
		}
		c, err := LoadContent(item.ID, item.Href, data)
		if err != nil {
			v.report.addf(item.Href, "%v", err)
			continue
		}

		for _, ref := range c.CSSLinks {
			v.requireListed(item.Href, "stylesheet", ref)
		}
		for _, ref := range c.ImageRefs {
			v.requireListed(item.Href, "image", ref)
		}
		for _, ref := range c.Links {
			v.requireListed(item.Href, "link", ref)
		}
		if fixed && spine[item.ID] && !c.Viewport.Valid() {
			v.report.addf(item.Href, "fixed-layout page has no viewport size")
		}
	}
}

func (v *verifier) checkNCX() {
	if v.opf.NCXPath == "" {
		v.report.addf(v.r.OPFPath(), "spine has no NCX table of contents")
		return
	}
	data, err := v.r.ReadFile(v.opf.NCXPath)
	if err != nil {
		// already reported as a missing manifest entry
		return
	}
	ncx, err := ParseNCX(data)
	if err != nil {
		v.report.addf(v.opf.NCXPath, "%v", err)
		return
	}

	if ncx.UID == "" {
		v.report.addf(v.opf.NCXPath, "missing dtb:uid")
	}
	v.report.Chapters = len(ncx.NavPoints)
	if len(ncx.NavPoints) == 0 {
		v.report.addf(v.opf.NCXPath, "navMap is empty")
	}

	dir := path.Dir(v.opf.NCXPath)
	var walk func(points []NavPoint)
	walk = func(points []NavPoint) {
		for _, p := range points {
			v.requireListed(v.opf.NCXPath, "navPoint "+p.ID, resolvePath(dir, p.ContentPath))
			walk(p.Children)
		}
	}
	walk(ncx.NavPoints)
}

// checkUnlisted reports entries that no manifest item describes.
func (v *verifier) checkUnlisted() {
	for _, name := range v.r.Entries() {
		if name == MimetypePath || name == v.r.OPFPath() || strings.HasPrefix(name, "META-INF/") || strings.HasSuffix(name, "/") {
			continue
		}
		if _, ok := v.hrefs[name]; !ok {
			v.report.addf(name, "entry is not listed in the manifest")
		}
	}
}

func (v *verifier) requireListed(from, kind, target string) {
	if _, ok := v.hrefs[target]; !ok {
		v.report.addf(from, "%s target %s is not in the manifest", kind, target)
	}
}
