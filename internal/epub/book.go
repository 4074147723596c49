package epub

import (
	"fmt"
	"sort"
)

const coverChapterName = "Cover"

// Page is one image of the book together with its XHTML wrapper.
// Paths are relative to the package root.
type Page struct {
	MIME      string
	ImagePath string
	XHTMLPath string
	ID        string // manifest id of the image
	XHTMLID   string // manifest id of the wrapper document
	Width     int
	Height    int
}

// Chapter is a named run of pages in reading order.
type Chapter struct {
	Index int
	Name  string
	Pages []*Page
}

// ImageInfo is what the model needs to know about a probed image.
type ImageInfo struct {
	MIME   string
	Ext    string
	Width  int
	Height int
}

// Book is the append-only model every generator reads.
// It is not safe for concurrent use.
type Book struct {
	UUID string
	Meta Meta

	chapters map[int]*Chapter
	cover    *Page
	claimed  map[string]struct{} // manifest ids and package paths in use
}

// NewBook creates an empty book identified by uuid.
func NewBook(uuid string, meta Meta) *Book {
	return &Book{
		UUID:     uuid,
		Meta:     meta,
		chapters: make(map[int]*Chapter),
		claimed:  make(map[string]struct{}),
	}
}

// SetCover installs the cover as the only page of chapter 0. Paths and ids
// stay claimed once used, so a second cover, or a page already holding the
// cover's paths, fails with ErrDuplicatePage.
func (b *Book) SetCover(img ImageInfo) (*Page, error) {
	imagePath, xhtmlPath := coverPaths(img.Ext)
	page := &Page{
		MIME:      img.MIME,
		ImagePath: imagePath,
		XHTMLPath: xhtmlPath,
		ID:        sanitizeID("cover_" + img.Ext),
		XHTMLID:   coverXHTMLID,
		Width:     img.Width,
		Height:    img.Height,
	}
	if err := b.checkClaims(page); err != nil {
		return nil, fmt.Errorf("%w (cover)", err)
	}

	b.cover = page
	b.claim(page)
	b.chapters[0] = &Chapter{
		Index: 0,
		Name:  coverChapterName,
		Pages: []*Page{page},
	}
	return page, nil
}

// SetChapterMeta names chapter index, creating it empty if needed.
func (b *Book) SetChapterMeta(index int, name string) error {
	if err := checkPageChapter(index); err != nil {
		return err
	}
	if ch, ok := b.chapters[index]; ok {
		ch.Name = name
		return nil
	}
	b.chapters[index] = &Chapter{Index: index, Name: name}
	return nil
}

// AddPage appends a page named filename to chapter index, creating the
// chapter with an empty name if needed. The book is left untouched on error.
func (b *Book) AddPage(index int, filename string, img ImageInfo) (*Page, error) {
	if err := checkPageChapter(index); err != nil {
		return nil, err
	}

	filename = cleanFilename(filename)
	imagePath, xhtmlPath := pagePaths(filename)
	page := &Page{
		MIME:      img.MIME,
		ImagePath: imagePath,
		XHTMLPath: xhtmlPath,
		ID:        imageID(filename),
		XHTMLID:   xhtmlID(filename),
		Width:     img.Width,
		Height:    img.Height,
	}

	if err := b.checkClaims(page); err != nil {
		return nil, fmt.Errorf("%w (from %q)", err, filename)
	}

	ch, ok := b.chapters[index]
	if !ok {
		ch = &Chapter{Index: index}
		b.chapters[index] = ch
	}
	ch.Pages = append(ch.Pages, page)
	b.claim(page)
	return page, nil
}

func claimKeys(p *Page) []string {
	return []string{"id " + p.ID, "id " + p.XHTMLID, "path " + p.ImagePath, "path " + p.XHTMLPath}
}

func (b *Book) claim(p *Page) {
	for _, key := range claimKeys(p) {
		b.claimed[key] = struct{}{}
	}
}

func (b *Book) checkClaims(p *Page) error {
	for _, key := range claimKeys(p) {
		if _, taken := b.claimed[key]; taken {
			return fmt.Errorf("%w: %s", ErrDuplicatePage, key)
		}
	}
	return nil
}

// CheckChapter reports whether pages may be added to chapter index.
func CheckChapter(index int) error {
	return checkPageChapter(index)
}

func checkPageChapter(index int) error {
	switch {
	case index < 0:
		return fmt.Errorf("%w: %d", ErrInvalidChapter, index)
	case index == 0:
		return ErrReservedChapter
	}
	return nil
}

// Cover returns the cover page, or nil before SetCover.
func (b *Book) Cover() *Page {
	return b.cover
}

// Chapters returns the chapters in ascending index order.
func (b *Book) Chapters() []*Chapter {
	indices := make([]int, 0, len(b.chapters))
	for i := range b.chapters {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	chapters := make([]*Chapter, 0, len(indices))
	for _, i := range indices {
		chapters = append(chapters, b.chapters[i])
	}
	return chapters
}

// Pages returns every page in reading order: chapter order, then page order.
func (b *Book) Pages() []*Page {
	var pages []*Page
	for _, ch := range b.Chapters() {
		pages = append(pages, ch.Pages...)
	}
	return pages
}

// PageCount returns the number of pages, cover included.
func (b *Book) PageCount() int {
	n := 0
	for _, ch := range b.chapters {
		n += len(ch.Pages)
	}
	return n
}

// checkRenderable reports ErrEmptyBook unless chapter 0 holds the cover.
func (b *Book) checkRenderable() error {
	ch, ok := b.chapters[0]
	if !ok || len(ch.Pages) == 0 {
		return ErrEmptyBook
	}
	return nil
}
