package epub

import (
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/perillamint/cbz2epub/internal/imageprobe"
)

//go:embed style.css
var defaultStylesheet []byte

// Sink receives archive entries in the order they are appended. The first
// entry it receives is always the mimetype, which it must store uncompressed.
type Sink interface {
	Append(data []byte, name string) error
	Finalize() error
}

// ProbeFunc sniffs the media type and pixel size of an image.
type ProbeFunc func(data []byte) (ImageInfo, error)

// WriterConfig holds configuration for creating a Writer.
type WriterConfig struct {
	Meta       Meta
	Probe      ProbeFunc        // nil means imageprobe.Probe
	NewID      func() string    // book uuid and unnamed page ids; nil means uuid.NewString
	Now        func() time.Time // dcterms:modified clock; nil means time.Now
	Stylesheet []byte           // nil means the built-in stylesheet
	Logger     *slog.Logger
}

type writerState int

const (
	stateOpen writerState = iota
	stateFinalized
)

// Writer assembles a book and streams it into a Sink.
// Calls must not overlap.
type Writer struct {
	sink  Sink
	book  *Book
	cfg   WriterConfig
	log   *slog.Logger
	state writerState
}

// ProbeImage adapts imageprobe.Probe to a ProbeFunc.
func ProbeImage(data []byte) (ImageInfo, error) {
	info, err := imageprobe.Probe(data)
	if err != nil {
		return ImageInfo{}, err
	}
	return ImageInfo{MIME: info.MIME, Ext: info.Ext, Width: info.Width, Height: info.Height}, nil
}

// NewWriter validates the metadata and opens the container by appending the
// mimetype entry.
func NewWriter(sink Sink, cfg WriterConfig) (*Writer, error) {
	if err := cfg.Meta.Validate(); err != nil {
		return nil, err
	}
	if cfg.Probe == nil {
		cfg.Probe = ProbeImage
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Stylesheet == nil {
		cfg.Stylesheet = defaultStylesheet
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Writer{
		sink: sink,
		book: NewBook(cfg.NewID(), cfg.Meta),
		cfg:  cfg,
		log:  logger,
	}

	if err := sink.Append([]byte(MimetypeValue), MimetypePath); err != nil {
		return nil, fmt.Errorf("failed to write mimetype: %w", err)
	}
	return w, nil
}

// Book returns the model assembled so far.
func (w *Writer) Book() *Book {
	return w.book
}

// AddCover adds the cover image as chapter 0. It may be called once; a second
// call fails with ErrDuplicatePage and appends nothing.
func (w *Writer) AddCover(data []byte) error {
	if w.state != stateOpen {
		return ErrClosedBook
	}

	info, err := w.probe(data, "cover")
	if err != nil {
		return err
	}
	page, err := w.book.SetCover(info)
	if err != nil {
		return err
	}
	return w.emitPage(page, data, "Cover")
}

// SetChapterMeta names a chapter, creating it if needed.
func (w *Writer) SetChapterMeta(index int, name string) error {
	if w.state != stateOpen {
		return ErrClosedBook
	}
	return w.book.SetChapterMeta(index, name)
}

// AddPage appends an image to chapter index. An empty filename gets a random
// one. The wrapper's alt text numbers pages in call order, cover included,
// since the wrapper is written before later calls can change reading order.
func (w *Writer) AddPage(index int, data []byte, filename string) error {
	if w.state != stateOpen {
		return ErrClosedBook
	}
	if err := CheckChapter(index); err != nil {
		return err
	}

	label := filename
	if label == "" {
		label = "unnamed page"
	}
	info, err := w.probe(data, label)
	if err != nil {
		return err
	}
	if filename == "" {
		filename = w.cfg.NewID() + "." + info.Ext
	}

	page, err := w.book.AddPage(index, filename, info)
	if err != nil {
		return err
	}
	alt := fmt.Sprintf("Page %d", w.book.PageCount())
	return w.emitPage(page, data, alt)
}

func (w *Writer) probe(data []byte, name string) (ImageInfo, error) {
	info, err := w.cfg.Probe(data)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to probe %s: %w", name, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return ImageInfo{}, fmt.Errorf("%s: %w", name, ErrImageProbe)
	}
	return info, nil
}

// emitPage appends the raw image and its rendered wrapper.
func (w *Writer) emitPage(page *Page, data []byte, alt string) error {
	xhtml, err := RenderPage(pageDocument(w.book.Meta, page, alt))
	if err != nil {
		return err
	}
	if err := w.sink.Append(data, archivePath(page.ImagePath)); err != nil {
		return err
	}
	if err := w.sink.Append(xhtml, archivePath(page.XHTMLPath)); err != nil {
		return err
	}

	w.log.Debug("page added",
		slog.String("id", page.ID),
		slog.String("image", page.ImagePath),
		slog.Int("width", page.Width),
		slog.Int("height", page.Height),
	)
	return nil
}

// Finalize writes the container descriptor, package document, navigation
// documents and stylesheet, then finalizes the sink. Every document is
// rendered before the first of them is appended.
func (w *Writer) Finalize() error {
	if w.state != stateOpen {
		return ErrClosedBook
	}

	opfPath := PackageDocumentPath()
	container, err := RenderContainer(opfPath)
	if err != nil {
		return err
	}
	pkg, err := RenderPackage(w.book, w.cfg.Now())
	if err != nil {
		return fmt.Errorf("failed to render package document: %w", err)
	}
	nav, err := RenderNav(w.book)
	if err != nil {
		return fmt.Errorf("failed to render navigation document: %w", err)
	}
	ncx, err := RenderNCX(w.book)
	if err != nil {
		return fmt.Errorf("failed to render NCX: %w", err)
	}

	entries := []struct {
		name string
		data []byte
	}{
		{ContainerPath, container},
		{opfPath, pkg},
		{archivePath(NavPath), nav},
		{archivePath(NCXPath), ncx},
		{archivePath(StylesheetPath), w.cfg.Stylesheet},
	}
	for _, e := range entries {
		if err := w.sink.Append(e.data, e.name); err != nil {
			return err
		}
	}

	w.state = stateFinalized
	if err := w.sink.Finalize(); err != nil {
		return err
	}

	w.log.Debug("book finalized",
		slog.String("uuid", w.book.UUID),
		slog.Int("pages", w.book.PageCount()),
	)
	return nil
}
