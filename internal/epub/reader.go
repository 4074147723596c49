package epub

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Reader provides access to the entries of an existing EPUB.
type Reader struct {
	zr      *zip.Reader
	closer  io.Closer
	files   map[string]*zip.File
	order   []string
	opfPath string
}

// container.xml structure
type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// Open opens the EPUB at name and validates its container structure.
func Open(name string) (*Reader, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat EPUB: %w", err)
	}

	r, err := NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader reads an EPUB of the given size from ra.
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	r := &Reader{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		name := normalizePath(f.Name)
		r.files[name] = f
		r.order = append(r.order, name)
	}

	if err := r.validateMimetype(); err != nil {
		return nil, err
	}
	if err := r.parseContainer(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// OPFPath returns the entry name of the package document.
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// Entries returns the entry names in archive order.
func (r *Reader) Entries() []string {
	return r.order
}

// Has reports whether the archive holds an entry called name.
func (r *Reader) Has(name string) bool {
	_, ok := r.files[normalizePath(name)]
	return ok
}

// ReadFile reads the contents of a file from the EPUB.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	name = normalizePath(name)
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// validateMimetype checks that mimetype is the first entry, stored and valid.
func (r *Reader) validateMimetype() error {
	f, ok := r.files[MimetypePath]
	if !ok {
		return ErrMimetypeNotFound
	}
	if r.order[0] != MimetypePath {
		return ErrMimetypeNotFirst
	}
	if f.Method != zip.Store {
		return ErrMimetypeCompressed
	}

	content, err := r.ReadFile(MimetypePath)
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}
	if string(content) != MimetypeValue {
		return ErrInvalidMimetype
	}
	return nil
}

// parseContainer parses container.xml to extract OPF path
func (r *Reader) parseContainer() error {
	content, err := r.ReadFile(ContainerPath)
	if err != nil {
		return ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("failed to parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles {
		if rf.MediaType == mediaTypeOPFPkg || rf.MediaType == "" {
			r.opfPath = normalizePath(rf.FullPath)
			return nil
		}
	}
	if len(c.Rootfiles) > 0 {
		r.opfPath = normalizePath(c.Rootfiles[0].FullPath)
		return nil
	}
	return ErrOPFPathNotFound
}

// ReadOPF reads and parses the package document.
func (r *Reader) ReadOPF() (*OPF, error) {
	content, err := r.ReadFile(r.opfPath)
	if err != nil {
		return nil, err
	}
	return ParseOPF(content, path.Dir(r.opfPath))
}

// normalizePath removes a leading ./ from entry names.
func normalizePath(name string) string {
	return strings.TrimPrefix(name, "./")
}
