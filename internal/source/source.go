// Package source lists and reads the page images of a comic archive or
// directory.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"
	"github.com/maruel/natural"
	"github.com/spf13/afero"
)

// imagePattern matches the page images a source may contain.
const imagePattern = "**/*.{jpg,jpeg,png,gif,webp,bmp,tif,tiff}"

var (
	// ErrNoImages is returned when a source holds no page images.
	ErrNoImages = errors.New("no images found")

	// ErrUnsupportedSource is returned for inputs that are neither a
	// directory nor a .cbz/.zip archive.
	ErrUnsupportedSource = errors.New("unsupported source: want a directory, .cbz or .zip")
)

// Entry is one page image. Name is a slash separated path relative to the
// source root.
type Entry struct {
	Name string
}

// Dir returns the top-level directory of the entry, or "" for entries at
// the root.
func (e Entry) Dir() string {
	dir, _, ok := strings.Cut(e.Name, "/")
	if !ok {
		return ""
	}
	return dir
}

// Base returns the file name of the entry.
func (e Entry) Base() string {
	return path.Base(e.Name)
}

// Source is an opened comic input.
type Source struct {
	entries []Entry
	read    func(name string) ([]byte, error)
	closer  io.Closer
}

// Open opens the directory or archive at p on fs.
func Open(fs afero.Fs, p string) (*Source, error) {
	info, err := fs.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	if info.IsDir() {
		return openDir(fs, p)
	}

	switch strings.ToLower(filepath.Ext(p)) {
	case ".cbz", ".zip":
		return openArchive(fs, p, info.Size())
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, p)
}

// Entries returns the page images in natural name order.
func (s *Source) Entries() []Entry {
	return s.entries
}

// ReadFile returns the bytes of an entry.
func (s *Source) ReadFile(e Entry) ([]byte, error) {
	data, err := s.read(e.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.Name, err)
	}
	return data, nil
}

// Close releases the underlying archive, if any.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func openArchive(fs afero.Fs, p string, size int64) (*Source, error) {
	f, err := fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	zr, err := zip.NewReader(f, size)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read archive %s: %w", p, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	var names []string
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(strings.ReplaceAll(zf.Name, "\\", "/"), "./")
		if _, dup := files[name]; dup || !isPageImage(name) {
			continue
		}
		files[name] = zf
		names = append(names, name)
	}

	src, err := newSource(names, func(name string) ([]byte, error) {
		zf, ok := files[name]
		if !ok {
			return nil, os.ErrNotExist
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

func openDir(fs afero.Fs, root string) (*Source, error) {
	var names []string
	err := afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			if isJunk(path.Base(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if isPageImage(rel) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return newSource(names, func(name string) ([]byte, error) {
		return afero.ReadFile(fs, filepath.Join(root, filepath.FromSlash(name)))
	})
}

func newSource(names []string, read func(string) ([]byte, error)) (*Source, error) {
	if len(names) == 0 {
		return nil, ErrNoImages
	}
	sort.SliceStable(names, func(i, j int) bool {
		return natural.Less(names[i], names[j])
	})

	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{Name: n}
	}
	return &Source{entries: entries, read: read}, nil
}

// isPageImage reports whether name is an image outside any junk directory.
func isPageImage(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if isJunk(part) {
			return false
		}
	}
	ok, err := doublestar.Match(imagePattern, strings.ToLower(name))
	return err == nil && ok
}

// isJunk reports archiver metadata and hidden files.
func isJunk(part string) bool {
	return part == "__MACOSX" || strings.HasPrefix(part, ".")
}
