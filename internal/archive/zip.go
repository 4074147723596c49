// Package archive implements the ZIP sink EPUB containers are written into.
package archive

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// MimetypeName is the name of the entry that must open every EPUB container.
const MimetypeName = "mimetype"

// ErrFinalized is returned when appending to a sink that was already finalized.
var ErrFinalized = errors.New("archive: sink already finalized")

// deflated lists extensions worth compressing; images are stored as-is.
var deflated = map[string]bool{
	".xhtml": true,
	".html":  true,
	".opf":   true,
	".ncx":   true,
	".xml":   true,
	".css":   true,
	".svg":   true,
}

// ZipSink appends entries to a ZIP stream in call order.
type ZipSink struct {
	zw       *zip.Writer
	modified time.Time
	entries  int
	closed   bool
}

// NewZipSink creates a sink that streams the archive into w, stamping every
// entry with modified. A zero modified means the current time.
// Closing w remains the caller's responsibility.
func NewZipSink(w io.Writer, modified time.Time) *ZipSink {
	if modified.IsZero() {
		modified = time.Now()
	}
	return &ZipSink{
		zw:       zip.NewWriter(w),
		modified: modified.UTC(),
	}
}

// Append writes data as a new entry called name.
// The mimetype entry and already-compressed media are stored; markup is deflated.
func (s *ZipSink) Append(data []byte, name string) error {
	if s.closed {
		return ErrFinalized
	}

	method := zip.Store
	if name != MimetypeName && deflated[strings.ToLower(path.Ext(name))] {
		method = zip.Deflate
	}

	header := &zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: s.modified,
	}

	var (
		w   io.Writer
		err error
	)
	if method == zip.Store {
		// Raw entries carry their sizes in the local header, with no data descriptor.
		header.CRC32 = crc32.ChecksumIEEE(data)
		header.CompressedSize64 = uint64(len(data))
		header.UncompressedSize64 = uint64(len(data))
		w, err = s.zw.CreateRaw(header)
	} else {
		w, err = s.zw.CreateHeader(header)
	}
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}

	s.entries++
	return nil
}

// Finalize writes the central directory. The sink accepts no entries afterwards.
func (s *ZipSink) Finalize() error {
	if s.closed {
		return ErrFinalized
	}
	s.closed = true
	if err := s.zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// Entries returns how many entries have been appended so far.
func (s *ZipSink) Entries() int {
	return s.entries
}
