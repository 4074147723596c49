package epub

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/perillamint/cbz2epub/internal/archive"
)

type testEntry struct {
	name   string
	body   string
	method uint16
}

const testContainer = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// buildZip writes entries in order, storing or deflating as requested.
func buildZip(t *testing.T, entries []testEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.body)); err != nil {
			t.Fatalf("failed to write %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// buildTestEPUB produces a complete book through Writer and ZipSink.
func buildTestEPUB(t *testing.T, pages ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	sink := archive.NewZipSink(&buf, testTime)
	w, err := NewWriter(sink, WriterConfig{Meta: testMeta(), Probe: fakeProbe, NewID: sequentialIDs()})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.AddCover([]byte("cover")); err != nil {
		t.Fatalf("AddCover failed: %v", err)
	}
	for i, name := range pages {
		if err := w.AddPage(1+i/2, []byte("page"), name); err != nil {
			t.Fatalf("AddPage(%q) failed: %v", name, err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	return buf.Bytes()
}

func openBytes(data []byte) (*Reader, error) {
	return NewReader(bytes.NewReader(data), int64(len(data)))
}

func TestOpen_ValidEPUB(t *testing.T) {
	dir := t.TempDir()
	epubPath := filepath.Join(dir, "test.epub")
	if err := os.WriteFile(epubPath, buildTestEPUB(t, "p1.jpg"), 0o644); err != nil {
		t.Fatalf("failed to write epub: %v", err)
	}

	r, err := Open(epubPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	if r.OPFPath() != "OEBPS/content.opf" {
		t.Errorf("OPFPath() = %q, want %q", r.OPFPath(), "OEBPS/content.opf")
	}
	if entries := r.Entries(); entries[0] != "mimetype" {
		t.Errorf("Entries()[0] = %q, want mimetype", entries[0])
	}
	if !r.Has("OEBPS/img/p1.jpg") {
		t.Error("Has(OEBPS/img/p1.jpg) = false, want true")
	}

	data, err := r.ReadFile("OEBPS/img/p1.jpg")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "page" {
		t.Errorf("ReadFile = %q, want %q", data, "page")
	}
	if _, err := r.ReadFile("missing.txt"); err == nil {
		t.Error("ReadFile should fail for a missing entry")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.epub")); err == nil {
		t.Error("Open should fail for a missing file")
	}
}

func TestNewReader_StructureErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []testEntry
		want    error
	}{
		{
			name: "invalid mimetype",
			entries: []testEntry{
				{name: "mimetype", body: "text/plain", method: zip.Store},
			},
			want: ErrInvalidMimetype,
		},
		{
			name: "compressed mimetype",
			entries: []testEntry{
				{name: "mimetype", body: "application/epub+zip", method: zip.Deflate},
			},
			want: ErrMimetypeCompressed,
		},
		{
			name: "missing mimetype",
			entries: []testEntry{
				{name: "META-INF/container.xml", body: testContainer, method: zip.Deflate},
			},
			want: ErrMimetypeNotFound,
		},
		{
			name: "mimetype not first",
			entries: []testEntry{
				{name: "META-INF/container.xml", body: testContainer, method: zip.Deflate},
				{name: "mimetype", body: "application/epub+zip", method: zip.Store},
			},
			want: ErrMimetypeNotFirst,
		},
		{
			name: "missing container",
			entries: []testEntry{
				{name: "mimetype", body: "application/epub+zip", method: zip.Store},
			},
			want: ErrContainerNotFound,
		},
		{
			name: "container without rootfile",
			entries: []testEntry{
				{name: "mimetype", body: "application/epub+zip", method: zip.Store},
				{name: "META-INF/container.xml", body: `<container><rootfiles/></container>`, method: zip.Deflate},
			},
			want: ErrOPFPathNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := openBytes(buildZip(t, tt.entries))
			if !errors.Is(err, tt.want) {
				t.Errorf("NewReader error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewReader_NotAZip(t *testing.T) {
	if _, err := openBytes([]byte("definitely not a zip")); err == nil {
		t.Error("NewReader should fail on non-zip data")
	}
}

func TestReader_ReadOPF(t *testing.T) {
	r, err := openBytes(buildTestEPUB(t, "p1.jpg", "p2.jpg"))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	opf, err := r.ReadOPF()
	if err != nil {
		t.Fatalf("ReadOPF failed: %v", err)
	}
	if opf.Metadata.Title != "Test Comic" {
		t.Errorf("Title = %q, want %q", opf.Metadata.Title, "Test Comic")
	}
	if len(opf.Spine) != 3 {
		t.Errorf("len(Spine) = %d, want 3", len(opf.Spine))
	}
	if item := opf.Manifest["IMAGE_p2_jpg"]; item.Href != "OEBPS/img/p2.jpg" {
		t.Errorf("Href = %q, want %q", item.Href, "OEBPS/img/p2.jpg")
	}
}
