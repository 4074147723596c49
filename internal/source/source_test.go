package source

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

func writeArchive(t *testing.T, fs afero.Fs, name string, files map[string]string, order []string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, n := range order {
		fw, err := w.Create(n)
		if err != nil {
			t.Fatalf("failed to create %s: %v", n, err)
		}
		if _, err := fw.Write([]byte(files[n])); err != nil {
			t.Fatalf("failed to write %s: %v", n, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	if err := afero.WriteFile(fs, name, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
}

func entryNames(src *Source) []string {
	var names []string
	for _, e := range src.Entries() {
		names = append(names, e.Name)
	}
	return names
}

func TestOpen_Archive(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"page10.jpg":           "ten",
		"page2.jpg":            "two",
		"page1.PNG":            "one",
		"notes.txt":            "skip",
		"__MACOSX/._page1.jpg": "junk",
		".hidden.jpg":          "junk",
		"extras/":              "",
	}
	writeArchive(t, fs, "/comics/book.cbz", files,
		[]string{"page10.jpg", "notes.txt", "page2.jpg", "__MACOSX/._page1.jpg", "page1.PNG", ".hidden.jpg", "extras/"})

	src, err := Open(fs, "/comics/book.cbz")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	got := strings.Join(entryNames(src), ",")
	want := "page1.PNG,page2.jpg,page10.jpg"
	if got != want {
		t.Fatalf("Entries() = %s, want %s", got, want)
	}

	data, err := src.ReadFile(src.Entries()[2])
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "ten" {
		t.Errorf("ReadFile = %q, want %q", data, "ten")
	}
}

func TestOpen_Directory(t *testing.T) {
	fs := afero.NewMemMapFs()
	for name, body := range map[string]string{
		"/in/cover.jpg":          "cover",
		"/in/ch10/001.jpg":       "c10",
		"/in/ch2/002.webp":       "c2b",
		"/in/ch2/001.jpg":        "c2a",
		"/in/.git/objects/x.png": "junk",
		"/in/ch2/readme.md":      "skip",
	} {
		if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	src, err := Open(fs, "/in")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	got := strings.Join(entryNames(src), ",")
	want := "ch2/001.jpg,ch2/002.webp,ch10/001.jpg,cover.jpg"
	if got != want {
		t.Fatalf("Entries() = %s, want %s", got, want)
	}

	entries := src.Entries()
	if entries[0].Dir() != "ch2" || entries[3].Dir() != "" {
		t.Errorf("Dir() = %q, %q, want %q, %q", entries[0].Dir(), entries[3].Dir(), "ch2", "")
	}
	if entries[1].Base() != "002.webp" {
		t.Errorf("Base() = %q, want %q", entries[1].Base(), "002.webp")
	}

	data, err := src.ReadFile(entries[1])
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "c2b" {
		t.Errorf("ReadFile = %q, want %q", data, "c2b")
	}
}

func TestOpen_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/book.pdf", []byte("pdf"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := afero.WriteFile(fs, "/broken.cbz", []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := fs.MkdirAll("/empty", 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	writeArchive(t, fs, "/text.zip", map[string]string{"a.txt": "x"}, []string{"a.txt"})

	if _, err := Open(fs, "/missing.cbz"); err == nil {
		t.Error("Open should fail for a missing path")
	}
	if _, err := Open(fs, "/book.pdf"); !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("Open(pdf) error = %v, want ErrUnsupportedSource", err)
	}
	if _, err := Open(fs, "/broken.cbz"); err == nil {
		t.Error("Open should fail for a corrupt archive")
	}
	if _, err := Open(fs, "/empty"); !errors.Is(err, ErrNoImages) {
		t.Errorf("Open(empty dir) error = %v, want ErrNoImages", err)
	}
	if _, err := Open(fs, "/text.zip"); !errors.Is(err, ErrNoImages) {
		t.Errorf("Open(text zip) error = %v, want ErrNoImages", err)
	}
}

func TestIsPageImage(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"dir/sub/A.JPEG", true},
		{"x.tiff", true},
		{"x.svg", false},
		{"__MACOSX/a.jpg", false},
		{"dir/.thumb.png", false},
		{"jpg", false},
	}
	for _, tt := range tests {
		if got := isPageImage(tt.name); got != tt.want {
			t.Errorf("isPageImage(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
