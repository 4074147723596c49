package epub

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"
)

// recordingSink keeps every appended entry in memory.
type recordingSink struct {
	names     []string
	data      map[string][]byte
	finalized int
	failOn    string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{data: make(map[string][]byte)}
}

var errSinkFailed = errors.New("sink failed")

func (s *recordingSink) Append(data []byte, name string) error {
	if s.failOn != "" && name == s.failOn {
		return errSinkFailed
	}
	s.names = append(s.names, name)
	s.data[name] = append([]byte(nil), data...)
	return nil
}

func (s *recordingSink) Finalize() error {
	s.finalized++
	return nil
}

// fakeProbe reports every image as a 800x1200 JPEG, unless the data starts
// with "png", "bad" or "flat".
func fakeProbe(data []byte) (ImageInfo, error) {
	s := string(data)
	switch {
	case strings.HasPrefix(s, "bad"):
		return ImageInfo{}, errors.New("unrecognized image")
	case strings.HasPrefix(s, "flat"):
		return ImageInfo{MIME: "image/jpeg", Ext: "jpg"}, nil
	case strings.HasPrefix(s, "png"):
		return ImageInfo{MIME: "image/png", Ext: "png", Width: 640, Height: 480}, nil
	}
	return ImageInfo{MIME: "image/jpeg", Ext: "jpg", Width: 800, Height: 1200}, nil
}

func testMeta() Meta {
	return Meta{
		Title:     "Test Comic",
		Language:  "en",
		Creator:   "Jane Artist",
		Direction: DirectionRTL,
	}
}

var testTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		if n == 1 {
			return "00000000-0000-4000-8000-000000000000"
		}
		return "rand" + string(rune('a'+n-2))
	}
}

func newTestWriter(t *testing.T, meta Meta) (*Writer, *recordingSink) {
	t.Helper()
	sink := newRecordingSink()
	w, err := NewWriter(sink, WriterConfig{
		Meta:  meta,
		Probe: fakeProbe,
		NewID: sequentialIDs(),
		Now:   func() time.Time { return testTime },
	})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	return w, sink
}

// newTestBook builds a book with a cover and the given pages per chapter.
func newTestBook(t *testing.T, meta Meta, chapters map[int][]string) *Book {
	t.Helper()
	if err := meta.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	b := NewBook("00000000-0000-4000-8000-000000000000", meta)
	if _, err := b.SetCover(ImageInfo{MIME: "image/jpeg", Ext: "jpg", Width: 800, Height: 1200}); err != nil {
		t.Fatalf("SetCover failed: %v", err)
	}
	for _, ch := range sortedKeys(chapters) {
		for _, name := range chapters[ch] {
			if _, err := b.AddPage(ch, name, ImageInfo{MIME: "image/jpeg", Ext: "jpg", Width: 800, Height: 1200}); err != nil {
				t.Fatalf("AddPage(%d, %q) failed: %v", ch, name, err)
			}
		}
	}
	return b
}

func sortedKeys(m map[int][]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func mustContain(t *testing.T, doc, want string) {
	t.Helper()
	if !strings.Contains(doc, want) {
		t.Errorf("output does not contain %q:\n%s", want, doc)
	}
}

func mustNotContain(t *testing.T, doc, unwanted string) {
	t.Helper()
	if strings.Contains(doc, unwanted) {
		t.Errorf("output unexpectedly contains %q:\n%s", unwanted, doc)
	}
}
