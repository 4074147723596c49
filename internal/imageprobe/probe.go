// Package imageprobe sniffs the media type and pixel size of raster images.
package imageprobe

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnrecognizedImage is returned for input that is not a supported, decodable image.
var ErrUnrecognizedImage = errors.New("unrecognized image")

// Info describes a probed image.
type Info struct {
	MIME   string // e.g. "image/jpeg"
	Ext    string // extension without the dot, e.g. "jpg"
	Width  int
	Height int
}

// coreTypes are the raster media types an EPUB 3 reading system must support.
var coreTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Probe detects the media type of data and decodes its dimensions.
// Only EPUB core raster types are accepted.
func Probe(data []byte) (Info, error) {
	mime := Detect(data)
	ext, ok := coreTypes[mime]
	if !ok {
		return Info{}, fmt.Errorf("%w: unsupported media type %q", ErrUnrecognizedImage, mime)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnrecognizedImage, err)
	}

	return Info{
		MIME:   mime,
		Ext:    ext,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Detect returns the sniffed media type of data without parameters.
func Detect(data []byte) string {
	m := mimetype.Detect(data)
	mime, _, _ := strings.Cut(m.String(), ";")
	return strings.TrimSpace(mime)
}

// IsCoreType reports whether mime is a raster type EPUB readers must support.
func IsCoreType(mime string) bool {
	_, ok := coreTypes[strings.ToLower(mime)]
	return ok
}
