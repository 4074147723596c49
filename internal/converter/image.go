package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"path"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/perillamint/cbz2epub/internal/imageprobe"
)

const (
	defaultJPEGQuality = 90
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// ImageOptimizer makes page images fit for a fixed-layout EPUB.
type ImageOptimizer struct {
	MaxWidth    int // 0 keeps the original width
	JPEGQuality int
	MaxPixels   int // Total pixel count limit for decode (width * height)
}

// OptimizedImage holds optimized image data.
// Warning is set when the image was returned as-is because it could not be
// processed; Data is still the caller's best option.
type OptimizedImage struct {
	Data      []byte
	Name      string // input name, extension adjusted when the format changed
	Format    string
	Width     int
	Height    int
	Converted bool
	Resized   bool
	Warning   string
}

// NewImageOptimizer creates an image optimizer with defaults.
func NewImageOptimizer(maxWidth, quality int) *ImageOptimizer {
	if maxWidth < 0 {
		maxWidth = 0
	}
	if quality <= 0 {
		quality = defaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}
	return &ImageOptimizer{
		MaxWidth:    maxWidth,
		JPEGQuality: quality,
		MaxPixels:   defaultMaxPixels,
	}
}

// Optimize returns input unchanged when it is an EPUB core type that needs no
// resize. Other raster formats are re-encoded, and pages wider than MaxWidth
// are scaled down. The cover keeps its size.
func (o *ImageOptimizer) Optimize(name string, input []byte, isCover bool) (OptimizedImage, error) {
	mime := imageprobe.Detect(input)
	out := OptimizedImage{
		Data:   input,
		Name:   name,
		Format: formatFromMIME(mime),
	}

	cfg, _, cfgErr := image.DecodeConfig(bytes.NewReader(input))
	if cfgErr == nil {
		out.Width = cfg.Width
		out.Height = cfg.Height
	}

	core := imageprobe.IsCoreType(mime)
	needsResize := !isCover && o.MaxWidth > 0 && cfgErr == nil && cfg.Width > o.MaxWidth
	if core && !needsResize {
		return out, nil
	}

	if cfgErr == nil {
		pixels := uint64(cfg.Width) * uint64(cfg.Height)
		if o.MaxPixels > 0 && pixels > uint64(o.MaxPixels) {
			out.Warning = fmt.Sprintf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
			return out, nil
		}
	}

	if mime == "image/gif" {
		if animated, err := isAnimatedGIF(input); err == nil && animated {
			out.Warning = "animated GIF kept at original size"
			return out, nil
		}
	}

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out, nil
	}

	processed := src
	if needsResize {
		processed = imaging.Resize(src, o.MaxWidth, 0, imaging.Lanczos)
		out.Resized = true
	}

	target := chooseTargetFormat(out.Format)
	data, err := o.encode(processed, target)
	if err != nil {
		return out, err
	}

	out.Data = data
	out.Width = processed.Bounds().Dx()
	out.Height = processed.Bounds().Dy()
	out.Converted = target != out.Format
	out.Format = target
	if out.Converted {
		out.Name = replaceExt(name, extFor(target))
	}
	return out, nil
}

func (o *ImageOptimizer) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(o.JPEGQuality))
	default:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err != nil {
		return nil, fmt.Errorf("%s encode failed: %w", format, err)
	}
	return buf.Bytes(), nil
}

// chooseTargetFormat keeps lossy sources lossy and everything else lossless.
func chooseTargetFormat(format string) string {
	switch format {
	case "jpeg", "webp":
		return "jpeg"
	}
	return "png"
}

func formatFromMIME(mime string) string {
	switch mime {
	case "image/jpeg":
		return "jpeg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	}
	return ""
}

func extFor(format string) string {
	if format == "jpeg" {
		return ".jpg"
	}
	return "." + format
}

// replaceExt swaps the extension of a slash separated name.
func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

func isAnimatedGIF(data []byte) (bool, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	return len(g.Image) > 1, nil
}
