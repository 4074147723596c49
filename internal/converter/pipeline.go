package converter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/perillamint/cbz2epub/internal/archive"
	"github.com/perillamint/cbz2epub/internal/epub"
	"github.com/perillamint/cbz2epub/internal/source"
)

// DefaultChapterName labels the single chapter of an unsplit book.
const DefaultChapterName = "Chapter 1"

// ConvertOptions holds options for the conversion pipeline.
type ConvertOptions struct {
	InputPath      string
	OutputPath     string
	Meta           epub.Meta
	ChapterName    string // used when SplitChapters is off, and for loose pages
	SplitChapters  bool   // one chapter per top-level directory
	MaxImageWidth  int    // 0 keeps original widths
	JPEGQuality    int
	StylesheetPath string // empty means the built-in stylesheet

	Fs     afero.Fs // nil means the OS filesystem
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string

	// OnPage is called after each image is written, cover included.
	OnPage func(done, total int)
}

// Result summarizes a finished conversion.
type Result struct {
	Pages     int // cover included
	Chapters  int // cover chapter included
	Converted int // images re-encoded to another format
	Resized   int
}

// Pipeline orchestrates the comic to EPUB conversion.
type Pipeline struct {
	Options ConvertOptions

	fs        afero.Fs
	log       *slog.Logger
	optimizer *ImageOptimizer
}

// NewPipeline creates a new conversion pipeline.
func NewPipeline(opts ConvertOptions) *Pipeline {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChapterName == "" {
		opts.ChapterName = DefaultChapterName
	}
	return &Pipeline{
		Options:   opts,
		fs:        fs,
		log:       logger,
		optimizer: NewImageOptimizer(opts.MaxImageWidth, opts.JPEGQuality),
	}
}

// Convert executes the conversion pipeline. The first image of the source
// becomes the cover. On failure the partial output file is removed.
func (p *Pipeline) Convert() (res Result, err error) {
	src, err := source.Open(p.fs, p.Options.InputPath)
	if err != nil {
		return res, err
	}
	defer src.Close()

	var stylesheet []byte
	if p.Options.StylesheetPath != "" {
		stylesheet, err = afero.ReadFile(p.fs, p.Options.StylesheetPath)
		if err != nil {
			return res, fmt.Errorf("failed to read stylesheet: %w", err)
		}
	}

	out, err := p.fs.Create(p.Options.OutputPath)
	if err != nil {
		return res, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		out.Close()
		if rmErr := p.fs.Remove(p.Options.OutputPath); rmErr != nil {
			p.log.Warn("failed to remove partial output",
				slog.String("path", p.Options.OutputPath),
				slog.String("error", rmErr.Error()),
			)
		}
	}()

	now := time.Now
	if p.Options.Now != nil {
		now = p.Options.Now
	}
	stamp := now()

	w, err := epub.NewWriter(archive.NewZipSink(out, stamp), epub.WriterConfig{
		Meta:       p.Options.Meta,
		Stylesheet: stylesheet,
		Now:        func() time.Time { return stamp },
		NewID:      p.Options.NewID,
		Logger:     p.log,
	})
	if err != nil {
		return res, err
	}

	if err := p.writePages(w, src, &res); err != nil {
		return res, err
	}

	if err := w.Finalize(); err != nil {
		return res, fmt.Errorf("failed to finalize EPUB: %w", err)
	}
	if err := out.Close(); err != nil {
		return res, fmt.Errorf("failed to close output file: %w", err)
	}

	res.Chapters = len(w.Book().Chapters())
	p.log.Info("conversion complete",
		slog.String("output", p.Options.OutputPath),
		slog.Int("pages", res.Pages),
		slog.Int("chapters", res.Chapters),
	)
	return res, nil
}

// writePages adds the cover and every further page in source order.
func (p *Pipeline) writePages(w *epub.Writer, src *source.Source, res *Result) error {
	entries := src.Entries()
	plan := planChapters(entries[1:], p.Options.SplitChapters, p.Options.ChapterName)

	for i, entry := range entries {
		isCover := i == 0
		data, err := src.ReadFile(entry)
		if err != nil {
			return err
		}

		img, err := p.optimizer.Optimize(entry.Name, data, isCover)
		if err != nil {
			return fmt.Errorf("failed to process %s: %w", entry.Name, err)
		}
		p.logImage(entry, img, res)

		if isCover {
			err = w.AddCover(img.Data)
		} else {
			ch := plan.chapterOf[i-1]
			if !plan.named[ch] {
				if err := w.SetChapterMeta(ch, plan.names[ch]); err != nil {
					return err
				}
				plan.named[ch] = true
			}
			err = w.AddPage(ch, img.Data, img.Name)
		}
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", entry.Name, err)
		}

		res.Pages++
		if p.Options.OnPage != nil {
			p.Options.OnPage(res.Pages, len(entries))
		}
	}
	return nil
}

func (p *Pipeline) logImage(entry source.Entry, img OptimizedImage, res *Result) {
	if img.Warning != "" {
		p.log.Warn("image passed through unchanged",
			slog.String("entry", entry.Name),
			slog.String("reason", img.Warning),
		)
	}
	if img.Converted {
		res.Converted++
		p.log.Warn("image converted",
			slog.String("entry", entry.Name),
			slog.String("format", img.Format),
		)
	}
	if img.Resized {
		res.Resized++
	}
	p.log.Debug("image read",
		slog.String("entry", entry.Name),
		slog.Int("bytes", len(img.Data)),
		slog.Int("width", img.Width),
		slog.Int("height", img.Height),
	)
}

// chapterPlan maps each non-cover entry to a chapter index.
type chapterPlan struct {
	chapterOf []int
	names     map[int]string
	named     map[int]bool
}

// planChapters assigns chapter indices starting at 1. With split set, every
// top-level directory becomes a chapter in order of first appearance and
// loose files share one chapter called fallback.
func planChapters(entries []source.Entry, split bool, fallback string) chapterPlan {
	plan := chapterPlan{
		chapterOf: make([]int, len(entries)),
		names:     make(map[int]string),
		named:     make(map[int]bool),
	}

	index := make(map[string]int)
	for i, e := range entries {
		key := ""
		if split {
			key = e.Dir()
		}
		ch, ok := index[key]
		if !ok {
			ch = len(index) + 1
			index[key] = ch
			name := key
			if name == "" {
				name = fallback
			}
			plan.names[ch] = name
		}
		plan.chapterOf[i] = ch
	}
	return plan
}
