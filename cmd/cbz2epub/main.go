package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/perillamint/cbz2epub/internal/config"
	"github.com/perillamint/cbz2epub/internal/converter"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cbz2epub",
		Short: "Convert comic archives to fixed-layout EPUB",
		Long: `cbz2epub packs the page images of a .cbz/.zip archive or a directory
into a fixed-layout EPUB 3 book. The first image becomes the cover and
every further image one page.`,
		SilenceUsage: true,
	}
	root.AddCommand(newConvertCmd(), newVerifyCmd())
	return root
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert INPUT",
		Short: "Convert an archive or directory of images to EPUB",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvert,
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file path (default: input with .epub extension)")
	f.String("config", "", "TOML configuration file")
	f.String("title", "", "Book title (default: input file name)")
	f.String("creator", "", "Book creator")
	f.String("language", "", "BCP 47 language tag")
	f.String("direction", "", "Page progression direction: ltr, rtl or default")
	f.String("chapter-name", "", "Name of the chapter holding the pages")
	f.Bool("split-chapters", false, "Make each top-level directory its own chapter")
	f.Int("max-image-width", 0, "Downscale pages wider than this (0 keeps the original)")
	f.Int("quality", 0, "JPEG quality for re-encoded pages (1-100)")
	f.String("stylesheet", "", "CSS file replacing the built-in stylesheet")
	f.String("log-level", "", "Log level: debug, info, warn, error")
	f.String("log-format", "", "Log format: text, json")
	f.BoolP("verbose", "v", false, "Enable debug logging")
	f.Bool("no-progress", false, "Disable the progress bar")
	return cmd
}

// cliOptions are the resolved settings of one convert run.
type cliOptions struct {
	converter.ConvertOptions
	NoProgress bool
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}

	var bar *progress
	if !opts.NoProgress && isTerminal(cmd.ErrOrStderr()) {
		bar = newProgress(cmd.ErrOrStderr())
		opts.OnPage = bar.update
	}

	opts.Logger.Info("converting",
		slog.String("input", opts.InputPath),
		slog.String("output", opts.OutputPath),
	)
	res, err := converter.NewPipeline(opts.ConvertOptions).Convert()
	bar.finish()
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d chapters\n", opts.OutputPath, res.Pages, res.Chapters)
	return nil
}

// readCLIOptions loads the configuration file and applies the flags that were
// set explicitly on top of it.
func readCLIOptions(cmd *cobra.Command, args []string) (cliOptions, error) {
	f := cmd.Flags()
	inputPath := args[0]

	configPath, _ := f.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return cliOptions{}, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return cliOptions{}, err
	}
	if verbose, _ := f.GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Resolve(); err != nil {
		return cliOptions{}, err
	}

	if cfg.Book.Title == "" {
		cfg.Book.Title = titleFromPath(inputPath)
	}
	meta, err := cfg.BookMeta()
	if err != nil {
		return cliOptions{}, err
	}

	outputPath, _ := f.GetString("output")
	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath)
	}
	noProgress, _ := f.GetBool("no-progress")

	return cliOptions{
		ConvertOptions: converter.ConvertOptions{
			InputPath:      inputPath,
			OutputPath:     outputPath,
			Meta:           meta,
			ChapterName:    cfg.Book.ChapterName,
			SplitChapters:  cfg.Book.SplitChapters,
			MaxImageWidth:  cfg.Images.MaxWidth,
			JPEGQuality:    cfg.Images.JPEGQuality,
			StylesheetPath: cfg.Images.Stylesheet,
			Logger:         buildLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format),
		},
		NoProgress: noProgress,
	}, nil
}

// applyFlags copies explicitly set flags into cfg, rejecting bad values with
// the flag name.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()

	strs := map[string]*string{
		"title":        &cfg.Book.Title,
		"creator":      &cfg.Book.Creator,
		"language":     &cfg.Book.Language,
		"direction":    &cfg.Book.Direction,
		"chapter-name": &cfg.Book.ChapterName,
		"stylesheet":   &cfg.Images.Stylesheet,
		"log-level":    &cfg.Logging.Level,
		"log-format":   &cfg.Logging.Format,
	}
	for name, dst := range strs {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	if f.Changed("split-chapters") {
		cfg.Book.SplitChapters, _ = f.GetBool("split-chapters")
	}

	if f.Changed("quality") {
		q, _ := f.GetInt("quality")
		if q < 1 || q > 100 {
			return fmt.Errorf("--quality must be between 1 and 100, got %d", q)
		}
		cfg.Images.JPEGQuality = q
	}
	if f.Changed("max-image-width") {
		w, _ := f.GetInt("max-image-width")
		if w < 0 {
			return fmt.Errorf("--max-image-width must be >= 0, got %d", w)
		}
		cfg.Images.MaxWidth = w
	}

	if f.Changed("direction") {
		switch strings.ToLower(cfg.Book.Direction) {
		case "ltr", "rtl", "default":
		default:
			return fmt.Errorf("--direction must be ltr, rtl or default, got %q", cfg.Book.Direction)
		}
	}
	if f.Changed("log-level") {
		switch strings.ToLower(cfg.Logging.Level) {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("--log-level must be one of debug, info, warn, error, got %q", cfg.Logging.Level)
		}
	}
	if f.Changed("log-format") {
		switch strings.ToLower(cfg.Logging.Format) {
		case "text", "json":
		default:
			return fmt.Errorf("--log-format must be text or json, got %q", cfg.Logging.Format)
		}
	}
	return nil
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// defaultOutputPath puts the EPUB next to the input, dropping a .cbz or .zip
// extension.
func defaultOutputPath(inputPath string) string {
	p := strings.TrimRight(inputPath, `/\`)
	switch strings.ToLower(filepath.Ext(p)) {
	case ".cbz", ".zip":
		p = strings.TrimSuffix(p, filepath.Ext(p))
	}
	return p + ".epub"
}

func titleFromPath(inputPath string) string {
	return strings.TrimSuffix(filepath.Base(defaultOutputPath(inputPath)), ".epub")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
