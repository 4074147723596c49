package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/perillamint/cbz2epub/internal/epub"
)

func convertCmdWithFlags(t *testing.T, flagArgs ...string) (cliOptions, error) {
	t.Helper()
	cmd := newConvertCmd()
	if err := cmd.ParseFlags(flagArgs); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return readCLIOptions(cmd, []string{"./input/book.cbz"})
}

func TestReadCLIOptions_Defaults(t *testing.T) {
	opts, err := convertCmdWithFlags(t)
	if err != nil {
		t.Fatalf("readCLIOptions() error = %v", err)
	}

	if opts.OutputPath != "./input/book.epub" {
		t.Fatalf("OutputPath = %q, want %q", opts.OutputPath, "./input/book.epub")
	}
	if opts.Meta.Title != "book" {
		t.Fatalf("Title = %q, want %q", opts.Meta.Title, "book")
	}
	if opts.Meta.Language != "en" {
		t.Fatalf("Language = %q, want %q", opts.Meta.Language, "en")
	}
	if opts.ChapterName != "Chapter 1" {
		t.Fatalf("ChapterName = %q, want %q", opts.ChapterName, "Chapter 1")
	}
	if opts.JPEGQuality != 90 {
		t.Fatalf("JPEGQuality = %d, want 90", opts.JPEGQuality)
	}
	if opts.SplitChapters || opts.NoProgress {
		t.Fatalf("SplitChapters, NoProgress = %v, %v, want false, false", opts.SplitChapters, opts.NoProgress)
	}
	if opts.Logger == nil {
		t.Fatal("Logger is nil, want non-nil")
	}
	if !opts.Logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("Logger should be enabled at INFO level by default")
	}
	if opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("Logger should not be enabled at DEBUG level by default")
	}
}

func TestReadCLIOptions_CustomFlags(t *testing.T) {
	opts, err := convertCmdWithFlags(t,
		"--output", "./out/custom.epub",
		"--title", "Harbor Lights",
		"--creator", "Mina",
		"--language", "ko",
		"--direction", "RTL",
		"--chapter-name", "Part One",
		"--split-chapters",
		"--max-image-width", "1440",
		"--quality", "75",
		"--stylesheet", "./page.css",
		"--log-level", "warn",
		"--verbose",
		"--no-progress",
	)
	if err != nil {
		t.Fatalf("readCLIOptions() error = %v", err)
	}

	if opts.OutputPath != "./out/custom.epub" {
		t.Fatalf("OutputPath = %q", opts.OutputPath)
	}
	if opts.Meta.Title != "Harbor Lights" || opts.Meta.Creator != "Mina" || opts.Meta.Language != "ko" {
		t.Fatalf("Meta = %+v", opts.Meta)
	}
	if opts.Meta.Direction != epub.DirectionRTL {
		t.Fatalf("Direction = %q, want %q", opts.Meta.Direction, epub.DirectionRTL)
	}
	if opts.ChapterName != "Part One" || !opts.SplitChapters {
		t.Fatalf("ChapterName, SplitChapters = %q, %v", opts.ChapterName, opts.SplitChapters)
	}
	if opts.MaxImageWidth != 1440 || opts.JPEGQuality != 75 {
		t.Fatalf("MaxImageWidth, JPEGQuality = %d, %d", opts.MaxImageWidth, opts.JPEGQuality)
	}
	if opts.StylesheetPath != "./page.css" {
		t.Fatalf("StylesheetPath = %q", opts.StylesheetPath)
	}
	if !opts.NoProgress {
		t.Fatal("NoProgress = false, want true")
	}
	// --verbose overrides log-level to debug
	if !opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("Logger should be enabled at DEBUG level when --verbose is set")
	}
}

func TestReadCLIOptions_ConfigFileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cbz2epub.toml")
	body := `
[book]
title = "From Config"
creator = "Config Author"
language = "ja"
direction = "rtl"
date = "2021-04-01"

[images]
max_width = 1200
jpeg_quality = 70

[logging]
level = "error"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	opts, err := convertCmdWithFlags(t, "--config", path, "--title", "From Flag", "--quality", "85")
	if err != nil {
		t.Fatalf("readCLIOptions() error = %v", err)
	}

	if opts.Meta.Title != "From Flag" {
		t.Fatalf("Title = %q, want flag value", opts.Meta.Title)
	}
	if opts.Meta.Creator != "Config Author" || opts.Meta.Language != "ja" {
		t.Fatalf("Meta = %+v, want config values", opts.Meta)
	}
	if opts.Meta.Date.Year() != 2021 {
		t.Fatalf("Date = %v, want 2021-04-01", opts.Meta.Date)
	}
	if opts.JPEGQuality != 85 || opts.MaxImageWidth != 1200 {
		t.Fatalf("JPEGQuality, MaxImageWidth = %d, %d, want 85, 1200", opts.JPEGQuality, opts.MaxImageWidth)
	}
	if opts.Logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("Logger should only be enabled at ERROR level")
	}
}

func TestReadCLIOptions_InvalidFlags(t *testing.T) {
	tests := []struct {
		flag  string
		value string
	}{
		{"--quality", "0"},
		{"--quality", "101"},
		{"--max-image-width", "-1"},
		{"--direction", "up"},
		{"--log-level", "trace"},
		{"--log-format", "yaml"},
	}
	for _, tt := range tests {
		_, err := convertCmdWithFlags(t, tt.flag, tt.value)
		if err == nil || !strings.Contains(err.Error(), tt.flag) {
			t.Errorf("%s %s: expected validation error naming the flag, got %v", tt.flag, tt.value, err)
		}
	}

	_, err := convertCmdWithFlags(t, "--language", "not a tag!")
	if err == nil || !strings.Contains(err.Error(), "book.language") {
		t.Errorf("expected language validation error, got %v", err)
	}
}

func TestReadCLIOptions_MissingConfig(t *testing.T) {
	_, err := convertCmdWithFlags(t, "--config", filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestBuildLogger_FormatNormalization(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "info", "JSON")
	logger.Info("test message")
	// JSON format should produce JSON output (starts with '{')
	output := buf.String()
	if len(output) == 0 || output[0] != '{' {
		t.Fatalf("expected JSON output for format 'JSON', got: %s", output)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"./books/sample.cbz", "./books/sample.epub"},
		{"./books/sample.ZIP", "./books/sample.epub"},
		{"./books/Vol. 1/", "./books/Vol. 1.epub"},
		{"scans", "scans.epub"},
	}
	for _, tt := range tests {
		if got := defaultOutputPath(tt.in); got != tt.want {
			t.Errorf("defaultOutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writeTestCBZ(t *testing.T, name string, pages ...string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, p := range pages {
		img := image.NewNRGBA(image.Rect(0, 0, 12, 18))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		img.SetNRGBA(1, 1, color.NRGBA{R: 10, A: 255})
		fw, err := w.Create(p)
		if err != nil {
			t.Fatalf("failed to create %s: %v", p, err)
		}
		if err := png.Encode(fw, img); err != nil {
			t.Fatalf("png.Encode() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func runRoot(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConvertAndVerifyCommands(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "comic.cbz")
	writeTestCBZ(t, input, "000.png", "001.png", "002.png")

	out, err := runRoot("convert", input, "--no-progress", "--direction", "ltr", "--log-level", "error")
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}
	output := filepath.Join(dir, "comic.epub")
	if !strings.Contains(out, "3 pages") {
		t.Errorf("convert output = %q, want page summary", out)
	}

	out, err = runRoot("verify", output)
	if err != nil {
		t.Fatalf("verify failed: %v\n%s", err, out)
	}
	for _, want := range []string{"comic", "ltr", "pre-paginated", "No problems found."} {
		if !strings.Contains(out, want) {
			t.Errorf("verify output lacks %q:\n%s", want, out)
		}
	}
}

func TestVerifyCommand_NotAnEPUB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.epub")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := runRoot("verify", path); err == nil {
		t.Fatal("verify should fail for a non-zip file")
	}
}
