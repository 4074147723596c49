package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/perillamint/cbz2epub/internal/epub"
)

// DateLayout is the accepted form of book.date.
const DateLayout = "2006-01-02"

// Config is the full cbz2epub configuration.
type Config struct {
	Book    Book    `toml:"book"`
	Images  Images  `toml:"images"`
	Logging Logging `toml:"logging"`
}

// Book holds publication metadata and chapter layout.
type Book struct {
	Title         string `toml:"title"`
	Language      string `toml:"language"`
	Creator       string `toml:"creator"`
	Contributor   string `toml:"contributor"`
	Subject       string `toml:"subject"`
	Description   string `toml:"description"`
	Publisher     string `toml:"publisher"`
	Date          string `toml:"date"`
	Identifier    string `toml:"identifier"`
	Rights        string `toml:"rights"`
	Direction     string `toml:"direction"`
	ChapterName   string `toml:"chapter_name"`
	SplitChapters bool   `toml:"split_chapters"`
}

// Images controls page image processing.
type Images struct {
	MaxWidth    int    `toml:"max_width"`
	JPEGQuality int    `toml:"jpeg_quality"`
	Stylesheet  string `toml:"stylesheet"`
}

// Logging selects the log level and handler format.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Load reads the TOML file at path on top of Default. An empty path yields
// the defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BookMeta converts the [book] table into writer metadata.
func (c *Config) BookMeta() (epub.Meta, error) {
	meta := epub.Meta{
		Title:       c.Book.Title,
		Language:    c.Book.Language,
		Creator:     c.Book.Creator,
		Contributor: c.Book.Contributor,
		Subject:     c.Book.Subject,
		Description: c.Book.Description,
		Publisher:   c.Book.Publisher,
		Identifier:  c.Book.Identifier,
		Rights:      c.Book.Rights,
		Direction:   epub.Direction(c.Book.Direction),
	}
	if c.Book.Date != "" {
		date, err := time.Parse(DateLayout, c.Book.Date)
		if err != nil {
			return epub.Meta{}, fmt.Errorf("book.date: %w", err)
		}
		meta.Date = date
	}
	return meta, nil
}

// Resolve normalizes values changed after Load, such as command line
// overrides, and validates the result.
func (c *Config) Resolve() error {
	c.normalize()
	return c.Validate()
}
