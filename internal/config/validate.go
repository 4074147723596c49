package config

import (
	"fmt"
	"time"

	"github.com/perillamint/cbz2epub/internal/epub"
)

// Validate ensures the configuration is usable. The title may be empty;
// callers fill it from the command line or the input name.
func (c *Config) Validate() error {
	if err := c.validateBook(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBook() error {
	if _, err := epub.ParseLanguage(c.Book.Language); err != nil {
		return fmt.Errorf("book.language: %w", err)
	}
	if _, err := epub.ParseDirection(c.Book.Direction); err != nil {
		return fmt.Errorf("book.direction: %w", err)
	}
	if c.Book.Date != "" {
		if _, err := time.Parse(DateLayout, c.Book.Date); err != nil {
			return fmt.Errorf("book.date must be YYYY-MM-DD, got %q", c.Book.Date)
		}
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.MaxWidth < 0 {
		return fmt.Errorf("images.max_width must be >= 0, got %d", c.Images.MaxWidth)
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return fmt.Errorf("images.jpeg_quality must be between 1 and 100, got %d", c.Images.JPEGQuality)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
