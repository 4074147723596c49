package config

import "strings"

func (c *Config) normalize() {
	c.normalizeBook()
	c.normalizeLogging()
}

func (c *Config) normalizeBook() {
	b := &c.Book
	for _, field := range []*string{
		&b.Title, &b.Language, &b.Creator, &b.Contributor, &b.Subject,
		&b.Description, &b.Publisher, &b.Date, &b.Identifier, &b.Rights,
		&b.ChapterName,
	} {
		*field = strings.TrimSpace(*field)
	}
	b.Direction = strings.ToLower(strings.TrimSpace(b.Direction))
	if b.Direction == "" {
		b.Direction = defaultDirection
	}
	if b.ChapterName == "" {
		b.ChapterName = defaultChapterName
	}
	c.Images.Stylesheet = strings.TrimSpace(c.Images.Stylesheet)
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
