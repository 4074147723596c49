package config

const (
	defaultLanguage    = "en"
	defaultDirection   = "default"
	defaultChapterName = "Chapter 1"
	defaultJPEGQuality = 90
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Book: Book{
			Language:    defaultLanguage,
			Direction:   defaultDirection,
			ChapterName: defaultChapterName,
		},
		Images: Images{
			JPEGQuality: defaultJPEGQuality,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
