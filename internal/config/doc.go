// Package config loads cbz2epub settings from an optional TOML file.
//
// A file holds three tables: [book] for publication metadata and chapter
// layout, [images] for page processing and [logging]. Missing keys keep the
// values from Default.
package config
