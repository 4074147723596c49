package epub

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Direction is the page progression direction of the publication.
type Direction string

const (
	DirectionDefault Direction = "default"
	DirectionLTR     Direction = "ltr"
	DirectionRTL     Direction = "rtl"
)

// ParseDirection maps a user supplied value onto a Direction.
// The empty string means DirectionDefault.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", DirectionDefault:
		return DirectionDefault, nil
	case DirectionLTR:
		return DirectionLTR, nil
	case DirectionRTL:
		return DirectionRTL, nil
	}
	return "", fmt.Errorf("%w: unknown direction %q (want ltr, rtl or default)", ErrInvalidMeta, s)
}

// Meta is the bibliographic information of a book. It is fixed once a Writer
// has been created.
type Meta struct {
	Title       string
	Language    string
	Creator     string
	Contributor string
	Subject     string
	Description string
	Publisher   string
	Date        time.Time
	Identifier  string
	Rights      string
	Direction   Direction
}

// Validate checks required fields and canonicalizes the language tag.
func (m *Meta) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMeta)
	}

	tag, err := ParseLanguage(m.Language)
	if err != nil {
		return err
	}
	m.Language = tag

	dir, err := ParseDirection(string(m.Direction))
	if err != nil {
		return err
	}
	m.Direction = dir
	return nil
}

// ParseLanguage validates a BCP 47 tag and returns its canonical form.
func ParseLanguage(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: language is required", ErrInvalidMeta)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: language %q: %v", ErrInvalidMeta, s, err)
	}
	return tag.String(), nil
}

// dcField is one Dublin Core element of the package metadata.
type dcField struct {
	Name  string
	Value string
}

// dcFields lists the non-empty Dublin Core fields in package order.
// Direction is not bibliographic and never appears here.
func (m Meta) dcFields() []dcField {
	var date string
	if !m.Date.IsZero() {
		date = m.Date.Format("2006-01-02")
	}

	all := []dcField{
		{"title", m.Title},
		{"language", m.Language},
		{"creator", m.Creator},
		{"contributor", m.Contributor},
		{"subject", m.Subject},
		{"description", m.Description},
		{"publisher", m.Publisher},
		{"date", date},
		{"identifier", m.Identifier},
		{"rights", m.Rights},
	}

	fields := make([]dcField, 0, len(all))
	for _, f := range all {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}
