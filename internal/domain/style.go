package domain

import (
	"fmt"
	"strings"
)

// Style is one of the four fixed presentation variants of a portrait.
type Style string

// Supported portrait styles
const (
	StyleBW       Style = "BW"
	StyleSepia    Style = "Sepia"
	StyleColor    Style = "Color"
	StylePainting Style = "Painting"
)

// AllStyles returns every supported style in canonical generation order.
func AllStyles() []Style {
	return []Style{StyleBW, StyleSepia, StyleColor, StylePainting}
}

// String implements fmt.Stringer.
func (s Style) String() string {
	return string(s)
}

// Valid reports whether s is a supported style.
func (s Style) Valid() bool {
	switch s {
	case StyleBW, StyleSepia, StyleColor, StylePainting:
		return true
	default:
		return false
	}
}

// NeedsToneTransform reports whether the generated image is post-processed
// into a monochrome tone before the overlay is applied.
func (s Style) NeedsToneTransform() bool {
	return s == StyleBW || s == StyleSepia
}

// ParseStyle converts a string into a Style. Matching is case-sensitive.
func ParseStyle(value string) (Style, error) {
	s := Style(value)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q must be one of %s", ErrInvalidStyle, value, styleList())
	}
	return s, nil
}

// ParseStyles converts a list of strings into styles. An empty list yields
// all styles. Duplicates are removed while keeping the first occurrence.
func ParseStyles(values []string) ([]Style, error) {
	if len(values) == 0 {
		return AllStyles(), nil
	}

	seen := make(map[Style]bool, len(values))
	styles := make([]Style, 0, len(values))
	for _, v := range values {
		s, err := ParseStyle(v)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		styles = append(styles, s)
	}
	return styles, nil
}

func styleList() string {
	names := make([]string, 0, 4)
	for _, s := range AllStyles() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
