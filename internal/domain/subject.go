package domain

import (
	"fmt"
	"strings"
)

// Bounds used when validating subject names and researched years.
const (
	MinSubjectNameLength = 2
	MaxSubjectNameLength = 100
	MaxYear              = 2100

	// DefaultEra is used when research does not yield an era.
	DefaultEra = "Unknown Era"
)

// forbiddenNameChars cannot appear in a subject name because the name
// becomes part of a filename.
const forbiddenNameChars = `<>:"/\|?*`

// SubjectData holds the biographical facts researched for a portrait subject.
// It is produced once per subject and treated as immutable afterwards.
type SubjectData struct {
	Name              string   `json:"name"`
	BirthYear         int      `json:"birth_year"`
	DeathYear         *int     `json:"death_year,omitempty"`
	Era               string   `json:"era"`
	AppearanceNotes   []string `json:"appearance_notes"`
	HistoricalContext string   `json:"historical_context"`
	ReferenceSources  []string `json:"reference_sources"`
}

// FormattedYears renders the life span, e.g. "1879-1955" or "1947-Present".
func (s *SubjectData) FormattedYears() string {
	if s.DeathYear != nil {
		return fmt.Sprintf("%d-%d", s.BirthYear, *s.DeathYear)
	}
	return fmt.Sprintf("%d-Present", s.BirthYear)
}

// Living reports whether the subject has no recorded death year.
func (s *SubjectData) Living() bool {
	return s.DeathYear == nil
}

// Validate checks the researched data for internal consistency.
func (s *SubjectData) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidSubjectData)
	}
	if s.BirthYear < 0 || s.BirthYear > MaxYear {
		return fmt.Errorf("%w: birth year %d out of range", ErrInvalidSubjectData, s.BirthYear)
	}
	if s.DeathYear != nil {
		if *s.DeathYear < s.BirthYear {
			return fmt.Errorf("%w: death year %d precedes birth year %d",
				ErrInvalidSubjectData, *s.DeathYear, s.BirthYear)
		}
		if *s.DeathYear > MaxYear {
			return fmt.Errorf("%w: death year %d out of range", ErrInvalidSubjectData, *s.DeathYear)
		}
	}
	if strings.TrimSpace(s.Era) == "" {
		return fmt.Errorf("%w: era is empty", ErrInvalidSubjectData)
	}
	return nil
}

// ValidateSubjectName checks a user supplied subject name before any work is done.
func ValidateSubjectName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidSubjectName)
	}

	length := len([]rune(trimmed))
	if length < MinSubjectNameLength {
		return fmt.Errorf("%w: name must be at least %d characters", ErrInvalidSubjectName, MinSubjectNameLength)
	}
	if length > MaxSubjectNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidSubjectName, MaxSubjectNameLength)
	}

	if i := strings.IndexAny(trimmed, forbiddenNameChars); i >= 0 {
		return fmt.Errorf("%w: name contains invalid character %q", ErrInvalidSubjectName, trimmed[i])
	}
	if PascalName(trimmed) == "" {
		return fmt.Errorf("%w: name has no letters or digits", ErrInvalidSubjectName)
	}

	return nil
}

// IntPtr returns a pointer to v. Handy for optional years.
func IntPtr(v int) *int {
	return &v
}
