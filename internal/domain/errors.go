// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidSubjectName is returned when a subject name is empty, too short,
	// too long or contains characters that cannot appear in a filename.
	ErrInvalidSubjectName = errors.New("invalid subject name")

	// ErrInvalidStyle is returned when a style is not one of BW, Sepia, Color, Painting.
	ErrInvalidStyle = errors.New("invalid portrait style")

	// ErrInvalidSubjectData is returned when researched biographical data is inconsistent.
	ErrInvalidSubjectData = errors.New("invalid subject data")
)
