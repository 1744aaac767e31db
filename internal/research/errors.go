package research

import "errors"

var (
	// ErrResearchFailed is returned when the text model could not be queried.
	ErrResearchFailed = errors.New("subject research failed")

	// ErrResearchIncomplete is returned when the answer lacks a birth year.
	ErrResearchIncomplete = errors.New("research response is missing required data")
)
