// Package research gathers biographical data about a portrait subject.
//
// A Researcher asks a text model for a labelled biography (birth and death
// years, era, appearance notes, historical context, reference sources) and
// parses the free-text answer into a domain.SubjectData. Results are cached
// in-process so that generating several styles or re-running a batch does
// not repeat the query.
package research
