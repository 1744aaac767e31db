// Package reference finds historical reference photographs of a subject.
//
// The Finder issues search-grounded queries, extracts image URLs from the
// answers, ranks them by authenticity, quality and relevance, and can
// download the best candidates so they can be sent to the image model as
// inline references. Failing to find references is normal and never an
// error for the pipeline.
package reference
