package reference

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"

	"github.com/phrazzld/portrait-generator/internal/domain"
)

// Scoring constants for candidates extracted from search answers.
const (
	DefaultAuthenticityScore = 0.85
	DefaultQualityScore      = 0.80
	DefaultRelevanceScore    = 0.90

	// MinCombinedScore is the lowest combined score kept after ranking.
	MinCombinedScore = 0.6

	// AuthenticityThreshold is used when authenticity cannot be fact-checked.
	AuthenticityThreshold = 0.75

	maxURLsPerQuery = 5
)

var imageURLPattern = regexp.MustCompile(`https?://[^\s<>"]+\.(?:jpg|jpeg|png|gif)`)

// BuildQueries returns the search queries for subject, most specific first.
func BuildQueries(subject *domain.SubjectData) []string {
	return []string{
		fmt.Sprintf("%s historical photograph", subject.Name),
		fmt.Sprintf("%s portrait %s", subject.Name, subject.Era),
		fmt.Sprintf("%s photo %d", subject.Name, subject.BirthYear),
		fmt.Sprintf("%s authentic image archive", subject.Name),
		fmt.Sprintf("%s contemporary photograph", subject.Name),
	}
}

// ParseSearchResults extracts up to five image URLs from a search answer
// and scores them with the default estimates.
func ParseSearchResults(response string, subject *domain.SubjectData) []domain.ReferenceImage {
	urls := imageURLPattern.FindAllString(response, maxURLsPerQuery)
	images := make([]domain.ReferenceImage, 0, len(urls))
	for _, raw := range urls {
		source := ""
		if parsed, err := url.Parse(raw); err == nil {
			source = parsed.Host
		}
		images = append(images, domain.ReferenceImage{
			URL:               raw,
			Source:            source,
			AuthenticityScore: DefaultAuthenticityScore,
			QualityScore:      DefaultQualityScore,
			RelevanceScore:    DefaultRelevanceScore,
			EraMatch:          true,
			Description:       "Historical image of " + subject.Name,
		})
	}
	return images
}

// RankAndFilter drops duplicate URLs and candidates scoring below
// MinCombinedScore, then sorts the rest by combined score, best first.
// Ties keep their original order.
func RankAndFilter(images []domain.ReferenceImage) []domain.ReferenceImage {
	seen := make(map[string]bool, len(images))
	kept := make([]domain.ReferenceImage, 0, len(images))
	for _, img := range images {
		if seen[img.URL] {
			continue
		}
		seen[img.URL] = true
		if img.CombinedScore() < MinCombinedScore {
			continue
		}
		kept = append(kept, img)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CombinedScore() > kept[j].CombinedScore()
	})
	return kept
}

// Summarize aggregates a reference list for validation reports.
func Summarize(images []domain.ReferenceImage) domain.ReferenceSummary {
	summary := domain.ReferenceSummary{Total: len(images)}
	if len(images) == 0 {
		return summary
	}
	var quality float64
	for _, img := range images {
		if img.AuthenticityScore >= AuthenticityThreshold {
			summary.AuthenticCount++
		}
		quality += img.QualityScore
	}
	summary.AverageQuality = quality / float64(len(images))
	return summary
}
