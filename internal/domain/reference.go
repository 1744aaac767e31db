package domain

// ReferenceImage describes a candidate historical photograph of a subject.
type ReferenceImage struct {
	URL               string  `json:"url"`
	Source            string  `json:"source"`
	AuthenticityScore float64 `json:"authenticity_score"`
	QualityScore      float64 `json:"quality_score"`
	RelevanceScore    float64 `json:"relevance_score"`
	EraMatch          bool    `json:"era_match"`
	Description       string  `json:"description"`
	LocalPath         string  `json:"local_path,omitempty"`
}

// CombinedScore weighs authenticity above quality and relevance and boosts
// references whose era matches the subject.
func (r ReferenceImage) CombinedScore() float64 {
	score := r.AuthenticityScore*0.40 + r.QualityScore*0.30 + r.RelevanceScore*0.30
	if r.EraMatch {
		score *= 1.1
	}
	return score
}
