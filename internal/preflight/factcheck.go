package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/domain"
)

// Fact check keys, in report order.
const (
	FactBirthYear = "birth_year"
	FactDeathYear = "death_year"
	FactEra       = "era"
	FactError     = "error"
)

var factCheckOrder = []string{FactBirthYear, FactDeathYear, FactEra, FactError}

// factCheck verifies the researched facts with grounded queries. The first
// failing query stops the run and is recorded as a failed "error" check.
func (v *Validator) factCheck(ctx context.Context, s *domain.SubjectData) map[string]bool {
	type query struct {
		key, text string
	}
	queries := []query{{FactBirthYear, fmt.Sprintf("Verify birth year for %s: %d", s.Name, s.BirthYear)}}
	if s.DeathYear != nil {
		queries = append(queries, query{FactDeathYear, fmt.Sprintf("Verify death year for %s: %d", s.Name, *s.DeathYear)})
	}
	queries = append(queries, query{FactEra, fmt.Sprintf("Verify %s lived during %s", s.Name, s.Era)})

	results := make(map[string]bool, len(queries))
	for _, q := range queries {
		resp, err := v.querier.QueryWithGrounding(ctx, q.text)
		if err != nil {
			v.logger.WarnContext(ctx, "fact check failed", "check", q.key, "error", err)
			results[FactError] = false
			return results
		}
		results[q.key] = ParseVerification(resp)
	}

	v.logger.DebugContext(ctx, "fact check results", "results", results)
	return results
}

// ParseVerification reads a yes/no verdict from a verification answer.
// Only whole negative words count against it, so "known" does not read as
// "no". Empty, affirmative and uncertain answers all count as verified.
func ParseVerification(response string) bool {
	lower := strings.ToLower(strings.TrimSpace(response))
	if lower == "" {
		return true
	}
	return !negativeVerdict.MatchString(lower)
}
