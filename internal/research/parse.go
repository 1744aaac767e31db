package research

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/domain"
)

// Limits applied to list sections of the research answer.
const (
	MaxAppearanceNotes  = 5
	MaxReferenceSources = 3
)

var (
	birthYearPattern = regexp.MustCompile(`(?i)BIRTH YEAR[:\s*]+(\d+)`)
	deathYearPattern = regexp.MustCompile(`(?i)DEATH YEAR[:\s*]+(\d+|Present|living|alive)`)
	eraPattern       = regexp.MustCompile(`(?im)^[\W\d]*ERA[:\s*]+([^\n]+)`)

	numberedLine  = regexp.MustCompile(`^\s*\d+\.`)
	bulletPrefix  = regexp.MustCompile(`^[-*•\d.)\s]+`)
	sectionHeader = regexp.MustCompile(`(?i)^[\W\d]*(FULL NAME|NAME|BIRTH YEAR|DEATH YEAR|ERA|APPEARANCE NOTES|HISTORICAL CONTEXT|REFERENCE SOURCES)\**\s*(?::|$)`)
)

// Prompt builds the research request for a subject.
func Prompt(name string) string {
	return fmt.Sprintf(`Research the following person and provide biographical information:

NAME: %s

Please provide the following information in a structured format:

1. FULL NAME: The person's complete name
2. BIRTH YEAR: Year of birth (number only)
3. DEATH YEAR: Year of death (number only, or "Present" if still alive)
4. ERA: Historical era or time period (e.g., "Renaissance", "20th Century", "Medieval")
5. APPEARANCE NOTES: Physical characteristics, typical clothing style, notable features
   - List 3-5 specific details about their appearance
   - Include era-appropriate clothing and hairstyle
   - Mention any distinctive features
6. HISTORICAL CONTEXT: Brief description of their time period and cultural context
7. REFERENCE SOURCES: Key sources of information (e.g., "Historical records", "Contemporary accounts")

Format your response clearly with each section labeled.
Be historically accurate and specific.
`, name)
}

// ParseResponse extracts SubjectData from a research answer. The requested
// name is kept as the subject name. A missing birth year is an error; the
// other fields fall back to defaults. The result is validated.
func ParseResponse(name, response string) (*domain.SubjectData, error) {
	m := birthYearPattern.FindStringSubmatch(response)
	if m == nil {
		return nil, fmt.Errorf("%w: could not extract birth year", ErrResearchIncomplete)
	}
	birth, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid birth year %q", ErrResearchIncomplete, m[1])
	}

	var death *int
	if m := deathYearPattern.FindStringSubmatch(response); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			death = &v
		}
	}

	era := domain.DefaultEra
	if m := eraPattern.FindStringSubmatch(response); m != nil {
		if v := cleanValue(m[1]); v != "" {
			era = v
		}
	}

	notes := sectionLines(response, "APPEARANCE NOTES")
	if len(notes) > MaxAppearanceNotes {
		notes = notes[:MaxAppearanceNotes]
	}

	context := strings.Join(sectionLines(response, "HISTORICAL CONTEXT"), " ")
	if context == "" {
		context = "Historical figure from " + era
	}

	sources := sectionLines(response, "REFERENCE SOURCES")
	if len(sources) > MaxReferenceSources {
		sources = sources[:MaxReferenceSources]
	}

	data := &domain.SubjectData{
		Name:              strings.TrimSpace(name),
		BirthYear:         birth,
		DeathYear:         death,
		Era:               era,
		AppearanceNotes:   notes,
		HistoricalContext: context,
		ReferenceSources:  sources,
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// sectionLines returns the cleaned lines of a labelled section: the text on
// the header line after the label plus every following line up to the next
// numbered item or section header.
func sectionLines(response, label string) []string {
	lines := strings.Split(response, "\n")
	start := -1
	for i, line := range lines {
		if m := sectionHeader.FindStringSubmatch(line); m != nil && strings.EqualFold(m[1], label) {
			start = i
			break
		}
	}
	if start < 0 {
		return []string{}
	}

	out := []string{}
	header := lines[start]
	if idx := strings.Index(strings.ToUpper(header), strings.ToUpper(label)); idx >= 0 {
		if rest := cleanValue(header[idx+len(label):]); rest != "" {
			out = append(out, rest)
		}
	}

	for _, line := range lines[start+1:] {
		if numberedLine.MatchString(line) || sectionHeader.MatchString(line) {
			break
		}
		item := strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		item = cleanValue(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// cleanValue trims whitespace, colons and Markdown emphasis around a value.
func cleanValue(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), ":*_ "))
}
