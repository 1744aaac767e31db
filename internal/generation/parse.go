package generation

import (
	"regexp"
	"strconv"
	"strings"
)

var listSplitter = regexp.MustCompile(`[,\n]`)

// ExtractList returns the items of a "SECTION: [a, b, c]" block in a model
// response. Items may be separated by commas or newlines and lose any
// surrounding quotes. A missing section yields nil.
func ExtractList(text, section string) []string {
	re := regexp.MustCompile(`(?is)` + regexp.QuoteMeta(section) + `:\s*\[(.*?)\]`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var items []string
	for _, raw := range listSplitter.Split(m[1], -1) {
		item := strings.Trim(strings.TrimSpace(raw), `"'`)
		item = strings.TrimSpace(strings.TrimLeft(item, "-*• "))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ExtractScore returns the number following "LABEL:" in a model response.
// Scores live in [0,1]; fallback is returned when the label is absent, the
// value does not parse or it is above 1 (a percentage or a 0-10 grade).
func ExtractScore(text, label string, fallback float64) float64 {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `:\s*([0-9]*\.?[0-9]+)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v > 1 {
		return fallback
	}
	return v
}
