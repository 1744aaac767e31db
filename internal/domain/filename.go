package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// File extensions and suffixes used in the output directory.
const (
	ImageExtension = ".png"
	PromptSuffix   = "_prompt.md"
)

// PascalName joins the words of a subject name into one capitalised stem,
// for example "Alan Turing" -> "AlanTuring". Accents are stripped but
// letters and digits of every script are kept, so "Лев Толстой" becomes
// "ЛевТолстой". Punctuation is dropped.
func PascalName(subjectName string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, foldAccents(subjectName))

	var b strings.Builder
	for _, word := range strings.Fields(cleaned) {
		b.WriteString(capitalize(word))
	}
	return b.String()
}

// BaseFilename builds the extension-less filename for a subject and style,
// for example "Alan Turing" + BW -> "AlanTuring_BW".
func BaseFilename(subjectName string, style Style) string {
	return PascalName(subjectName) + "_" + string(style)
}

// ImageFilename returns the PNG filename for a subject and style.
func ImageFilename(subjectName string, style Style) string {
	return BaseFilename(subjectName, style) + ImageExtension
}

// PromptFilename returns the sibling Markdown file holding the prompt sent
// to the image model.
func PromptFilename(subjectName string, style Style) string {
	return BaseFilename(subjectName, style) + PromptSuffix
}

// SanitizeFilename reduces an arbitrary name to letters, digits, hyphens and
// underscores with the first letter upper-cased.
// "Marie Curie-Skłodowska" becomes "MarieCurie-Skłodowska".
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return -1
	}, foldAccents(name))
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(word string) string {
	runesOf := []rune(strings.ToLower(word))
	if len(runesOf) == 0 {
		return ""
	}
	runesOf[0] = unicode.ToUpper(runesOf[0])
	return string(runesOf)
}

// foldAccents decomposes accented characters, strips the combining marks and
// recomposes whatever is left. Base letters outside Latin survive.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
