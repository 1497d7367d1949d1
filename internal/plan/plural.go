package plan

import (
	"regexp"
	"strings"
	"unicode"
)

var lastWord = regexp.MustCompile(`^(.*\b)(\S+)$`)

// plural converts the last word of a field name to English plural form.
// Exceptions are limited to words that actually show up in field names.
func plural(field string) string {
	m := lastWord.FindStringSubmatch(field)
	if m == nil {
		return field
	}
	prefix, word := m[1], m[2]

	switch {
	case isUpper(word):
		return prefix + word
	case word == "of" || word == "off" || word == "on" || word == "description" || word == "todo":
		return prefix + word
	case strings.HasSuffix(word, "ed"):
		return prefix + word
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"), strings.HasSuffix(word, "z"):
		return prefix + word + "es"
	case strings.HasSuffix(word, "sh"), strings.HasSuffix(word, "ch"):
		return prefix + word + "es"
	case strings.HasSuffix(word, "fe"):
		return prefix + strings.TrimSuffix(word, "fe") + "ves"
	case strings.HasSuffix(word, "f"):
		return prefix + strings.TrimSuffix(word, "f") + "ves"
	case strings.HasSuffix(word, "y"):
		return prefix + strings.TrimSuffix(word, "y") + "ies"
	case strings.HasSuffix(word, "o"):
		return prefix + word + "es"
	case strings.HasSuffix(word, "on"):
		return prefix + strings.TrimSuffix(word, "on") + "a"
	case strings.HasSuffix(word, "an"):
		return prefix + strings.TrimSuffix(word, "an") + "en"
	}
	return prefix + word + "s"
}

func isUpper(word string) bool {
	hasLetter := false
	for _, r := range word {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
