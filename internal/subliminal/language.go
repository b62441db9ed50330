package subliminal

import (
	"fmt"

	"golang.org/x/text/language"
)

// ParseLanguage parses an ISO-style language code (e.g. "en", "pt-BR", "ja")
// into a canonical BCP 47 tag. Malformed codes return an error so callers can
// drop them and keep going.
func ParseLanguage(code string) (language.Tag, error) {
	if code == "" {
		return language.Und, fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language code %q: %w", code, err)
	}
	if tag == language.Und {
		return language.Und, fmt.Errorf("undetermined language code %q", code)
	}
	return tag, nil
}

// LanguageMatches reports whether a subtitle language satisfies a requested
// language. Comparison is on the base language so "pt-BR" satisfies "pt".
func LanguageMatches(requested, actual language.Tag) bool {
	reqBase, _ := requested.Base()
	actBase, _ := actual.Base()
	return reqBase == actBase
}
