package services

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// SupportedLanguages lists the reply languages, English first (the default).
var SupportedLanguages = []language.Tag{language.English, language.Tamil, language.Hindi}

var languageMatcher = language.NewMatcher(SupportedLanguages)

// NormalizeLanguage maps a BCP-47 hint ("", "en", "ta-IN", "hi") to one of
// the supported base codes. An empty hint means English.
func NormalizeLanguage(hint string) (string, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return language.English.String(), nil
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, hint)
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf < language.High {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, hint)
	}
	return SupportedLanguages[idx].String(), nil
}

// LanguageName returns the English display name of a code ("ta" -> "Tamil").
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if n := display.English.Languages().Name(tag); n != "" {
		return n
	}
	return code
}
