package types

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// AutoDetect lets the translation backend detect the source language.
const AutoDetect = "auto"

// SupportedLanguages lists the language codes accepted as source or target.
var SupportedLanguages = []string{
	"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh", "ar", "hi", "te",
}

// IsSupportedLanguage reports whether code is in the supported table.
func IsSupportedLanguage(code string) bool {
	code = NormalizeLanguageCode(code)
	for _, c := range SupportedLanguages {
		if c == code {
			return true
		}
	}
	return false
}

// NormalizeLanguageCode reduces a BCP 47 tag such as "zh-Hans" or "TE" to its base language code.
// Codes that do not parse are returned lower-cased and trimmed.
func NormalizeLanguageCode(code string) string {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, AutoDetect) {
		return AutoDetect
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	return base.String()
}

// LanguageName returns the English display name for a language code, e.g. "hi" -> "Hindi".
func LanguageName(code string) string {
	code = NormalizeLanguageCode(code)
	if code == AutoDetect {
		return "auto-detected language"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// ValidateLanguagePair checks a source/target pair against the supported table.
func ValidateLanguagePair(source, target string) error {
	src := NormalizeLanguageCode(source)
	dst := NormalizeLanguageCode(target)

	if dst == "" || dst == AutoDetect || !IsSupportedLanguage(dst) {
		return NewAppErrorWithDetails(ErrInvalidInput, "unsupported target language", target, nil)
	}
	if src == "" {
		return NewAppError(ErrInvalidInput, "source language is required", nil)
	}
	if src != AutoDetect && !IsSupportedLanguage(src) {
		return NewAppErrorWithDetails(ErrInvalidInput, "unsupported source language", source, nil)
	}
	if src == dst {
		return NewAppError(ErrInvalidInput, "source and target languages cannot be the same", nil)
	}
	return nil
}

// SortedLanguages returns the supported codes in alphabetical order.
func SortedLanguages() []string {
	out := append([]string(nil), SupportedLanguages...)
	sort.Strings(out)
	return out
}
