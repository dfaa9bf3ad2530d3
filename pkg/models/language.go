package models

// Language identifies a supported prompt locale.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguageFrench     Language = "fr"
	LanguageGerman     Language = "de"
	LanguagePortuguese Language = "pt"
)

// SupportedLanguages lists all prompt locales in fixed priority order.
// The order breaks ties in the language detector and must not change
// without revisiting detector tests.
var SupportedLanguages = []Language{
	LanguageEnglish,
	LanguageSpanish,
	LanguageFrench,
	LanguageGerman,
	LanguagePortuguese,
}

// IsSupported reports whether l has a prompt template.
func (l Language) IsSupported() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}
