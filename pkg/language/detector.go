// Package language provides dominant-language classification for journal
// text. The default implementation is a cheap bag-of-words heuristic over
// high-frequency function words; precision is not required, only a
// reasonable prompt-locale default.
package language

import (
	"regexp"

	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// Detector classifies the dominant natural language of a text.
// It is an interface so the regex heuristic can be swapped for a proper
// classifier without touching the pipeline.
type Detector interface {
	Detect(text string) models.Language
}

// minTotalMatches is the absolute floor of function-word matches below
// which detection falls back to the default language.
const minTotalMatches = 10

// fallbackLanguage is returned when the text gives too weak a signal.
const fallbackLanguage = models.LanguageEnglish

// functionWords maps each supported language to a regex over a small set
// of its highest-frequency function words. Word boundaries keep matches
// from crossing languages via substrings.
var functionWords = map[models.Language]*regexp.Regexp{
	models.LanguageEnglish:    regexp.MustCompile(`(?i)\b(the|and|was|that|have|with|this|from|they|what|when|would|about|because)\b`),
	models.LanguageSpanish:    regexp.MustCompile(`(?i)\b(que|los|las|una|por|con|para|pero|como|más|esta|este|cuando|porque)\b`),
	models.LanguageFrench:     regexp.MustCompile(`(?i)\b(les|des|une|est|dans|pour|que|pas|avec|mais|plus|cette|je|nous)\b`),
	models.LanguageGerman:     regexp.MustCompile(`(?i)\b(und|der|die|das|ich|nicht|mit|ist|auf|für|aber|auch|wenn|weil)\b`),
	models.LanguagePortuguese: regexp.MustCompile(`(?i)\b(que|não|uma|com|para|mas|como|mais|quando|porque|são|isso|está|em)\b`),
}

// regexDetector implements Detector with the function-word heuristic.
type regexDetector struct{}

// NewRegexDetector creates the default regex-based language detector.
func NewRegexDetector() Detector {
	return &regexDetector{}
}

var _ Detector = (*regexDetector)(nil)

// Detect counts function-word matches per supported language and returns
// the highest-scoring one. Ties break by the fixed priority order of
// models.SupportedLanguages. Text with fewer than minTotalMatches total
// matches falls back to English.
func (d *regexDetector) Detect(text string) models.Language {
	if text == "" {
		return fallbackLanguage
	}

	counts := make(map[models.Language]int, len(functionWords))
	total := 0
	for lang, re := range functionWords {
		n := len(re.FindAllStringIndex(text, -1))
		counts[lang] = n
		total += n
	}

	if total < minTotalMatches {
		return fallbackLanguage
	}

	best := fallbackLanguage
	bestCount := -1
	for _, lang := range models.SupportedLanguages {
		if counts[lang] > bestCount {
			best = lang
			bestCount = counts[lang]
		}
	}

	return best
}
