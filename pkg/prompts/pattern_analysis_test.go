package prompts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// The field names are the validator's contract: every template must name
// them verbatim regardless of locale.
var contractFields = []string{
	`"themes"`, `"emotions"`, `"symbols"`, `"recommendations"`,
	`"exercises"`, `"reflection_questions"`,
	`"overview"`, `"emotional_journey"`, `"growth_trajectory"`,
	`"inner_landscape"`, `"forward_guidance"`,
}

func TestBuildAnalysisPromptNamesAllFieldsInEveryLanguage(t *testing.T) {
	for _, lang := range models.SupportedLanguages {
		t.Run(string(lang), func(t *testing.T) {
			p := BuildAnalysisPrompt(lang, `[{"entry":{}}]`)

			if p.System == "" {
				t.Fatal("empty system message")
			}
			for _, field := range contractFields {
				if !strings.Contains(p.User, field) {
					t.Errorf("prompt missing field %s", field)
				}
			}
		})
	}
}

func TestBuildAnalysisPromptStatesMinimums(t *testing.T) {
	p := BuildAnalysisPrompt(models.LanguageEnglish, "[]")

	for _, min := range []int{
		models.MinThemes, models.MinEmotions, models.MinSymbols,
		models.MinRecommendations, models.MinExercises,
		models.MinReflectionQuestions, models.MinLongFormChars,
	} {
		if !strings.Contains(p.User, fmt.Sprintf("%d", min)) {
			t.Errorf("prompt does not state minimum %d", min)
		}
	}
}

func TestBuildAnalysisPromptEmbedsBundle(t *testing.T) {
	bundle := `[{"entry":{"body":"a quiet morning"}}]`
	p := BuildAnalysisPrompt(models.LanguageSpanish, bundle)

	if !strings.Contains(p.User, bundle) {
		t.Error("prompt does not embed the entry bundle")
	}
}

func TestBuildAnalysisPromptUnknownLanguageFallsBack(t *testing.T) {
	fallback := BuildAnalysisPrompt(models.Language("xx"), "[]")
	english := BuildAnalysisPrompt(models.LanguageEnglish, "[]")

	if fallback.System != english.System {
		t.Error("unknown language should use the English template")
	}
}

func TestTemplatesAreFullyLocalized(t *testing.T) {
	// Spot-check that templates differ between languages: no runtime
	// translation means each must be complete on its own.
	en := BuildAnalysisPrompt(models.LanguageEnglish, "[]")
	de := BuildAnalysisPrompt(models.LanguageGerman, "[]")

	if en.System == de.System || en.User == de.User {
		t.Error("expected distinct localized templates")
	}
}
