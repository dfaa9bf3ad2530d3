package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/inkwell-ai/inkwell-engine/pkg/apperrors"
	"github.com/inkwell-ai/inkwell-engine/pkg/llm"
	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// ResponseValidator enforces the V2 payload contract on raw model output.
// There is no partial acceptance and no best-effort coercion: a response
// failing any rule is wholly rejected, never patched with placeholders -
// billing must not occur for output the system cannot trust.
type ResponseValidator struct{}

// NewResponseValidator creates a ResponseValidator.
func NewResponseValidator() *ResponseValidator {
	return &ResponseValidator{}
}

// Validate strips any code-fence wrapping, decodes the response, and checks
// every contract rule. On success it returns the typed payload and its
// canonical serialization for storage. On failure it returns a
// SchemaValidationFailed error naming the violated rule.
func (v *ResponseValidator) Validate(raw string) (*models.PatternPayloadV2, json.RawMessage, error) {
	jsonStr, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeSchemaValidationFailed,
			"response is not a single JSON object", err)
	}

	var payload models.PatternPayloadV2
	decoder := json.NewDecoder(strings.NewReader(jsonStr))
	if err := decoder.Decode(&payload); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeSchemaValidationFailed,
			"response does not decode as a pattern payload", err)
	}

	if rule := checkPayload(&payload); rule != "" {
		return nil, nil, apperrors.New(apperrors.CodeSchemaValidationFailed,
			"response violates the output contract").
			WithContext("violatedRule", rule)
	}

	canonical, err := json.Marshal(&payload)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeSchemaValidationFailed,
			"failed to reserialize validated payload", err)
	}

	return &payload, canonical, nil
}

// checkPayload returns the first violated rule, or "" if the payload is
// fully conformant.
func checkPayload(p *models.PatternPayloadV2) string {
	if len(p.Themes) < models.MinThemes {
		return fmt.Sprintf("themes: %d elements, need at least %d", len(p.Themes), models.MinThemes)
	}
	for i, t := range p.Themes {
		if anyEmpty(t.Name, t.Frequency, t.Significance, t.Evolution) {
			return fmt.Sprintf("themes[%d]: missing or empty required key", i)
		}
	}

	if len(p.Emotions) < models.MinEmotions {
		return fmt.Sprintf("emotions: %d elements, need at least %d", len(p.Emotions), models.MinEmotions)
	}
	for i, e := range p.Emotions {
		if anyEmpty(e.Name, e.Intensity, e.Context, e.Trend) {
			return fmt.Sprintf("emotions[%d]: missing or empty required key", i)
		}
	}

	if len(p.Symbols) < models.MinSymbols {
		return fmt.Sprintf("symbols: %d elements, need at least %d", len(p.Symbols), models.MinSymbols)
	}
	for i, s := range p.Symbols {
		if anyEmpty(s.Symbol, s.Occurrences, s.Meaning) {
			return fmt.Sprintf("symbols[%d]: missing or empty required key", i)
		}
	}

	if len(p.Recommendations) < models.MinRecommendations {
		return fmt.Sprintf("recommendations: %d elements, need at least %d", len(p.Recommendations), models.MinRecommendations)
	}
	for i, r := range p.Recommendations {
		if anyEmpty(r.Title, r.Description, r.Rationale) {
			return fmt.Sprintf("recommendations[%d]: missing or empty required key", i)
		}
	}

	if len(p.Exercises) < models.MinExercises {
		return fmt.Sprintf("exercises: %d elements, need at least %d", len(p.Exercises), models.MinExercises)
	}
	for i, e := range p.Exercises {
		if anyEmpty(e.Title, e.Instructions, e.Purpose) {
			return fmt.Sprintf("exercises[%d]: missing or empty required key", i)
		}
	}

	if len(p.ReflectionQuestions) < models.MinReflectionQuestions {
		return fmt.Sprintf("reflection_questions: %d elements, need at least %d", len(p.ReflectionQuestions), models.MinReflectionQuestions)
	}
	for i, q := range p.ReflectionQuestions {
		if strings.TrimSpace(q) == "" {
			return fmt.Sprintf("reflection_questions[%d]: empty question", i)
		}
	}

	longForm := map[string]string{
		"overview":          p.Overview,
		"emotional_journey": p.EmotionalJourney,
		"growth_trajectory": p.GrowthTrajectory,
		"inner_landscape":   p.InnerLandscape,
		"forward_guidance":  p.ForwardGuidance,
	}
	// The floor is measured in characters, not bytes: accented text in the
	// non-English outputs roughly doubles its byte length.
	for _, field := range []string{"overview", "emotional_journey", "growth_trajectory", "inner_landscape", "forward_guidance"} {
		if n := utf8.RuneCountInString(longForm[field]); n < models.MinLongFormChars {
			return fmt.Sprintf("%s: %d characters, need at least %d", field, n, models.MinLongFormChars)
		}
	}

	return ""
}

// anyEmpty reports whether any value is empty after trimming whitespace.
func anyEmpty(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
