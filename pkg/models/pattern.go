package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pattern payload schema versions. Each version is a distinct Go type so
// rows written under older contracts stay decodable next to current ones.
const (
	PatternSchemaV1 = 1
	PatternSchemaV2 = 2
)

// PatternAnalysis is one per-user aggregate pattern report row.
// Stored in pattern_analyses table. Rows are never updated in place for
// freshness: a new row supersedes the old one and the current-pointer table
// is swapped in the same transaction. Validity (age, coverage, version) is
// always derived at read time, never stored.
type PatternAnalysis struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Payload          json.RawMessage `json:"payload"`
	EntriesCovered   int             `json:"entries_covered"`
	LatestSourceDate time.Time       `json:"latest_source_date"`
	SchemaVersion    int             `json:"schema_version"`
	Language         Language        `json:"language"`
	CreatedAt        time.Time       `json:"created_at"`
}

// PatternTheme is one recurring theme in the aggregate report.
// All four keys must be present and non-empty in model output.
type PatternTheme struct {
	Name         string `json:"name"`
	Frequency    string `json:"frequency"`
	Significance string `json:"significance"`
	Evolution    string `json:"evolution"`
}

// PatternEmotion is one recurring emotion in the aggregate report.
type PatternEmotion struct {
	Name      string `json:"name"`
	Intensity string `json:"intensity"`
	Context   string `json:"context"`
	Trend     string `json:"trend"`
}

// PatternSymbol is one recurring symbol or image in the aggregate report.
type PatternSymbol struct {
	Symbol      string `json:"symbol"`
	Occurrences string `json:"occurrences"`
	Meaning     string `json:"meaning"`
}

// PatternRecommendation is one actionable suggestion in the aggregate report.
type PatternRecommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Rationale   string `json:"rationale"`
}

// PatternExercise is one guided practice in the aggregate report.
type PatternExercise struct {
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
	Purpose      string `json:"purpose"`
}

// PatternPayloadV2 is the current aggregate report contract.
// Field names form a fixed cross-language vocabulary: prompts render
// instructions in the user's language but always name these exact keys.
type PatternPayloadV2 struct {
	Themes              []PatternTheme          `json:"themes"`
	Emotions            []PatternEmotion        `json:"emotions"`
	Symbols             []PatternSymbol         `json:"symbols"`
	Recommendations     []PatternRecommendation `json:"recommendations"`
	Exercises           []PatternExercise       `json:"exercises"`
	ReflectionQuestions []string                `json:"reflection_questions"`

	Overview         string `json:"overview"`
	EmotionalJourney string `json:"emotional_journey"`
	GrowthTrajectory string `json:"growth_trajectory"`
	InnerLandscape   string `json:"inner_landscape"`
	ForwardGuidance  string `json:"forward_guidance"`
}

// PatternPayloadV1 is the legacy aggregate report contract, retained so
// rows written before the V2 rollout remain readable.
type PatternPayloadV1 struct {
	Themes          []PatternTheme          `json:"themes"`
	Emotions        []PatternEmotion        `json:"emotions"`
	Recommendations []PatternRecommendation `json:"recommendations"`
	Overview        string                  `json:"overview"`
}

// PatternPayload is the tagged union over payload schema versions.
// Exactly one variant is non-nil, matching Version.
type PatternPayload struct {
	Version int
	V1      *PatternPayloadV1
	V2      *PatternPayloadV2
}

// DecodePatternPayload decodes a stored payload into its versioned variant.
func DecodePatternPayload(version int, raw json.RawMessage) (*PatternPayload, error) {
	switch version {
	case PatternSchemaV1:
		var v1 PatternPayloadV1
		if err := json.Unmarshal(raw, &v1); err != nil {
			return nil, fmt.Errorf("failed to decode v1 pattern payload: %w", err)
		}
		return &PatternPayload{Version: PatternSchemaV1, V1: &v1}, nil
	case PatternSchemaV2:
		var v2 PatternPayloadV2
		if err := json.Unmarshal(raw, &v2); err != nil {
			return nil, fmt.Errorf("failed to decode v2 pattern payload: %w", err)
		}
		return &PatternPayload{Version: PatternSchemaV2, V2: &v2}, nil
	default:
		return nil, fmt.Errorf("unknown pattern payload schema version %d", version)
	}
}
