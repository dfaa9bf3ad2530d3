package models

// Minimum cardinalities and lengths of the V2 pattern payload contract.
// Prompts promise these to the model and the validator enforces them; the
// two must never drift apart.
const (
	MinThemes              = 8
	MinEmotions            = 5
	MinSymbols             = 10
	MinRecommendations     = 12
	MinExercises           = 3
	MinReflectionQuestions = 5

	// MinLongFormChars is the floor length for each long-form text field
	// (overview, emotional_journey, growth_trajectory, inner_landscape,
	// forward_guidance).
	MinLongFormChars = 500
)
