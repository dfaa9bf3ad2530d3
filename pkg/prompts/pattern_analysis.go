// Package prompts builds the model requests for aggregate pattern analysis.
// Each supported language carries its own complete template; there is no
// runtime translation step. Field names in the required JSON shape form a
// fixed cross-language vocabulary so the validator never depends on locale.
package prompts

import (
	"fmt"
	"strings"

	"github.com/inkwell-ai/inkwell-engine/pkg/models"
)

// AnalysisPrompt is an assembled model request.
type AnalysisPrompt struct {
	System string
	User   string
}

// template holds the localized phrasing for one language. Only the prose
// differs between languages; the JSON field names stay fixed.
type template struct {
	system          string
	taskIntro       string
	schemaIntro     string
	arrayRule       string // fmt: field name, element shape, minimum
	stringArrayRule string // fmt: field name, minimum
	longFormRule    string // fmt: field name, minimum chars
	addressRule     string
	jsonOnlyRule    string
	entriesHeader   string
}

var templates = map[models.Language]template{
	models.LanguageEnglish: {
		system:          "You are a thoughtful journaling companion who identifies long-term patterns across a person's journal entries. You always address the journal author directly as \"you\" and respond with a single JSON object, nothing else.",
		taskIntro:       "Below are your journal entries together with their individual analyses. Study them as a whole and describe the patterns that emerge across them over time.",
		schemaIntro:     "Respond with exactly one JSON object with these fields (keep the field names exactly as written):",
		arrayRule:       "- %q: array of objects, each with non-empty %s; at least %d elements",
		stringArrayRule: "- %q: array of strings; at least %d elements",
		longFormRule:    "- %q: a single string of at least %d characters",
		addressRule:     "Write every value in the second person, speaking directly to the journal author.",
		jsonOnlyRule:    "Output only the JSON object. No markdown fences, no commentary.",
		entriesHeader:   "Journal entries and their analyses:",
	},
	models.LanguageSpanish: {
		system:          "Eres un compañero de diario reflexivo que identifica patrones de largo plazo en las entradas del diario de una persona. Siempre te diriges al autor del diario directamente como \"tú\" y respondes con un único objeto JSON, nada más.",
		taskIntro:       "A continuación están tus entradas de diario junto con sus análisis individuales. Estúdialas en conjunto y describe los patrones que emergen entre ellas a lo largo del tiempo.",
		schemaIntro:     "Responde con exactamente un objeto JSON con estos campos (mantén los nombres de campo exactamente como están escritos):",
		arrayRule:       "- %q: arreglo de objetos, cada uno con %s no vacíos; al menos %d elementos",
		stringArrayRule: "- %q: arreglo de cadenas; al menos %d elementos",
		longFormRule:    "- %q: una sola cadena de al menos %d caracteres",
		addressRule:     "Escribe cada valor en segunda persona, hablando directamente con el autor del diario.",
		jsonOnlyRule:    "Devuelve solo el objeto JSON. Sin marcas de markdown ni comentarios.",
		entriesHeader:   "Entradas del diario y sus análisis:",
	},
	models.LanguageFrench: {
		system:          "Tu es un compagnon d'écriture attentif qui identifie les tendances de long terme dans les entrées du journal d'une personne. Tu t'adresses toujours directement à l'auteur du journal avec \"tu\" et tu réponds avec un seul objet JSON, rien d'autre.",
		taskIntro:       "Voici tes entrées de journal accompagnées de leurs analyses individuelles. Étudie-les dans leur ensemble et décris les tendances qui en émergent au fil du temps.",
		schemaIntro:     "Réponds avec exactement un objet JSON contenant ces champs (garde les noms de champs exactement tels quels) :",
		arrayRule:       "- %q : tableau d'objets, chacun avec %s non vides ; au moins %d éléments",
		stringArrayRule: "- %q : tableau de chaînes ; au moins %d éléments",
		longFormRule:    "- %q : une seule chaîne d'au moins %d caractères",
		addressRule:     "Rédige chaque valeur à la deuxième personne, en t'adressant directement à l'auteur du journal.",
		jsonOnlyRule:    "Ne renvoie que l'objet JSON. Pas de balises markdown, pas de commentaires.",
		entriesHeader:   "Entrées du journal et leurs analyses :",
	},
	models.LanguageGerman: {
		system:          "Du bist ein aufmerksamer Tagebuch-Begleiter, der langfristige Muster in den Tagebucheinträgen einer Person erkennt. Du sprichst die Autorin oder den Autor immer direkt mit \"du\" an und antwortest mit genau einem JSON-Objekt, sonst nichts.",
		taskIntro:       "Unten stehen deine Tagebucheinträge zusammen mit ihren einzelnen Analysen. Betrachte sie als Ganzes und beschreibe die Muster, die sich im Lauf der Zeit daraus ergeben.",
		schemaIntro:     "Antworte mit genau einem JSON-Objekt mit diesen Feldern (behalte die Feldnamen exakt bei):",
		arrayRule:       "- %q: Array von Objekten, jedes mit nicht-leeren %s; mindestens %d Elemente",
		stringArrayRule: "- %q: Array von Zeichenketten; mindestens %d Elemente",
		longFormRule:    "- %q: eine einzelne Zeichenkette mit mindestens %d Zeichen",
		addressRule:     "Schreibe jeden Wert in der zweiten Person und sprich die Autorin oder den Autor direkt an.",
		jsonOnlyRule:    "Gib nur das JSON-Objekt aus. Keine Markdown-Zäune, keine Kommentare.",
		entriesHeader:   "Tagebucheinträge und ihre Analysen:",
	},
	models.LanguagePortuguese: {
		system:          "Você é um companheiro de diário atencioso que identifica padrões de longo prazo nas entradas do diário de uma pessoa. Você sempre se dirige ao autor do diário diretamente como \"você\" e responde com um único objeto JSON, nada mais.",
		taskIntro:       "Abaixo estão as suas entradas de diário junto com as análises individuais. Estude-as como um todo e descreva os padrões que emergem delas ao longo do tempo.",
		schemaIntro:     "Responda com exatamente um objeto JSON com estes campos (mantenha os nomes dos campos exatamente como escritos):",
		arrayRule:       "- %q: array de objetos, cada um com %s não vazios; pelo menos %d elementos",
		stringArrayRule: "- %q: array de strings; pelo menos %d elementos",
		longFormRule:    "- %q: uma única string com pelo menos %d caracteres",
		addressRule:     "Escreva cada valor na segunda pessoa, falando diretamente com o autor do diário.",
		jsonOnlyRule:    "Retorne apenas o objeto JSON. Sem cercas de markdown, sem comentários.",
		entriesHeader:   "Entradas do diário e suas análises:",
	},
}

// Object key lists per array field, shared across languages. These are the
// JSON key names themselves, so they are never localized.
var (
	themeKeys          = `"name", "frequency", "significance", "evolution"`
	emotionKeys        = `"name", "intensity", "context", "trend"`
	symbolKeys         = `"symbol", "occurrences", "meaning"`
	recommendationKeys = `"title", "description", "rationale"`
	exerciseKeys       = `"title", "instructions", "purpose"`
)

// longFormFields lists the five long-form text fields in output order.
var longFormFields = []string{
	"overview",
	"emotional_journey",
	"growth_trajectory",
	"inner_landscape",
	"forward_guidance",
}

// BuildAnalysisPrompt assembles the system and user instructions for an
// aggregate pattern analysis in the given language. bundleJSON is the
// canonical serialization of the capped, newest-first entry+analysis set -
// the same bytes the cost estimator measured.
func BuildAnalysisPrompt(lang models.Language, bundleJSON string) AnalysisPrompt {
	tpl, ok := templates[lang]
	if !ok {
		tpl = templates[models.LanguageEnglish]
	}

	var user strings.Builder
	user.WriteString(tpl.taskIntro)
	user.WriteString("\n\n")
	user.WriteString(tpl.schemaIntro)
	user.WriteString("\n")
	fmt.Fprintf(&user, tpl.arrayRule+"\n", "themes", themeKeys, models.MinThemes)
	fmt.Fprintf(&user, tpl.arrayRule+"\n", "emotions", emotionKeys, models.MinEmotions)
	fmt.Fprintf(&user, tpl.arrayRule+"\n", "symbols", symbolKeys, models.MinSymbols)
	fmt.Fprintf(&user, tpl.arrayRule+"\n", "recommendations", recommendationKeys, models.MinRecommendations)
	fmt.Fprintf(&user, tpl.arrayRule+"\n", "exercises", exerciseKeys, models.MinExercises)
	fmt.Fprintf(&user, tpl.stringArrayRule+"\n", "reflection_questions", models.MinReflectionQuestions)
	for _, field := range longFormFields {
		fmt.Fprintf(&user, tpl.longFormRule+"\n", field, models.MinLongFormChars)
	}
	user.WriteString("\n")
	user.WriteString(tpl.addressRule)
	user.WriteString("\n")
	user.WriteString(tpl.jsonOnlyRule)
	user.WriteString("\n\n")
	user.WriteString(tpl.entriesHeader)
	user.WriteString("\n")
	user.WriteString(bundleJSON)

	return AnalysisPrompt{
		System: tpl.system,
		User:   user.String(),
	}
}
