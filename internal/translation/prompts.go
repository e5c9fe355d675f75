package translation

import (
	"fmt"
	"strings"

	"epub-translator/internal/epub"
)

// SystemInstruction builds the per-unit instruction for a repair level:
// 0 recreates the author's voice, 1 forces a translation after a rejected
// attempt, 2 asks for a literal rendering.
func SystemInstruction(settings Settings, strategy *Strategy, level int) string {
	source := LanguageName(settings.SourceLanguage)
	target := LanguageName(settings.TargetLanguage)
	if source == "" {
		source = "Auto"
	}

	bookContext := "Professional literary translation."
	if strategy != nil {
		bookContext = fmt.Sprintf(`BOOK CONTEXT:
- Genre: %s
- Tone: %s
- Style: %s
- Strategy: %s`, strategy.GenreEN, strategy.ToneEN, strategy.AuthorStyleEN, strategy.StrategyEN)
	}

	var mode string
	switch {
	case level <= 0:
		mode = `1. AUTHOR'S VOICE: Recreate the voice described above. Stay faithful to the effect of each sentence.`
	case level == 1:
		mode = fmt.Sprintf(`1. CORRECTION MODE: The previous output was rejected as untranslated, truncated or repetitive.
   - You MUST translate the text into %s.
   - Do not copy the source text and do not repeat phrases.`, target)
	default:
		mode = fmt.Sprintf(`1. LITERAL MODE: Earlier attempts failed. Ignore style.
   - Translate word for word into %s.
   - No repetitions and no %s words in the output.
   - Transliterate proper nouns only when they have no translation.`, target, source)
	}

	return fmt.Sprintf(`You are an expert literary translator (%s -> %s).
%s

INSTRUCTIONS:
%s

2. FIDELITY: Do not censor or soften the content.

3. STRUCTURE:
   - Keep every HTML tag and attribute exactly as given. Translate only the text inside tags.
   - Keep LaTeX, formulas and code unchanged; translate only comments.

4. REFERENCES:
   - Keep numbers, footnote markers ([1], *) and years intact.
   - In bibliographies keep author names and titles; translate descriptive words.

5. DO NOT TRANSLATE:
   - href attributes of links.
   - Content of <table>, <svg> and <figure> blocks, and image alt text.

6. OUTPUT: Return only the translated fragment, never the input unchanged, with no commentary.`,
		source, target, bookContext, mode)
}

// StrategyFields is the schema the analyzer must fill.
var StrategyFields = []SchemaField{
	{Name: "genre_en"},
	{Name: "tone_en"},
	{Name: "author_style_en"},
	{Name: "strategy_en"},
	{Name: "genre_translated"},
	{Name: "tone_translated"},
	{Name: "author_style_translated"},
	{Name: "strategy_translated"},
	{Name: "literary_fidelity_note"},
	{Name: "detected_creativity_level", Number: true},
}

// AnalysisPrompt asks for a whole-book strategy. Reviewer feedback, when
// given, is marked as overriding the model's own reading.
func AnalysisPrompt(settings Settings, meta epub.BookMetadata, feedback string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a literary analyst. Analyze this book to guide a translator from %s to %s.

METADATA:
Title: %s
Author: %s
Description: %s

TASK:
1. Identify the genre.
2. Identify the tone.
3. Identify the writing style.
4. Define a translation strategy.
5. Choose a creativity level between 0.0 and 1.0.

OUTPUT FORMAT:
Return ONLY a JSON object with exactly these keys:
`, LanguageName(settings.SourceLanguage), LanguageName(settings.TargetLanguage), meta.Title, meta.Creator, meta.Description)

	for _, f := range StrategyFields {
		kind := "string"
		if f.Number {
			kind = "number"
		}
		fmt.Fprintf(&b, "- %s (%s)\n", f.Name, kind)
	}

	if feedback = strings.TrimSpace(feedback); feedback != "" {
		fmt.Fprintf(&b, `
REVIEWER FEEDBACK (CRITICAL): A reviewer rejected the previous analysis with this correction: %q.
Adjust the genre, tone and strategy to follow it.
`, feedback)
	}

	uiLanguage := LanguageName(settings.UILanguage)
	if uiLanguage == "" {
		uiLanguage = "English"
	}
	fmt.Fprintf(&b, "\nWrite every *_translated field in %s.", uiLanguage)

	return b.String()
}
