package translation

import "strings"

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
	"fa": "Persian",
	"he": "Hebrew",
	"hi": "Hindi",
	"tr": "Turkish",
	"pl": "Polish",
	"nl": "Dutch",
	"sv": "Swedish",
	"da": "Danish",
	"no": "Norwegian",
	"fi": "Finnish",
	"cs": "Czech",
	"hu": "Hungarian",
	"ro": "Romanian",
	"bg": "Bulgarian",
	"el": "Greek",
	"uk": "Ukrainian",
	"vi": "Vietnamese",
	"id": "Indonesian",
	"az": "Azerbaijani",
}

// LanguageName turns an ISO 639-1 code into an English language name. Labels
// that are not known codes ("Auto", "Turkish") are returned unchanged.
func LanguageName(label string) string {
	label = strings.TrimSpace(label)
	if name, exists := languageNames[strings.ToLower(label)]; exists {
		return name
	}
	return label
}
