package llmadapter

import "fmt"

const DefaultLanguage = "en"

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"te": "Telugu",
	"ta": "Tamil",
	"kn": "Kannada",
	"ml": "Malayalam",
	"es": "Spanish",
}

// SupportedLanguages lists the accepted language codes.
func SupportedLanguages() []string {
	return []string{"en", "hi", "te", "ta", "kn", "ml", "es"}
}

// LanguageName maps a code to its display name, English when unknown.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return languageNames[DefaultLanguage]
}

func LanguageInstruction(code string) string {
	return fmt.Sprintf(
		"Respond in %s. Keep verse ref, sanskrit, and transliteration aligned with provided verses. "+
			"Use the target language for translation, explanation, and guidance fields.",
		LanguageName(code),
	)
}
