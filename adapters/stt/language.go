package stt

import "strings"

// minPlausibilityLength is the shortest transcript worth checking. Below
// this a missing function word proves nothing.
const minPlausibilityLength = 20

// functionWords holds the most common function words per supported language
// code prefix. A transcript of real speech in the language should contain at
// least one of them.
var functionWords = map[string][]string{
	"es": {"el", "la", "de", "que", "y", "en", "un", "una", "los", "las", "no", "es", "con", "por", "para", "se", "su", "del", "pero", "como"},
	"en": {"the", "of", "and", "to", "in", "that", "is", "it", "for", "on", "with", "as", "was", "at", "but", "not"},
}

// LanguagePlausible scans the text for common function words of the target
// language. It errs on the permissive side: unknown languages and short
// texts are always plausible. A false result is advisory, never fatal.
func LanguagePlausible(text, language string) bool {
	if len(text) < minPlausibilityLength {
		return true
	}
	code := strings.ToLower(language)
	if i := strings.IndexByte(code, '-'); i > 0 {
		code = code[:i]
	}
	words, ok := functionWords[code]
	if !ok {
		return true
	}
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != 'á' && r != 'é' && r != 'í' && r != 'ó' && r != 'ú' && r != 'ñ' && r != 'ü'
	})
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		seen[tok] = struct{}{}
	}
	for _, w := range words {
		if _, ok := seen[w]; ok {
			return true
		}
	}
	return false
}
