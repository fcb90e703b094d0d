package answer

import "strings"

// refusalPhrases are substrings that mark a model output as a refusal rather
// than an answer. Matching is lowercase substring containment.
var refusalPhrases = []string{
	"no information found",
	"cannot answer",
	"can't answer",
	"unable to answer",
	"not found in the documents",
	"no relevant information",
	"i don't have enough information",
	"i do not have enough information",
	"context does not contain",
	"нет информации",
	"не могу ответить",
	"не найдено в документах",
	"недостаточно информации",
	"контекст не содержит",
}

// isRefusal reports whether the model output is a refusal or effectively empty.
func isRefusal(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
