package answer

import "strings"

var summaryMarkers = []string{
	"summarize", "summary", "tl;dr", "краткое содержание", "резюме", "кратко",
}

var overviewMarkers = []string{
	"what is this document about", "what are these documents about", "overview",
	"describe the document", "о чем документ", "о чём документ", "про что документ",
	"обзор",
}

var analysisMarkers = []string{
	"analyze", "analyse", "analysis", "compare", "evaluate", "pros and cons",
	"проанализируй", "анализ", "сравни", "оцени",
}

// detectIntent routes a question to one of four response styles. Matching is
// keyword based; anything unrecognized is treated as a factual question.
func detectIntent(question string) Intent {
	q := strings.ToLower(question)
	for _, m := range analysisMarkers {
		if strings.Contains(q, m) {
			return IntentAnalysis
		}
	}
	for _, m := range summaryMarkers {
		if strings.Contains(q, m) {
			return IntentSummary
		}
	}
	for _, m := range overviewMarkers {
		if strings.Contains(q, m) {
			return IntentOverview
		}
	}
	return IntentFactual
}
