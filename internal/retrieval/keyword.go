package retrieval

import (
	"context"
	"strings"

	"docqa/internal/bm25"
	"docqa/internal/contextutil"
)

// keywordSearch is the last-resort lexical fallback: a direct keyword
// containment scan over the passages in the relational store, used when
// vector retrieval is exhausted. The score is the fraction of question
// keywords (longer than 3 characters) present in the passage, capped below
// the primary techniques' ceiling so these hits never outrank real matches.
func (e *Engine) keywordSearch(ctx context.Context, question, projectID string, set *resultSet) {
	logger := contextutil.LoggerFromContext(ctx)

	var keywords []string
	for _, tok := range bm25.FilterStopwords(bm25.Tokenize(question)) {
		if len([]rune(tok)) > 3 {
			keywords = append(keywords, tok)
		}
	}
	if len(keywords) == 0 {
		return
	}

	chunks, err := e.chunks.ListByProject(ctx, projectID)
	if err != nil {
		logger.WarnContext(ctx, "keyword fallback: failed to list passages", "error", err)
		return
	}

	for _, chunk := range chunks {
		lower := strings.ToLower(chunk.Text)
		var matched int
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		score := float64(matched) / float64(len(keywords))
		if score > keywordScoreCeiling {
			score = keywordScoreCeiling
		}
		// Require at least a third of the keywords so single stray words
		// do not flood the result set.
		if score < float64(1)/3 && matched < 2 {
			continue
		}

		set.add(Result{
			Text:   chunk.Text,
			Source: e.docFilename(ctx, chunk.DocumentID),
			Score:  score,
			Method: "keyword",
		})
	}
}
