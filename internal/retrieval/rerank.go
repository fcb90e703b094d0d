package retrieval

import (
	"sort"

	"docqa/internal/bm25"
)

const (
	overlapLengthScale = 10.0
	maxOverlapBonus    = 0.3
)

// overlapBonus computes a lightweight lexical relevance bonus for a passage
// relative to the question. The bonus is normalized to a bounded range so it
// can be blended with retrieval scores without overwhelming them.
func overlapBonus(question, text string) float64 {
	queryTokens := bm25.FilterStopwords(bm25.Tokenize(question))
	if len(queryTokens) == 0 {
		return 0
	}

	passageTokens := bm25.Tokenize(text)
	if len(passageTokens) == 0 {
		return 0
	}

	freq := make(map[string]int, len(passageTokens))
	for _, token := range passageTokens {
		freq[token]++
	}

	var rawMatches int
	for _, token := range queryTokens {
		rawMatches += freq[token]
	}

	bonus := (float64(rawMatches) / (1 + float64(len(passageTokens)))) * overlapLengthScale
	if bonus > maxOverlapBonus {
		return maxOverlapBonus
	}
	if bonus < 0 {
		return 0
	}
	return bonus
}

// rerank reorders retrieval results by blending the retrieval score with a
// bounded lexical overlap bonus. The sort is stable so equally scored
// passages keep their original retrieval order.
func rerank(question string, results []Result) []Result {
	if len(results) < 2 {
		return results
	}

	type scored struct {
		result Result
		score  float64
	}
	pool := make([]scored, len(results))
	for i, r := range results {
		pool[i] = scored{result: r, score: r.Score + overlapBonus(question, r.Text)}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].score > pool[j].score
	})

	out := make([]Result, len(pool))
	for i, s := range pool {
		out[i] = s.result
	}
	return out
}
