package retrieval

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"docqa/internal/bm25"
	"docqa/internal/contextutil"
)

const (
	maxQueryVariants   = 5
	truncatedWordCount = 8
)

// expandedSearch derives mechanical variants of the question and dense-searches
// each at a reduced threshold. Variant scores are attenuated because these are
// secondary signals. Variant searches run in parallel.
func (e *Engine) expandedSearch(ctx context.Context, question, projectID string, topK int, set *resultSet) {
	variants := queryVariants(question)
	if len(variants) == 0 {
		return
	}

	logVariants(ctx, "expansion", variants)
	reducedThreshold := e.cfg.ScoreThreshold * 0.8
	e.searchVariants(ctx, variants, projectID, topK, reducedThreshold, expansionDiscount, "expansion", set)
}

// searchVariants dense-searches a batch of query variants concurrently and
// merges the attenuated results into the set in variant order.
func (e *Engine) searchVariants(ctx context.Context, variants []string, projectID string, topK int, threshold, discount float64, method string, set *resultSet) {
	results := make([][]Result, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	for i, variant := range variants {
		g.Go(func() error {
			results[i] = e.denseSearch(gctx, variant, projectID, topK, threshold)
			return nil
		})
	}
	_ = g.Wait()

	for _, found := range results {
		for _, r := range found {
			r.Score *= discount
			r.Method = method
			set.add(r)
		}
	}
}

// queryVariants builds up to maxQueryVariants mechanical reformulations:
// a keyword-only version, a stopword-stripped version and a truncation to
// the first few words. Variants identical to the original are dropped.
func queryVariants(question string) []string {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	seen := map[string]struct{}{strings.ToLower(question): {}}
	var variants []string
	push := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, v)
	}

	// Keyword-only: tokenized, stopwords removed.
	tokens := bm25.FilterStopwords(bm25.Tokenize(question))
	if len(tokens) > 0 {
		push(strings.Join(tokens, " "))
	}

	// Stopword-stripped but with original word forms preserved.
	words := strings.Fields(question)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		norm := bm25.Tokenize(w)
		if len(norm) == 1 && len(bm25.FilterStopwords(norm)) == 0 {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) > 0 && len(kept) < len(words) {
		push(strings.Join(kept, " "))
	}

	// First-N-words truncation for long questions.
	if len(words) > truncatedWordCount {
		push(strings.Join(words[:truncatedWordCount], " "))
	}

	if len(variants) > maxQueryVariants {
		variants = variants[:maxQueryVariants]
	}
	return variants
}

// logVariants is a debug helper shared by expansion and reformulation.
func logVariants(ctx context.Context, method string, variants []string) {
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "query variants generated",
		"method", method, "count", len(variants))
}
