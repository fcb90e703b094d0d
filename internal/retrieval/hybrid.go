package retrieval

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"docqa/internal/bm25"
	"docqa/internal/contextutil"
	"docqa/internal/vectorstore"
)

// scoredChunk pairs a chunk id with one technique's raw score.
type scoredChunk struct {
	id    string
	score float64
}

// hybridSearch is the primary technique: dense and lexical legs run over the
// same corpus in parallel, each leg's scores are min-max normalized
// independently, and the blend dense_weight*norm_dense + bm25_weight*norm_bm25
// is thresholded. Either leg failing leaves the other's contribution intact.
func (e *Engine) hybridSearch(ctx context.Context, question, projectID string, topK int, set *resultSet) {
	logger := contextutil.LoggerFromContext(ctx)

	denseWeight := e.cfg.DenseWeight
	threshold := e.cfg.ScoreThreshold
	pool := 3 * topK
	if e.isPricingQuery(question) {
		denseWeight = e.cfg.PricingDenseWeight
		threshold = e.cfg.PricingScoreThreshold
		pool = 5 * topK
		logger.DebugContext(ctx, "pricing-style query detected", "threshold", threshold)
	}
	bm25Weight := 1 - denseWeight

	var denseHits []scoredChunk
	var lexHits []bm25.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vector, err := e.embedder.EmbedText(gctx, question)
		if err != nil {
			logger.WarnContext(gctx, "hybrid dense leg: embedding failed", "error", err)
			return nil
		}
		collection := vectorstore.CollectionName(projectID)
		matches, err := e.vectors.Search(gctx, collection, vector, pool, 0)
		if err != nil {
			logger.WarnContext(gctx, "hybrid dense leg: vector search failed", "error", err)
			return nil
		}
		for _, m := range matches {
			denseHits = append(denseHits, scoredChunk{id: m.PointID, score: float64(m.Score)})
		}
		return nil
	})
	g.Go(func() error {
		idx := e.freshIndex(gctx, projectID)
		if idx == nil {
			return nil
		}
		lexHits = idx.Search(question, pool)
		return nil
	})
	_ = g.Wait()

	normDense := normalizeScores(denseHits)
	lexChunks := make([]scoredChunk, 0, len(lexHits))
	for _, h := range lexHits {
		lexChunks = append(lexChunks, scoredChunk{id: h.ID, score: h.Score})
	}
	normLex := normalizeScores(lexChunks)

	// Union of both legs, dense-leg order first for deterministic ties.
	combined := make(map[string]float64)
	var order []string
	for _, h := range denseHits {
		if _, seen := combined[h.id]; !seen {
			order = append(order, h.id)
		}
		combined[h.id] = denseWeight * normDense[h.id]
	}
	for _, h := range lexHits {
		if _, seen := combined[h.ID]; !seen {
			order = append(order, h.ID)
		}
		combined[h.ID] += bm25Weight * normLex[h.ID]
	}

	sort.SliceStable(order, func(a, b int) bool {
		return combined[order[a]] > combined[order[b]]
	})

	for _, id := range order {
		score := combined[id]
		if score < threshold {
			continue
		}
		chunk, err := e.chunks.GetByID(ctx, id)
		if err != nil {
			logger.WarnContext(ctx, "hybrid: failed to fetch chunk", "chunk_id", id, "error", err)
			continue
		}
		set.add(Result{
			Text:   chunk.Text,
			Source: e.docFilename(ctx, chunk.DocumentID),
			Score:  score,
			Method: "hybrid",
		})
	}
}

// normalizeScores min-max normalizes one technique's scores into [0,1].
// A single hit, or hits with equal scores, normalize to 1.
func normalizeScores(hits []scoredChunk) map[string]float64 {
	norm := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return norm
	}

	minScore, maxScore := hits[0].score, hits[0].score
	for _, h := range hits[1:] {
		if h.score < minScore {
			minScore = h.score
		}
		if h.score > maxScore {
			maxScore = h.score
		}
	}

	span := maxScore - minScore
	for _, h := range hits {
		if span == 0 {
			norm[h.id] = 1
			continue
		}
		norm[h.id] = (h.score - minScore) / span
	}
	return norm
}
