package retrieval

import (
	"context"
	"strings"

	"docqa/internal/bm25"
	"docqa/internal/contextutil"
	"docqa/internal/llm"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Completer invokes the language model, used here for query reformulation.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.Params) (string, error)
}

// Strategy selects how much retrieval work a query is allowed.
type Strategy string

const (
	// StrategySimple runs hybrid search only; used by the fast path.
	StrategySimple Strategy = "simple"
	// StrategyFull runs the complete technique chain.
	StrategyFull Strategy = "full"
)

// Config holds retrieval tuning.
type Config struct {
	DenseWeight    float64
	BM25Weight     float64
	ScoreThreshold float64

	// Pricing-style queries get an even blend, a lower threshold and a
	// larger candidate pool. Keyword detection is configurable policy data.
	PricingKeywords       []string
	PricingDenseWeight    float64
	PricingScoreThreshold float64
}

// DefaultConfig returns the default retrieval tuning.
func DefaultConfig() Config {
	return Config{
		DenseWeight:           0.4,
		BM25Weight:            0.6,
		ScoreThreshold:        0.35,
		PricingKeywords:       []string{"цена", "стоимость", "тариф", "прайс", "price", "pricing", "cost", "tariff"},
		PricingDenseWeight:    0.5,
		PricingScoreThreshold: 0.2,
	}
}

// Score attenuation per secondary technique: results surfaced by weaker
// signals rank below equivalent primary hits.
const (
	expansionDiscount   = 0.9
	paraphraseDiscount  = 0.85
	followupDiscount    = 0.8
	keywordScoreCeiling = 0.9
)

// Engine runs the retrieval technique chain for one query.
//
// Techniques execute sequentially because each one's decision to run depends
// on whether earlier techniques met the target count; individual techniques
// parallelize their own sub-variant searches. Every technique tolerates its
// backends failing: a dead vector index or model aborts that technique only.
type Engine struct {
	embedder Embedder
	vectors  vectorstore.VectorStore
	lexicon  *bm25.Cache
	chunks   storage.ChunkStore
	docs     storage.DocumentStore
	model    Completer
	cfg      Config
}

// NewEngine creates a retrieval engine.
func NewEngine(
	embedder Embedder,
	vectors vectorstore.VectorStore,
	lexicon *bm25.Cache,
	chunks storage.ChunkStore,
	docs storage.DocumentStore,
	model Completer,
	cfg Config,
) *Engine {
	return &Engine{
		embedder: embedder,
		vectors:  vectors,
		lexicon:  lexicon,
		chunks:   chunks,
		docs:     docs,
		model:    model,
		cfg:      cfg,
	}
}

// docFilename resolves a chunk's parent document filename for provenance.
func (e *Engine) docFilename(ctx context.Context, documentID string) string {
	doc, err := e.docs.GetByID(ctx, documentID)
	if err != nil {
		return ""
	}
	return doc.Filename
}

// Search returns the best-available ranked passages for a question.
// The result is reranked and holds up to 2*topK entries; callers truncate
// to their final topK. An empty result means retrieval found nothing;
// degradation is the fallback ladder's job, not this engine's.
func (e *Engine) Search(ctx context.Context, question, projectID string, topK int, strategy Strategy) []Result {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		topK = 5
	}
	set := newResultSet()

	e.hybridSearch(ctx, question, projectID, topK, set)

	if strategy == StrategyFull {
		if set.len() < topK {
			e.expandedSearch(ctx, question, projectID, topK, set)
		}
		if set.len() < topK {
			e.reformulatedSearch(ctx, question, projectID, topK, set)
		}
		if set.len() < topK {
			e.keywordSearch(ctx, question, projectID, set)
		}
	}

	found := set.results()
	logger.InfoContext(ctx, "retrieval completed",
		"question_length", len(question), "strategy", string(strategy), "found", len(found))
	if len(found) == 0 {
		return nil
	}

	// Cap the candidate pool before reranking.
	if len(found) > 3*topK {
		found = found[:3*topK]
	}
	reranked := rerank(question, found)
	if len(reranked) > 2*topK {
		reranked = reranked[:2*topK]
	}
	return reranked
}

// isPricingQuery reports whether the question matches the pricing keyword list.
func (e *Engine) isPricingQuery(question string) bool {
	lower := strings.ToLower(question)
	for _, kw := range e.cfg.PricingKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// denseSearch embeds a query and searches the project's vector collection,
// resolving each hit's full text from the chunk store. Failures are logged
// and produce an empty slice so the calling technique can carry on.
func (e *Engine) denseSearch(ctx context.Context, query, projectID string, limit int, threshold float64) []Result {
	logger := contextutil.LoggerFromContext(ctx)

	vector, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		logger.WarnContext(ctx, "failed to embed query", "error", err)
		return nil
	}

	collection := vectorstore.CollectionName(projectID)
	matches, err := e.vectors.Search(ctx, collection, vector, limit, float32(threshold))
	if err != nil {
		logger.WarnContext(ctx, "vector search failed", "collection", collection, "error", err)
		return nil
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		text, source := e.resolveChunk(ctx, m.PointID, m.Meta)
		if text == "" {
			continue
		}
		results = append(results, Result{
			Text:   text,
			Source: source,
			Score:  float64(m.Score),
			Method: "dense",
		})
	}
	return results
}

// resolveChunk fetches the chunk text behind a vector hit, falling back to
// the payload preview when the relational row is gone.
func (e *Engine) resolveChunk(ctx context.Context, pointID string, meta map[string]any) (text, source string) {
	logger := contextutil.LoggerFromContext(ctx)

	source, _ = meta["filename"].(string)

	chunk, err := e.chunks.GetByID(ctx, pointID)
	if err != nil {
		logger.WarnContext(ctx, "failed to fetch chunk for vector hit", "point_id", pointID, "error", err)
		preview, _ := meta["text"].(string)
		return preview, source
	}
	return chunk.Text, source
}

// freshIndex returns the project's lexical index, rebuilding it from the
// passage corpus when dirty. Returns nil when the corpus cannot be read.
func (e *Engine) freshIndex(ctx context.Context, projectID string) *bm25.Index {
	logger := contextutil.LoggerFromContext(ctx)

	idx := e.lexicon.Get(projectID)
	if !idx.Dirty() {
		return idx
	}

	chunks, err := e.chunks.ListByProject(ctx, projectID)
	if err != nil {
		logger.WarnContext(ctx, "failed to load corpus for lexical index", "project_id", projectID, "error", err)
		return nil
	}

	docs := make([]bm25.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, bm25.Document{ID: c.ID, Text: c.Text})
	}
	idx.Rebuild(docs)
	logger.DebugContext(ctx, "lexical index rebuilt", "project_id", projectID, "passages", len(docs))
	return idx
}
