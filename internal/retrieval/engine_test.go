package retrieval

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"docqa/internal/bm25"
	"docqa/internal/llm"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

type fakeVectors struct {
	results []vectorstore.SearchResult
	err     error
}

func (f *fakeVectors) EnsureCollection(_ context.Context, _ string, _ int) error { return nil }
func (f *fakeVectors) CollectionExists(_ context.Context, _ string) (bool, error) {
	return true, nil
}
func (f *fakeVectors) Upsert(_ context.Context, _ string, _ []vectorstore.Point) error { return nil }
func (f *fakeVectors) Search(_ context.Context, _ string, _ []float32, _ int, threshold float32) ([]vectorstore.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]vectorstore.SearchResult, 0, len(f.results))
	for _, r := range f.results {
		if r.Score >= threshold {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeVectors) Delete(_ context.Context, _ string, _ []string) error         { return nil }
func (f *fakeVectors) DeleteByDocument(_ context.Context, _, _ string) error        { return nil }

type fakeChunks struct {
	chunks map[string]*storage.Chunk
	order  []string
}

func newFakeChunks(chunks ...*storage.Chunk) *fakeChunks {
	f := &fakeChunks{chunks: make(map[string]*storage.Chunk)}
	for _, c := range chunks {
		f.chunks[c.ID] = c
		f.order = append(f.order, c.ID)
	}
	return f
}

func (f *fakeChunks) Insert(_ context.Context, c *storage.Chunk) error {
	f.chunks[c.ID] = c
	f.order = append(f.order, c.ID)
	return nil
}
func (f *fakeChunks) SetPointID(_ context.Context, _, _ string) error    { return nil }
func (f *fakeChunks) DeleteByDocument(_ context.Context, _ string) error { return nil }
func (f *fakeChunks) ListByProject(_ context.Context, _ string) ([]*storage.Chunk, error) {
	out := make([]*storage.Chunk, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.chunks[id])
	}
	return out, nil
}
func (f *fakeChunks) GetByID(_ context.Context, id string) (*storage.Chunk, error) {
	c, ok := f.chunks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

type fakeDocs struct {
	docs map[string]*storage.Document
}

func (f *fakeDocs) Create(_ context.Context, _ *storage.Document) error { return nil }
func (f *fakeDocs) GetByID(_ context.Context, id string) (*storage.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return d, nil
}
func (f *fakeDocs) ListByProject(_ context.Context, _ string) ([]*storage.Document, error) {
	var out []*storage.Document
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}
func (f *fakeDocs) SetReady(_ context.Context, _, _ string) error { return nil }
func (f *fakeDocs) SetError(_ context.Context, _, _ string) error { return nil }
func (f *fakeDocs) Delete(_ context.Context, _ string) error      { return nil }

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, _ []llm.Message, _ llm.Params) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func passage(word string) string {
	return word + " " + strings.Repeat("filler", 10)
}

func newTestEngine(embedder Embedder, vectors vectorstore.VectorStore, chunks storage.ChunkStore, docs storage.DocumentStore, model Completer) *Engine {
	return NewEngine(embedder, vectors, bm25.NewCache(), chunks, docs, model, DefaultConfig())
}

func TestHybridDenseOnlyBlend(t *testing.T) {
	// Lexical corpus shares no tokens with the query, so only the dense leg
	// contributes and the combined score is exactly denseWeight * normalized.
	chunks := newFakeChunks(
		&storage.Chunk{ID: "c1", DocumentID: "d1", Text: passage("alpha")},
		&storage.Chunk{ID: "c2", DocumentID: "d1", Text: passage("beta")},
	)
	vectors := &fakeVectors{results: []vectorstore.SearchResult{
		{PointID: "c1", Score: 0.9},
		{PointID: "c2", Score: 0.5},
	}}
	docs := &fakeDocs{docs: map[string]*storage.Document{
		"d1": {ID: "d1", Filename: "report.pdf"},
	}}
	e := newTestEngine(&fakeEmbedder{vec: []float32{1}}, vectors, chunks, docs, &fakeCompleter{err: errors.New("down")})

	results := e.Search(context.Background(), "unrelatedquery", "p1", 5, StrategySimple)

	// norm(0.9)=1, norm(0.5)=0 -> combined 0.4 and 0; the default threshold
	// 0.35 keeps only the first.
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if math.Abs(results[0].Score-0.4) > 1e-9 {
		t.Fatalf("expected combined score 0.4, got %f", results[0].Score)
	}
	if results[0].Source != "report.pdf" {
		t.Errorf("expected source filename, got %q", results[0].Source)
	}
	if results[0].Method != "hybrid" {
		t.Errorf("expected hybrid method tag, got %q", results[0].Method)
	}
}

func TestSearchDeterministic(t *testing.T) {
	chunks := newFakeChunks(
		&storage.Chunk{ID: "c1", DocumentID: "d1", Text: passage("alpha")},
		&storage.Chunk{ID: "c2", DocumentID: "d1", Text: passage("beta")},
		&storage.Chunk{ID: "c3", DocumentID: "d1", Text: passage("gamma")},
	)
	vectors := &fakeVectors{results: []vectorstore.SearchResult{
		{PointID: "c1", Score: 0.9},
		{PointID: "c2", Score: 0.8},
		{PointID: "c3", Score: 0.7},
	}}
	docs := &fakeDocs{docs: map[string]*storage.Document{"d1": {ID: "d1", Filename: "a.txt"}}}
	e := newTestEngine(&fakeEmbedder{vec: []float32{1}}, vectors, chunks, docs, &fakeCompleter{err: errors.New("down")})

	first := e.Search(context.Background(), "unrelatedquery", "p1", 5, StrategyFull)
	second := e.Search(context.Background(), "unrelatedquery", "p1", 5, StrategyFull)

	if len(first) != len(second) {
		t.Fatalf("result count differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text || first[i].Score != second[i].Score {
			t.Fatalf("result %d differs between runs", i)
		}
	}
}

func TestKeywordFallback(t *testing.T) {
	// Dense search is dead, and the keywords only appear inside longer
	// compound tokens so the lexical leg cannot match either. Only the
	// substring containment fallback can produce results.
	chunks := newFakeChunks(
		&storage.Chunk{ID: "c1", DocumentID: "d1", Text: "Extended warrantyperiod: the deviceprotection plan covers twentyfour monthsfrom purchase."},
		&storage.Chunk{ID: "c2", DocumentID: "d1", Text: "Shipping options include standard plus express delivery to all regions."},
	)
	vectors := &fakeVectors{err: errors.New("index down")}
	docs := &fakeDocs{docs: map[string]*storage.Document{"d1": {ID: "d1", Filename: "terms.txt"}}}
	e := newTestEngine(&fakeEmbedder{err: errors.New("embedder down")}, vectors, chunks, docs, &fakeCompleter{err: errors.New("model down")})

	results := e.Search(context.Background(), "warranty period months", "p1", 5, StrategyFull)

	var keywordHit bool
	for _, r := range results {
		if r.Method == "keyword" {
			keywordHit = true
			if r.Score > 0.9 {
				t.Fatalf("keyword score must be capped at 0.9, got %f", r.Score)
			}
			if !strings.Contains(r.Text, "warranty") {
				t.Errorf("unexpected keyword hit: %q", r.Text)
			}
		}
	}
	if !keywordHit {
		t.Fatal("expected a keyword fallback hit")
	}
}

func TestSearchEmptyWhenEverythingFails(t *testing.T) {
	chunks := newFakeChunks()
	vectors := &fakeVectors{err: errors.New("down")}
	docs := &fakeDocs{docs: map[string]*storage.Document{}}
	e := newTestEngine(&fakeEmbedder{err: errors.New("down")}, vectors, chunks, docs, &fakeCompleter{err: errors.New("down")})

	if results := e.Search(context.Background(), "anything at all", "p1", 5, StrategyFull); results != nil {
		t.Fatalf("expected nil result set, got %d results", len(results))
	}
}

func TestSearchCapsAtTwiceTopK(t *testing.T) {
	var stored []*storage.Chunk
	var hits []vectorstore.SearchResult
	for i := 0; i < 30; i++ {
		id := string(rune('a' + i%26)) + string(rune('0' + i/26))
		stored = append(stored, &storage.Chunk{
			ID: id, DocumentID: "d1",
			Text: passage("unique" + id),
		})
		// Equal scores normalize to 1, so every hit clears the threshold.
		hits = append(hits, vectorstore.SearchResult{PointID: id, Score: 1})
	}
	chunks := newFakeChunks(stored...)
	vectors := &fakeVectors{results: hits}
	docs := &fakeDocs{docs: map[string]*storage.Document{"d1": {ID: "d1", Filename: "big.txt"}}}
	e := newTestEngine(&fakeEmbedder{vec: []float32{1}}, vectors, chunks, docs, &fakeCompleter{err: errors.New("down")})

	results := e.Search(context.Background(), "unrelatedquery", "p1", 5, StrategySimple)
	if len(results) != 10 {
		t.Fatalf("expected exactly 2*topK results, got %d", len(results))
	}
}

func TestIsPricingQuery(t *testing.T) {
	e := newTestEngine(&fakeEmbedder{}, &fakeVectors{}, newFakeChunks(), &fakeDocs{}, &fakeCompleter{})

	if !e.isPricingQuery("Какая цена тарифа?") {
		t.Error("russian pricing keyword not detected")
	}
	if !e.isPricingQuery("What is the pricing plan?") {
		t.Error("english pricing keyword not detected")
	}
	if e.isPricingQuery("How does chunking work?") {
		t.Error("non-pricing question misclassified")
	}
}

func TestQueryVariants(t *testing.T) {
	variants := queryVariants("What is the warranty period for the device and the battery replacement policy")
	if len(variants) == 0 {
		t.Fatal("expected variants for a long question")
	}
	if len(variants) > maxQueryVariants {
		t.Fatalf("expected at most %d variants, got %d", maxQueryVariants, len(variants))
	}
	for _, v := range variants {
		if strings.TrimSpace(v) == "" {
			t.Fatal("empty variant produced")
		}
	}
}
