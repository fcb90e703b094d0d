package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"docqa/internal/bm25"
	"docqa/internal/chunker"
	"docqa/internal/contextutil"
	"docqa/internal/extract"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// parseWorkers bounds concurrent document parsing so CPU-heavy extraction
// does not starve request handling.
const parseWorkers = 2

// Embedder produces embedding vectors for a batch of texts. A nil vector in
// the returned slice marks an item that failed to embed.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline processes uploaded documents: extract text, chunk, embed, and
// store chunks in both SQLite and the vector index.
type Pipeline struct {
	docs       storage.DocumentStore
	chunks     storage.ChunkStore
	vectors    vectorstore.VectorStore
	embedder   Embedder
	chunker    *chunker.Engine
	lexicon    *bm25.Cache
	vectorSize int

	parseSlots *semaphore.Weighted
	jobs       sync.WaitGroup
}

// NewPipeline creates a document processing pipeline.
func NewPipeline(
	docs storage.DocumentStore,
	chunks storage.ChunkStore,
	vectors vectorstore.VectorStore,
	embedder Embedder,
	chunkEngine *chunker.Engine,
	lexicon *bm25.Cache,
	vectorSize int,
) *Pipeline {
	return &Pipeline{
		docs:       docs,
		chunks:     chunks,
		vectors:    vectors,
		embedder:   embedder,
		chunker:    chunkEngine,
		lexicon:    lexicon,
		vectorSize: vectorSize,
		parseSlots: semaphore.NewWeighted(parseWorkers),
	}
}

// Submit queues a document for background processing so upload requests
// return immediately even while all parse workers are busy. Each job waits
// for a parse slot inside its own goroutine. The passed context's logger is
// carried over, but the processing lifetime is detached from the request.
func (p *Pipeline) Submit(ctx context.Context, documentID string, raw []byte, filename string) {
	logger := contextutil.LoggerFromContext(ctx)
	bgCtx := contextutil.WithLogger(context.Background(), logger)

	p.jobs.Add(1)
	go func() {
		defer p.jobs.Done()
		if err := p.parseSlots.Acquire(bgCtx, 1); err != nil {
			return
		}
		defer p.parseSlots.Release(1)

		if err := p.ProcessDocument(bgCtx, documentID, raw, filename); err != nil {
			logger.ErrorContext(bgCtx, "document processing failed",
				"document_id", documentID, "filename", filename, "error", err)
		}
	}()
}

// Wait blocks until all queued documents have been processed. Used on
// shutdown and in tests.
func (p *Pipeline) Wait() {
	p.jobs.Wait()
}

// ProcessDocument runs the full pipeline for one uploaded document.
// Reprocessing is idempotent: old chunks and points are removed before the
// new ones are written. Parse failures are recorded on the document record
// and do not propagate; a chunk whose embedding failed is stored without a
// vector point so lexical retrieval still covers it.
func (p *Pipeline) ProcessDocument(ctx context.Context, documentID string, raw []byte, filename string) error {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	fileType := extract.DetectType(raw, filename)

	extracted, err := extract.Extract(raw, filename, fileType)
	if err != nil {
		logger.WarnContext(ctx, "text extraction failed",
			"document_id", documentID, "filename", filename, "error", err)
		if serr := p.docs.SetError(ctx, documentID, err.Error()); serr != nil {
			return fmt.Errorf("failed to record parse error: %w", serr)
		}
		return nil
	}

	passages := p.chunker.Chunk(ctx, chunker.Input{
		Text:     extracted.Text,
		FileType: fileType,
		Filename: filename,
		Pages:    extracted.Pages,
	})
	if len(passages) == 0 {
		logger.WarnContext(ctx, "no passages produced", "document_id", documentID, "filename", filename)
		if serr := p.docs.SetError(ctx, documentID, "empty text: no passages produced"); serr != nil {
			return fmt.Errorf("failed to record empty result: %w", serr)
		}
		return nil
	}

	collection := vectorstore.CollectionName(doc.ProjectID)
	if err := p.vectors.EnsureCollection(ctx, collection, p.vectorSize); err != nil {
		if serr := p.docs.SetError(ctx, documentID, "vector index unavailable"); serr != nil {
			logger.ErrorContext(ctx, "failed to record error status", "document_id", documentID, "error", serr)
		}
		return fmt.Errorf("failed to ensure collection %s: %w", collection, err)
	}

	// Remove previous chunks and points first so reprocessing converges.
	if err := p.deleteExisting(ctx, doc.ProjectID, documentID); err != nil {
		return err
	}

	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		if serr := p.docs.SetError(ctx, documentID, "embedding backend unavailable"); serr != nil {
			logger.ErrorContext(ctx, "failed to record error status", "document_id", documentID, "error", serr)
		}
		return fmt.Errorf("failed to embed passages: %w", err)
	}

	// Every passage becomes a chunk row so the lexical techniques can still
	// reach it. The vector point is best-effort: a chunk whose embedding
	// failed keeps an empty point reference.
	var stored, embedded int
	var points []vectorstore.Point
	var pointChunks []string
	for i, passage := range passages {
		chunkID := uuid.New().String()
		record := &storage.Chunk{
			ID:           chunkID,
			DocumentID:   documentID,
			ChunkIndex:   i,
			Section:      passage.Section,
			SectionTitle: passage.SectionTitle,
			Text:         passage.Text,
		}
		if err := p.chunks.Insert(ctx, record); err != nil {
			logger.WarnContext(ctx, "failed to insert chunk",
				"document_id", documentID, "chunk_index", i, "error", err)
			continue
		}
		stored++

		if embeddings[i] == nil {
			logger.WarnContext(ctx, "chunk stored without embedding",
				"document_id", documentID, "chunk_index", i)
			continue
		}

		points = append(points, vectorstore.Point{
			ID:  chunkID,
			Vec: embeddings[i],
			Meta: map[string]any{
				"project_id":  doc.ProjectID,
				"document_id": documentID,
				"filename":    doc.Filename,
				"chunk_index": i,
				"section":     passage.Section,
				"text":        passage.Text,
			},
		})
		pointChunks = append(pointChunks, chunkID)
		embedded++
	}

	if stored == 0 {
		if serr := p.docs.SetError(ctx, documentID, "no chunks could be stored"); serr != nil {
			logger.ErrorContext(ctx, "failed to record error status", "document_id", documentID, "error", serr)
		}
		return fmt.Errorf("no chunks stored for document %s", documentID)
	}

	if len(points) > 0 {
		if err := p.vectors.Upsert(ctx, collection, points); err != nil {
			if serr := p.docs.SetError(ctx, documentID, "vector index unavailable"); serr != nil {
				logger.ErrorContext(ctx, "failed to record error status", "document_id", documentID, "error", serr)
			}
			return fmt.Errorf("failed to upsert vectors: %w", err)
		}
		// Point references are recorded only once the upsert confirmed.
		for _, chunkID := range pointChunks {
			if err := p.chunks.SetPointID(ctx, chunkID, chunkID); err != nil {
				logger.WarnContext(ctx, "failed to record point reference",
					"chunk_id", chunkID, "error", err)
			}
		}
	}

	if err := p.docs.SetReady(ctx, documentID, extracted.Text); err != nil {
		return fmt.Errorf("failed to mark document ready: %w", err)
	}

	// The lexical index rebuilds lazily on next search.
	p.lexicon.MarkDirty(doc.ProjectID)

	logger.InfoContext(ctx, "document processed",
		"document_id", documentID,
		"filename", filename,
		"file_type", fileType,
		"chunks", stored,
		"embedded", embedded,
	)
	return nil
}

// DeleteDocument removes a document and everything derived from it.
func (p *Pipeline) DeleteDocument(ctx context.Context, projectID, documentID string) error {
	if err := p.deleteExisting(ctx, projectID, documentID); err != nil {
		return err
	}
	if err := p.docs.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	p.lexicon.MarkDirty(projectID)
	return nil
}

// deleteExisting clears a document's chunks from SQLite and its points from
// the vector index. A missing collection is not an error.
func (p *Pipeline) deleteExisting(ctx context.Context, projectID, documentID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	collection := vectorstore.CollectionName(projectID)
	exists, err := p.vectors.CollectionExists(ctx, collection)
	if err != nil {
		logger.WarnContext(ctx, "failed to check collection", "collection", collection, "error", err)
	} else if exists {
		if err := p.vectors.DeleteByDocument(ctx, collection, documentID); err != nil {
			logger.WarnContext(ctx, "failed to delete old points",
				"document_id", documentID, "error", err)
		}
	}

	if err := p.chunks.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}
	return nil
}
