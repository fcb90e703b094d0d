// Package chunker splits raw document text into retrieval-sized passages.
//
// Strategies form a ladder tried in order; a strategy that errors or yields
// nothing hands over to the next, and the fixed-window fallback at the bottom
// cannot fail. Chunk therefore never returns an error: the worst case for
// non-empty input is fixed-size windows, and empty input yields no passages.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"docqa/internal/contextutil"
	"docqa/internal/llm"
)

// Config holds chunk size policy. All sizes are in runes.
type Config struct {
	Size    int // default window size
	Overlap int // window overlap for the fixed-window fallback
	Min     int // passages below this are merged into a neighbor
	Max     int // no strategy may emit passages above this

	// Documents above this size use the hierarchical section-first mode
	// and become eligible for model-assisted boundary selection.
	LargeDocThreshold int
}

// DefaultConfig returns the default chunk size policy.
func DefaultConfig() Config {
	return Config{
		Size:              800,
		Overlap:           200,
		Min:               100,
		Max:               2000,
		LargeDocThreshold: 50000,
	}
}

// BoundaryModel proposes chunk boundaries for the model-assisted strategy.
type BoundaryModel interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.Params) (string, error)
}

// Input is one document to be chunked.
type Input struct {
	Text     string
	FileType string
	Filename string
	// Pages holds per-page text for page-oriented formats (PDF); empty otherwise.
	Pages []string
}

// Passage is one retrieval-sized piece of a document, tagged with its
// section position when hierarchical mode was used.
type Passage struct {
	Text         string
	Section      int
	SectionTitle string
}

// Engine runs the chunking strategy ladder.
type Engine struct {
	cfg   Config
	model BoundaryModel // nil disables the model-assisted strategy
}

// New creates a chunking engine. model may be nil.
func New(cfg Config, model BoundaryModel) *Engine {
	if cfg.Size <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg, model: model}
}

// strategy is one rung of the ladder. fn returns the passages it produced;
// returning an error or zero passages moves the driver to the next rung.
type strategy struct {
	name string
	fn   func(ctx context.Context, input Input) ([]string, error)
}

// Chunk converts document text into an ordered list of non-empty passages.
// It never fails; empty or whitespace-only input yields an empty list.
func (e *Engine) Chunk(ctx context.Context, input Input) []Passage {
	if strings.TrimSpace(input.Text) == "" {
		return nil
	}

	if utf8.RuneCountInString(input.Text) > e.cfg.LargeDocThreshold {
		return e.chunkHierarchical(ctx, input)
	}

	texts := e.runLadder(ctx, input)
	passages := make([]Passage, 0, len(texts))
	for _, t := range texts {
		passages = append(passages, Passage{Text: t})
	}
	return passages
}

// runLadder tries each strategy in order and returns the first non-empty result.
func (e *Engine) runLadder(ctx context.Context, input Input) []string {
	logger := contextutil.LoggerFromContext(ctx)

	ladder := []strategy{
		{"page", e.chunkByPages},
		{"element", e.chunkByElements},
		{"recursive", e.chunkRecursive},
		{"semantic", e.chunkBySentences},
		{"model", e.chunkByModel},
	}

	for _, s := range ladder {
		chunks, err := s.fn(ctx, input)
		if err != nil {
			logger.DebugContext(ctx, "chunking strategy failed", "strategy", s.name, "error", err)
			continue
		}
		if len(chunks) == 0 {
			continue
		}
		logger.DebugContext(ctx, "chunking strategy succeeded", "strategy", s.name, "chunks", len(chunks))
		return chunks
	}

	// Terminal fallback, guaranteed non-empty for non-empty input.
	chunks := e.chunkByWindow(input.Text)
	logger.DebugContext(ctx, "fixed-window fallback used", "chunks", len(chunks))
	return chunks
}

// chunkHierarchical splits a very large document into top-level sections and
// runs the full ladder independently within each one. Every passage carries
// its section index and title. When no headings are found the whole document
// is one section.
func (e *Engine) chunkHierarchical(ctx context.Context, input Input) []Passage {
	sections := splitSections(input.Text)

	var passages []Passage
	for i, sec := range sections {
		sub := input
		sub.Text = sec.body
		// Page boundaries no longer line up once the text is re-split
		// into sections, so the page strategy is skipped here.
		sub.Pages = nil

		for _, t := range e.runLadder(ctx, sub) {
			passages = append(passages, Passage{
				Text:         t,
				Section:      i,
				SectionTitle: sec.title,
			})
		}
	}
	return passages
}

// mergeSmall folds passages below the minimum size into their predecessor.
// The first passage has no predecessor and is kept as-is.
func (e *Engine) mergeSmall(chunks []string) []string {
	if len(chunks) == 0 {
		return chunks
	}

	result := make([]string, 0, len(chunks))
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if len(result) > 0 && utf8.RuneCountInString(c) < e.cfg.Min {
			result[len(result)-1] = result[len(result)-1] + "\n\n" + c
			continue
		}
		result = append(result, c)
	}
	return result
}
