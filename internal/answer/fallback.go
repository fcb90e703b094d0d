package answer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/llm"
	"docqa/internal/storage"
)

const (
	maxSubAgentDocs      = 3
	subAgentCharBudget   = 4000
	longContextEmbedMax  = 2
	longContextEmbedRune = 8000
	longContextCtxRune   = 5000
	longContextMinCosine = 0.3
)

type fallbackStage struct {
	name Mode
	fn   func(ctx context.Context, req Request, docs []*storage.Document) (string, error)
}

// runLadder tries the degradation stages in fixed order and returns the first
// non-blank result. The final stage makes no external calls and always
// produces text, so the ladder as a whole cannot come back empty.
func (c *Composer) runLadder(ctx context.Context, req Request, docs []*storage.Document) Result {
	logger := contextutil.LoggerFromContext(ctx)

	stages := []fallbackStage{
		{ModeMetadata, c.fallbackMetadata},
		{ModeSubAgent, c.fallbackSubAgent},
		{ModeLongContext, c.fallbackLongContext},
		{ModeGeneric, c.fallbackGeneric},
		{ModeBasic, c.fallbackBasic},
	}

	for _, stage := range stages {
		text, err := stage.fn(ctx, req, docs)
		if err != nil {
			logger.WarnContext(ctx, "fallback stage failed",
				"stage", string(stage.name), "error", err)
			continue
		}
		if isBlank(text) {
			logger.InfoContext(ctx, "fallback stage returned nothing", "stage", string(stage.name))
			continue
		}
		logger.InfoContext(ctx, "fallback stage answered",
			"stage", string(stage.name), "project_id", req.Project.ID)
		return Result{Text: strings.TrimSpace(text), Mode: stage.name}
	}

	// Unreachable: fallbackBasic never errors and never returns blank.
	return Result{Text: noDocumentsText, Mode: ModeBasic}
}

// fallbackMetadata answers from filenames and short previews only.
func (c *Composer) fallbackMetadata(ctx context.Context, req Request, docs []*storage.Document) (string, error) {
	if len(docs) == 0 {
		return "", nil
	}

	messages := []llm.Message{
		{Role: "system", Content: metadataSystemPrompt},
	}
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("%s\n\n%s", req.Question, metadataContext(docs)),
	})

	text, err := c.model.Complete(ctx, messages, llm.Params{Temperature: 0.7})
	if err != nil {
		return "", fmt.Errorf("metadata completion: %w", err)
	}
	return text, nil
}

// fallbackSubAgent asks the model about each document independently and
// concatenates the non-refusal sub-answers, tagged by source filename.
func (c *Composer) fallbackSubAgent(ctx context.Context, req Request, docs []*storage.Document) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var parts []string
	var tried int
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		if tried >= maxSubAgentDocs {
			break
		}
		tried++

		messages := []llm.Message{
			{Role: "system", Content: "You are given one document. Answer the user's question from this document only. " +
				"If the document does not answer the question, reply exactly: no information found."},
			{Role: "user", Content: fmt.Sprintf("%s\n\n--- Document: %s ---\n%s",
				req.Question, doc.Filename, truncateRunes(doc.Content, subAgentCharBudget))},
		}

		text, err := c.model.Complete(ctx, messages, llm.Params{Temperature: 0.3})
		if err != nil {
			logger.WarnContext(ctx, "sub-agent call failed", "filename", doc.Filename, "error", err)
			continue
		}
		if isRefusal(text) {
			continue
		}
		parts = append(parts, fmt.Sprintf("From %s:\n%s", doc.Filename, strings.TrimSpace(text)))
	}

	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, "\n\n"), nil
}

// fallbackLongContext embeds whole-document prefixes, picks the document most
// similar to the question and answers from its opening section.
func (c *Composer) fallbackLongContext(ctx context.Context, req Request, docs []*storage.Document) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	queryVec, err := c.embedder.EmbedText(ctx, req.Question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	var best *storage.Document
	var bestScore float64
	var tried int
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		if tried >= longContextEmbedMax {
			break
		}
		tried++

		docVec, err := c.embedder.EmbedText(ctx, truncateRunes(doc.Content, longContextEmbedRune))
		if err != nil {
			logger.WarnContext(ctx, "failed to embed document", "filename", doc.Filename, "error", err)
			continue
		}

		score := cosineSimilarity(queryVec, docVec)
		if score > bestScore {
			bestScore = score
			best = doc
		}
	}

	if best == nil || bestScore < longContextMinCosine {
		return "", nil
	}

	messages := []llm.Message{
		{Role: "system", Content: groundedSystemPrompt(detectIntent(req.Question), req.Project.SystemPrompt)},
		{Role: "user", Content: fmt.Sprintf("%s\n\n--- Document: %s ---\n%s",
			req.Question, best.Filename, truncateRunes(best.Content, longContextCtxRune))},
	}

	text, err := c.model.Complete(ctx, messages, llm.Params{Temperature: 0.7})
	if err != nil {
		return "", fmt.Errorf("long-context completion: %w", err)
	}
	if isRefusal(text) {
		return "", nil
	}
	return text, nil
}

// fallbackGeneric answers from the model's own knowledge, without document
// grounding, keeping recent conversation history for coherence.
func (c *Composer) fallbackGeneric(ctx context.Context, req Request, _ []*storage.Document) (string, error) {
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "answering without document grounding",
		"project_id", req.Project.ID)

	system := genericSystemPrompt
	if req.Project.SystemPrompt != "" {
		system = req.Project.SystemPrompt + "\n\n" + system
	}

	messages := []llm.Message{
		{Role: "system", Content: system},
	}
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: "user", Content: req.Question})

	text, err := c.model.Complete(ctx, messages, llm.Params{Temperature: 0.7})
	if err != nil {
		return "", fmt.Errorf("generic completion: %w", err)
	}
	return text, nil
}

const noDocumentsText = "No documents are loaded into this project yet. Upload a document and ask again."

// fallbackBasic is the terminal stage: deterministic, no external calls.
func (c *Composer) fallbackBasic(_ context.Context, _ Request, docs []*storage.Document) (string, error) {
	if len(docs) == 0 {
		return noDocumentsText, nil
	}

	var b strings.Builder
	b.WriteString("I could not produce an answer to your question, but these documents are loaded:\n")
	for _, d := range docs {
		b.WriteString("- ")
		b.WriteString(d.Filename)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
