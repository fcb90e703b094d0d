package answer

import (
	"context"
	"fmt"

	"docqa/internal/contextutil"
	"docqa/internal/llm"
	"docqa/internal/storage"
)

// Completer generates chat completions.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.Params) (string, error)
}

// Embedder produces an embedding vector for a text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Composer turns retrieved passages (or their absence) into a final answer.
// It owns the degradation ladder, so Compose always returns text and never an
// error.
type Composer struct {
	model    Completer
	embedder Embedder
	docs     storage.DocumentStore
}

// NewComposer creates a composer with its dependencies injected.
func NewComposer(model Completer, embedder Embedder, docs storage.DocumentStore) *Composer {
	return &Composer{
		model:    model,
		embedder: embedder,
		docs:     docs,
	}
}

// Compose produces the final answer for a question. Grounded generation is
// tried first when passages exist; any failure, refusal or empty output hands
// control to the fallback ladder, whose terminal stage cannot fail.
func (c *Composer) Compose(ctx context.Context, req Request) Result {
	logger := contextutil.LoggerFromContext(ctx)

	docs := c.readyDocuments(ctx, req.Project.ID)

	// A single-document project skips chunk retrieval: summarizing the one
	// document directly has strictly better recall.
	if len(docs) == 1 && docs[0].Content != "" {
		if text, err := c.composeSingleDocument(ctx, req, docs[0]); err == nil && !isRefusal(text) {
			return Result{Text: text, Mode: ModeSingleDocument}
		} else if err != nil {
			logger.WarnContext(ctx, "single-document path failed", "error", err)
		}
		return c.runLadder(ctx, req, docs)
	}

	if len(req.Passages) == 0 {
		logger.InfoContext(ctx, "no passages retrieved, running fallback ladder",
			"project_id", req.Project.ID)
		return c.runLadder(ctx, req, docs)
	}

	text, err := c.composeGrounded(ctx, req)
	if err != nil {
		logger.WarnContext(ctx, "grounded generation failed", "error", err)
		return c.runLadder(ctx, req, docs)
	}

	if isRefusal(text) {
		// A refusal is never surfaced while an alternative exists.
		logger.InfoContext(ctx, "model refused on grounded context, regenerating",
			"project_id", req.Project.ID)
		if len(docs) > 0 {
			if alt, err := c.fallbackMetadata(ctx, req, docs); err == nil && !isBlank(alt) {
				return Result{Text: alt, Mode: ModeMetadata}
			}
		}
		return c.runLadder(ctx, req, docs)
	}

	return Result{Text: text, Mode: ModeGrounded}
}

// composeGrounded builds the fragment-formatted context prompt and calls the
// model once.
func (c *Composer) composeGrounded(ctx context.Context, req Request) (string, error) {
	intent := detectIntent(req.Question)

	messages := []llm.Message{
		{Role: "system", Content: groundedSystemPrompt(intent, req.Project.SystemPrompt)},
	}
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("%s\n\n%s", req.Question, groundedContext(req.Passages)),
	})

	text, err := c.model.Complete(ctx, messages, llm.Params{Temperature: 0.7})
	if err != nil {
		return "", fmt.Errorf("grounded completion: %w", err)
	}
	return text, nil
}

// readyDocuments lists the project's processed documents. Listing failures are
// logged and treated as an empty set; the ladder still terminates without them.
func (c *Composer) readyDocuments(ctx context.Context, projectID string) []*storage.Document {
	logger := contextutil.LoggerFromContext(ctx)

	all, err := c.docs.ListByProject(ctx, projectID)
	if err != nil {
		logger.WarnContext(ctx, "failed to list documents", "project_id", projectID, "error", err)
		return nil
	}

	ready := make([]*storage.Document, 0, len(all))
	for _, d := range all {
		if d.Status == storage.StatusReady {
			ready = append(ready, d)
		}
	}
	return ready
}
