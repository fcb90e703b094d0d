package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"docqa/internal/answer"
	"docqa/internal/contextutil"
	"docqa/internal/llm"
	"docqa/internal/retrieval"
	"docqa/internal/storage"
)

// Retriever finds passages relevant to a question within a project.
type Retriever interface {
	Search(ctx context.Context, question, projectID string, topK int, strategy retrieval.Strategy) []retrieval.Result
}

// Answerer composes a final answer from retrieved passages.
type Answerer interface {
	Compose(ctx context.Context, req answer.Request) answer.Result
}

// QAConfig holds the tunables for question answering.
type QAConfig struct {
	TopK          int
	HistoryWindow int
	SimpleTimeout time.Duration
	FullTimeout   time.Duration
}

// Answer is the final response returned to the caller.
type Answer struct {
	Text string
	Mode answer.Mode
}

// QAService answers user questions against their project's documents.
type QAService struct {
	projects  storage.ProjectStore
	docs      storage.DocumentStore
	messages  storage.MessageStore
	retriever Retriever
	composer  Answerer
	cfg       QAConfig
}

// NewQAService creates a question answering service.
func NewQAService(
	projects storage.ProjectStore,
	docs storage.DocumentStore,
	messages storage.MessageStore,
	retriever Retriever,
	composer Answerer,
	cfg QAConfig,
) *QAService {
	return &QAService{
		projects:  projects,
		docs:      docs,
		messages:  messages,
		retriever: retriever,
		composer:  composer,
		cfg:       cfg,
	}
}

// AnswerQuestion resolves the user's project, retrieves passages under staged
// timeouts and composes an answer. A fast simple-retrieval pass runs first;
// if it finds too little, the full technique chain runs under a tighter
// timeout; composition itself runs without a deadline because its ladder
// already degrades gracefully. The answer is always natural-language text
// unless the user or project is unknown.
func (s *QAService) AnswerQuestion(ctx context.Context, userID, question string) (Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(question) == "" {
		return Answer{}, &ValidationError{Field: "question", Message: "cannot be empty"}
	}
	if userID == "" {
		return Answer{}, &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}

	project, err := s.projects.GetByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Answer{}, WrapError(ErrNotFound, "no project for user "+userID)
		}
		return Answer{}, WrapError(err, "failed to resolve project")
	}

	history := s.recentHistory(ctx, userID)

	if err := s.messages.Append(ctx, userID, "user", question); err != nil {
		// History is best-effort: a failed write must not block the answer.
		logger.WarnContext(ctx, "failed to record question", "user_id", userID, "error", err)
	}

	// A single-document project answers from the document directly, so the
	// retrieval passes would be discarded work.
	var passages []retrieval.Result
	if !s.singleDocumentProject(ctx, project.ID) {
		passages = s.retrieve(ctx, question, project.ID)
	}

	result := s.composer.Compose(ctx, answer.Request{
		Question: question,
		Passages: passages,
		History:  history,
		Project:  *project,
	})

	if err := s.messages.Append(ctx, userID, "assistant", result.Text); err != nil {
		logger.WarnContext(ctx, "failed to record answer", "user_id", userID, "error", err)
	}

	logger.InfoContext(ctx, "question answered",
		"user_id", userID,
		"project_id", project.ID,
		"passages", len(passages),
		"mode", string(result.Mode),
	)
	return Answer{Text: result.Text, Mode: result.Mode}, nil
}

// singleDocumentProject reports whether the project holds exactly one
// processed document with content, the case the composer answers from the
// whole document instead of retrieved passages. Listing failures fall back
// to the normal retrieval path.
func (s *QAService) singleDocumentProject(ctx context.Context, projectID string) bool {
	docs, err := s.docs.ListByProject(ctx, projectID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to list documents",
			"project_id", projectID, "error", err)
		return false
	}

	var ready *storage.Document
	count := 0
	for _, d := range docs {
		if d.Status == storage.StatusReady {
			ready = d
			count++
		}
	}
	return count == 1 && ready.Content != ""
}

// retrieve runs the staged retrieval passes. Each pass has its own deadline;
// a timeout on one pass only means the next, more degraded pass takes over.
func (s *QAService) retrieve(ctx context.Context, question, projectID string) []retrieval.Result {
	logger := contextutil.LoggerFromContext(ctx)

	simpleCtx, cancel := context.WithTimeout(ctx, s.cfg.SimpleTimeout)
	passages := s.retriever.Search(simpleCtx, question, projectID, s.cfg.TopK, retrieval.StrategySimple)
	cancel()

	if len(passages) >= s.cfg.TopK {
		return s.truncate(passages)
	}

	logger.InfoContext(ctx, "simple retrieval found too little, running full chain",
		"project_id", projectID, "found", len(passages))

	fullCtx, cancel := context.WithTimeout(ctx, s.cfg.FullTimeout)
	full := s.retriever.Search(fullCtx, question, projectID, s.cfg.TopK, retrieval.StrategyFull)
	cancel()

	if len(full) > len(passages) {
		passages = full
	}
	return s.truncate(passages)
}

func (s *QAService) truncate(passages []retrieval.Result) []retrieval.Result {
	if len(passages) > s.cfg.TopK {
		return passages[:s.cfg.TopK]
	}
	return passages
}

// recentHistory loads the last few conversation turns in chronological order.
// Failures degrade to an empty history.
func (s *QAService) recentHistory(ctx context.Context, userID string) []llm.Message {
	logger := contextutil.LoggerFromContext(ctx)

	recent, err := s.messages.Recent(ctx, userID, s.cfg.HistoryWindow)
	if err != nil {
		logger.WarnContext(ctx, "failed to load history", "user_id", userID, "error", err)
		return nil
	}

	history := make([]llm.Message, 0, len(recent))
	for _, m := range recent {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return history
}
