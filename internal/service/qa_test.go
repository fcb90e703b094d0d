package service

import (
	"context"
	"errors"
	"testing"

	"docqa/internal/answer"
	"docqa/internal/retrieval"
	"docqa/internal/storage"
)

type fakeProjects struct {
	byOwner map[string]*storage.Project
	byID    map[string]*storage.Project
}

func (f *fakeProjects) Create(_ context.Context, p *storage.Project) error {
	if f.byID == nil {
		f.byID = make(map[string]*storage.Project)
		f.byOwner = make(map[string]*storage.Project)
	}
	f.byID[p.ID] = p
	f.byOwner[p.OwnerID] = p
	return nil
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (*storage.Project, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeProjects) GetByOwner(_ context.Context, ownerID string) (*storage.Project, error) {
	if p, ok := f.byOwner[ownerID]; ok {
		return p, nil
	}
	return nil, storage.ErrNotFound
}

type fakeMessages struct {
	appended []storage.Message
	failAll  bool
}

func (f *fakeMessages) Append(_ context.Context, userID, role, content string) error {
	if f.failAll {
		return errors.New("disk full")
	}
	f.appended = append(f.appended, storage.Message{UserID: userID, Role: role, Content: content})
	return nil
}

func (f *fakeMessages) Recent(_ context.Context, userID string, n int) ([]*storage.Message, error) {
	if f.failAll {
		return nil, errors.New("disk full")
	}
	var out []*storage.Message
	for i := range f.appended {
		if f.appended[i].UserID == userID {
			out = append(out, &f.appended[i])
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

// fakeRetriever records which strategies were requested and returns a
// scripted result count per strategy.
type fakeRetriever struct {
	calls   []retrieval.Strategy
	perCall map[retrieval.Strategy][]retrieval.Result
}

func (f *fakeRetriever) Search(_ context.Context, _, _ string, _ int, strategy retrieval.Strategy) []retrieval.Result {
	f.calls = append(f.calls, strategy)
	return f.perCall[strategy]
}

type fakeComposer struct {
	lastReq answer.Request
	result  answer.Result
}

func (f *fakeComposer) Compose(_ context.Context, req answer.Request) answer.Result {
	f.lastReq = req
	return f.result
}

func passages(n int) []retrieval.Result {
	out := make([]retrieval.Result, n)
	for i := range out {
		out[i] = retrieval.Result{Text: "passage", Score: 0.5, Method: "hybrid"}
	}
	return out
}

func newTestQA(projects *fakeProjects, docs *fakeDocStore, messages *fakeMessages, r *fakeRetriever, c *fakeComposer) *QAService {
	return NewQAService(projects, docs, messages, r, c, QAConfig{
		TopK:          5,
		HistoryWindow: 10,
		SimpleTimeout: 100,
		FullTimeout:   100,
	})
}

func TestAnswerQuestionValidation(t *testing.T) {
	svc := newTestQA(&fakeProjects{}, newFakeDocStore(), &fakeMessages{}, &fakeRetriever{}, &fakeComposer{})

	if _, err := svc.AnswerQuestion(context.Background(), "u1", "   "); err == nil {
		t.Error("expected validation error for blank question")
	} else {
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "question" {
			t.Errorf("error = %v, want ValidationError on question", err)
		}
	}

	if _, err := svc.AnswerQuestion(context.Background(), "", "what is this"); err == nil {
		t.Error("expected validation error for empty user")
	}
}

func TestAnswerQuestionUnknownUser(t *testing.T) {
	svc := newTestQA(&fakeProjects{}, newFakeDocStore(), &fakeMessages{}, &fakeRetriever{}, &fakeComposer{})

	_, err := svc.AnswerQuestion(context.Background(), "stranger", "hello?")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAnswerQuestionSimplePassSufficient(t *testing.T) {
	projects := &fakeProjects{}
	_ = projects.Create(context.Background(), &storage.Project{ID: "p1", OwnerID: "u1", Name: "P"})
	retriever := &fakeRetriever{perCall: map[retrieval.Strategy][]retrieval.Result{
		retrieval.StrategySimple: passages(7),
	}}
	composer := &fakeComposer{result: answer.Result{Text: "done", Mode: answer.ModeGrounded}}
	svc := newTestQA(projects, newFakeDocStore(), &fakeMessages{}, retriever, composer)

	got, err := svc.AnswerQuestion(context.Background(), "u1", "what is the warranty?")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if got.Text != "done" || got.Mode != answer.ModeGrounded {
		t.Errorf("answer = %+v", got)
	}
	if len(retriever.calls) != 1 || retriever.calls[0] != retrieval.StrategySimple {
		t.Errorf("strategies = %v, want only simple", retriever.calls)
	}
	// Passages are capped at TopK before composition.
	if len(composer.lastReq.Passages) != 5 {
		t.Errorf("composer got %d passages, want 5", len(composer.lastReq.Passages))
	}
}

func TestAnswerQuestionFallsBackToFullChain(t *testing.T) {
	projects := &fakeProjects{}
	_ = projects.Create(context.Background(), &storage.Project{ID: "p1", OwnerID: "u1", Name: "P"})
	retriever := &fakeRetriever{perCall: map[retrieval.Strategy][]retrieval.Result{
		retrieval.StrategySimple: passages(1),
		retrieval.StrategyFull:   passages(4),
	}}
	composer := &fakeComposer{result: answer.Result{Text: "ok", Mode: answer.ModeGrounded}}
	svc := newTestQA(projects, newFakeDocStore(), &fakeMessages{}, retriever, composer)

	if _, err := svc.AnswerQuestion(context.Background(), "u1", "details?"); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	want := []retrieval.Strategy{retrieval.StrategySimple, retrieval.StrategyFull}
	if len(retriever.calls) != 2 || retriever.calls[0] != want[0] || retriever.calls[1] != want[1] {
		t.Errorf("strategies = %v, want %v", retriever.calls, want)
	}
	if len(composer.lastReq.Passages) != 4 {
		t.Errorf("composer got %d passages, want the larger full-chain set", len(composer.lastReq.Passages))
	}
}

func TestAnswerQuestionKeepsSimpleWhenFullFindsLess(t *testing.T) {
	projects := &fakeProjects{}
	_ = projects.Create(context.Background(), &storage.Project{ID: "p1", OwnerID: "u1", Name: "P"})
	retriever := &fakeRetriever{perCall: map[retrieval.Strategy][]retrieval.Result{
		retrieval.StrategySimple: passages(3),
		retrieval.StrategyFull:   passages(0),
	}}
	composer := &fakeComposer{result: answer.Result{Text: "ok", Mode: answer.ModeGrounded}}
	svc := newTestQA(projects, newFakeDocStore(), &fakeMessages{}, retriever, composer)

	if _, err := svc.AnswerQuestion(context.Background(), "u1", "details?"); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if len(composer.lastReq.Passages) != 3 {
		t.Errorf("composer got %d passages, want 3 from the simple pass", len(composer.lastReq.Passages))
	}
}

func TestAnswerQuestionSingleDocumentSkipsRetrieval(t *testing.T) {
	projects := &fakeProjects{}
	_ = projects.Create(context.Background(), &storage.Project{ID: "p1", OwnerID: "u1", Name: "P"})
	docs := newFakeDocStore()
	_ = docs.Create(context.Background(), &storage.Document{ID: "d1", ProjectID: "p1", Filename: "only.txt"})
	_ = docs.SetReady(context.Background(), "d1", "The single document's full text.")
	retriever := &fakeRetriever{}
	composer := &fakeComposer{result: answer.Result{Text: "from the document", Mode: answer.ModeSingleDocument}}
	svc := newTestQA(projects, docs, &fakeMessages{}, retriever, composer)

	got, err := svc.AnswerQuestion(context.Background(), "u1", "what does it say?")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if got.Mode != answer.ModeSingleDocument {
		t.Errorf("mode = %q", got.Mode)
	}
	// The composer reads the document whole, so retrieval is skipped.
	if len(retriever.calls) != 0 {
		t.Errorf("retriever called with strategies %v, want none", retriever.calls)
	}
	if len(composer.lastReq.Passages) != 0 {
		t.Errorf("composer got %d passages, want none", len(composer.lastReq.Passages))
	}
}

func TestAnswerQuestionRetrievesForMultiDocumentProject(t *testing.T) {
	projects := &fakeProjects{}
	_ = projects.Create(context.Background(), &storage.Project{ID: "p1", OwnerID: "u1", Name: "P"})
	docs := newFakeDocStore()
	_ = docs.Create(context.Background(), &storage.Document{ID: "d1", ProjectID: "p1", Filename: "a.txt"})
	_ = docs.Create(context.Background(), &storage.Document{ID: "d2", ProjectID: "p1", Filename: "b.txt"})
	_ = docs.SetReady(context.Background(), "d1", "First document text.")
	_ = docs.SetReady(context.Background(), "d2", "Second document text.")
	retriever := &fakeRetriever{}
	composer := &fakeComposer{result: answer.Result{Text: "ok", Mode: answer.ModeGrounded}}
	svc := newTestQA(projects, docs, &fakeMessages{}, retriever, composer)

	if _, err := svc.AnswerQuestion(context.Background(), "u1", "compare them"); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if len(retriever.calls) == 0 {
		t.Error("retriever not called for a multi-document project")
	}
}

func TestAnswerQuestionRecordsHistory(t *testing.T) {
	projects := &fakeProjects{}
	_ = projects.Create(context.Background(), &storage.Project{ID: "p1", OwnerID: "u1", Name: "P"})
	messages := &fakeMessages{}
	composer := &fakeComposer{result: answer.Result{Text: "the answer", Mode: answer.ModeGrounded}}
	svc := newTestQA(projects, newFakeDocStore(), messages, &fakeRetriever{}, composer)

	if _, err := svc.AnswerQuestion(context.Background(), "u1", "first question"); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if len(messages.appended) != 2 {
		t.Fatalf("appended %d messages, want 2", len(messages.appended))
	}
	if messages.appended[0].Role != "user" || messages.appended[1].Role != "assistant" {
		t.Errorf("roles = %s, %s", messages.appended[0].Role, messages.appended[1].Role)
	}

	// The prior turn becomes history on the next question.
	if _, err := svc.AnswerQuestion(context.Background(), "u1", "follow up"); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if len(composer.lastReq.History) != 2 {
		t.Errorf("history length = %d, want 2", len(composer.lastReq.History))
	}
}

func TestAnswerQuestionHistoryFailureIsNotFatal(t *testing.T) {
	projects := &fakeProjects{}
	_ = projects.Create(context.Background(), &storage.Project{ID: "p1", OwnerID: "u1", Name: "P"})
	composer := &fakeComposer{result: answer.Result{Text: "still works", Mode: answer.ModeBasic}}
	svc := newTestQA(projects, newFakeDocStore(), &fakeMessages{failAll: true}, &fakeRetriever{}, composer)

	got, err := svc.AnswerQuestion(context.Background(), "u1", "question")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if got.Text != "still works" {
		t.Errorf("answer = %q", got.Text)
	}
}

func TestAnswerQuestionPassesProjectToComposer(t *testing.T) {
	projects := &fakeProjects{}
	_ = projects.Create(context.Background(), &storage.Project{ID: "p1", OwnerID: "u1", Name: "P", SystemPrompt: "Answer tersely."})
	composer := &fakeComposer{result: answer.Result{Text: "ok", Mode: answer.ModeGrounded}}
	svc := newTestQA(projects, newFakeDocStore(), &fakeMessages{}, &fakeRetriever{}, composer)

	if _, err := svc.AnswerQuestion(context.Background(), "u1", "question"); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if composer.lastReq.Project.SystemPrompt != "Answer tersely." {
		t.Errorf("project prompt = %q", composer.lastReq.Project.SystemPrompt)
	}
}
