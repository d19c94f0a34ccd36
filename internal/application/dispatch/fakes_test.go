package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/pkg/logger"
	"github.com/doeshing/puremath/internal/ports"
)

type sentArtifact struct {
	chatID   int64
	artifact domain.Artifact
	caption  string
	replyTo  int64
}

// fakeMessenger hands out queued batches, then blocks until the poll
// context ends. idle is closed once every batch has been dispatched.
type fakeMessenger struct {
	mu        sync.Mutex
	batches   [][]domain.Update
	offsets   []int64
	messages  []domain.OutgoingMessage
	photos    []sentArtifact
	documents []sentArtifact
	actions   int
	pollErrs  []error

	photoErr    error
	documentErr error

	idle     chan struct{}
	idleOnce sync.Once
}

func newFakeMessenger(batches ...[]domain.Update) *fakeMessenger {
	return &fakeMessenger{batches: batches, idle: make(chan struct{})}
}

func (f *fakeMessenger) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]domain.Update, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	if len(f.pollErrs) > 0 {
		err := f.pollErrs[0]
		f.pollErrs = f.pollErrs[1:]
		f.mu.Unlock()
		return nil, err
	}
	if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()

	f.idleOnce.Do(func() { close(f.idle) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeMessenger) SendMessage(_ context.Context, msg domain.OutgoingMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMessenger) SendPhoto(_ context.Context, chatID int64, photo domain.Artifact, caption string, replyTo int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.photoErr != nil {
		return f.photoErr
	}
	f.photos = append(f.photos, sentArtifact{chatID, photo, caption, replyTo})
	return nil
}

func (f *fakeMessenger) SendDocument(_ context.Context, chatID int64, doc domain.Artifact, caption string, replyTo int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.documentErr != nil {
		return f.documentErr
	}
	f.documents = append(f.documents, sentArtifact{chatID, doc, caption, replyTo})
	return nil
}

func (f *fakeMessenger) SendChatAction(context.Context, int64, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions++
	return nil
}

func (f *fakeMessenger) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.Text)
	}
	return out
}

type solverFunc func(ctx context.Context, question string) (string, error)

func (fn solverFunc) Answer(ctx context.Context, question string) (string, error) {
	return fn(ctx, question)
}

type fakeRenderer struct {
	imageErr   error
	panicky    bool
	emptyImage bool
}

func (r *fakeRenderer) RenderImage(text string) (domain.Artifact, error) {
	if r.panicky {
		panic("font exploded")
	}
	if r.imageErr != nil {
		return domain.Artifact{}, r.imageErr
	}
	if r.emptyImage {
		return domain.Artifact{Name: "solution.png", MIMEType: "image/png"}, nil
	}
	return domain.Artifact{Name: "solution.png", MIMEType: "image/png", Data: []byte("png:" + text)}, nil
}

func (r *fakeRenderer) RenderDocument(text string) (domain.Artifact, error) {
	return domain.Artifact{Name: "solution.pdf", MIMEType: "application/pdf", Data: []byte("pdf:" + text)}, nil
}

type memoryLog struct {
	mu      sync.Mutex
	records []domain.QuestionLogRecord
}

func (m *memoryLog) Append(r domain.QuestionLogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memoryLog) all() []domain.QuestionLogRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.QuestionLogRecord(nil), m.records...)
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

func question(updateID int64, userID int64, text string) domain.Update {
	return domain.Update{
		ID: updateID,
		Message: &domain.InboundMessage{
			MessageID: updateID * 10,
			ChatID:    userID,
			From:      domain.UserInfo{ID: userID, Username: "student"},
			Text:      text,
		},
	}
}

func newTestService(m *fakeMessenger, solver ports.Solver, log *memoryLog) *Service {
	return &Service{
		Messenger:   m,
		Solver:      solver,
		Limiter:     allowAll{},
		Renderer:    &fakeRenderer{},
		QuestionLog: log,
		Logger:      logger.NewNop(),
		Settings: Settings{
			MaxWorkers:      2,
			QuestionTimeout: time.Second,
			ModelTimeout:    2 * time.Second,
			PollBackoff:     time.Millisecond,
			ErrorBackoff:    time.Millisecond,
			Version:         "test",
			ModelName:       "gemini-test",
			RateLimit:       5,
		},
	}
}

// runUntilIdle runs the loop until every queued batch is dispatched, then
// interrupts it and waits for the drain.
func runUntilIdle(t *testing.T, svc *Service, m *fakeMessenger) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case <-m.idle:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher never drained its updates")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop after interrupt")
	}
}

var errUpload = errors.New("upload failed")
