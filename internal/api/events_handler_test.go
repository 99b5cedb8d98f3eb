package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizard-app/quizard-api/internal/api/shared"
	"github.com/quizard-app/quizard-api/internal/events"
)

// MockSubscriber is a mock implementation of events.Subscriber for testing
type MockSubscriber struct {
	SubscribeFn  func(ctx context.Context, userID uuid.UUID, onEvent func(events.QuizGenerationEvent)) (events.UnsubscribeFunc, error)
	LastEventsFn func(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]events.QuizGenerationEvent, error)
}

func (m *MockSubscriber) Subscribe(
	ctx context.Context,
	userID uuid.UUID,
	onEvent func(events.QuizGenerationEvent),
) (events.UnsubscribeFunc, error) {
	if m.SubscribeFn != nil {
		return m.SubscribeFn(ctx, userID, onEvent)
	}
	return func() {}, nil
}

func (m *MockSubscriber) LastEvents(
	ctx context.Context,
	userID uuid.UUID,
) (map[uuid.UUID]events.QuizGenerationEvent, error) {
	if m.LastEventsFn != nil {
		return m.LastEventsFn(ctx, userID)
	}
	return nil, nil
}

// streamRecorder is a flushable ResponseWriter that signals each write so
// tests can wait for frames instead of sleeping.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   strings.Builder
	status int
	writes chan struct{}
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{
		header: make(http.Header),
		writes: make(chan struct{}, 64),
	}
}

func (r *streamRecorder) Header() http.Header { return r.header }

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	n, err := r.body.Write(p)
	r.mu.Unlock()
	r.writes <- struct{}{}
	return n, err
}

func (r *streamRecorder) WriteHeader(status int) {
	r.mu.Lock()
	r.status = status
	r.mu.Unlock()
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func (r *streamRecorder) waitForWrites(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.writes:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for write %d of %d", i+1, n)
		}
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func TestNewEventsHandler_Validation(t *testing.T) {
	sub := &MockSubscriber{}

	assert.Panics(t, func() { NewEventsHandler(nil, time.Second, testLogger()) })
	assert.Panics(t, func() { NewEventsHandler(sub, 0, testLogger()) })
	assert.Panics(t, func() { NewEventsHandler(sub, time.Second, nil) })
	assert.NotPanics(t, func() { NewEventsHandler(sub, time.Second, testLogger()) })
}

func TestEventsHandler_RequiresAuthentication(t *testing.T) {
	handler := NewEventsHandler(&MockSubscriber{}, time.Second, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/events", nil)
	rr := httptest.NewRecorder()

	handler.StreamEvents(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestEventsHandler_StreamsSnapshotAndLiveEvents(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	cachedQuizID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	liveQuizID := uuid.MustParse("33333333-3333-3333-3333-333333333333")

	var (
		onEventMu    sync.Mutex
		onEvent      func(events.QuizGenerationEvent)
		unsubscribed bool
	)

	sub := &MockSubscriber{
		SubscribeFn: func(ctx context.Context, id uuid.UUID, cb func(events.QuizGenerationEvent)) (events.UnsubscribeFunc, error) {
			assert.Equal(t, userID, id)
			onEventMu.Lock()
			onEvent = cb
			onEventMu.Unlock()
			return func() { unsubscribed = true }, nil
		},
		LastEventsFn: func(ctx context.Context, id uuid.UUID) (map[uuid.UUID]events.QuizGenerationEvent, error) {
			return map[uuid.UUID]events.QuizGenerationEvent{
				cachedQuizID: events.NewCompletedEvent(userID, cachedQuizID, "cached-quiz"),
			}, nil
		},
	}

	handler := NewEventsHandler(sub, time.Minute, testLogger())

	ctx, cancel := context.WithCancel(
		context.WithValue(context.Background(), shared.UserIDContextKey, userID))
	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/events", nil).WithContext(ctx)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.StreamEvents(rec, req)
	}()

	// connected frame plus the snapshot replay.
	rec.waitForWrites(t, 2)

	onEventMu.Lock()
	deliver := onEvent
	onEventMu.Unlock()
	require.NotNil(t, deliver)

	// An event with an unknown type tag is skipped, never framed.
	deliver(events.QuizGenerationEvent{
		Type:   "paused",
		UserID: userID,
		QuizID: liveQuizID,
	})
	deliver(events.NewProcessingEvent(userID, liveQuizID, "live-quiz", 1, 3, &events.QuestionPreview{
		OrderIndex: 0,
		Stem:       "What organelle produces ATP?",
	}))

	rec.waitForWrites(t, 1)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after context cancellation")
	}

	body := rec.Body()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, userID.String())
	assert.Contains(t, body, "event: quiz.generation.completed")
	assert.Contains(t, body, "cached-quiz")
	assert.Contains(t, body, "event: quiz.generation.processing")
	assert.Contains(t, body, "live-quiz")
	assert.NotContains(t, body, "paused")

	assert.True(t, unsubscribed, "subscription must be torn down on disconnect")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestEventsHandler_SubscribeFailureEndsStream(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	sub := &MockSubscriber{
		SubscribeFn: func(ctx context.Context, id uuid.UUID, cb func(events.QuizGenerationEvent)) (events.UnsubscribeFunc, error) {
			return nil, errors.New("transport down")
		},
	}
	handler := NewEventsHandler(sub, time.Minute, testLogger())

	ctx := context.WithValue(context.Background(), shared.UserIDContextKey, userID)
	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/events", nil).WithContext(ctx)
	rec := newStreamRecorder()

	// Must return rather than hang, with only the connected frame written.
	handler.StreamEvents(rec, req)

	assert.Contains(t, rec.Body(), "event: connected")
	assert.NotContains(t, rec.Body(), "quiz.generation")
}

func TestEventsHandler_SendsPings(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	handler := NewEventsHandler(&MockSubscriber{}, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(
		context.WithValue(context.Background(), shared.UserIDContextKey, userID))
	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/events", nil).WithContext(ctx)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.StreamEvents(rec, req)
	}()

	// connected frame plus at least one ping.
	rec.waitForWrites(t, 2)
	cancel()
	<-done

	assert.Contains(t, rec.Body(), "event: ping")
}
