package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizard-app/quizard-api/internal/events"
	"github.com/quizard-app/quizard-api/internal/generation"
)

func newHandlerFixture(t *testing.T) (*TaskFactoryEventHandler, *TaskRunner) {
	t.Helper()

	f := newTaskFixture(t)
	policy, err := generation.NewModelFallbackPolicy("primary", "fallback", slog.Default())
	require.NoError(t, err)

	factory := NewQuizGenerationTaskFactory(
		f.service, f.reader, f.generator, policy, f.publisher, slog.Default(),
	)
	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 10}, slog.Default())
	return NewTaskFactoryEventHandler(factory, runner, slog.Default()), runner
}

func quizRequestEvent(t *testing.T, quizID string) *events.TaskRequestEvent {
	t.Helper()

	event, err := events.NewTaskRequestEvent(TaskTypeQuizGeneration, map[string]string{
		"quiz_id": quizID,
	})
	require.NoError(t, err)
	return event
}

func TestHandleEvent_IgnoresOtherTypes(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	event, err := events.NewTaskRequestEvent("unrelated_type", map[string]string{})
	require.NoError(t, err)

	assert.NoError(t, handler.HandleEvent(context.Background(), event))
}

func TestHandleEvent_RejectsBadPayload(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	event := &events.TaskRequestEvent{
		ID:        uuid.New(),
		Type:      TaskTypeQuizGeneration,
		Payload:   json.RawMessage(`{invalid`),
		CreatedAt: time.Now(),
	}

	assert.Error(t, handler.HandleEvent(context.Background(), event))
}

func TestHandleEvent_RejectsInvalidQuizID(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	err := handler.HandleEvent(context.Background(), quizRequestEvent(t, "not-a-uuid"))
	assert.Error(t, err)
}

func TestHandleEvent_CreatesAndSubmitsTask(t *testing.T) {
	handler, runner := newHandlerFixture(t)

	err := handler.HandleEvent(context.Background(), quizRequestEvent(t, uuid.New().String()))
	require.NoError(t, err)

	// The task landed in the queue.
	select {
	case task := <-runner.taskChan:
		assert.Equal(t, TaskTypeQuizGeneration, task.Type())
	default:
		t.Fatal("expected a task in the runner queue")
	}
}
