package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNoHandlerBound is returned when EmitEvent is called before Bind. A
// silently dropped task request would leave the quiz generating forever, so
// the emitter refuses instead.
var ErrNoHandlerBound = errors.New("events: no handler bound to emitter")

// TaskRequestEmitter hands each emitted task request to a single bound
// handler. The quiz pipeline has exactly one consumer of these events, the
// task factory handler, so there is no fan-out.
type TaskRequestEmitter struct {
	mu      sync.RWMutex
	handler EventHandler
	logger  *slog.Logger
}

// NewTaskRequestEmitter creates an emitter with no handler bound yet.
func NewTaskRequestEmitter(logger *slog.Logger) *TaskRequestEmitter {
	return &TaskRequestEmitter{
		logger: logger.With("component", "task_request_emitter"),
	}
}

var _ EventEmitter = (*TaskRequestEmitter)(nil)

// Bind sets the handler that receives emitted events. The handler is built
// from the task factory, which in turn depends on the service that emits, so
// binding happens after both exist rather than at construction.
func (e *TaskRequestEmitter) Bind(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
	e.logger.Debug("task request handler bound")
}

// EmitEvent dispatches the event to the bound handler synchronously. The
// handler's error is returned as-is so the emitting service can surface the
// enqueue failure to its caller.
func (e *TaskRequestEmitter) EmitEvent(ctx context.Context, event *TaskRequestEvent) error {
	e.mu.RLock()
	handler := e.handler
	e.mu.RUnlock()

	if handler == nil {
		e.logger.Error("task request dropped, no handler bound",
			"event_id", event.ID,
			"event_type", event.Type)
		return ErrNoHandlerBound
	}

	e.logger.Debug("dispatching task request",
		"event_id", event.ID,
		"event_type", event.Type)

	if err := handler.HandleEvent(ctx, event); err != nil {
		e.logger.Error("task request handler failed",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type)
		return err
	}
	return nil
}
