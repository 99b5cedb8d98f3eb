package events

import (
	"context"

	"github.com/google/uuid"
)

// Publisher sends quiz generation events to their owner's channel AND mirrors
// them into the recovery cache. Both writes happen for every variant; there is
// no cheaper path for processing events.
type Publisher interface {
	// Publish delivers the event on the per-user channel and refreshes the
	// recovery cache entry for its quiz. Returns an error if the event is
	// invalid or the transport rejects it.
	Publish(ctx context.Context, event QuizGenerationEvent) error
}

// UnsubscribeFunc tears down a subscription. It is idempotent and safe to
// call during handler teardown regardless of how far setup got.
type UnsubscribeFunc func()

// Subscriber delivers a user's quiz generation events to a consumer,
// typically the SSE bridge holding the client connection open.
type Subscriber interface {
	// Subscribe starts push delivery of the user's events to onEvent, which
	// is invoked once per message in arrival order. Transport errors after
	// setup are logged, not surfaced. The returned UnsubscribeFunc stops
	// delivery.
	Subscribe(ctx context.Context, userID uuid.UUID, onEvent func(QuizGenerationEvent)) (UnsubscribeFunc, error)

	// LastEvents returns the recovery cache snapshot for the user: the most
	// recent event per in-flight quiz, keyed by quiz ID. Used to rebuild UI
	// state after a reconnect.
	LastEvents(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]QuizGenerationEvent, error)
}
