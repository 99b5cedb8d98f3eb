package redisevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/quizard-app/quizard-api/internal/events"
	"github.com/quizard-app/quizard-api/internal/platform/logger"
)

// recoveryKey builds the recovery cache key for a user. The hash under it maps
// quiz IDs to the latest serialized event for that quiz.
func recoveryKey(userID uuid.UUID) string {
	return fmt.Sprintf("quiz-events:%s", userID)
}

// EventBus implements events.Publisher and events.Subscriber on Redis.
// A user's ID doubles as their pub/sub channel name, so all of a user's
// concurrent generations share one channel and one recovery hash.
type EventBus struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewEventBus creates an EventBus using the given Redis client. The TTL
// bounds how long recovery cache entries survive after the last publish.
// If logger is nil, a default logger will be used.
func NewEventBus(client *redis.Client, ttl time.Duration, logger *slog.Logger) *EventBus {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		panic("event TTL must be positive")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &EventBus{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "event_bus")),
	}
}

// Interface assertions
var (
	_ events.Publisher  = (*EventBus)(nil)
	_ events.Subscriber = (*EventBus)(nil)
)

// Publish implements events.Publisher.Publish
// It delivers the event on the owner's channel and refreshes the recovery
// cache in a single pipelined round trip. Every publish, regardless of
// variant, resets the hash TTL so the cache lives exactly as long as events
// keep flowing plus the configured grace period.
func (b *EventBus) Publish(ctx context.Context, event events.QuizGenerationEvent) error {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if err := event.Validate(); err != nil {
		log.Warn("rejected invalid quiz generation event",
			slog.String("error", err.Error()))
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz generation event: %w", err)
	}

	key := recoveryKey(event.UserID)
	_, err = b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, event.UserID.String(), payload)
		pipe.HSet(ctx, key, event.QuizID.String(), payload)
		pipe.Expire(ctx, key, b.ttl)
		return nil
	})
	if err != nil {
		log.Error("failed to publish quiz generation event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.Type)),
			slog.String("quiz_id", event.QuizID.String()),
			slog.String("user_id", event.UserID.String()))
		return fmt.Errorf("failed to publish quiz generation event: %w", err)
	}

	log.Debug("published quiz generation event",
		slog.String("event_type", string(event.Type)),
		slog.String("quiz_id", event.QuizID.String()),
		slog.String("user_id", event.UserID.String()))
	return nil
}

// Subscribe implements events.Subscriber.Subscribe
// It opens a pub/sub subscription on the user's channel and forwards each
// message to onEvent in arrival order from a dedicated goroutine. Malformed
// payloads are logged and skipped. The returned UnsubscribeFunc is safe to
// call more than once.
func (b *EventBus) Subscribe(
	ctx context.Context,
	userID uuid.UUID,
	onEvent func(events.QuizGenerationEvent),
) (events.UnsubscribeFunc, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if userID == uuid.Nil {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if onEvent == nil {
		return nil, fmt.Errorf("onEvent callback cannot be nil")
	}

	sub := b.client.Subscribe(ctx, userID.String())

	// Confirms the subscription is active before any events can be missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to user channel: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var event events.QuizGenerationEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					log.Warn("skipping malformed event payload",
						slog.String("error", err.Error()),
						slog.String("user_id", userID.String()))
					continue
				}
				onEvent(event)
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			if err := sub.Close(); err != nil {
				log.Warn("failed to close subscription",
					slog.String("error", err.Error()),
					slog.String("user_id", userID.String()))
			}
		})
	}

	log.Debug("subscribed to quiz generation events",
		slog.String("user_id", userID.String()))
	return unsubscribe, nil
}

// LastEvents implements events.Subscriber.LastEvents
// It reads the recovery cache hash for the user and returns the latest event
// per quiz. Entries that fail to decode are logged and dropped rather than
// failing the whole snapshot.
func (b *EventBus) LastEvents(
	ctx context.Context,
	userID uuid.UUID,
) (map[uuid.UUID]events.QuizGenerationEvent, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if userID == uuid.Nil {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	entries, err := b.client.HGetAll(ctx, recoveryKey(userID)).Result()
	if err != nil {
		log.Error("failed to read recovery cache",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to read recovery cache: %w", err)
	}

	snapshot := make(map[uuid.UUID]events.QuizGenerationEvent, len(entries))
	for field, raw := range entries {
		quizID, err := uuid.Parse(field)
		if err != nil {
			log.Warn("skipping recovery cache entry with bad quiz ID",
				slog.String("field", field),
				slog.String("user_id", userID.String()))
			continue
		}

		var event events.QuizGenerationEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			log.Warn("skipping malformed recovery cache entry",
				slog.String("error", err.Error()),
				slog.String("quiz_id", quizID.String()),
				slog.String("user_id", userID.String()))
			continue
		}
		snapshot[quizID] = event
	}

	return snapshot, nil
}

// Close releases the underlying Redis client.
func (b *EventBus) Close() error {
	return b.client.Close()
}
