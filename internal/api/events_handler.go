package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quizard-app/quizard-api/internal/api/shared"
	"github.com/quizard-app/quizard-api/internal/events"
)

// eventBufferSize is the per-connection buffer between the subscriber's
// delivery goroutine and the HTTP write loop. A slow client drops events
// rather than blocking delivery to other consumers.
const eventBufferSize = 16

// EventsHandler bridges the quiz generation event stream to SSE clients.
// Each connection subscribes to its user's channel, replays the recovery
// cache snapshot, then forwards live events until the client disconnects.
type EventsHandler struct {
	subscriber   events.Subscriber
	pingInterval time.Duration
	logger       *slog.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(
	subscriber events.Subscriber,
	pingInterval time.Duration,
	logger *slog.Logger,
) *EventsHandler {
	if subscriber == nil {
		panic("subscriber cannot be nil")
	}
	if pingInterval <= 0 {
		panic("ping interval must be positive")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &EventsHandler{
		subscriber:   subscriber,
		pingInterval: pingInterval,
		logger:       logger.With(slog.String("component", "events_handler")),
	}
}

// StreamEvents handles GET /api/quizzes/events requests. The connection is
// held open until the client disconnects or the server shuts down.
func (h *EventsHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	log := h.logger.With(slog.String("user_id", userID.String()))

	// Teardown runs even when subscription setup fails partway through.
	var unsubscribe events.UnsubscribeFunc
	defer func() {
		if unsubscribe != nil {
			unsubscribe()
		}
	}()

	writeFrame(w, "connected", map[string]string{"user_id": userID.String()})
	flusher.Flush()

	// Subscribe before the snapshot replay so no event published in between
	// is lost. A quiz can appear in both; consumers key on quiz_id and the
	// live event is never older than the cached one.
	eventCh := make(chan events.QuizGenerationEvent, eventBufferSize)
	unsubscribe, err := h.subscriber.Subscribe(r.Context(), userID, func(event events.QuizGenerationEvent) {
		select {
		case eventCh <- event:
		default:
			log.Warn("dropping event, client buffer full",
				slog.String("quiz_id", event.QuizID.String()))
		}
	})
	if err != nil {
		log.Error("failed to subscribe to event stream", "error", err)
		return
	}

	snapshot, err := h.subscriber.LastEvents(r.Context(), userID)
	if err != nil {
		// Replay is a reconnection aid; the live stream still works.
		log.Warn("failed to load recovery cache snapshot", "error", err)
	}
	for _, event := range snapshot {
		h.writeEvent(w, log, event)
	}
	flusher.Flush()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug("event stream client disconnected")
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, "event: ping\ndata: {}\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event := <-eventCh:
			h.writeEvent(w, log, event)
			flusher.Flush()
		}
	}
}

// writeEvent frames one generation event. Events with an unknown type tag
// are logged and skipped rather than sent under a guessed name.
func (h *EventsHandler) writeEvent(w http.ResponseWriter, log *slog.Logger, event events.QuizGenerationEvent) {
	name, err := event.WireName()
	if err != nil {
		log.Error("skipping event with unknown type",
			"error", err,
			slog.String("quiz_id", event.QuizID.String()))
		return
	}
	writeFrame(w, name, event)
}

// writeFrame writes a single SSE frame with the given event name and
// JSON-encoded data.
func writeFrame(w http.ResponseWriter, name string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to marshal SSE payload", "error", err)
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
}
