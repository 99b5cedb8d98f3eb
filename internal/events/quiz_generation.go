package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quizard-app/quizard-api/internal/domain"
)

// QuizGenerationEventType tags the variants of the generation event union.
// The set is closed: every switch over it in this package and in the SSE
// bridge has an error default, so adding a variant without handling it
// everywhere fails loudly rather than silently dropping events.
type QuizGenerationEventType string

// The three quiz generation event variants.
const (
	EventTypeProcessing QuizGenerationEventType = "processing"
	EventTypeCompleted  QuizGenerationEventType = "completed"
	EventTypeFailed     QuizGenerationEventType = "failed"
)

// ErrUnknownEventType is returned when an event carries a type tag outside
// the closed variant set.
var ErrUnknownEventType = errors.New("unknown quiz generation event type")

// QuestionPreview is the trimmed view of the most recently generated question
// carried inside processing events so the UI can render items as they arrive.
type QuestionPreview struct {
	OrderIndex int                 `json:"order_index"`
	Type       domain.QuestionType `json:"type"`
	Stem       string              `json:"stem"`
}

// QuizGenerationEvent is the tagged union of generation progress messages.
// Every variant carries the routing and identity fields; the remaining fields
// are populated per variant:
//
//   - processing: QuestionsGenerated, TotalQuestions, optional LastQuestion
//   - completed: no extra fields
//   - failed: ErrorMessage
//
// Events are transient: they exist as wire messages and as short-TTL recovery
// cache entries, never as durable rows. UserID is the pub/sub routing key; a
// user's concurrent generations multiplex onto one channel and consumers tell
// them apart by QuizID.
type QuizGenerationEvent struct {
	Type      QuizGenerationEventType `json:"type"`
	UserID    uuid.UUID               `json:"user_id"`
	QuizID    uuid.UUID               `json:"quiz_id"`
	QuizSlug  string                  `json:"quiz_slug"`
	Timestamp time.Time               `json:"timestamp"`

	// Counts are always serialized: the initial processing event carries
	// questions_generated of zero, which clients render as 0/N.
	QuestionsGenerated int              `json:"questions_generated"`
	TotalQuestions     int              `json:"total_questions"`
	LastQuestion       *QuestionPreview `json:"last_question,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
}

// NewProcessingEvent creates a processing event carrying the running count,
// the declared total, and an optional preview of the latest question.
func NewProcessingEvent(
	userID, quizID uuid.UUID,
	slug string,
	generated, total int,
	last *QuestionPreview,
) QuizGenerationEvent {
	return QuizGenerationEvent{
		Type:               EventTypeProcessing,
		UserID:             userID,
		QuizID:             quizID,
		QuizSlug:           slug,
		Timestamp:          time.Now().UTC(),
		QuestionsGenerated: generated,
		TotalQuestions:     total,
		LastQuestion:       last,
	}
}

// NewCompletedEvent creates a completed event for a finished generation run.
func NewCompletedEvent(userID, quizID uuid.UUID, slug string) QuizGenerationEvent {
	return QuizGenerationEvent{
		Type:      EventTypeCompleted,
		UserID:    userID,
		QuizID:    quizID,
		QuizSlug:  slug,
		Timestamp: time.Now().UTC(),
	}
}

// NewFailedEvent creates a failed event carrying the user-facing error
// message. Stack traces and wrapped causes stay in the logs.
func NewFailedEvent(userID, quizID uuid.UUID, slug, errorMessage string) QuizGenerationEvent {
	return QuizGenerationEvent{
		Type:         EventTypeFailed,
		UserID:       userID,
		QuizID:       quizID,
		QuizSlug:     slug,
		Timestamp:    time.Now().UTC(),
		ErrorMessage: errorMessage,
	}
}

// Validate checks the identity fields and the type tag.
func (e QuizGenerationEvent) Validate() error {
	if e.UserID == uuid.Nil {
		return errors.New("event user ID cannot be empty")
	}
	if e.QuizID == uuid.Nil {
		return errors.New("event quiz ID cannot be empty")
	}
	switch e.Type {
	case EventTypeProcessing, EventTypeCompleted, EventTypeFailed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
}

// WireName maps the event variant to its SSE event name. The switch is
// exhaustive over the closed variant set.
func (e QuizGenerationEvent) WireName() (string, error) {
	switch e.Type {
	case EventTypeProcessing:
		return "quiz.generation.processing", nil
	case EventTypeCompleted:
		return "quiz.generation.completed", nil
	case EventTypeFailed:
		return "quiz.generation.failed", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
}
