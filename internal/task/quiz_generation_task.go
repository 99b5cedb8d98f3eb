package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/events"
	"github.com/quizard-app/quizard-api/internal/generation"
)

// Common errors
var (
	ErrNilQuizService  = errors.New("quiz service cannot be nil")
	ErrNilObjectReader = errors.New("object reader cannot be nil")
	ErrNilGenerator    = errors.New("generator cannot be nil")
	ErrNilPolicy       = errors.New("fallback policy cannot be nil")
	ErrNilPublisher    = errors.New("event publisher cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrEmptyQuizID     = errors.New("quiz ID cannot be empty")
	ErrNoMaterials     = errors.New("quiz has no source materials")
)

// User-facing failure messages. Wrapped causes and stack context stay in the
// logs; only these strings reach the quiz row and the failed event.
const (
	failureMessageQuota   = "Generation capacity is currently exhausted. Please try again later."
	failureMessageBlocked = "The uploaded material was rejected by the content safety filters."
	failureMessageGeneric = "Quiz generation failed. Please try again."
)

// fileCleanupTimeout bounds the deletion of provider files after a run. A
// fresh context is used because the run's context may already be cancelled.
const fileCleanupTimeout = 30 * time.Second

// QuizGenerationService defines the service operations the generation task
// needs. Status transitions go through the service so the generating-only
// guard lives in one place.
type QuizGenerationService interface {
	// GetQuizWithMaterials retrieves a quiz and its source materials in
	// reference order.
	GetQuizWithMaterials(ctx context.Context, quizID uuid.UUID) (*domain.Quiz, []*domain.SourceMaterial, error)

	// SaveGeneratedQuestions persists the complete question set atomically.
	SaveGeneratedQuestions(ctx context.Context, questions []*domain.Question) error

	// MarkQuizReady transitions the quiz from generating to ready.
	MarkQuizReady(ctx context.Context, quizID uuid.UUID) error

	// MarkQuizFailed transitions the quiz from generating to failed with the
	// given user-facing message and returns the quiz as persisted. Applied
	// is false without error when the quiz already left the generating
	// state, making repeated failure handling a no-op.
	MarkQuizFailed(ctx context.Context, quizID uuid.UUID, message string) (*domain.Quiz, bool, error)
}

// ObjectReader reads staged source material uploads from object storage.
type ObjectReader interface {
	ReadObject(ctx context.Context, key string) ([]byte, error)
}

// quizGenerationPayload represents the serialized data stored in the task
type quizGenerationPayload struct {
	QuizID uuid.UUID `json:"quiz_id"`
}

// QuizGenerationTask implements the Task interface for generating questions
// from a quiz's source materials. Execute runs the whole pipeline: load,
// stage files with the provider, generate with model fallback, persist, flip
// status and publish the outcome event. Any step failing routes through one
// failure handler that compensates by marking the quiz failed, but only if it
// is still generating.
type QuizGenerationTask struct {
	id           uuid.UUID
	quizID       uuid.UUID
	quizService  QuizGenerationService
	objectReader ObjectReader
	generator    generation.Generator
	policy       *generation.ModelFallbackPolicy
	publisher    events.Publisher
	logger       *slog.Logger
	status       TaskStatus
}

// NewQuizGenerationTask creates a new quiz generation task
func NewQuizGenerationTask(
	quizID uuid.UUID,
	quizService QuizGenerationService,
	objectReader ObjectReader,
	generator generation.Generator,
	policy *generation.ModelFallbackPolicy,
	publisher events.Publisher,
	logger *slog.Logger,
) (*QuizGenerationTask, error) {
	if quizService == nil {
		return nil, ErrNilQuizService
	}
	if objectReader == nil {
		return nil, ErrNilObjectReader
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if policy == nil {
		return nil, ErrNilPolicy
	}
	if publisher == nil {
		return nil, ErrNilPublisher
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if quizID == uuid.Nil {
		return nil, ErrEmptyQuizID
	}

	return &QuizGenerationTask{
		id:           uuid.New(),
		quizID:       quizID,
		quizService:  quizService,
		objectReader: objectReader,
		generator:    generator,
		policy:       policy,
		publisher:    publisher,
		logger:       logger.With("task_type", TaskTypeQuizGeneration, "quiz_id", quizID),
		status:       TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *QuizGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *QuizGenerationTask) Type() string {
	return TaskTypeQuizGeneration
}

// Payload returns the task data as a byte slice
func (t *QuizGenerationTask) Payload() []byte {
	data, err := json.Marshal(quizGenerationPayload{QuizID: t.quizID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *QuizGenerationTask) Status() TaskStatus {
	return t.status
}

// Execute runs the quiz generation pipeline end to end.
func (t *QuizGenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting quiz generation task")

	if err := ctx.Err(); err != nil {
		return t.fail(ctx, fmt.Errorf("task cancelled by context: %w", err))
	}

	// 1. Retrieve the quiz and its source materials
	quiz, materials, err := t.quizService.GetQuizWithMaterials(ctx, t.quizID)
	if err != nil {
		return t.fail(ctx, fmt.Errorf("failed to retrieve quiz: %w", err))
	}
	if len(materials) == 0 {
		return t.fail(ctx, ErrNoMaterials)
	}

	t.logger.Info("retrieved quiz",
		"user_id", quiz.UserID,
		"material_count", len(materials),
		"total_questions", quiz.Distribution.Total())

	// 2. Stage each source material with the provider's file API. Uploaded
	// handles are cleaned up on every exit path.
	var uploaded []generation.ProviderFile
	defer func() { t.cleanupFiles(uploaded) }()

	for _, material := range materials {
		content, err := t.objectReader.ReadObject(ctx, material.ObjectKey)
		if err != nil {
			return t.fail(ctx, fmt.Errorf("failed to read source material %s: %w", material.ID, err))
		}

		file, err := t.generator.UploadFile(
			ctx, material.Filename, material.MimeType, content, material.ReferenceIndex,
		)
		if err != nil {
			return t.fail(ctx, fmt.Errorf("failed to stage source material %s: %w", material.ID, err))
		}
		uploaded = append(uploaded, file)
	}

	// 3. Generate questions, streaming progress to the owner as it happens.
	total := quiz.Distribution.Total()
	t.publishProcessing(ctx, quiz, 0, total, nil)

	req := generation.Request{
		QuizID:       quiz.ID,
		UserID:       quiz.UserID,
		Distribution: quiz.Distribution,
		Files:        uploaded,
	}
	onProgress := func(p generation.Progress) {
		var preview *events.QuestionPreview
		if p.LastQuestion != nil {
			preview = &events.QuestionPreview{
				OrderIndex: p.LastQuestion.OrderIndex,
				Type:       p.LastQuestion.Type,
				Stem:       p.LastQuestion.Stem,
			}
		}
		t.publishProcessing(ctx, quiz, p.QuestionsGenerated, total, preview)
	}

	questions, err := t.policy.ExecuteWithFallback(ctx,
		func(ctx context.Context, model string) ([]*domain.Question, error) {
			return t.generator.GenerateQuestions(ctx, model, req, onProgress)
		})
	if err != nil {
		return t.fail(ctx, fmt.Errorf("failed to generate questions: %w", err))
	}

	t.logger.Info("questions generated", "count", len(questions))

	// 4. Persist the question set atomically
	if err := t.quizService.SaveGeneratedQuestions(ctx, questions); err != nil {
		return t.fail(ctx, fmt.Errorf("failed to save generated questions: %w", err))
	}

	// 5. Flip the quiz to ready
	if err := t.quizService.MarkQuizReady(ctx, t.quizID); err != nil {
		return t.fail(ctx, fmt.Errorf("failed to mark quiz ready: %w", err))
	}

	// 6. Tell the owner. Event delivery is best-effort: the quiz is already
	// ready, so a publish failure is logged and swallowed.
	completed := events.NewCompletedEvent(quiz.UserID, quiz.ID, quiz.Slug)
	if err := t.publisher.Publish(ctx, completed); err != nil {
		t.logger.Error("failed to publish completed event", "error", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("quiz generation task completed successfully", "questions_generated", len(questions))
	return nil
}

// publishProcessing sends a progress event. Delivery failures are logged and
// never interrupt generation.
func (t *QuizGenerationTask) publishProcessing(
	ctx context.Context,
	quiz *domain.Quiz,
	generated, total int,
	preview *events.QuestionPreview,
) {
	event := events.NewProcessingEvent(quiz.UserID, quiz.ID, quiz.Slug, generated, total, preview)
	if err := t.publisher.Publish(ctx, event); err != nil {
		t.logger.Error("failed to publish processing event",
			"error", err,
			"questions_generated", generated)
	}
}

// fail is the single failure handler for every pipeline step. It marks the
// quiz failed with a user-facing message and publishes the failed event, but
// only when the quiz is still in its generating state: a second invocation,
// or a race with a completed run, changes nothing. The event is built from
// the quiz the service returns, so steps that fail before the quiz is loaded
// still notify the owner.
func (t *QuizGenerationTask) fail(ctx context.Context, cause error) error {
	t.status = TaskStatusFailed
	t.logger.Error("quiz generation failed", "error", cause)

	message := failureMessage(cause)

	quiz, applied, err := t.quizService.MarkQuizFailed(ctx, t.quizID, message)
	if err != nil {
		t.logger.Error("failed to mark quiz failed", "error", err)
		return cause
	}
	if !applied {
		t.logger.Info("quiz already left generating state, skipping failure transition")
		return cause
	}

	failed := events.NewFailedEvent(quiz.UserID, quiz.ID, quiz.Slug, message)
	if err := t.publisher.Publish(ctx, failed); err != nil {
		t.logger.Error("failed to publish failed event", "error", err)
	}

	return cause
}

// cleanupFiles removes provider files uploaded during the run. Deletion is
// best effort: failures are logged and never surface to the caller.
func (t *QuizGenerationTask) cleanupFiles(files []generation.ProviderFile) {
	if len(files) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fileCleanupTimeout)
	defer cancel()

	for _, file := range files {
		if err := t.generator.DeleteFile(ctx, file); err != nil {
			t.logger.Warn("failed to delete provider file",
				"provider_file", file.Name,
				"error", err)
		}
	}
}

// failureMessage maps an internal error to the message shown to the quiz
// owner.
func failureMessage(cause error) string {
	switch {
	case errors.Is(cause, generation.ErrQuotaExceeded):
		return failureMessageQuota
	case errors.Is(cause, generation.ErrContentBlocked):
		return failureMessageBlocked
	default:
		return failureMessageGeneric
	}
}
