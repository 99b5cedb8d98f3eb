package task

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/quizard-app/quizard-api/internal/events"
	"github.com/quizard-app/quizard-api/internal/generation"
)

// QuizGenerationTaskFactory creates QuizGenerationTask instances
type QuizGenerationTaskFactory struct {
	quizService  QuizGenerationService
	objectReader ObjectReader
	generator    generation.Generator
	policy       *generation.ModelFallbackPolicy
	publisher    events.Publisher
	logger       *slog.Logger
}

// NewQuizGenerationTaskFactory creates a new factory for QuizGenerationTasks
func NewQuizGenerationTaskFactory(
	quizService QuizGenerationService,
	objectReader ObjectReader,
	generator generation.Generator,
	policy *generation.ModelFallbackPolicy,
	publisher events.Publisher,
	logger *slog.Logger,
) *QuizGenerationTaskFactory {
	return &QuizGenerationTaskFactory{
		quizService:  quizService,
		objectReader: objectReader,
		generator:    generator,
		policy:       policy,
		publisher:    publisher,
		logger:       logger.With("component", "quiz_generation_task_factory"),
	}
}

// CreateTask creates a new QuizGenerationTask for the specified quiz
func (f *QuizGenerationTaskFactory) CreateTask(quizID uuid.UUID) (Task, error) {
	task, err := NewQuizGenerationTask(
		quizID,
		f.quizService,
		f.objectReader,
		f.generator,
		f.policy,
		f.publisher,
		f.logger,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}
