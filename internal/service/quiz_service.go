package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/events"
	"github.com/quizard-app/quizard-api/internal/store"
	"github.com/quizard-app/quizard-api/internal/task"
)

// SourceMaterialInput describes one staged upload attached to a quiz
// creation request. The reference index is assigned from slice position.
type SourceMaterialInput struct {
	ObjectKey string
	Filename  string
	MimeType  string
	SizeBytes int64
}

// QuizService provides quiz-related operations for the API layer and the
// background generation task.
type QuizService interface {
	// CreateQuizAndEnqueueTask creates a quiz in its generating state along
	// with its source material records, then emits the event that starts
	// background generation. The HTTP request returns as soon as this does;
	// generation progress reaches the client through the event stream.
	CreateQuizAndEnqueueTask(
		ctx context.Context,
		userID uuid.UUID,
		title string,
		dist domain.Distribution,
		visibility domain.QuizVisibility,
		materials []SourceMaterialInput,
	) (*domain.Quiz, error)

	// GetQuizForUser retrieves a quiz with its questions, enforcing that
	// private quizzes are only visible to their owner. Questions are empty
	// unless the quiz is ready.
	GetQuizForUser(ctx context.Context, quizID, userID uuid.UUID) (*domain.Quiz, []*domain.Question, error)

	// The remaining operations serve the background generation task.
	task.QuizGenerationService
}

// quizServiceImpl implements the QuizService interface
type quizServiceImpl struct {
	db            *sql.DB
	quizStore     store.QuizStore
	materialStore store.SourceMaterialStore
	questionStore store.QuestionStore
	eventEmitter  events.EventEmitter
	logger        *slog.Logger
}

// NewQuizService creates a new QuizService.
// It returns an error if any of the required dependencies are nil.
func NewQuizService(
	db *sql.DB,
	quizStore store.QuizStore,
	materialStore store.SourceMaterialStore,
	questionStore store.QuestionStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (QuizService, error) {
	if db == nil {
		return nil, &QuizServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if quizStore == nil {
		return nil, &QuizServiceError{Operation: "create_service", Message: "quizStore cannot be nil"}
	}
	if materialStore == nil {
		return nil, &QuizServiceError{Operation: "create_service", Message: "materialStore cannot be nil"}
	}
	if questionStore == nil {
		return nil, &QuizServiceError{Operation: "create_service", Message: "questionStore cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &QuizServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &quizServiceImpl{
		db:            db,
		quizStore:     quizStore,
		materialStore: materialStore,
		questionStore: questionStore,
		eventEmitter:  eventEmitter,
		logger:        logger.With("component", "quiz_service"),
	}, nil
}

// Ensure the service satisfies the task-facing interface
var _ task.QuizGenerationService = (*quizServiceImpl)(nil)

// CreateQuizAndEnqueueTask creates the quiz and its source material records in
// one transaction, then emits a TaskRequestEvent for background generation.
func (s *quizServiceImpl) CreateQuizAndEnqueueTask(
	ctx context.Context,
	userID uuid.UUID,
	title string,
	dist domain.Distribution,
	visibility domain.QuizVisibility,
	materials []SourceMaterialInput,
) (*domain.Quiz, error) {
	quiz, err := domain.NewQuiz(userID, title, dist, visibility)
	if err != nil {
		s.logger.Error("failed to create quiz object",
			"error", err,
			"user_id", userID)
		return nil, NewQuizServiceError("create_quiz", "failed to create quiz object", err)
	}

	records := make([]*domain.SourceMaterial, 0, len(materials))
	for i, input := range materials {
		material, err := domain.NewSourceMaterial(
			quiz.ID, input.ObjectKey, input.Filename, input.MimeType, input.SizeBytes, i,
		)
		if err != nil {
			s.logger.Error("failed to create source material object",
				"error", err,
				"quiz_id", quiz.ID,
				"filename", input.Filename)
			return nil, NewQuizServiceError("create_quiz", "failed to create source material object", err)
		}
		records = append(records, material)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.quizStore.WithTx(tx).Create(ctx, quiz); err != nil {
			return NewQuizServiceError("create_quiz", "failed to save quiz to database", err)
		}
		if err := s.materialStore.WithTx(tx).CreateBulk(ctx, records); err != nil {
			return NewQuizServiceError("create_quiz", "failed to save source materials", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quiz created successfully with generating status",
		"quiz_id", quiz.ID,
		"user_id", userID,
		"material_count", len(records))

	payload := struct {
		QuizID uuid.UUID `json:"quiz_id"`
	}{QuizID: quiz.ID}

	event, err := events.NewTaskRequestEvent(task.TaskTypeQuizGeneration, payload)
	if err != nil {
		s.logger.Error("failed to create quiz generation event",
			"error", err,
			"quiz_id", quiz.ID)
		return nil, NewQuizServiceError("create_quiz", "failed to create event", err)
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit quiz generation event",
			"error", err,
			"quiz_id", quiz.ID,
			"event_id", event.ID)
		return nil, NewQuizServiceError("create_quiz", "failed to emit event", err)
	}

	s.logger.Info("quiz generation event emitted successfully",
		"quiz_id", quiz.ID,
		"user_id", userID,
		"event_id", event.ID)

	return quiz, nil
}

// GetQuizForUser retrieves a quiz and, when it is ready, its questions.
// Private quizzes are only returned to their owner.
func (s *quizServiceImpl) GetQuizForUser(
	ctx context.Context,
	quizID, userID uuid.UUID,
) (*domain.Quiz, []*domain.Question, error) {
	quiz, err := s.quizStore.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, store.ErrQuizNotFound) {
			return nil, nil, ErrQuizNotFound
		}
		return nil, nil, NewQuizServiceError("get_quiz", "failed to retrieve quiz", err)
	}

	if quiz.Visibility == domain.QuizVisibilityPrivate && quiz.UserID != userID {
		s.logger.Warn("denied access to private quiz",
			"quiz_id", quizID,
			"owner_id", quiz.UserID,
			"requester_id", userID)
		return nil, nil, ErrNotOwned
	}

	if quiz.Status != domain.QuizStatusReady {
		return quiz, nil, nil
	}

	questions, err := s.questionStore.FindByQuizID(ctx, quizID)
	if err != nil {
		return nil, nil, NewQuizServiceError("get_quiz", "failed to retrieve questions", err)
	}
	return quiz, questions, nil
}

// GetQuizWithMaterials implements task.QuizGenerationService.
func (s *quizServiceImpl) GetQuizWithMaterials(
	ctx context.Context,
	quizID uuid.UUID,
) (*domain.Quiz, []*domain.SourceMaterial, error) {
	quiz, err := s.quizStore.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, store.ErrQuizNotFound) {
			return nil, nil, ErrQuizNotFound
		}
		return nil, nil, NewQuizServiceError("get_quiz_with_materials", "failed to retrieve quiz", err)
	}

	materials, err := s.materialStore.FindByQuizID(ctx, quizID)
	if err != nil {
		return nil, nil, NewQuizServiceError("get_quiz_with_materials", "failed to retrieve source materials", err)
	}

	return quiz, materials, nil
}

// SaveGeneratedQuestions implements task.QuizGenerationService.
// The whole question set is written in one transaction so a quiz is never
// observable with a partial set.
func (s *quizServiceImpl) SaveGeneratedQuestions(
	ctx context.Context,
	questions []*domain.Question,
) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.questionStore.WithTx(tx).CreateBulk(ctx, questions); err != nil {
			return NewQuizServiceError("save_questions", "failed to save generated questions", err)
		}
		return nil
	})
}

// MarkQuizReady implements task.QuizGenerationService.
func (s *quizServiceImpl) MarkQuizReady(ctx context.Context, quizID uuid.UUID) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.quizStore.WithTx(tx)

		quiz, err := txStore.GetByID(ctx, quizID)
		if err != nil {
			if errors.Is(err, store.ErrQuizNotFound) {
				return ErrQuizNotFound
			}
			return NewQuizServiceError("mark_quiz_ready", "failed to retrieve quiz", err)
		}

		if err := quiz.MarkReady(); err != nil {
			return NewQuizServiceError("mark_quiz_ready", "invalid status transition", err)
		}

		if err := txStore.Update(ctx, quiz); err != nil {
			return NewQuizServiceError("mark_quiz_ready", "failed to save quiz", err)
		}
		return nil
	})
}

// MarkQuizFailed implements task.QuizGenerationService.
// Returns the quiz as loaded in the transaction so callers can publish the
// failed event without holding their own copy. Applied is false without
// error when the quiz already left its generating state, so repeated
// failure handling stays idempotent.
func (s *quizServiceImpl) MarkQuizFailed(
	ctx context.Context,
	quizID uuid.UUID,
	message string,
) (*domain.Quiz, bool, error) {
	var failed *domain.Quiz
	applied := false
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.quizStore.WithTx(tx)

		quiz, err := txStore.GetByID(ctx, quizID)
		if err != nil {
			if errors.Is(err, store.ErrQuizNotFound) {
				return ErrQuizNotFound
			}
			return NewQuizServiceError("mark_quiz_failed", "failed to retrieve quiz", err)
		}

		if err := quiz.MarkFailed(message); err != nil {
			if errors.Is(err, domain.ErrInvalidStatusTransition) {
				s.logger.Info("quiz no longer generating, skipping failed transition",
					"quiz_id", quizID,
					"status", quiz.Status)
				failed = quiz
				return nil
			}
			return NewQuizServiceError("mark_quiz_failed", "invalid status transition", err)
		}

		if err := txStore.Update(ctx, quiz); err != nil {
			return NewQuizServiceError("mark_quiz_failed", "failed to save quiz", err)
		}
		failed = quiz
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return failed, applied, nil
}
