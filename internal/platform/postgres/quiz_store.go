package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/platform/logger"
	"github.com/quizard-app/quizard-api/internal/store"
)

// PostgresQuizStore implements the store.QuizStore interface
// using a PostgreSQL database as the storage backend.
type PostgresQuizStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuizStore creates a new PostgreSQL implementation of the QuizStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresQuizStore(db store.DBTX, logger *slog.Logger) *PostgresQuizStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuizStore{
		db:     db,
		logger: logger.With(slog.String("component", "quiz_store")),
	}
}

// Ensure PostgresQuizStore implements store.QuizStore interface
var _ store.QuizStore = (*PostgresQuizStore)(nil)

// Create implements store.QuizStore.Create
// It saves a new quiz to the database, handling domain validation.
// The distribution is persisted as its packed integer representation.
// Returns store.ErrSlugExists if the slug is already taken.
func (s *PostgresQuizStore) Create(ctx context.Context, quiz *domain.Quiz) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := quiz.Validate(); err != nil {
		log.Warn("quiz validation failed during create",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quiz.ID.String()))
		return err
	}

	packed, err := quiz.Distribution.Encode()
	if err != nil {
		// Validate above already checked the distribution; this only fires
		// if the two ever disagree.
		return err
	}

	query := `
		INSERT INTO quizzes (id, user_id, title, slug, distribution, visibility, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		quiz.ID,
		quiz.UserID,
		quiz.Title,
		quiz.Slug,
		packed,
		quiz.Visibility,
		quiz.Status,
		quiz.ErrorMessage,
		quiz.CreatedAt,
		quiz.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("slug collision during quiz creation",
				slog.String("quiz_id", quiz.ID.String()),
				slog.String("slug", quiz.Slug))
			return fmt.Errorf("%w: %s", store.ErrSlugExists, quiz.Slug)
		}
		log.Error("failed to create quiz",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quiz.ID.String()),
			slog.String("user_id", quiz.UserID.String()))
		return MapError(err)
	}

	log.Info("quiz created successfully",
		slog.String("quiz_id", quiz.ID.String()),
		slog.String("user_id", quiz.UserID.String()),
		slog.String("status", string(quiz.Status)))
	return nil
}

// GetByID implements store.QuizStore.GetByID
// It retrieves a quiz by its unique ID.
// Returns store.ErrQuizNotFound if the quiz does not exist.
func (s *PostgresQuizStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving quiz by ID", slog.String("quiz_id", id.String()))

	query := `
		SELECT id, user_id, title, slug, distribution, visibility, status, error_message, created_at, updated_at
		FROM quizzes
		WHERE id = $1
	`

	return s.scanQuiz(ctx, log, s.db.QueryRowContext(ctx, query, id))
}

// GetBySlug implements store.QuizStore.GetBySlug
// It retrieves a quiz by its public slug.
// Returns store.ErrQuizNotFound if the quiz does not exist.
func (s *PostgresQuizStore) GetBySlug(ctx context.Context, slug string) (*domain.Quiz, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving quiz by slug", slog.String("slug", slug))

	query := `
		SELECT id, user_id, title, slug, distribution, visibility, status, error_message, created_at, updated_at
		FROM quizzes
		WHERE slug = $1
	`

	return s.scanQuiz(ctx, log, s.db.QueryRowContext(ctx, query, slug))
}

// scanQuiz maps a single quiz row, unpacking the distribution column.
func (s *PostgresQuizStore) scanQuiz(
	ctx context.Context,
	log *slog.Logger,
	row *sql.Row,
) (*domain.Quiz, error) {
	var quiz domain.Quiz
	var packed int
	var status, visibility string

	err := row.Scan(
		&quiz.ID,
		&quiz.UserID,
		&quiz.Title,
		&quiz.Slug,
		&packed,
		&visibility,
		&status,
		&quiz.ErrorMessage,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz not found")
			return nil, store.ErrQuizNotFound
		}
		log.Error("failed to scan quiz row",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	quiz.Distribution = domain.DecodeDistribution(packed)
	quiz.Visibility = domain.QuizVisibility(visibility)
	quiz.Status = domain.QuizStatus(status)

	log.Debug("quiz retrieved successfully",
		slog.String("quiz_id", quiz.ID.String()),
		slog.String("status", string(quiz.Status)))
	return &quiz, nil
}

// Update implements store.QuizStore.Update
// It saves changes to an existing quiz, including status transitions made by
// the generation task.
// Returns store.ErrQuizNotFound if the quiz does not exist.
func (s *PostgresQuizStore) Update(ctx context.Context, quiz *domain.Quiz) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := quiz.Validate(); err != nil {
		log.Warn("quiz validation failed during update",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quiz.ID.String()))
		return err
	}

	packed, err := quiz.Distribution.Encode()
	if err != nil {
		return err
	}

	query := `
		UPDATE quizzes
		SET title = $1, distribution = $2, visibility = $3, status = $4, error_message = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		quiz.Title,
		packed,
		quiz.Visibility,
		quiz.Status,
		quiz.ErrorMessage,
		quiz.UpdatedAt,
		quiz.ID,
	)

	if err != nil {
		log.Error("failed to update quiz",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quiz.ID.String()),
			slog.String("status", string(quiz.Status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "quiz"); err != nil {
		log.Debug("quiz not found for update",
			slog.String("quiz_id", quiz.ID.String()))
		return store.ErrQuizNotFound
	}

	log.Info("quiz updated successfully",
		slog.String("quiz_id", quiz.ID.String()),
		slog.String("status", string(quiz.Status)))
	return nil
}

// WithTx implements store.QuizStore.WithTx
// It returns a new QuizStore instance that uses the provided transaction.
func (s *PostgresQuizStore) WithTx(tx *sql.Tx) store.QuizStore {
	return &PostgresQuizStore{
		db:     tx,
		logger: s.logger,
	}
}
