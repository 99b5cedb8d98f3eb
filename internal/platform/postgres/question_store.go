package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/platform/logger"
	"github.com/quizard-app/quizard-api/internal/store"
)

// PostgresQuestionStore implements the store.QuestionStore interface
// using a PostgreSQL database as the storage backend.
// Answer options are stored as a JSONB column since they are always read
// and written as a unit with their question.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the
// QuestionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

// Ensure PostgresQuestionStore implements store.QuestionStore interface
var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// CreateBulk implements store.QuestionStore.CreateBulk
// It saves the complete question set for a quiz, validating each question first.
// Returns store.ErrInvalidEntity if the owning quiz does not exist.
func (s *PostgresQuestionStore) CreateBulk(ctx context.Context, questions []*domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(questions) == 0 {
		return nil
	}

	for _, q := range questions {
		if err := q.Validate(); err != nil {
			log.Warn("question validation failed during bulk create",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO questions (id, quiz_id, order_index, type, stem, options, correct_explanation, source_quote, source_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			log.Error("failed to marshal answer options",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()))
			return fmt.Errorf("failed to marshal answer options: %w", err)
		}

		_, err = s.db.ExecContext(
			ctx,
			query,
			q.ID,
			q.QuizID,
			q.OrderIndex,
			q.Type,
			q.Stem,
			optionsJSON,
			q.CorrectExplanation,
			q.SourceQuote,
			q.SourceReference,
			q.CreatedAt,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				log.Warn("foreign key violation during question creation",
					slog.String("question_id", q.ID.String()),
					slog.String("quiz_id", q.QuizID.String()))
				return fmt.Errorf("%w: quiz with ID %s not found",
					store.ErrInvalidEntity, q.QuizID)
			}

			log.Error("failed to create question",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()),
				slog.String("quiz_id", q.QuizID.String()))
			return MapError(err)
		}
	}

	log.Info("questions created successfully",
		slog.String("quiz_id", questions[0].QuizID.String()),
		slog.Int("count", len(questions)))
	return nil
}

// FindByQuizID implements store.QuestionStore.FindByQuizID
// It retrieves all questions for a quiz in presentation order.
func (s *PostgresQuestionStore) FindByQuizID(ctx context.Context, quizID uuid.UUID) ([]*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving questions", slog.String("quiz_id", quizID.String()))

	query := `
		SELECT id, quiz_id, order_index, type, stem, options, correct_explanation, source_quote, source_reference, created_at
		FROM questions
		WHERE quiz_id = $1
		ORDER BY order_index ASC
	`

	rows, err := s.db.QueryContext(ctx, query, quizID)
	if err != nil {
		log.Error("failed to query questions",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var questions []*domain.Question
	for rows.Next() {
		var q domain.Question
		var qType string
		var optionsJSON []byte

		err := rows.Scan(
			&q.ID,
			&q.QuizID,
			&q.OrderIndex,
			&qType,
			&q.Stem,
			&optionsJSON,
			&q.CorrectExplanation,
			&q.SourceQuote,
			&q.SourceReference,
			&q.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan question row",
				slog.String("error", err.Error()),
				slog.String("quiz_id", quizID.String()))
			return nil, MapError(err)
		}

		q.Type = domain.QuestionType(qType)
		if err := json.Unmarshal(optionsJSON, &q.Options); err != nil {
			log.Error("failed to unmarshal answer options",
				slog.String("error", err.Error()),
				slog.String("question_id", q.ID.String()))
			return nil, fmt.Errorf("failed to unmarshal answer options: %w", err)
		}

		questions = append(questions, &q)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating question rows",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, MapError(err)
	}

	log.Debug("questions retrieved successfully",
		slog.String("quiz_id", quizID.String()),
		slog.Int("count", len(questions)))
	return questions, nil
}

// WithTx implements store.QuestionStore.WithTx
// It returns a new QuestionStore instance that uses the provided transaction.
func (s *PostgresQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &PostgresQuestionStore{
		db:     tx,
		logger: s.logger,
	}
}
