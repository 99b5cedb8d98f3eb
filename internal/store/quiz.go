package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/quizard-app/quizard-api/internal/domain"
)

// QuizStore defines the interface for quiz data persistence.
type QuizStore interface {
	// Create saves a new quiz to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Quiz if data is invalid.
	// Returns ErrSlugExists if the slug is already taken.
	Create(ctx context.Context, quiz *domain.Quiz) error

	// GetByID retrieves a quiz by its unique ID.
	// Returns ErrQuizNotFound if the quiz does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)

	// GetBySlug retrieves a quiz by its public slug.
	// Returns ErrQuizNotFound if the quiz does not exist.
	GetBySlug(ctx context.Context, slug string) (*domain.Quiz, error)

	// Update saves changes to an existing quiz.
	// Returns ErrQuizNotFound if the quiz does not exist.
	// Returns validation errors if the quiz data is invalid.
	Update(ctx context.Context, quiz *domain.Quiz) error

	// WithTx returns a new QuizStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) QuizStore
}

// SourceMaterialStore defines the interface for source material persistence.
// Source materials are written once per generation run and never mutated.
type SourceMaterialStore interface {
	// CreateBulk saves the given materials in a single statement, preserving
	// their reference-index order.
	// Returns validation errors if any material is invalid.
	CreateBulk(ctx context.Context, materials []*domain.SourceMaterial) error

	// FindByQuizID retrieves all materials for a quiz ordered by reference index.
	// Returns an empty slice if the quiz has no materials.
	FindByQuizID(ctx context.Context, quizID uuid.UUID) ([]*domain.SourceMaterial, error)

	// WithTx returns a new SourceMaterialStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) SourceMaterialStore
}

// QuestionStore defines the interface for question persistence.
// Questions are written once per generation run and never mutated.
type QuestionStore interface {
	// CreateBulk saves the given questions, preserving generation order.
	// Returns validation errors if any question is invalid.
	CreateBulk(ctx context.Context, questions []*domain.Question) error

	// FindByQuizID retrieves all questions for a quiz ordered by order index.
	// Returns an empty slice if the quiz has no questions.
	FindByQuizID(ctx context.Context, quizID uuid.UUID) ([]*domain.Question, error)

	// WithTx returns a new QuestionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) QuestionStore
}
