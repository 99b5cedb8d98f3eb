package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDBTX implements store.DBTX for testing. It records whether any query
// reached the database so validation short-circuits can be verified.
type mockDBTX struct {
	called bool
}

func (m *mockDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	m.called = true
	return nil, nil
}

func (m *mockDBTX) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	m.called = true
	return nil, nil
}

func (m *mockDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	m.called = true
	return nil, nil
}

func (m *mockDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	m.called = true
	return nil
}

func validQuiz(t *testing.T) *domain.Quiz {
	t.Helper()

	quiz, err := domain.NewQuiz(
		uuid.New(),
		"Cell Biology Review",
		domain.Distribution{DirectQuestion: 5, TwoStatementCompound: 3, Contextual: 2},
		domain.QuizVisibilityPrivate,
	)
	require.NoError(t, err)
	return quiz
}

func TestNewPostgresQuizStore(t *testing.T) {
	t.Run("nil_db_panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewPostgresQuizStore(nil, slog.Default())
		})
	})

	t.Run("nil_logger_uses_default", func(t *testing.T) {
		s := NewPostgresQuizStore(&mockDBTX{}, nil)
		assert.NotNil(t, s)
		assert.NotNil(t, s.logger)
	})
}

func TestNewPostgresSourceMaterialStore(t *testing.T) {
	t.Run("nil_db_panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewPostgresSourceMaterialStore(nil, slog.Default())
		})
	})

	t.Run("nil_logger_uses_default", func(t *testing.T) {
		s := NewPostgresSourceMaterialStore(&mockDBTX{}, nil)
		assert.NotNil(t, s)
		assert.NotNil(t, s.logger)
	})
}

func TestNewPostgresQuestionStore(t *testing.T) {
	t.Run("nil_db_panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewPostgresQuestionStore(nil, slog.Default())
		})
	})

	t.Run("nil_logger_uses_default", func(t *testing.T) {
		s := NewPostgresQuestionStore(&mockDBTX{}, nil)
		assert.NotNil(t, s)
		assert.NotNil(t, s.logger)
	})
}

func TestQuizStoreCreate_ValidatesBeforeDB(t *testing.T) {
	db := &mockDBTX{}
	s := NewPostgresQuizStore(db, slog.Default())

	quiz := validQuiz(t)
	quiz.Title = ""

	err := s.Create(context.Background(), quiz)
	assert.ErrorIs(t, err, domain.ErrQuizTitleEmpty)
	assert.False(t, db.called, "invalid quiz should never reach the database")
}

func TestQuizStoreUpdate_ValidatesBeforeDB(t *testing.T) {
	db := &mockDBTX{}
	s := NewPostgresQuizStore(db, slog.Default())

	quiz := validQuiz(t)
	quiz.Status = domain.QuizStatus("bogus")

	err := s.Update(context.Background(), quiz)
	assert.ErrorIs(t, err, domain.ErrInvalidQuizStatus)
	assert.False(t, db.called)
}

func TestSourceMaterialCreateBulk_ValidatesBeforeDB(t *testing.T) {
	db := &mockDBTX{}
	s := NewPostgresSourceMaterialStore(db, slog.Default())

	material, err := domain.NewSourceMaterial(
		uuid.New(), "uploads/abc.pdf", "notes.pdf", "application/pdf", 1024, 1,
	)
	require.NoError(t, err)
	material.ObjectKey = ""

	err = s.CreateBulk(context.Background(), []*domain.SourceMaterial{material})
	assert.ErrorIs(t, err, domain.ErrSourceMaterialObjectKeyEmpty)
	assert.False(t, db.called)
}

func TestSourceMaterialCreateBulk_EmptySliceIsNoOp(t *testing.T) {
	db := &mockDBTX{}
	s := NewPostgresSourceMaterialStore(db, slog.Default())

	err := s.CreateBulk(context.Background(), nil)
	assert.NoError(t, err)
	assert.False(t, db.called)
}

func TestQuestionCreateBulk_ValidatesBeforeDB(t *testing.T) {
	db := &mockDBTX{}
	s := NewPostgresQuestionStore(db, slog.Default())

	question := &domain.Question{
		ID:         uuid.New(),
		QuizID:     uuid.New(),
		OrderIndex: 1,
		Type:       domain.QuestionTypeDirectQuestion,
		Stem:       "What organelle produces ATP?",
		Options: []domain.AnswerOption{
			{Text: "Mitochondrion", IsCorrect: true},
			{Text: "Ribosome", IsCorrect: true, Rationale: "Ribosomes synthesize proteins."},
			{Text: "Nucleus", IsCorrect: false, Rationale: "The nucleus stores genetic material."},
			{Text: "Lysosome", IsCorrect: false, Rationale: "Lysosomes break down waste."},
		},
		CorrectExplanation: "Mitochondria produce ATP through cellular respiration.",
		CreatedAt:          time.Now().UTC(),
	}

	err := s.CreateBulk(context.Background(), []*domain.Question{question})
	assert.ErrorIs(t, err, domain.ErrInvalidCorrectOptionCount)
	assert.False(t, db.called)
}

func TestStoreWithTx(t *testing.T) {
	logger := slog.Default()
	db := &sql.DB{}

	quizStore := NewPostgresQuizStore(db, logger)
	materialStore := NewPostgresSourceMaterialStore(db, logger)
	questionStore := NewPostgresQuestionStore(db, logger)

	// The transactional copies must be distinct instances; real transaction
	// behavior is covered by integration tests.
	tx := &sql.Tx{}
	assert.NotSame(t, quizStore, quizStore.WithTx(tx))
	assert.NotSame(t, materialStore, materialStore.WithTx(tx))
	assert.NotSame(t, questionStore, questionStore.WithTx(tx))
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "quizzes_slug_key"}
	fk := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "source_materials_quiz_id_fkey"}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(unique))

	// The schema's only foreign keys point at quizzes, so violations map to
	// the generic invalid entity error with the constraint name attached.
	assert.ErrorIs(t, MapError(fk), store.ErrInvalidEntity)
	assert.ErrorContains(t, MapError(fk), "source_materials_quiz_id_fkey")
	assert.ErrorIs(t, MapError(unique), store.ErrDuplicate)
	assert.ErrorIs(t, MapError(sql.ErrNoRows), store.ErrNotFound)
	assert.NoError(t, MapError(nil))
}
