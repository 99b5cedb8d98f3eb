package task

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/events"
	"github.com/quizard-app/quizard-api/internal/generation"
)

type mockQuizService struct {
	quiz      *domain.Quiz
	materials []*domain.SourceMaterial

	getErr    error
	saveErr   error
	readyErr  error
	failedErr error

	// failedApplied is what MarkQuizFailed reports; defaults to true.
	failedSkipped bool

	savedQuestions []*domain.Question
	readyCalls     int
	failedCalls    int
	failedMessage  string
}

func (m *mockQuizService) GetQuizWithMaterials(
	ctx context.Context,
	quizID uuid.UUID,
) (*domain.Quiz, []*domain.SourceMaterial, error) {
	if m.getErr != nil {
		return nil, nil, m.getErr
	}
	return m.quiz, m.materials, nil
}

func (m *mockQuizService) SaveGeneratedQuestions(ctx context.Context, questions []*domain.Question) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedQuestions = questions
	return nil
}

func (m *mockQuizService) MarkQuizReady(ctx context.Context, quizID uuid.UUID) error {
	m.readyCalls++
	return m.readyErr
}

func (m *mockQuizService) MarkQuizFailed(ctx context.Context, quizID uuid.UUID, message string) (*domain.Quiz, bool, error) {
	m.failedCalls++
	m.failedMessage = message
	if m.failedErr != nil {
		return nil, false, m.failedErr
	}
	return m.quiz, !m.failedSkipped, nil
}

type mockObjectReader struct {
	err   error
	reads []string
}

func (m *mockObjectReader) ReadObject(ctx context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.reads = append(m.reads, key)
	return []byte("file content"), nil
}

type mockGenerator struct {
	uploadErr   error
	generateErr func(model string) error

	uploads []string
	deletes []string
	models  []string
}

func (m *mockGenerator) UploadFile(
	ctx context.Context,
	filename, mimeType string,
	content []byte,
	referenceIndex int,
) (generation.ProviderFile, error) {
	if m.uploadErr != nil {
		return generation.ProviderFile{}, m.uploadErr
	}
	m.uploads = append(m.uploads, filename)
	return generation.ProviderFile{
		Name:           "files/" + filename,
		URI:            "https://files.example.com/" + filename,
		MimeType:       mimeType,
		ReferenceIndex: referenceIndex,
	}, nil
}

func (m *mockGenerator) GenerateQuestions(
	ctx context.Context,
	model string,
	req generation.Request,
	onProgress generation.ProgressFunc,
) ([]*domain.Question, error) {
	m.models = append(m.models, model)
	if m.generateErr != nil {
		if err := m.generateErr(model); err != nil {
			return nil, err
		}
	}

	total := req.Distribution.Total()
	questions := make([]*domain.Question, 0, total)
	for i := 0; i < total; i++ {
		q := &domain.Question{
			ID:         uuid.New(),
			QuizID:     req.QuizID,
			OrderIndex: i,
			Type:       domain.QuestionTypeDirectQuestion,
			Stem:       "stem",
		}
		questions = append(questions, q)
		if onProgress != nil {
			onProgress(generation.Progress{QuestionsGenerated: i + 1, LastQuestion: q})
		}
	}
	return questions, nil
}

func (m *mockGenerator) DeleteFile(ctx context.Context, file generation.ProviderFile) error {
	m.deletes = append(m.deletes, file.Name)
	return nil
}

type mockPublisher struct {
	published []events.QuizGenerationEvent
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, event events.QuizGenerationEvent) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, event)
	return nil
}

type taskFixture struct {
	quiz      *domain.Quiz
	service   *mockQuizService
	reader    *mockObjectReader
	generator *mockGenerator
	publisher *mockPublisher
	task      *QuizGenerationTask
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	quiz, err := domain.NewQuiz(
		uuid.New(),
		"Cell Biology",
		domain.Distribution{DirectQuestion: 2, TwoStatementCompound: 0, Contextual: 0},
		domain.QuizVisibilityPrivate,
	)
	require.NoError(t, err)

	material, err := domain.NewSourceMaterial(
		quiz.ID, "uploads/notes.pdf", "notes.pdf", "application/pdf", 2048, 0,
	)
	require.NoError(t, err)

	service := &mockQuizService{quiz: quiz, materials: []*domain.SourceMaterial{material}}
	reader := &mockObjectReader{}
	generator := &mockGenerator{}
	publisher := &mockPublisher{}

	policy, err := generation.NewModelFallbackPolicy("primary-model", "fallback-model", slog.Default())
	require.NoError(t, err)

	tsk, err := NewQuizGenerationTask(
		quiz.ID, service, reader, generator, policy, publisher, slog.Default(),
	)
	require.NoError(t, err)

	return &taskFixture{
		quiz:      quiz,
		service:   service,
		reader:    reader,
		generator: generator,
		publisher: publisher,
		task:      tsk,
	}
}

func eventTypes(published []events.QuizGenerationEvent) []events.QuizGenerationEventType {
	types := make([]events.QuizGenerationEventType, 0, len(published))
	for _, e := range published {
		types = append(types, e.Type)
	}
	return types
}

func TestNewQuizGenerationTask_Validation(t *testing.T) {
	f := newTaskFixture(t)
	policy, err := generation.NewModelFallbackPolicy("a", "b", slog.Default())
	require.NoError(t, err)
	logger := slog.Default()

	tests := []struct {
		name string
		run  func() (*QuizGenerationTask, error)
		want error
	}{
		{"nil_service", func() (*QuizGenerationTask, error) {
			return NewQuizGenerationTask(f.quiz.ID, nil, f.reader, f.generator, policy, f.publisher, logger)
		}, ErrNilQuizService},
		{"nil_reader", func() (*QuizGenerationTask, error) {
			return NewQuizGenerationTask(f.quiz.ID, f.service, nil, f.generator, policy, f.publisher, logger)
		}, ErrNilObjectReader},
		{"nil_generator", func() (*QuizGenerationTask, error) {
			return NewQuizGenerationTask(f.quiz.ID, f.service, f.reader, nil, policy, f.publisher, logger)
		}, ErrNilGenerator},
		{"nil_policy", func() (*QuizGenerationTask, error) {
			return NewQuizGenerationTask(f.quiz.ID, f.service, f.reader, f.generator, nil, f.publisher, logger)
		}, ErrNilPolicy},
		{"nil_publisher", func() (*QuizGenerationTask, error) {
			return NewQuizGenerationTask(f.quiz.ID, f.service, f.reader, f.generator, policy, nil, logger)
		}, ErrNilPublisher},
		{"nil_logger", func() (*QuizGenerationTask, error) {
			return NewQuizGenerationTask(f.quiz.ID, f.service, f.reader, f.generator, policy, f.publisher, nil)
		}, ErrNilLogger},
		{"empty_quiz_id", func() (*QuizGenerationTask, error) {
			return NewQuizGenerationTask(uuid.Nil, f.service, f.reader, f.generator, policy, f.publisher, logger)
		}, ErrEmptyQuizID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.run()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExecute_Success(t *testing.T) {
	f := newTaskFixture(t)

	err := f.task.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, f.task.Status())

	// Pipeline effects
	assert.Equal(t, []string{"uploads/notes.pdf"}, f.reader.reads)
	assert.Equal(t, []string{"notes.pdf"}, f.generator.uploads)
	assert.Len(t, f.service.savedQuestions, 2)
	assert.Equal(t, 1, f.service.readyCalls)
	assert.Zero(t, f.service.failedCalls)

	// Event ordering: initial processing, one per question, then completed
	assert.Equal(t, []events.QuizGenerationEventType{
		events.EventTypeProcessing,
		events.EventTypeProcessing,
		events.EventTypeProcessing,
		events.EventTypeCompleted,
	}, eventTypes(f.publisher.published))

	first := f.publisher.published[0]
	assert.Zero(t, first.QuestionsGenerated)
	assert.Equal(t, 2, first.TotalQuestions)
	assert.Equal(t, f.quiz.UserID, first.UserID)
	assert.Equal(t, f.quiz.Slug, first.QuizSlug)

	second := f.publisher.published[1]
	assert.Equal(t, 1, second.QuestionsGenerated)
	require.NotNil(t, second.LastQuestion)
	assert.Equal(t, "stem", second.LastQuestion.Stem)

	// Provider files cleaned up after success
	assert.Equal(t, []string{"files/notes.pdf"}, f.generator.deletes)

	// Only the primary model was needed
	assert.Equal(t, []string{"primary-model"}, f.generator.models)
}

func TestExecute_LoadFailure(t *testing.T) {
	f := newTaskFixture(t)
	f.service.getErr = errors.New("connection refused")

	err := f.task.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, TaskStatusFailed, f.task.Status())

	// The failure event rides on the quiz returned by MarkQuizFailed, so
	// the owner is notified even though the load step never produced one.
	assert.Equal(t, 1, f.service.failedCalls)
	require.Len(t, f.publisher.published, 1)
	failed := f.publisher.published[0]
	assert.Equal(t, events.EventTypeFailed, failed.Type)
	assert.Equal(t, f.quiz.UserID, failed.UserID)
	assert.Equal(t, f.quiz.ID, failed.QuizID)
	assert.Equal(t, f.quiz.Slug, failed.QuizSlug)
	assert.Equal(t, failureMessageGeneric, failed.ErrorMessage)
}

func TestExecute_NoMaterials(t *testing.T) {
	f := newTaskFixture(t)
	f.service.materials = nil

	err := f.task.Execute(context.Background())
	assert.ErrorIs(t, err, ErrNoMaterials)
	assert.Equal(t, 1, f.service.failedCalls)
	assert.Equal(t, failureMessageGeneric, f.service.failedMessage)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.EventTypeFailed, f.publisher.published[0].Type)
}

func TestExecute_ObjectReadFailure(t *testing.T) {
	f := newTaskFixture(t)
	f.reader.err = errors.New("object not found")

	err := f.task.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, f.service.failedCalls)
	assert.Zero(t, f.service.readyCalls)
	assert.Nil(t, f.service.savedQuestions)
}

func TestExecute_UploadFailureCleansUpNothing(t *testing.T) {
	f := newTaskFixture(t)
	f.generator.uploadErr = errors.New("upload rejected")

	err := f.task.Execute(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.generator.deletes)
	assert.Equal(t, 1, f.service.failedCalls)
}

func TestExecute_QuotaOnBothModels(t *testing.T) {
	f := newTaskFixture(t)
	f.generator.generateErr = func(model string) error {
		return errors.New("429 resource exhausted")
	}

	err := f.task.Execute(context.Background())
	assert.ErrorIs(t, err, generation.ErrQuotaExceeded)

	// Both models were tried before giving up
	assert.Equal(t, []string{"primary-model", "fallback-model"}, f.generator.models)
	assert.Equal(t, failureMessageQuota, f.service.failedMessage)

	// Staged files still cleaned up on failure
	assert.Equal(t, []string{"files/notes.pdf"}, f.generator.deletes)
}

func TestExecute_QuotaOnPrimaryOnly(t *testing.T) {
	f := newTaskFixture(t)
	f.generator.generateErr = func(model string) error {
		if model == "primary-model" {
			return errors.New("quota exceeded for model")
		}
		return nil
	}

	err := f.task.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"primary-model", "fallback-model"}, f.generator.models)
	assert.Equal(t, 1, f.service.readyCalls)
}

func TestExecute_SaveFailure(t *testing.T) {
	f := newTaskFixture(t)
	f.service.saveErr = errors.New("deadlock detected")

	err := f.task.Execute(context.Background())
	require.Error(t, err)
	assert.Zero(t, f.service.readyCalls)
	assert.Equal(t, 1, f.service.failedCalls)
}

func TestExecute_MarkReadyFailure(t *testing.T) {
	f := newTaskFixture(t)
	f.service.readyErr = errors.New("connection lost")

	err := f.task.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, f.service.failedCalls)

	// No completed event when the status flip failed
	for _, e := range f.publisher.published {
		assert.NotEqual(t, events.EventTypeCompleted, e.Type)
	}
}

func TestExecute_FailureSkippedWhenNoLongerGenerating(t *testing.T) {
	f := newTaskFixture(t)
	f.service.getErr = errors.New("boom")
	f.service.failedSkipped = true

	err := f.task.Execute(context.Background())
	require.Error(t, err)

	// Transition reported as not applied: no failed event goes out
	assert.Empty(t, f.publisher.published)
}

func TestExecute_PublishFailuresDoNotAbortGeneration(t *testing.T) {
	f := newTaskFixture(t)
	f.publisher.err = errors.New("redis down")

	err := f.task.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, f.task.Status())
	assert.Equal(t, 1, f.service.readyCalls)
}

func TestExecute_CancelledContext(t *testing.T) {
	f := newTaskFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.task.Execute(ctx)
	require.Error(t, err)
	assert.Equal(t, TaskStatusFailed, f.task.Status())
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, failureMessageQuota,
		failureMessage(generation.ErrQuotaExceeded))
	assert.Equal(t, failureMessageBlocked,
		failureMessage(generation.ErrContentBlocked))
	assert.Equal(t, failureMessageGeneric,
		failureMessage(errors.New("anything else")))
}
