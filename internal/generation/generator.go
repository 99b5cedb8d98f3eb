package generation

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizard-app/quizard-api/internal/domain"
)

// ProviderFile is a handle to a document uploaded to the AI provider's file
// API. Handles are created before generation and deleted best-effort after
// it, so the provider does not accumulate staged copies of user uploads.
type ProviderFile struct {
	// Name is the provider-side resource name used for deletion.
	Name string

	// URI is the reference embedded in generation requests.
	URI string

	// MimeType is the declared content type of the uploaded bytes.
	MimeType string

	// ReferenceIndex mirrors the SourceMaterial ordinal so generated
	// questions can be attributed back to the file they came from.
	ReferenceIndex int
}

// Progress is the partial-result notification passed to ProgressFunc as the
// provider streams generated questions.
type Progress struct {
	// QuestionsGenerated is the running count of fully parsed questions.
	QuestionsGenerated int

	// LastQuestion is the most recently parsed question.
	LastQuestion *domain.Question
}

// ProgressFunc receives streaming progress. Implementations must not assume
// any particular cadence; the generator forwards provider chunks as they
// arrive without batching or rate-limiting.
type ProgressFunc func(Progress)

// Request describes one generation run.
type Request struct {
	QuizID       uuid.UUID
	UserID       uuid.UUID
	Distribution domain.Distribution
	Files        []ProviderFile
}

// Generator defines the interface for generating quiz questions from uploaded
// documents. This interface serves as a boundary between the application core
// and external AI/LLM services.
type Generator interface {
	// UploadFile stages file content with the provider's file API and returns
	// a handle usable in generation requests.
	UploadFile(ctx context.Context, filename, mimeType string, content []byte, referenceIndex int) (ProviderFile, error)

	// GenerateQuestions runs structured generation with the given model,
	// streaming partial results through onProgress (which may be nil) and
	// returning the complete, validated question list in generation order.
	GenerateQuestions(ctx context.Context, model string, req Request, onProgress ProgressFunc) ([]*domain.Question, error)

	// DeleteFile removes a previously uploaded provider file. Callers treat
	// failures as cleanup noise: logged, never escalated.
	DeleteFile(ctx context.Context, file ProviderFile) error
}
