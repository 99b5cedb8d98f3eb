package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SourceMaterial-specific validation errors
var (
	// ErrSourceMaterialIDEmpty is returned when a source material ID is empty or nil.
	ErrSourceMaterialIDEmpty = errors.New("source material ID cannot be empty")

	// ErrSourceMaterialQuizIDEmpty is returned when a source material's quiz ID is empty or nil.
	ErrSourceMaterialQuizIDEmpty = errors.New("source material quiz ID cannot be empty")

	// ErrSourceMaterialObjectKeyEmpty is returned when the staged object key is empty.
	ErrSourceMaterialObjectKeyEmpty = errors.New("source material object key cannot be empty")

	// ErrSourceMaterialMimeTypeEmpty is returned when the mime type is empty.
	ErrSourceMaterialMimeTypeEmpty = errors.New("source material mime type cannot be empty")

	// ErrSourceMaterialInvalidSize is returned when the size is zero or negative.
	ErrSourceMaterialInvalidSize = errors.New("source material size must be positive")

	// ErrSourceMaterialInvalidReference is returned when the reference index is negative.
	ErrSourceMaterialInvalidReference = errors.New("source material reference index cannot be negative")
)

// SourceMaterial records one uploaded file a quiz was generated from. The
// file content itself lives in the object store under ObjectKey; the row only
// carries the reference. ReferenceIndex is the ordinal the generator uses to
// attribute questions back to a specific file. Rows are created in bulk once
// per generation run and never mutated.
type SourceMaterial struct {
	ID             uuid.UUID `json:"id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	ObjectKey      string    `json:"object_key"`
	Filename       string    `json:"filename"`
	MimeType       string    `json:"mime_type"`
	SizeBytes      int64     `json:"size_bytes"`
	ReferenceIndex int       `json:"reference_index"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewSourceMaterial creates a new SourceMaterial for the given quiz.
// Returns an error if validation fails.
func NewSourceMaterial(
	quizID uuid.UUID,
	objectKey, filename, mimeType string,
	sizeBytes int64,
	referenceIndex int,
) (*SourceMaterial, error) {
	material := &SourceMaterial{
		ID:             uuid.New(),
		QuizID:         quizID,
		ObjectKey:      objectKey,
		Filename:       filename,
		MimeType:       mimeType,
		SizeBytes:      sizeBytes,
		ReferenceIndex: referenceIndex,
		CreatedAt:      time.Now().UTC(),
	}

	if err := material.Validate(); err != nil {
		return nil, err
	}

	return material, nil
}

// Validate checks if the SourceMaterial has valid data.
// Returns an error if any field fails validation.
func (m *SourceMaterial) Validate() error {
	if m.ID == uuid.Nil {
		return ErrSourceMaterialIDEmpty
	}

	if m.QuizID == uuid.Nil {
		return ErrSourceMaterialQuizIDEmpty
	}

	if m.ObjectKey == "" {
		return ErrSourceMaterialObjectKeyEmpty
	}

	if m.MimeType == "" {
		return ErrSourceMaterialMimeTypeEmpty
	}

	if m.SizeBytes <= 0 {
		return ErrSourceMaterialInvalidSize
	}

	if m.ReferenceIndex < 0 {
		return ErrSourceMaterialInvalidReference
	}

	return nil
}
