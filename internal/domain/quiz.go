package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// QuizStatus represents the generation state of a quiz.
type QuizStatus string

// Possible quiz status values. A quiz starts in QuizStatusGenerating and
// moves to exactly one of the terminal states.
const (
	QuizStatusGenerating QuizStatus = "generating"
	QuizStatusReady      QuizStatus = "ready"
	QuizStatusFailed     QuizStatus = "failed"
)

// QuizVisibility controls who can see a quiz besides its owner.
type QuizVisibility string

// Possible quiz visibility values.
const (
	QuizVisibilityPrivate QuizVisibility = "private"
	QuizVisibilityPublic  QuizVisibility = "public"
)

// Quiz-specific validation errors
var (
	// ErrQuizIDEmpty is returned when a quiz ID is empty or nil.
	ErrQuizIDEmpty = errors.New("quiz ID cannot be empty")

	// ErrQuizUserIDEmpty is returned when a quiz's user ID is empty or nil.
	ErrQuizUserIDEmpty = errors.New("quiz user ID cannot be empty")

	// ErrQuizTitleEmpty is returned when a quiz title is empty.
	ErrQuizTitleEmpty = errors.New("quiz title cannot be empty")

	// ErrQuizSlugEmpty is returned when a quiz slug is empty.
	ErrQuizSlugEmpty = errors.New("quiz slug cannot be empty")

	// ErrInvalidQuizStatus is returned when a quiz status is not valid.
	ErrInvalidQuizStatus = errors.New("invalid quiz status")

	// ErrInvalidQuizVisibility is returned when a quiz visibility is not valid.
	ErrInvalidQuizVisibility = errors.New("invalid quiz visibility")

	// ErrInvalidStatusTransition is returned when a quiz is asked to leave a
	// state other than generating. Terminal states are final.
	ErrInvalidStatusTransition = errors.New("invalid quiz status transition")
)

// Quiz represents a generated question set built from a user's uploaded
// documents. The quiz row is created before generation starts so the owner
// can see it in generating status immediately; the status only ever moves
// generating -> ready or generating -> failed.
type Quiz struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Distribution Distribution   `json:"distribution"`
	Visibility   QuizVisibility `json:"visibility"`
	Status       QuizStatus     `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewQuiz creates a new Quiz in generating status with a fresh ID and slug.
// Returns an error if validation fails, including an invalid distribution.
func NewQuiz(
	userID uuid.UUID,
	title string,
	dist Distribution,
	visibility QuizVisibility,
) (*Quiz, error) {
	quiz := &Quiz{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        title,
		Slug:         NewSlug(),
		Distribution: dist,
		Visibility:   visibility,
		Status:       QuizStatusGenerating,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	return quiz, nil
}

// Validate checks if the Quiz has valid data.
// Returns an error if any field fails validation.
func (q *Quiz) Validate() error {
	if q.ID == uuid.Nil {
		return ErrQuizIDEmpty
	}

	if q.UserID == uuid.Nil {
		return ErrQuizUserIDEmpty
	}

	if q.Title == "" {
		return ErrQuizTitleEmpty
	}

	if q.Slug == "" {
		return ErrQuizSlugEmpty
	}

	if err := q.Distribution.Validate(); err != nil {
		return err
	}

	if !isValidQuizVisibility(q.Visibility) {
		return ErrInvalidQuizVisibility
	}

	if !isValidQuizStatus(q.Status) {
		return ErrInvalidQuizStatus
	}

	return nil
}

// MarkReady transitions the quiz from generating to ready.
// Returns ErrInvalidStatusTransition if the quiz is not generating.
func (q *Quiz) MarkReady() error {
	if q.Status != QuizStatusGenerating {
		return ErrInvalidStatusTransition
	}

	q.Status = QuizStatusReady
	q.ErrorMessage = ""
	q.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed transitions the quiz from generating to failed, recording the
// user-facing error message. Returns ErrInvalidStatusTransition if the quiz
// is not generating.
func (q *Quiz) MarkFailed(message string) error {
	if q.Status != QuizStatusGenerating {
		return ErrInvalidStatusTransition
	}

	q.Status = QuizStatusFailed
	q.ErrorMessage = message
	q.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidQuizStatus checks if the given status is a valid QuizStatus.
func isValidQuizStatus(status QuizStatus) bool {
	switch status {
	case QuizStatusGenerating, QuizStatusReady, QuizStatusFailed:
		return true
	default:
		return false
	}
}

// isValidQuizVisibility checks if the given visibility is a valid QuizVisibility.
func isValidQuizVisibility(visibility QuizVisibility) bool {
	switch visibility {
	case QuizVisibilityPrivate, QuizVisibilityPublic:
		return true
	default:
		return false
	}
}
