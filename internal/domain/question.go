package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// QuestionType identifies the style of a generated question.
type QuestionType string

// The closed set of question types. The packed distribution counts map to
// these in order: direct question, two-statement compound, contextual.
const (
	QuestionTypeDirectQuestion       QuestionType = "direct_question"
	QuestionTypeTwoStatementCompound QuestionType = "two_statement_compound"
	QuestionTypeContextual           QuestionType = "contextual"
)

// OptionsPerQuestion is the fixed number of answer options every generated
// question carries: one correct, three distractors.
const OptionsPerQuestion = 4

// Question-specific validation errors
var (
	// ErrQuestionIDEmpty is returned when a question ID is empty or nil.
	ErrQuestionIDEmpty = errors.New("question ID cannot be empty")

	// ErrQuestionQuizIDEmpty is returned when a question's quiz ID is empty or nil.
	ErrQuestionQuizIDEmpty = errors.New("question quiz ID cannot be empty")

	// ErrQuestionStemEmpty is returned when a question stem is empty.
	ErrQuestionStemEmpty = errors.New("question stem cannot be empty")

	// ErrInvalidQuestionType is returned when a question type is not in the closed set.
	ErrInvalidQuestionType = errors.New("invalid question type")

	// ErrInvalidOptionCount is returned when a question does not have exactly four options.
	ErrInvalidOptionCount = errors.New("question must have exactly four options")

	// ErrInvalidCorrectOptionCount is returned when a question does not have exactly one correct option.
	ErrInvalidCorrectOptionCount = errors.New("question must have exactly one correct option")

	// ErrOptionTextEmpty is returned when an answer option has no text.
	ErrOptionTextEmpty = errors.New("answer option text cannot be empty")

	// ErrOptionRationaleEmpty is returned when an incorrect option lacks a rationale.
	ErrOptionRationaleEmpty = errors.New("incorrect answer options require a rationale")

	// ErrQuestionInvalidOrder is returned when the order index is negative.
	ErrQuestionInvalidOrder = errors.New("question order index cannot be negative")

	// ErrQuestionInvalidReference is returned when the source reference index is negative.
	ErrQuestionInvalidReference = errors.New("question source reference cannot be negative")
)

// AnswerOption is one of the four choices attached to a question. Incorrect
// options carry a short rationale explaining why they are wrong.
type AnswerOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Rationale string `json:"rationale,omitempty"`
}

// Question is a single generated quiz item. Questions are created in bulk by
// the generation task after the provider call succeeds and are immutable
// afterwards. SourceReference is the ReferenceIndex of the SourceMaterial the
// question was grounded in, and SourceQuote is the verbatim passage.
type Question struct {
	ID                 uuid.UUID      `json:"id"`
	QuizID             uuid.UUID      `json:"quiz_id"`
	OrderIndex         int            `json:"order_index"`
	Type               QuestionType   `json:"type"`
	Stem               string         `json:"stem"`
	Options            []AnswerOption `json:"options"`
	CorrectExplanation string         `json:"correct_explanation"`
	SourceQuote        string         `json:"source_quote"`
	SourceReference    int            `json:"source_reference"`
	CreatedAt          time.Time      `json:"created_at"`
}

// NewQuestion creates a new Question for the given quiz.
// Returns an error if validation fails.
func NewQuestion(
	quizID uuid.UUID,
	orderIndex int,
	questionType QuestionType,
	stem string,
	options []AnswerOption,
	correctExplanation string,
	sourceQuote string,
	sourceReference int,
) (*Question, error) {
	question := &Question{
		ID:                 uuid.New(),
		QuizID:             quizID,
		OrderIndex:         orderIndex,
		Type:               questionType,
		Stem:               stem,
		Options:            options,
		CorrectExplanation: correctExplanation,
		SourceQuote:        sourceQuote,
		SourceReference:    sourceReference,
		CreatedAt:          time.Now().UTC(),
	}

	if err := question.Validate(); err != nil {
		return nil, err
	}

	return question, nil
}

// Validate checks if the Question has valid data.
// Returns an error if any field fails validation.
func (q *Question) Validate() error {
	if q.ID == uuid.Nil {
		return ErrQuestionIDEmpty
	}

	if q.QuizID == uuid.Nil {
		return ErrQuestionQuizIDEmpty
	}

	if q.OrderIndex < 0 {
		return ErrQuestionInvalidOrder
	}

	if !isValidQuestionType(q.Type) {
		return ErrInvalidQuestionType
	}

	if q.Stem == "" {
		return ErrQuestionStemEmpty
	}

	if len(q.Options) != OptionsPerQuestion {
		return ErrInvalidOptionCount
	}

	correct := 0
	for _, option := range q.Options {
		if option.Text == "" {
			return ErrOptionTextEmpty
		}
		if option.IsCorrect {
			correct++
		} else if option.Rationale == "" {
			return ErrOptionRationaleEmpty
		}
	}
	if correct != 1 {
		return ErrInvalidCorrectOptionCount
	}

	if q.SourceReference < 0 {
		return ErrQuestionInvalidReference
	}

	return nil
}

// isValidQuestionType checks if the given type is in the closed question-type set.
func isValidQuestionType(questionType QuestionType) bool {
	switch questionType {
	case QuestionTypeDirectQuestion, QuestionTypeTwoStatementCompound, QuestionTypeContextual:
		return true
	default:
		return false
	}
}
