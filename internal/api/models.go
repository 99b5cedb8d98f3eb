package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/quizard-app/quizard-api/internal/domain"
)

// Common request/response structures

// DistributionRequest carries the per-type question counts for a new quiz.
// Zero is allowed per type; the domain rejects an all-zero distribution.
type DistributionRequest struct {
	DirectQuestion       int `json:"direct_question"        validate:"gte=0,lte=255"`
	TwoStatementCompound int `json:"two_statement_compound" validate:"gte=0,lte=255"`
	Contextual           int `json:"contextual"             validate:"gte=0,lte=255"`
}

// SourceMaterialRequest names one already-staged upload to generate from.
type SourceMaterialRequest struct {
	ObjectKey string `json:"object_key" validate:"required,min=1"`
	Filename  string `json:"filename"   validate:"required,min=1"`
	MimeType  string `json:"mime_type"  validate:"required,min=1"`
	SizeBytes int64  `json:"size_bytes" validate:"required,gt=0"`
}

// CreateQuizRequest defines the payload for the quiz creation endpoint.
type CreateQuizRequest struct {
	Title        string                  `json:"title"        validate:"required,min=1,max=200"`
	Distribution DistributionRequest     `json:"distribution" validate:"required"`
	Visibility   string                  `json:"visibility"   validate:"required,oneof=private public"`
	Materials    []SourceMaterialRequest `json:"materials"    validate:"required,min=1,max=10,dive"`
}

// AnswerOptionResponse represents one answer option of a question.
type AnswerOptionResponse struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Rationale string `json:"rationale,omitempty"`
}

// QuestionResponse represents the response data for a question.
type QuestionResponse struct {
	ID                 uuid.UUID              `json:"id"`
	OrderIndex         int                    `json:"order_index"`
	Type               string                 `json:"type"`
	Stem               string                 `json:"stem"`
	Options            []AnswerOptionResponse `json:"options"`
	CorrectExplanation string                 `json:"correct_explanation"`
	SourceQuote        string                 `json:"source_quote"`
	SourceReference    int                    `json:"source_reference"`
}

// QuizResponse represents the response data for a quiz. Questions is nil
// until the quiz reaches its ready status.
type QuizResponse struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	Title        string              `json:"title"`
	Slug         string              `json:"slug"`
	Distribution DistributionRequest `json:"distribution"`
	Visibility   string              `json:"visibility"`
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Questions    []QuestionResponse  `json:"questions,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toQuizResponse(quiz *domain.Quiz, questions []*domain.Question) QuizResponse {
	resp := QuizResponse{
		ID:     quiz.ID,
		UserID: quiz.UserID,
		Title:  quiz.Title,
		Slug:   quiz.Slug,
		Distribution: DistributionRequest{
			DirectQuestion:       quiz.Distribution.DirectQuestion,
			TwoStatementCompound: quiz.Distribution.TwoStatementCompound,
			Contextual:           quiz.Distribution.Contextual,
		},
		Visibility:   string(quiz.Visibility),
		Status:       string(quiz.Status),
		ErrorMessage: quiz.ErrorMessage,
		CreatedAt:    quiz.CreatedAt,
		UpdatedAt:    quiz.UpdatedAt,
	}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, toQuestionResponse(q))
	}
	return resp
}

func toQuestionResponse(q *domain.Question) QuestionResponse {
	options := make([]AnswerOptionResponse, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, AnswerOptionResponse{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
			Rationale: opt.Rationale,
		})
	}
	return QuestionResponse{
		ID:                 q.ID,
		OrderIndex:         q.OrderIndex,
		Type:               string(q.Type),
		Stem:               q.Stem,
		Options:            options,
		CorrectExplanation: q.CorrectExplanation,
		SourceQuote:        q.SourceQuote,
		SourceReference:    q.SourceReference,
	}
}
