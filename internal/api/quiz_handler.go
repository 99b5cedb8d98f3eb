package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quizard-app/quizard-api/internal/api/shared"
	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/service"
)

// QuizHandler handles quiz-related HTTP requests.
type QuizHandler struct {
	quizService service.QuizService
	validator   *validator.Validate
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService service.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		validator:   validator.New(),
	}
}

// CreateQuiz handles POST /api/quizzes requests. Creation is asynchronous:
// the quiz is returned immediately in its generating status and question
// generation proceeds in the background, reported over the event stream.
func (h *QuizHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	// Extract user ID from context (set by auth middleware)
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateQuizRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	dist := domain.Distribution{
		DirectQuestion:       req.Distribution.DirectQuestion,
		TwoStatementCompound: req.Distribution.TwoStatementCompound,
		Contextual:           req.Distribution.Contextual,
	}

	materials := make([]service.SourceMaterialInput, 0, len(req.Materials))
	for _, m := range req.Materials {
		materials = append(materials, service.SourceMaterialInput{
			ObjectKey: m.ObjectKey,
			Filename:  m.Filename,
			MimeType:  m.MimeType,
			SizeBytes: m.SizeBytes,
		})
	}

	quiz, err := h.quizService.CreateQuizAndEnqueueTask(
		r.Context(),
		userID,
		req.Title,
		dist,
		domain.QuizVisibility(req.Visibility),
		materials,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	// 202 Accepted: the quiz exists but its questions are still being
	// generated.
	shared.RespondWithJSON(w, r, http.StatusAccepted, toQuizResponse(quiz, nil))
}

// GetQuiz handles GET /api/quizzes/{id} requests. Private quizzes are only
// visible to their owner; questions are included once the quiz is ready.
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid quiz ID")
		return
	}

	quiz, questions, err := h.quizService.GetQuizForUser(r.Context(), quizID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toQuizResponse(quiz, questions))
}
