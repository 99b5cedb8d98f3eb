package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizard-app/quizard-api/internal/config"
	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/platform/redisevents"
	"github.com/quizard-app/quizard-api/internal/service"
	"github.com/quizard-app/quizard-api/internal/service/auth"
)

// stubQuizService implements service.QuizService for router tests.
type stubQuizService struct {
	createdQuiz *domain.Quiz
}

func (s *stubQuizService) CreateQuizAndEnqueueTask(
	ctx context.Context,
	userID uuid.UUID,
	title string,
	dist domain.Distribution,
	visibility domain.QuizVisibility,
	materials []service.SourceMaterialInput,
) (*domain.Quiz, error) {
	return s.createdQuiz, nil
}

func (s *stubQuizService) GetQuizForUser(
	ctx context.Context,
	quizID, userID uuid.UUID,
) (*domain.Quiz, []*domain.Question, error) {
	return nil, nil, service.ErrQuizNotFound
}

func (s *stubQuizService) GetQuizWithMaterials(
	ctx context.Context,
	quizID uuid.UUID,
) (*domain.Quiz, []*domain.SourceMaterial, error) {
	return nil, nil, service.ErrQuizNotFound
}

func (s *stubQuizService) SaveGeneratedQuestions(ctx context.Context, questions []*domain.Question) error {
	return nil
}

func (s *stubQuizService) MarkQuizReady(ctx context.Context, quizID uuid.UUID) error {
	return nil
}

func (s *stubQuizService) MarkQuizFailed(
	ctx context.Context,
	quizID uuid.UUID,
	message string,
) (*domain.Quiz, bool, error) {
	return nil, false, nil
}

func newTestApplication(t *testing.T) *application {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "info",
			SSEPingIntervalSeconds: 30,
		},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret-key-thats-long-enough-for-hmac",
			TokenLifetimeMinutes: 60,
		},
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))

	// The client never dials in these tests; the event stream route is only
	// exercised up to the auth middleware.
	bus := redisevents.NewEventBus(
		redis.NewClient(&redis.Options{Addr: "localhost:0"}),
		time.Hour,
		logger,
	)

	quiz, err := domain.NewQuiz(
		uuid.New(),
		"Cell Biology Review",
		domain.Distribution{DirectQuestion: 2},
		domain.QuizVisibilityPrivate,
	)
	require.NoError(t, err)

	return &application{
		config:      cfg,
		logger:      logger,
		jwtService:  jwtService,
		quizService: &stubQuizService{createdQuiz: quiz},
		eventBus:    bus,
	}
}

func TestRouter_HealthCheck(t *testing.T) {
	app := newTestApplication(t)
	router := app.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApplication(t)
	router := app.setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/quizzes"},
		{http.MethodGet, "/api/quizzes/" + uuid.New().String()},
		{http.MethodGet, "/api/quizzes/events"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestRouter_AuthenticatedQuizCreation(t *testing.T) {
	app := newTestApplication(t)
	router := app.setupRouter()

	userID := uuid.New()
	token, err := app.jwtService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]interface{}{
		"title": "Cell Biology Review",
		"distribution": map[string]int{
			"direct_question":        2,
			"two_statement_compound": 0,
			"contextual":             0,
		},
		"visibility": "private",
		"materials": []map[string]interface{}{
			{
				"object_key": "uploads/notes.pdf",
				"filename":   "notes.pdf",
				"mime_type":  "application/pdf",
				"size_bytes": 1024,
			},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.QuizStatusGenerating), resp["status"])
}
