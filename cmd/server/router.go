package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quizard-app/quizard-api/internal/api"
	apiMiddleware "github.com/quizard-app/quizard-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	quizHandler := api.NewQuizHandler(app.quizService)
	eventsHandler := api.NewEventsHandler(
		app.eventBus,
		time.Duration(app.config.Server.SSEPingIntervalSeconds)*time.Second,
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/quizzes", quizHandler.CreateQuiz)
			r.Get("/quizzes/events", eventsHandler.StreamEvents)
			r.Get("/quizzes/{id}", quizHandler.GetQuiz)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
