package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizard-app/quizard-api/internal/config"
	"github.com/quizard-app/quizard-api/internal/events"
	"github.com/quizard-app/quizard-api/internal/generation"
	"github.com/quizard-app/quizard-api/internal/platform/gcs"
	"github.com/quizard-app/quizard-api/internal/platform/gemini"
	"github.com/quizard-app/quizard-api/internal/platform/postgres"
	"github.com/quizard-app/quizard-api/internal/platform/redisevents"
	"github.com/quizard-app/quizard-api/internal/service"
	"github.com/quizard-app/quizard-api/internal/service/auth"
	"github.com/quizard-app/quizard-api/internal/store"
	"github.com/quizard-app/quizard-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	quizStore     store.QuizStore
	materialStore store.SourceMaterialStore
	questionStore store.QuestionStore

	// Service interfaces
	jwtService  auth.JWTService
	quizService service.QuizService

	// Generation pipeline
	generator generation.Generator
	policy    *generation.ModelFallbackPolicy

	// Object storage for staged uploads
	bucketReader *gcs.BucketReader

	// Event system
	redisClient  *redis.Client
	eventBus     *redisevents.EventBus
	eventEmitter *events.TaskRequestEmitter

	// Task handling
	taskRunner *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. Construction order follows the dependency graph: platform
// clients first, then stores, then services, then the task pipeline.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.quizStore = postgres.NewPostgresQuizStore(db, logger)
	app.materialStore = postgres.NewPostgresSourceMaterialStore(db, logger)
	app.questionStore = postgres.NewPostgresQuestionStore(db, logger)

	app.redisClient, err = redisevents.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.eventBus = redisevents.NewEventBus(
		app.redisClient,
		time.Duration(cfg.Redis.EventTTLSeconds)*time.Second,
		logger,
	)

	app.bucketReader, err = gcs.NewBucketReader(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bucket reader: %w", err)
	}

	app.generator, err = gemini.NewGeminiGenerator(
		ctx,
		logger.With("component", "llm_generator"),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized successfully",
		"model", cfg.LLM.ModelName,
		"fallback_model", cfg.LLM.FallbackModelName)

	app.policy, err = generation.NewModelFallbackPolicy(
		cfg.LLM.ModelName,
		cfg.LLM.FallbackModelName,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback policy: %w", err)
	}

	app.eventEmitter = events.NewTaskRequestEmitter(logger)

	app.quizService, err = service.NewQuizService(
		db,
		app.quizStore,
		app.materialStore,
		app.questionStore,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz service: %w", err)
	}

	app.taskRunner = task.NewTaskRunner(task.DefaultTaskRunnerConfig(), logger)
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	taskFactory := task.NewQuizGenerationTaskFactory(
		app.quizService,
		app.bucketReader,
		app.generator,
		app.policy,
		app.eventBus,
		logger,
	)

	taskFactoryHandler := task.NewTaskFactoryEventHandler(
		taskFactory,
		app.taskRunner,
		logger,
	)

	// The factory handler depends on the service that emits, so it is bound
	// here rather than passed to the emitter's constructor.
	app.eventEmitter.Bind(taskFactoryHandler)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.bucketReader != nil {
		if err := app.bucketReader.Close(); err != nil {
			app.logger.Error("Error closing bucket reader", "error", err)
		}
	}

	if app.eventBus != nil {
		if err := app.eventBus.Close(); err != nil {
			app.logger.Error("Error closing event bus", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
