package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/quizard-app/quizard-api/internal/config"
	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/quizard-app/quizard-api/internal/generation"
)

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to generate quiz questions from uploaded documents.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client
}

// Ensure GeminiGenerator implements generation.Generator interface
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new instance of GeminiGenerator with the
// provided dependencies. It validates the configuration, loads the prompt
// template from disk and initializes the Gemini client.
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	config config.LLMConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if config.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if config.PromptTemplatePath == "" {
		return nil, fmt.Errorf("%w: prompt template path cannot be empty", generation.ErrInvalidConfig)
	}

	templateContent, err := os.ReadFile(config.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
			generation.ErrInvalidConfig, config.PromptTemplatePath, err)
	}

	promptTemplate, err := template.New("quiz").Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		config:         config,
		promptTemplate: promptTemplate,
		client:         client,
	}, nil
}

// UploadFile implements generation.Generator.UploadFile
// It stages the file content with the Gemini Files API and returns a handle
// carrying the resource name for later deletion and the URI for generation.
func (g *GeminiGenerator) UploadFile(
	ctx context.Context,
	filename, mimeType string,
	content []byte,
	referenceIndex int,
) (generation.ProviderFile, error) {
	if len(content) == 0 {
		return generation.ProviderFile{}, ErrEmptyFileContent
	}

	file, err := g.client.Files.Upload(ctx, bytes.NewReader(content), &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: filename,
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to upload file to Gemini",
			"error", err,
			"filename", filename,
			"size_bytes", len(content))
		return generation.ProviderFile{}, fmt.Errorf("failed to upload file %q: %w", filename, err)
	}

	g.logger.DebugContext(ctx, "uploaded file to Gemini",
		"filename", filename,
		"file_name", file.Name,
		"reference_index", referenceIndex)

	return generation.ProviderFile{
		Name:           file.Name,
		URI:            file.URI,
		MimeType:       mimeType,
		ReferenceIndex: referenceIndex,
	}, nil
}

// DeleteFile implements generation.Generator.DeleteFile
// It removes a previously uploaded file from the Gemini Files API.
func (g *GeminiGenerator) DeleteFile(ctx context.Context, file generation.ProviderFile) error {
	if file.Name == "" {
		return errors.New("provider file name cannot be empty")
	}

	if _, err := g.client.Files.Delete(ctx, file.Name, nil); err != nil {
		return fmt.Errorf("failed to delete provider file %q: %w", file.Name, err)
	}
	return nil
}

// createPrompt renders the prompt template with the requested distribution.
func (g *GeminiGenerator) createPrompt(dist domain.Distribution, fileCount int) (string, error) {
	data := promptData{
		DirectQuestionCount:       dist.DirectQuestion,
		TwoStatementCompoundCount: dist.TwoStatementCompound,
		ContextualCount:           dist.Contextual,
		TotalQuestions:            dist.Total(),
		FileCount:                 fileCount,
	}

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return promptBuffer.String(), nil
}

// GenerateQuestions implements generation.Generator.GenerateQuestions
// It streams structured output from the given model, parses each question as
// soon as its JSON object completes, and reports it through onProgress. The
// returned slice holds the full validated question set in generation order.
func (g *GeminiGenerator) GenerateQuestions(
	ctx context.Context,
	model string,
	req generation.Request,
	onProgress generation.ProgressFunc,
) ([]*domain.Question, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if len(req.Files) == 0 {
		return nil, ErrNoSourceFiles
	}
	if err := req.Distribution.Validate(); err != nil {
		return nil, err
	}

	prompt, err := g.createPrompt(req.Distribution, len(req.Files))
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(req.Files)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, file := range req.Files {
		parts = append(parts, genai.NewPartFromURI(file.URI, file.MimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	generateConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	g.logger.InfoContext(ctx, "starting question generation",
		"model", model,
		"quiz_id", req.QuizID.String(),
		"total_questions", req.Distribution.Total(),
		"file_count", len(req.Files))

	var questions []*domain.Question
	scanner := &objectScanner{}

	for resp, err := range g.client.Models.GenerateContentStream(ctx, model, contents, generateConfig) {
		if err != nil {
			g.logger.ErrorContext(ctx, "Gemini stream error",
				"error", err,
				"model", model,
				"quiz_id", req.QuizID.String())
			return nil, fmt.Errorf("gemini generate content: %w", err)
		}

		if len(resp.Candidates) > 0 &&
			resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return nil, fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
		}

		for _, raw := range scanner.Feed(resp.Text()) {
			question, err := g.parseQuestion(raw, req.QuizID)
			if err != nil {
				return nil, err
			}
			questions = append(questions, question)

			if onProgress != nil {
				onProgress(generation.Progress{
					QuestionsGenerated: len(questions),
					LastQuestion:       question,
				})
			}
		}
	}

	if err := checkDistribution(questions, req.Distribution); err != nil {
		g.logger.ErrorContext(ctx, "generated questions do not match requested distribution",
			"error", err,
			"quiz_id", req.QuizID.String())
		return nil, err
	}

	g.logger.InfoContext(ctx, "question generation complete",
		"model", model,
		"quiz_id", req.QuizID.String(),
		"question_count", len(questions))
	return questions, nil
}

// parseQuestion converts one raw JSON object from the stream into a validated
// domain question.
func (g *GeminiGenerator) parseQuestion(raw []byte, quizID uuid.UUID) (*domain.Question, error) {
	var schema questionSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("%w: failed to parse question object: %v",
			generation.ErrInvalidResponse, err)
	}

	options := make([]domain.AnswerOption, 0, len(schema.Options))
	for _, opt := range schema.Options {
		options = append(options, domain.AnswerOption{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
			Rationale: opt.Rationale,
		})
	}

	question, err := domain.NewQuestion(
		quizID,
		schema.OrderIndex,
		domain.QuestionType(schema.Type),
		schema.Stem,
		options,
		schema.CorrectExplanation,
		schema.SourceQuote,
		schema.SourceReference,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	return question, nil
}

// checkDistribution verifies the generated set matches the requested counts
// per question type.
func checkDistribution(questions []*domain.Question, want domain.Distribution) error {
	var got domain.Distribution
	for _, q := range questions {
		switch q.Type {
		case domain.QuestionTypeDirectQuestion:
			got.DirectQuestion++
		case domain.QuestionTypeTwoStatementCompound:
			got.TwoStatementCompound++
		case domain.QuestionTypeContextual:
			got.Contextual++
		}
	}

	if got != want {
		return fmt.Errorf(
			"%w: distribution mismatch: requested %d/%d/%d, got %d/%d/%d",
			generation.ErrInvalidResponse,
			want.DirectQuestion, want.TwoStatementCompound, want.Contextual,
			got.DirectQuestion, got.TwoStatementCompound, got.Contextual,
		)
	}
	return nil
}
