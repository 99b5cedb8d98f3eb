package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/quizard-app/quizard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizGenerationEventConstructors(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	quizID := uuid.New()

	preview := &QuestionPreview{
		OrderIndex: 2,
		Type:       domain.QuestionTypeDirectQuestion,
		Stem:       "Which vessel carries blood from the left ventricle?",
	}

	processing := NewProcessingEvent(userID, quizID, "abc123", 3, 10, preview)
	assert.Equal(t, EventTypeProcessing, processing.Type)
	assert.Equal(t, userID, processing.UserID)
	assert.Equal(t, 3, processing.QuestionsGenerated)
	assert.Equal(t, 10, processing.TotalQuestions)
	assert.Equal(t, preview, processing.LastQuestion)
	assert.False(t, processing.Timestamp.IsZero())
	require.NoError(t, processing.Validate())

	completed := NewCompletedEvent(userID, quizID, "abc123")
	assert.Equal(t, EventTypeCompleted, completed.Type)
	assert.Empty(t, completed.ErrorMessage)
	require.NoError(t, completed.Validate())

	failed := NewFailedEvent(userID, quizID, "abc123", "generation failed")
	assert.Equal(t, EventTypeFailed, failed.Type)
	assert.Equal(t, "generation failed", failed.ErrorMessage)
	require.NoError(t, failed.Validate())
}

func TestQuizGenerationEventValidate(t *testing.T) {
	t.Parallel()

	event := NewCompletedEvent(uuid.New(), uuid.New(), "abc123")

	missingUser := event
	missingUser.UserID = uuid.Nil
	assert.Error(t, missingUser.Validate())

	missingQuiz := event
	missingQuiz.QuizID = uuid.Nil
	assert.Error(t, missingQuiz.Validate())

	unknownType := event
	unknownType.Type = QuizGenerationEventType("paused")
	err := unknownType.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestQuizGenerationEventWireName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		eventType QuizGenerationEventType
		want      string
	}{
		{EventTypeProcessing, "quiz.generation.processing"},
		{EventTypeCompleted, "quiz.generation.completed"},
		{EventTypeFailed, "quiz.generation.failed"},
	}

	for _, tc := range cases {
		event := QuizGenerationEvent{Type: tc.eventType}
		name, err := event.WireName()
		require.NoError(t, err)
		assert.Equal(t, tc.want, name)
	}

	_, err := QuizGenerationEvent{Type: "paused"}.WireName()
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestQuizGenerationEventJSONRoundTrip(t *testing.T) {
	t.Parallel()

	event := NewProcessingEvent(uuid.New(), uuid.New(), "abc123", 1, 3, &QuestionPreview{
		Type: domain.QuestionTypeContextual,
		Stem: "A patient presents with...",
	})

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded QuizGenerationEvent
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, event.UserID, decoded.UserID)
	assert.Equal(t, event.QuizID, decoded.QuizID)
	assert.Equal(t, event.QuestionsGenerated, decoded.QuestionsGenerated)
	require.NotNil(t, decoded.LastQuestion)
	assert.Equal(t, event.LastQuestion.Stem, decoded.LastQuestion.Stem)
}

func TestInitialProcessingEventKeepsZeroCount(t *testing.T) {
	t.Parallel()

	// The first processing event has generated zero questions; clients need
	// the explicit 0 and the total to render initial progress.
	event := NewProcessingEvent(uuid.New(), uuid.New(), "abc123", 0, 5, nil)

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Contains(t, fields, "questions_generated")
	assert.Contains(t, fields, "total_questions")
	assert.JSONEq(t, "0", string(fields["questions_generated"]))
	assert.JSONEq(t, "5", string(fields["total_questions"]))
	assert.NotContains(t, fields, "last_question")
	assert.NotContains(t, fields, "error_message")
}
