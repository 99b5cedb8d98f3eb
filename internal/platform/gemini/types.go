package gemini

import "google.golang.org/genai"

// promptData represents the data passed to the prompt template
type promptData struct {
	DirectQuestionCount       int
	TwoStatementCompoundCount int
	ContextualCount           int
	TotalQuestions            int
	FileCount                 int
}

// questionSchema represents a single question in the API response
type questionSchema struct {
	// OrderIndex is the question's position in the quiz, starting at zero
	OrderIndex int `json:"order_index"`

	// Type is one of direct_question, two_statement_compound or contextual
	Type string `json:"type"`

	// Stem is the question text shown to the learner
	Stem string `json:"stem"`

	// Options are the four answer options, exactly one marked correct
	Options []optionSchema `json:"options"`

	// CorrectExplanation explains why the correct option is right
	CorrectExplanation string `json:"correct_explanation"`

	// SourceQuote is the passage the question was derived from
	SourceQuote string `json:"source_quote,omitempty"`

	// SourceReference is the reference index of the file the quote came from
	SourceReference int `json:"source_reference"`
}

// optionSchema represents a single answer option in the API response
type optionSchema struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Rationale string `json:"rationale,omitempty"`
}

// responseSchema is the structured output schema sent with every generation
// request. It constrains the model to emit a JSON array of question objects
// so the stream can be parsed incrementally without prose cleanup.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"order_index": {Type: genai.TypeInteger},
				"type": {
					Type: genai.TypeString,
					Enum: []string{"direct_question", "two_statement_compound", "contextual"},
				},
				"stem": {Type: genai.TypeString},
				"options": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"text":       {Type: genai.TypeString},
							"is_correct": {Type: genai.TypeBoolean},
							"rationale":  {Type: genai.TypeString},
						},
						Required: []string{"text", "is_correct"},
					},
				},
				"correct_explanation": {Type: genai.TypeString},
				"source_quote":        {Type: genai.TypeString},
				"source_reference":    {Type: genai.TypeInteger},
			},
			Required: []string{"order_index", "type", "stem", "options", "correct_explanation", "source_reference"},
		},
	}
}
