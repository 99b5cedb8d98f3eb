// Package generation provides interfaces and policies for interacting with
// external AI/LLM services for question generation. It abstracts the details
// of LLM API integration (Gemini), allowing the application to generate quiz
// questions from uploaded documents without coupling to specific external
// services, and owns the model-fallback policy applied when the provider
// reports quota exhaustion.
package generation
