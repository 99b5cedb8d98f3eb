// Package gemini provides implementations for the generation interface using Google's Gemini API.
package gemini
