package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrNoSourceFiles is returned when a generation request carries no files.
	ErrNoSourceFiles = errors.New("generation request must include at least one source file")

	// ErrEmptyFileContent is returned when an upload is attempted with no bytes.
	ErrEmptyFileContent = errors.New("file content cannot be empty")
)
