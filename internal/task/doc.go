// Package task implements background processing for quiz generation. Tasks
// are created in response to events emitted by the service layer and run on
// an in-process worker pool; progress and outcomes reach clients through the
// event publisher rather than through task state.
package task
