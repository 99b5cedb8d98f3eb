// Package api contains the HTTP handlers, request/response models, and
// error mapping for the quiz API, including the SSE bridge that streams
// generation progress to clients.
package api
