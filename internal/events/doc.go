// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines two kinds of events. TaskRequestEvent is the in-process
// request that asks the background runner to start a task; it never leaves the
// process. QuizGenerationEvent is the user-facing progress event published on
// the per-user channel and mirrored into the recovery cache, ultimately
// delivered over the SSE stream.
//
// The primary components are:
//   - TaskRequestEvent + EventHandler + EventEmitter: in-process task plumbing
//   - QuizGenerationEvent: the closed processing/completed/failed union
//   - Publisher + Subscriber: the per-user generation event transport
package events
