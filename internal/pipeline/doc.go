// Package pipeline orchestrates the fixed eight-stage content-generation
// workflow: request, generate, parse, analyze, install, lint, persist,
// preview. The Manager tracks a four-state machine per stage, caches stage
// results for the lifetime of a session, reports synthetic progress while a
// stage's work is in flight, and notifies subscribers on every state change.
// Ordering, per-stage timeouts, and fail-fast semantics are delegated to the
// generic engine in internal/stage.
package pipeline
