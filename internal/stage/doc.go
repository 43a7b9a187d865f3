// Package stage is the execution layer of the workflow engine. It holds a
// registry of named stages, each with declared dependencies and a timeout,
// resolves a dependency-respecting execution order for a requested set of
// stages (rejecting cycles before anything runs), and executes the stages
// strictly one at a time, racing each stage's work against its timeout.
//
// Stages in this system wrap asynchronous I/O (model calls, sandbox requests,
// storage writes), so the engine deliberately does not fan out independent
// stages onto goroutines: sequential execution keeps the failure semantics
// trivial (fail-fast, nothing downstream starts after an error) at no
// meaningful throughput cost.
package stage
