// Package services holds thin clients for the workflow's external
// collaborators: the text-generation provider, the sandboxed execution
// service, and the server-side renderer. Each client is a plain
// request/response wrapper with no state machine of its own; failures
// propagate to the stage that invoked them.
package services
