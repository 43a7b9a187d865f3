// Package store persists workflow artifacts keyed by session identifier.
// Three backends implement the same ArtifactStore interface: an in-memory
// map (the default), redis with optional expiry, and a single-table sqlite
// database. The persist stage is the only writer; the pipeline does not
// assume anything about a backend beyond the interface.
package store
