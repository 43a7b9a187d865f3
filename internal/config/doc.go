// Package config loads and validates workflow HCL files into the resolved
// Model the application runs against. Workflow attributes may reference
// process environment variables through the `env` object of the HCL eval
// context. An optional fsnotify watcher re-reads only the toggles block when
// the file changes, feeding the pipeline manager's mutable options.
package config
