// Package app is the composition root. It builds the logger, loads the
// workflow configuration, constructs the store, collaborator clients, and
// pipeline manager, and drives one workflow session end to end. Every
// collaborator is an explicitly constructed, explicitly passed instance with
// its lifecycle owned here; there are no package-level singletons anywhere
// in the codebase.
package app
