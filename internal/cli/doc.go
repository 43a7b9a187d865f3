// Package cli parses the stagecraft command line into an app.Config and owns
// process-level concerns: usage text, flag validation errors, and exit codes.
package cli
