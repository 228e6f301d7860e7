// Package cli provides shared helpers for the vulcan command line:
// typed command errors with exit codes, signal-aware contexts, and
// output formatting for inspection commands.
package cli
