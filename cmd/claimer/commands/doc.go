// Package commands defines the claimer CLI.
//
// A single root command resolves configuration (flags, POSTING_KEY, the
// accounts YAML), validates the authority context, builds the selected chain
// gateway and runs one claim pass over every account. The report goes to
// stdout; logs go to stderr.
//
// Exit status is 0 whenever the run completes, even if some accounts failed,
// and 1 when the run cannot start.
package commands
