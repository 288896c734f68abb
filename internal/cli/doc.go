// Package cli runs single board operations for the boardcheck command line.
//
// BoardExecutor wraps a board API with a progress spinner and hands the
// result to a formatter (table, console, JSON or YAML). Network failures are
// classified into ConnectionError values so the user sees whether the API
// host, DNS, TLS or a timeout was the problem.
package cli
