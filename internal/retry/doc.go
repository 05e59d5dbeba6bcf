// Package retry provides a generic retry wrapper around fallible
// operations, parameterized by an explicit Policy value so call sites
// share one mechanism for both fixed-delay and exponential backoff.
package retry
