// Package fetch issues bounded-timeout HTTP GET requests against upstream
// market-data APIs and maps every failure to a distinct error kind:
//
//   - ErrEmptyURL: rejected before any I/O
//   - ErrTimeout: deadline exceeded
//   - StatusError: non-2xx response
//   - ErrUnexpectedContentType: response is not application/json
//   - ErrMalformedJSON: body fails to parse
//   - ErrEmptyResponse: body parses but carries no data
//
// Failures are returned uniformly so the retry wrapper in internal/retry
// can wrap Fetch without special-casing.
package fetch
