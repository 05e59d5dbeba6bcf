// Package poller orchestrates the polling pipeline for one source
// adapter.
//
// Per symbol, each cycle runs: rate-limit, fetch with retry, transform,
// validate, enqueue. Every terminal path emits exactly one
// success-or-failure record; a symbol's failure never aborts the batch,
// and only process shutdown stops the loop.
package poller
