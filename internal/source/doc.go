// Package source implements the vendor adapters for the upstream
// market-data APIs and the registry that selects one by configuration
// string.
//
// Each adapter owns the vendor's URL shape, auth scheme and raw-to-Quote
// transform. Rate limiting, retries, validation and delivery all live
// outside the adapter, in internal/poller, so failure behavior is uniform
// regardless of vendor.
package source
