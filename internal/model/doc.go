// Package model defines the normalized data types shared across the
// polling pipeline.
//
// Conventions:
//   - Timestamps are RFC 3339 strings in UTC, normalized at the adapter
//     boundary regardless of the vendor's native representation.
//   - Prices and OHLCV values are non-negative floats; volume is carried
//     in the data map as an integral value.
package model
