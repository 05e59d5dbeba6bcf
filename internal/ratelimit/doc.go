// Package ratelimit implements token-bucket admission control for
// outbound API calls. One Limiter is shared per source adapter across
// every symbol polled through it.
package ratelimit
