// Package queue abstracts quote delivery over two backends: a RabbitMQ
// exchange/routing-key publish and an SQS queue-URL send. Exactly one
// variant is selected at startup and kept for the life of the process.
//
// Both variants retry delivery internally (3 attempts, exponential
// backoff) before surfacing a *PublishError; connection establishment for
// the broker variant uses the same shape as a separate policy.
package queue
