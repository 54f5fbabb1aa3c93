// Package ratelimit provides fixed-window request limiting keyed by client.
package ratelimit

import "context"

// Limiter decides whether a request from key is within the limit. It is an
// injected capability so handlers stay agnostic of where counters live
// (per-process memory or a shared Redis).
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}
