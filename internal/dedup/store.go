// Package dedup records which logical events have already been notified.
// Absence of a key means "not yet notified"; entries expire passively and
// are never deleted explicitly.
package dedup

import (
	"context"
	"time"
)

const (
	NewsKeyPrefix  = "seen_news:"
	TradeKeyPrefix = "seen_trade:"

	NewsTTL  = 24 * time.Hour
	TradeTTL = 7 * 24 * time.Hour
)

// Store is the only durable state in the system. Has and Mark are separate
// calls: two overlapping runs may race check-then-mark, which at worst
// double-notifies one event. That is the accepted at-most-once-per-run
// semantic, not exactly-once.
type Store interface {
	Has(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
}
