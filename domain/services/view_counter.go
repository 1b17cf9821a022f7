package services

import (
	"context"
	"time"
)

// ViewCounterCache decides whether a read counts toward an article's views.
// A (article, client) pair is counted at most once per window.
type ViewCounterCache interface {
	ShouldCountView(ctx context.Context, articleKey, clientKey string, now time.Time) bool
	// Sweep drops entries older than the window.
	Sweep(now time.Time)
}
