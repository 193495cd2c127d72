/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: limiter.go
Description: Request rate limiting for the Glitch Gremlin SDK. Enforces a
per-actor cooldown between requests and a maximum request count per rolling
window against a shared counter store. Every attempt is charged against the
window counter before the checks run, so rejected callers still consume
budget (fail-closed, charge-the-attempt).
*/

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/glitchgremlin/glitch-sdk/pkg/governance"
	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/sirupsen/logrus"
)

// Config holds the rate limiting policy. Cooldown and the window cap are
// independent policies; either one failing rejects the request.
type Config struct {
	Cooldown    time.Duration // Minimum gap between requests per actor
	Window      time.Duration // Rolling window length
	MaxRequests int64         // Cap per window per actor
}

// DefaultConfig matches the deployed policy: at most 3 requests per minute
// with a 2 second cooldown between them
func DefaultConfig() Config {
	return Config{
		Cooldown:    2 * time.Second,
		Window:      time.Minute,
		MaxRequests: 3,
	}
}

// Limiter enforces the rate limiting policy over a shared counter store.
// Different actor keys never interfere with each other's counters.
type Limiter struct {
	config Config
	store  interfaces.CounterStore
	clock  interfaces.Clock
	log    *logrus.Logger
}

// NewLimiter creates a rate limiter backed by the given counter store
func NewLimiter(config Config, store interfaces.CounterStore, clock interfaces.Clock, log *logrus.Logger) *Limiter {
	if clock == nil {
		clock = interfaces.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Limiter{config: config, store: store, clock: clock, log: log}
}

// CheckAndRecord charges one attempt for the actor and rejects with
// ErrRateLimitExceeded when either the cooldown has not elapsed or the
// window counter is over the cap. The window TTL is (re)armed on every
// attempt; the last-request timestamp only advances on success.
func (l *Limiter) CheckAndRecord(ctx context.Context, actorKey string) error {
	windowKey := fmt.Sprintf("ratelimit:window:%s", actorKey)
	lastKey := fmt.Sprintf("ratelimit:last:%s", actorKey)

	count, err := l.store.Incr(ctx, windowKey)
	if err != nil {
		return governance.ErrConnectionFailed.WithCause(err)
	}
	if err := l.store.Expire(ctx, windowKey, l.config.Window); err != nil {
		return governance.ErrConnectionFailed.WithCause(err)
	}

	now := l.clock.Now()

	lastRaw, err := l.store.Get(ctx, lastKey)
	if err != nil {
		return governance.ErrConnectionFailed.WithCause(err)
	}
	if lastRaw != "" {
		last, parseErr := strconv.ParseInt(lastRaw, 10, 64)
		if parseErr == nil && now.Sub(time.Unix(0, last)) < l.config.Cooldown {
			l.log.WithFields(logrus.Fields{
				"actor":    actorKey,
				"cooldown": l.config.Cooldown,
			}).Warn("Request rejected by cooldown")
			return governance.ErrRateLimitExceeded.WithMessagef("cooldown of %s not elapsed", l.config.Cooldown)
		}
	}

	if count > l.config.MaxRequests {
		l.log.WithFields(logrus.Fields{
			"actor": actorKey,
			"count": count,
			"cap":   l.config.MaxRequests,
		}).Warn("Request rejected by window cap")
		return governance.ErrRateLimitExceeded.WithMessagef("%d requests in window, cap is %d", count, l.config.MaxRequests)
	}

	// The last-request key must outlive the cooldown it enforces, even when
	// the cooldown is configured longer than the window.
	lastTTL := l.config.Window
	if l.config.Cooldown > lastTTL {
		lastTTL = l.config.Cooldown
	}
	if err := l.store.Set(ctx, lastKey, strconv.FormatInt(now.UnixNano(), 10), lastTTL); err != nil {
		return governance.ErrConnectionFailed.WithCause(err)
	}
	return nil
}
