// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package transport

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientBucket is the token bucket of one client address.
type clientBucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// clientLimiter rate limits requests per client address. Buckets idle for
// longer than idle are swept on the next request after a sweep interval.
type clientLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

func newClientLimiter(perSecond float64, burst int, idle time.Duration) *clientLimiter {
	return &clientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

// reserve takes a token for client. When none is available it returns
// false and how long until one will be.
func (l *clientLimiter) reserve(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	b, ok := l.clients[client]
	if !ok {
		b = &clientBucket{tokens: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = b
	}
	b.lastSeen = now

	r := b.tokens.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep drops buckets idle since before now minus the idle period. The
// caller holds mu.
func (l *clientLimiter) sweep(now time.Time) {
	for client, b := range l.clients {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.clients, client)
		}
	}
	l.lastSweep = now
}

func (l *clientLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// middleware rejects requests over the client's rate with 429 and a
// Retry-After header.
func (l *clientLimiter) middleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		ok, wait := l.reserve(client)
		if !ok {
			if wait > 0 {
				c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(wait.Seconds())), 10))
			}
			logger.Warn("rate limited", "remote", client, "retry_after", wait)
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
