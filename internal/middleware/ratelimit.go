// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RateLimiter throttles sign-in attempts (password and second factor) per
// client address over a sliding window.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	attempts map[string][]time.Time // ascending

	done chan struct{}
	stop sync.Once
}

// NewRateLimiter allows limit attempts per window and sweeps idle clients
// in the background until Stop is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
		done:     make(chan struct{}),
	}
	go rl.sweepEvery(max(window, time.Minute))
	return rl
}

// Stop ends the background sweep. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stop.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// reserve records an attempt for key. Over the limit, nothing is recorded
// and wait is the time until the oldest attempt leaves the window.
func (rl *RateLimiter) reserve(key string) (ok bool, wait time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := trimBefore(rl.attempts[key], now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.attempts[key] = recent
		return false, recent[0].Add(rl.window).Sub(now)
	}
	rl.attempts[key] = append(recent, now)
	return true, 0
}

// sweep forgets clients whose attempts have all left the window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, ts := range rl.attempts {
		if recent := trimBefore(ts, cutoff); len(recent) > 0 {
			rl.attempts[key] = recent
		} else {
			delete(rl.attempts, key)
		}
	}
}

// trimBefore drops timestamps at or before cutoff.
func trimBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// Middleware rejects over-limit clients with a JSON 429 and a Retry-After
// that says exactly when the next attempt will be accepted.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		ok, wait := rl.reserve(client)
		if !ok {
			secs := max(1, int(math.Ceil(wait.Seconds())))
			slog.Warn("sign-in throttled",
				"client", client,
				"path", r.URL.Path,
				"retry_after", secs,
				"request_id", chimw.GetReqID(r.Context()),
			)
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "Too many attempts, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr is the host part of RemoteAddr. The router runs chi's RealIP
// first, so proxied requests already carry the client address there.
func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
