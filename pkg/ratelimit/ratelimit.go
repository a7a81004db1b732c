package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter provides admission control keyed by a client identifier
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter implements sliding window rate limiting. It is an
// explicit component instance owned by the DI container, not a package
// singleton, and is safe for concurrent use.
type SlidingWindowLimiter struct {
	mu         sync.RWMutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration

	stopCleanup chan struct{}
}

type window struct {
	requests []time.Time
	evicted  bool
	mu       sync.Mutex
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
// Keys with no admissions for a full window are evicted periodically so
// the table does not grow without bound in a long-running process.
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		windows:     make(map[string]*window),
		limit:       limit,
		windowSize:  windowSize,
		stopCleanup: make(chan struct{}),
	}

	go l.cleanup()

	return l
}

// Allow checks if a request is allowed. The new timestamp is recorded only
// on admission, so rejected attempts do not extend the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	for {
		l.mu.Lock()
		w, exists := l.windows[key]
		if !exists {
			w = &window{requests: make([]time.Time, 0, l.limit)}
			l.windows[key] = w
		}
		l.mu.Unlock()

		w.mu.Lock()
		if w.evicted {
			// The eviction sweep removed this window between the map
			// fetch and the lock. Recording here would orphan the
			// admission, so start over with a live window.
			w.mu.Unlock()
			continue
		}

		now := time.Now()
		windowStart := now.Add(-l.windowSize)

		// Remove old requests outside the window
		valid := w.requests[:0]
		for _, reqTime := range w.requests {
			if reqTime.After(windowStart) {
				valid = append(valid, reqTime)
			}
		}
		w.requests = valid

		if len(w.requests) >= l.limit {
			w.mu.Unlock()
			return false, nil
		}

		w.requests = append(w.requests, now)
		w.mu.Unlock()
		return true, nil
	}
}

// Reset clears the rate limit state for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
	return nil
}

// Stop terminates the background eviction loop
func (l *SlidingWindowLimiter) Stop() {
	close(l.stopCleanup)
}

// cleanup evicts keys whose newest entry has aged out of the window
func (l *SlidingWindowLimiter) cleanup() {
	interval := l.windowSize
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCleanup:
			return
		case <-ticker.C:
			l.evictIdle(time.Now().Add(-l.windowSize))
		}
	}
}

// evictIdle removes keys whose newest entry is at or before cutoff.
// Evicted windows are marked under their own lock so a concurrent
// Allow that already fetched one retries instead of recording into it.
func (l *SlidingWindowLimiter) evictIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		w.mu.Lock()
		idle := len(w.requests) == 0 || !w.requests[len(w.requests)-1].After(cutoff)
		if idle {
			w.evicted = true
			delete(l.windows, key)
		}
		w.mu.Unlock()
	}
}
