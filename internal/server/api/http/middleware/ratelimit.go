package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	idleTimeout     = 30 * time.Minute
)

// LimitRecorder counts rejected requests per limiter.
type LimitRecorder interface {
	ObserveRateLimited(limiter string)
}

// ipLimiter holds a per-IP token bucket and the last time it was used.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP with a token bucket that refills
// limit tokens over window.
type RateLimiter struct {
	name     string        // Limiter label for logs and metrics
	message  string        // Error returned to throttled clients
	r        rate.Limit    // Refill rate
	b        int           // Bucket size
	recorder LimitRecorder // Rejection counter, may be nil
	now      func() time.Time

	mu       sync.Mutex
	limiters map[string]*ipLimiter
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a RateLimiter and starts its cleanup goroutine.
// Arguments:
//   - name: limiter label, e.g. "api" or "chat".
//   - limit: requests allowed per window; values below 1 become 1.
//   - window: time over which limit tokens are refilled.
//   - message: error text sent with the 429 response.
//   - recorder: optional rejection counter.
//
// Returns a pointer to a RateLimiter. Call Stop to release the goroutine.
func NewRateLimiter(name string, limit int, window time.Duration, message string, recorder LimitRecorder) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	l := &RateLimiter{
		name:     name,
		message:  message,
		r:        rate.Limit(float64(limit) / window.Seconds()),
		b:        limit,
		recorder: recorder,
		now:      time.Now,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// cleanup periodically drops idle clients until Stop is called.
func (l *RateLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stopCh:
			return
		}
	}
}

func (l *RateLimiter) evictIdle() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, c := range l.limiters {
		if now.Sub(c.lastSeen) > idleTimeout {
			delete(l.limiters, ip)
		}
	}
}

func (l *RateLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.limiters[ip]
	if !ok {
		c = &ipLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.limiters[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// Stop shuts down the cleanup goroutine. It is safe to call multiple times.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Handler rejects requests over the limit with 429, a Retry-After header and
// an {"error": message} body.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := l.now()
		ip := realIP(r)
		reservation := l.get(ip, now).ReserveN(now, 1)
		if d := reservation.DelayFrom(now); d > 0 {
			// The token goes back, the request is rejected.
			reservation.CancelAt(now)
			retryAfter := int(math.Ceil(d.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			logrus.WithFields(logrus.Fields{"limiter": l.name, "ip": ip}).Warn("Rate limit exceeded")
			if l.recorder != nil {
				l.recorder.ObserveRateLimited(l.name)
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			if err := json.NewEncoder(w).Encode(map[string]string{"error": l.message}); err != nil {
				logrus.WithError(err).Error("Failed to write rate limit response")
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

// realIP returns the host part of RemoteAddr. Forwarded headers are ignored;
// chi's RealIP middleware rewrites RemoteAddr when the proxy is trusted.
func realIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
