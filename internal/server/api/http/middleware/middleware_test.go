package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu       sync.Mutex
	limited  []string
	requests []string
}

func (f *fakeRecorder) ObserveRateLimited(limiter string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limited = append(f.limited, limiter)
}

func (f *fakeRecorder) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, method+" "+route+" "+http.StatusText(status))
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter(t *testing.T) {
	rec := &fakeRecorder{}
	l := NewRateLimiter("chat", 2, time.Minute, "Too many messages. Please slow down", rec)
	defer l.Stop()
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	h := l.Handler(ok)

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/message", nil)
		req.RemoteAddr = ip + ":5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)

	w := call("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Too many messages. Please slow down", body["error"])
	assert.Equal(t, []string{"chat"}, rec.limited)

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, call("10.0.0.2").Code)

	// A rejected request does not consume a token.
	clock = clock.Add(30 * time.Second)
	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1").Code)
}

func TestRateLimiterEvictIdle(t *testing.T) {
	l := NewRateLimiter("api", 100, 15*time.Minute, "Too many requests, please try again later", nil)
	defer l.Stop()
	clock := time.Now()
	l.now = func() time.Time { return clock }

	l.get("10.0.0.1", clock)
	l.get("10.0.0.2", clock.Add(idleTimeout))
	clock = clock.Add(idleTimeout + time.Second)
	l.evictIdle()

	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "10.0.0.2")
	l.Stop()
	l.Stop()
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", realIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "192.0.2.1", realIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", realIP(req))

	// chi's RealIP leaves no port behind.
	req.RemoteAddr = "198.51.100.7"
	assert.Equal(t, "198.51.100.7", realIP(req))
}

func TestRateLimiterIgnoresForwardedHeaders(t *testing.T) {
	rec := &fakeRecorder{}
	l := NewRateLimiter("chat", 2, time.Minute, "Too many messages. Please slow down", rec)
	defer l.Stop()
	h := l.Handler(ok)

	passed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/chat/message", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i))
		req.Header.Set("X-Real-IP", "10.1.0."+strconv.Itoa(i))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			passed++
		}
	}
	assert.Equal(t, 2, passed)
	assert.Len(t, rec.limited, 18)
	assert.Len(t, l.limiters, 1)
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	rec := &fakeRecorder{}
	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Get("/api/tickets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/", ok)

	for _, path := range []string{"/api/tickets/abc", "/", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, rec.requests, 3)
	assert.Equal(t, "GET /api/tickets/{id} Not Found", rec.requests[0])
	assert.Equal(t, "GET / OK", rec.requests[1])
	assert.Equal(t, "GET unmatched Not Found", rec.requests[2])
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, err := r.Body.Read(buf)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abcdefgh")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestLogrusLogPassesThrough(t *testing.T) {
	h := LogrusLog()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
