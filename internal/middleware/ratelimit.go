package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"taskManager/internal/logger"
	"time"

	"go.uber.org/zap"
)

type clientWindow struct {
	count   int
	resetAt time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	resetAt   time.Time
}

// limiter counts requests per client in fixed windows. Finished windows are
// swept at most once per window so idle clients do not accumulate.
type limiter struct {
	mtx       sync.Mutex
	limit     int
	window    time.Duration
	clients   map[string]*clientWindow
	nextSweep time.Time
	now       func() time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	return &limiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientWindow),
		now:     time.Now,
	}
}

func (l *limiter) take(client string) verdict {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	if !now.Before(l.nextSweep) {
		l.sweep(now)
		l.nextSweep = now.Add(l.window)
	}

	cw, ok := l.clients[client]
	if !ok || !now.Before(cw.resetAt) {
		cw = &clientWindow{resetAt: now.Add(l.window)}
		l.clients[client] = cw
	}

	if cw.count >= l.limit {
		return verdict{resetAt: cw.resetAt}
	}
	cw.count++
	return verdict{allowed: true, remaining: l.limit - cw.count, resetAt: cw.resetAt}
}

// sweep must be called with mtx held.
func (l *limiter) sweep(now time.Time) {
	for client, cw := range l.clients {
		if !now.Before(cw.resetAt) {
			delete(l.clients, client)
		}
	}
}

func (l *limiter) tracked() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.clients)
}

func (l *limiter) handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		v := l.take(ip)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(v.resetAt.Unix(), 10))

		if v.allowed {
			next.ServeHTTP(w, r)
			return
		}

		requestID := GetRequestID(r.Context())
		logger.Warn("HTTP: Rate limit exceeded",
			zap.String("request_id", requestID),
			zap.String("client_ip", ip))

		retryAfter := int(v.resetAt.Sub(l.now()).Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":       "rate_limit_exceeded",
			"message":     "Too many requests. Try again later.",
			"retry_after": retryAfter,
			"request_id":  requestID,
		})
	})
}

// RateLimit allows rpm requests per client IP in a fixed one minute window.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	return newLimiter(rpm, time.Minute).handler
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
