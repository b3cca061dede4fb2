package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ouyangvase/task-sync-pilot-sub000/utils"
)

// IPRateLimiter is a fixed-window in-memory limiter keyed by client IP.
// Used on the login endpoint to slow credential stuffing.
type IPRateLimiter struct {
	mu       sync.Mutex
	counts   map[string]int
	window   time.Duration
	limit    int
	windowAt time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		counts:   make(map[string]int),
		window:   window,
		limit:    limit,
		windowAt: time.Now(),
	}
}

func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if now.Sub(l.windowAt) >= l.window {
		l.counts = make(map[string]int)
		l.windowAt = now
	}
	l.counts[ip]++
	return l.counts[ip] <= l.limit
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{Success: false, Message: "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client IP, preferring the first X-Forwarded-For
// entry when present.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
