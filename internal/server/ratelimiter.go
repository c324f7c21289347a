package server

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter caps requests per remote address. It guards the login endpoint
// against credential stuffing.
type RateLimiter struct {
	requests map[string]int
	mutex    sync.Mutex
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string]int),
		limit:    limit,
		window:   window,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipAddress := r.RemoteAddr

		rl.mutex.Lock()
		count, exists := rl.requests[ipAddress]
		if !exists {
			rl.requests[ipAddress] = 1
			rl.mutex.Unlock()
			go rl.resetCount(ipAddress)
			next.ServeHTTP(w, r)
			return
		}

		if count >= rl.limit {
			rl.mutex.Unlock()
			RespondWithError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		rl.requests[ipAddress] = count + 1
		rl.mutex.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) resetCount(ipAddress string) {
	time.Sleep(rl.window)
	rl.mutex.Lock()
	delete(rl.requests, ipAddress)
	rl.mutex.Unlock()
}
