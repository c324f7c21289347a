package server

import (
	"log/slog"
	"net/http"
	"time"
)

// Router assembles the API routes. Balance-mutating and history routes sit
// behind the JWT middleware; login is rate limited per remote address.
func (s *Server) Router() http.Handler {
	loginLimiter := NewRateLimiter(5, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HealthHandler)
	mux.HandleFunc("POST /signup", s.SignupHandler)
	mux.Handle("POST /login", loginLimiter.Middleware(http.HandlerFunc(s.LoginHandler)))

	authed := func(h http.HandlerFunc) http.Handler {
		return s.auth.Middleware(h)
	}
	mux.Handle("GET /me", authed(s.MeHandler))
	mux.Handle("POST /deposit", authed(s.DepositHandler))
	mux.Handle("POST /withdraw", authed(s.WithdrawHandler))
	mux.Handle("POST /transfer", authed(s.TransferHandler))
	mux.Handle("GET /transactions", authed(s.TransactionsHandler))

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
