package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"movie-rental-backend/internal/config"
	"movie-rental-backend/internal/logger"
	"movie-rental-backend/internal/security"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

const authTokenHeader = "x-auth-token"

type contextKey string

const claimsKey contextKey = "claims"

// ClaimsFromContext returns the caller's verified token claims, if any.
func ClaimsFromContext(ctx context.Context) (*security.UserClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*security.UserClaims)
	return claims, ok
}

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Handler enforces the security level configured for the matched route name.
func (a *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		if config.GetSecurityLevel(name) == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "access denied: no token provided")
			return
		}
		claims, err := a.tokenManager.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "access denied: "+err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func extractToken(r *http.Request) string {
	if token := r.Header.Get(authTokenHeader); token != "" {
		return token
	}
	token := r.Header.Get("Authorization")
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		return token[7:]
	}
	return ""
}

// RateLimit answers 429 once the process-wide token bucket is empty.
func RateLimit(rps float64, burst int) mux.MiddlewareFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
