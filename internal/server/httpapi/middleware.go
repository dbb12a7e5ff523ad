package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
)

type ctxKey int

const ctxKeyClaims ctxKey = iota

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(ctxKeyClaims).(*auth.Claims)
	return c
}

// BearerAuth rejects requests without a valid access token and stores the
// verified claims in the request context.
func BearerAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondUnauthorized(w)
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				respondUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
		})
	}
}

// RequireRole must run after BearerAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFrom(r.Context())
			if claims == nil {
				respondUnauthorized(w)
				return
			}
			if !claims.HasRole(role) {
				respondMessage(w, http.StatusForbidden, false, "Forbidden.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// APIKey guards service-to-service endpoints with a shared key. An empty
// configured key rejects everything with 500.
func APIKey(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			provided := r.Header.Get(common.APIKeyHeaderName)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				w.WriteHeader(http.StatusUnauthorized)
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

// AccessLog logs one line per request and turns panics into 500 responses.
func AccessLog(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				if p := recover(); p != nil {
					logger.Error(r.Context(), "panic serving request", "panic", p, "path", r.URL.Path)
					respondMessage(rec, http.StatusInternalServerError, false, "An unexpected error occurred.")
				}
				logger.Info(r.Context(), "request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.status,
					"duration", time.Since(start),
				)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
