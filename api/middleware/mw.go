package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type contextKey string

const AccessTokenKey contextKey = "accessToken"
const RefreshTokenKey contextKey = "refreshToken"

// TokenMiddleware lifts the raw access and refresh credentials into the
// request context. It does not verify them; verification happens
// per-endpoint because different routes apply different authorization
// modes. The access token is taken from the named cookie or, failing
// that, a Bearer Authorization header.
func TokenMiddleware(accessCookie, refreshCookie string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				var access, refresh string

				if c, err := r.Cookie(accessCookie); err == nil {
					access = c.Value
				} else if header := r.Header.Get("Authorization"); header != "" {
					if token := strings.TrimPrefix(header, "Bearer "); token != header {
						access = token
					}
				}

				if c, err := r.Cookie(refreshCookie); err == nil {
					refresh = c.Value
				}

				ctx := context.WithValue(r.Context(), AccessTokenKey, access)
				ctx = context.WithValue(ctx, RefreshTokenKey, refresh)

				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}

// Tokens returns the raw credentials placed in the context by
// TokenMiddleware. Missing values come back as empty strings.
func Tokens(ctx context.Context) (access, refresh string) {
	access, _ = ctx.Value(AccessTokenKey).(string)
	refresh, _ = ctx.Value(RefreshTokenKey).(string)
	return access, refresh
}

// WithLogger adds a logger to the context and logs request information.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			logger := log.With().
				Str("host", r.Host).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("remote_addr", r.RemoteAddr).
				Time("timestamp", time.Now()).
				Logger()

			// Add the logger to the context
			ctx := logger.WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}
