package middleware

import (
	"net/http"

	"github.com/schooltrack/attendapi/internal/auth"
	"github.com/schooltrack/attendapi/internal/services/guard"
)

// SessionToken extracts the session token from the request: the session
// cookie for browser clients, or the X-Session-Id header for API clients.
// Returns "" when neither is present.
func SessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get(auth.SessionHeaderName)
}

// NewAuthnMiddleware resolves the session token to an identity and stores it
// on the request context. Requests without a valid session are rejected.
func NewAuthnMiddleware(guardSvc *guard.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := guardSvc.Authenticate(r.Context(), SessionToken(r))
			if err != nil {
				writeGuardError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetIdentityContext(r.Context(), identity)))
		})
	}
}
