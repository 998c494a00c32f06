package middleware

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/schooltrack/attendapi/internal/auth"
	"github.com/schooltrack/attendapi/internal/services/guard"
)

// RequireAdmin rejects requests whose identity lacks the admin capability.
// Must run after NewAuthnMiddleware.
func RequireAdmin(guardSvc *guard.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.GetIdentityFromContext(r.Context())
			if !ok {
				writeGuardError(w, guard.ErrUnauthenticated)
				return
			}
			if err := guardSvc.RequireAdmin(r.Context(), identity); err != nil {
				writeGuardError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireClassAccess authorizes access to the class named by the given chi
// URL parameter and stores the resulting view level (full or aggregate) on
// the context. Must run after NewAuthnMiddleware.
func RequireClassAccess(guardSvc *guard.Service, classParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.GetIdentityFromContext(r.Context())
			if !ok {
				writeGuardError(w, guard.ErrUnauthenticated)
				return
			}

			className := chi.URLParam(r, classParam)
			if className == "" {
				writeEnvelope(w, http.StatusBadRequest, "Class name is required")
				return
			}

			access, err := guardSvc.RequireClassAccess(r.Context(), identity, className)
			if err != nil {
				writeGuardError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetClassAccessContext(r.Context(), access)))
		})
	}
}

func writeGuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, guard.ErrUnauthenticated):
		writeEnvelope(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, guard.ErrForbidden):
		writeEnvelope(w, http.StatusForbidden, "Access denied")
	default:
		log.Printf("authorization failure: %v", err)
		writeEnvelope(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
