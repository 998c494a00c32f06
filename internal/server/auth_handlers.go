package server

import (
	"net/http"
	"time"

	"github.com/schooltrack/attendapi/internal/auth"
	appmiddleware "github.com/schooltrack/attendapi/internal/middleware"
	"github.com/schooltrack/attendapi/internal/services/guard"
	"github.com/schooltrack/attendapi/internal/services/roster"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID            int64   `json:"id"`
	Username      string  `json:"username"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	Token         string  `json:"token"`
	ExpiresAt     string  `json:"expires_at"`
	AssignedClass *string `json:"assigned_class,omitempty"`
}

// HandleLogin issues a session for valid credentials. The token is returned
// in the body for header clients and set as a cookie for browser clients.
func HandleLogin(guardSvc *guard.Service, rosterSvc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		teacher, token, expiresAt, err := guardSvc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		resp := loginResponse{
			ID:        teacher.ID,
			Username:  teacher.Username,
			Name:      teacher.Name,
			Email:     teacher.Email,
			Role:      string(teacher.Role),
			Token:     token,
			ExpiresAt: expiresAt.Format(time.RFC3339),
		}
		if ct, err := rosterSvc.GetCTAssignment(r.Context(), teacher.ID); err == nil && ct != nil {
			resp.AssignedClass = &ct.ClassName
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookieName,
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		respondSuccess(w, http.StatusOK, "Login successful", resp)
	}
}

// HandleLogout drops the caller's session and clears the cookie.
func HandleLogout(guardSvc *guard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := guardSvc.Logout(r.Context(), appmiddleware.SessionToken(r)); err != nil {
			respondServiceError(w, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		respondSuccess(w, http.StatusOK, "Logged out", nil)
	}
}

type meResponse struct {
	ID            int64   `json:"id"`
	Username      string  `json:"username"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	AssignedClass *string `json:"assigned_class,omitempty"`
}

// HandleMe returns the authenticated account, including the class they are
// class teacher of, if any.
func HandleMe(rosterSvc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.GetIdentityFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		resp := meResponse{
			ID:       identity.ID,
			Username: identity.Username,
			Name:     identity.Name,
			Email:    identity.Email,
			Role:     string(identity.Role),
		}
		if ct, err := rosterSvc.GetCTAssignment(r.Context(), identity.ID); err == nil && ct != nil {
			resp.AssignedClass = &ct.ClassName
		}
		respondSuccess(w, http.StatusOK, "", resp)
	}
}
