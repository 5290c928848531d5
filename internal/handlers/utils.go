package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/jason-s-yu/stardeal/internal/auth"
)

const authCookie = "auth_token"

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// requestToken finds the caller's token in the auth cookie, a bearer header or,
// for websocket clients that cannot set headers, the token query parameter.
func requestToken(r *http.Request) string {
	if token := extractCookieToken(r.Header.Get("Cookie"), authCookie); token != "" {
		return token
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// authenticate resolves the caller or writes a 401.
func (s *RoomServer) authenticate(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	token := requestToken(r)
	if token == "" {
		http.Error(w, "missing auth_token", http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	id, err := s.Sessions.AuthenticateJWT(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorCode classifies an error for websocket error frames.
func errorCode(err error) string {
	switch {
	case errors.Is(err, action.ErrMissingParameter):
		return "missing_parameter"
	case errors.Is(err, action.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, action.ErrNoActiveAction):
		return "no_active_action"
	case errors.Is(err, action.ErrActionAlreadyActive):
		return "action_already_active"
	case errors.Is(err, action.ErrInvalidOperation):
		return "protocol_violation"
	}
	return "internal_error"
}

// httpStatus maps engine and room errors to an HTTP status.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, action.ErrMissingParameter), errors.Is(err, action.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, action.ErrInvalidOperation):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
