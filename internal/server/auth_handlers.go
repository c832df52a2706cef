package server

import (
	"encoding/json"
	"net/http"
)

// handleLogin authenticates a user and sets the session cookie.
func (ms *MediaServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if !ms.authService.IsEnabled() {
		ms.respondWithError(w, r, http.StatusBadRequest, "Authentication is disabled", nil)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	session, err := ms.authService.Login(req.Username, req.Password)
	if err != nil {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	ms.authService.GetSessionManager().SetSessionCookie(w, session)

	ms.logger.WithField("username", req.Username).Info("User logged in")

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success":  true,
		"username": session.Username,
	})
}

// handleLogout invalidates the current session and clears the cookie.
func (ms *MediaServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if !ms.authService.IsEnabled() {
		ms.respondWithError(w, r, http.StatusBadRequest, "Authentication is disabled", nil)
		return
	}

	if session, ok := ms.authService.GetSessionManager().GetSessionFromRequest(r); ok {
		ms.authService.Logout(session.ID)
	}
	ms.authService.GetSessionManager().ClearSessionCookie(w)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{"success": true})
}

// handleRegister creates a new user account when registration is enabled.
func (ms *MediaServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if !ms.authService.IsRegistrationAllowed() {
		ms.respondWithError(w, r, http.StatusForbidden, "Registration is disabled", nil)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if err := ms.authService.Register(req.Username, req.Password); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ms.logger.WithField("username", req.Username).Info("User registered")

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success":  true,
		"username": req.Username,
	})
}

// handleCurrentUser reports the session state of the caller.
func (ms *MediaServer) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if !ms.authService.IsEnabled() {
		ms.respondJSON(w, map[string]interface{}{
			"authenticated": true,
			"authEnabled":   false,
		})
		return
	}

	session, ok := ms.authService.GetSessionManager().GetSessionFromRequest(r)
	if !ok {
		ms.respondJSON(w, map[string]interface{}{
			"authenticated": false,
			"authEnabled":   true,
		})
		return
	}

	response := map[string]interface{}{
		"authenticated": true,
		"authEnabled":   true,
		"username":      session.Username,
	}
	if user := ms.authService.GetUser(session.Username); user != nil {
		response["role"] = user.Role
	}
	ms.respondJSON(w, response)
}
